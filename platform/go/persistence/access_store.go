package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	ClientsTable         = "clients"
	RolesTable           = "roles"
	PermissionsTable     = "permissions"
	RolePermissionsTable = "role_permissions"
	UsersTable           = "users"
)

// AccessUser is a user row joined with its role.
type AccessUser struct {
	UserID     uuid.UUID `db:"user_id" json:"userId"`
	Email      string    `db:"email" json:"email"`
	ClientID   uuid.UUID `db:"client_id" json:"clientId"`
	RoleID     uuid.UUID `db:"role_id" json:"roleId"`
	RoleName   string    `db:"role_name" json:"roleName"`
	RoleActive bool      `db:"role_active" json:"roleActive"`
	Active     bool      `db:"active" json:"active"`
}

var (
	// ErrUserNotFound indicates a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrRoleNotFound indicates a missing role record.
	ErrRoleNotFound = errors.New("role not found")
	// ErrPermissionNotFound indicates a missing permission record.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrAccessConflict indicates a uniqueness violation on clients, roles, permissions or users.
	ErrAccessConflict = errors.New("access record conflict")
)

// AccessStore exposes persistence helpers for clients, roles, permissions and users.
type AccessStore struct {
	db *SessionDB
}

// NewAccessStore returns a store instance; it assumes bootstrap already created the tables.
func NewAccessStore(db *SessionDB) (*AccessStore, error) {
	if db == nil {
		return nil, errors.New("session db is required")
	}
	return &AccessStore{db: db}, nil
}

// GetUser returns the user joined with its role.
func (s *AccessStore) GetUser(ctx context.Context, id uuid.UUID) (AccessUser, error) {
	var user AccessUser
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT u.user_id, u.email, u.client_id, r.role_id, r.name, r.active, u.active
            FROM %s u
            JOIN %s r ON r.role_id = u.role_id
            WHERE u.user_id = $1
        `, UsersTable, RolesTable), id)

		return row.Scan(&user.UserID, &user.Email, &user.ClientID, &user.RoleID, &user.RoleName, &user.RoleActive, &user.Active)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccessUser{}, ErrUserNotFound
		}
		return AccessUser{}, err
	}

	return user, nil
}

// ListUserPermissions returns the names of the active permissions granted to the user's active role.
func (s *AccessStore) ListUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	names := make([]string, 0)
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
            SELECT DISTINCT p.name
            FROM %s u
            JOIN %s r ON r.role_id = u.role_id AND r.active
            JOIN %s rp ON rp.role_id = r.role_id
            JOIN %s p ON p.permission_id = rp.permission_id AND p.active
            WHERE u.user_id = $1
            ORDER BY p.name
        `, UsersTable, RolesTable, RolePermissionsTable, PermissionsTable), userID)
		if err != nil {
			return fmt.Errorf("list user permissions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return fmt.Errorf("scan permission: %w", err)
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// CreateClient inserts a client and returns its identifier.
func (s *AccessStore) CreateClient(ctx context.Context, id uuid.UUID, name, code string) error {
	return s.insert(ctx, fmt.Sprintf(`INSERT INTO %s (client_id, name, code) VALUES ($1, $2, $3)`, ClientsTable),
		id, strings.TrimSpace(name), strings.TrimSpace(code))
}

// CreateRole inserts a role.
func (s *AccessStore) CreateRole(ctx context.Context, id uuid.UUID, name string) error {
	return s.insert(ctx, fmt.Sprintf(`INSERT INTO %s (role_id, name) VALUES ($1, $2)`, RolesTable),
		id, strings.TrimSpace(name))
}

// CreatePermission inserts a permission named "resource:action".
func (s *AccessStore) CreatePermission(ctx context.Context, id uuid.UUID, name string) error {
	return s.insert(ctx, fmt.Sprintf(`INSERT INTO %s (permission_id, name) VALUES ($1, $2)`, PermissionsTable),
		id, strings.TrimSpace(name))
}

// GrantPermission links a permission to a role; granting twice is a no-op.
func (s *AccessStore) GrantPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	return s.insert(ctx, fmt.Sprintf(`
        INSERT INTO %s (role_id, permission_id) VALUES ($1, $2)
        ON CONFLICT (role_id, permission_id) DO NOTHING
    `, RolePermissionsTable), roleID, permissionID)
}

// CreateUserParams captures the fields required to insert a user.
type CreateUserParams struct {
	UserID   uuid.UUID
	Email    string
	RoleID   uuid.UUID
	ClientID uuid.UUID
}

// CreateUser inserts a user bound to one role and one client.
func (s *AccessStore) CreateUser(ctx context.Context, params CreateUserParams) error {
	if params.UserID == uuid.Nil {
		return errors.New("user id is required")
	}
	if params.ClientID == uuid.Nil {
		return errors.New("client id is required")
	}
	return s.insert(ctx, fmt.Sprintf(`INSERT INTO %s (user_id, email, role_id, client_id) VALUES ($1, $2, $3, $4)`, UsersTable),
		params.UserID, strings.ToLower(strings.TrimSpace(params.Email)), params.RoleID, params.ClientID)
}

// SetPermissionActive toggles the soft-delete flag of a permission.
func (s *AccessStore) SetPermissionActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET active = $2 WHERE permission_id = $1`, PermissionsTable), id, active)
		if err != nil {
			return fmt.Errorf("update permission: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrPermissionNotFound
		}
		return nil
	})
}

func (s *AccessStore) insert(ctx context.Context, query string, args ...any) error {
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccessConflict
		}
		return err
	}
	return nil
}
