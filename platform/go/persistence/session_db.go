package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benchline/lims-core/platform/go/identity"
)

// CurrentUserSetting is the transaction-local setting read by the row-level
// security helpers (current_user_id, is_admin).
const CurrentUserSetting = "app.current_user_id"

// ErrMissingIdentity is returned when a user-scoped transaction is requested without a resolved identity.
var ErrMissingIdentity = errors.New("request identity is required")

// txBeginner exposes the minimal pgx pool behaviour needed by SessionDB.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// SessionDB wraps a pgx pool so every transaction starts with an explicit identity setting.
// Nothing is inherited from previous users of the pooled connection.
type SessionDB struct {
	pool    txBeginner
	appRole string
}

type SessionDBConfig struct {
	Pool *pgxpool.Pool
	// AppRole is the non-owner role assumed for user-scoped transactions so RLS
	// policies apply. Empty means the connection identity is already subject to RLS.
	AppRole string
}

func NewSessionDB(cfg SessionDBConfig) *SessionDB {
	if cfg.Pool == nil {
		panic("SessionDB requires pool")
	}
	return &SessionDB{pool: cfg.Pool, appRole: strings.TrimSpace(cfg.AppRole)}
}

// WithSystem executes fn inside a transaction that runs with the connection's own identity.
// The user setting is explicitly cleared so RLS-protected reads fail closed unless the
// connection role bypasses them.
func (db *SessionDB) WithSystem(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := setCurrentUser(ctx, tx, uuid.Nil); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// WithUser executes fn inside a transaction bound to the request identity: the app role is
// assumed with SET LOCAL ROLE and app.current_user_id is set transaction-locally. Both vanish
// at commit or rollback, so the setting's lifetime is exactly the transaction.
func (db *SessionDB) WithUser(ctx context.Context, rc identity.RequestContext, fn func(tx pgx.Tx) error) error {
	if rc.IsZero() {
		return ErrMissingIdentity
	}

	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if db.appRole != "" {
		if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL ROLE %s", pgx.Identifier{db.appRole}.Sanitize())); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
	}

	if err := setCurrentUser(ctx, tx, rc.UserID); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func setCurrentUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	value := ""
	if userID != uuid.Nil {
		value = userID.String()
	}
	if _, err := tx.Exec(ctx, `SELECT set_config($1, $2, true)`, CurrentUserSetting, value); err != nil {
		return fmt.Errorf("set current user: %w", err)
	}
	return nil
}
