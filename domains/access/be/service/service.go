package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	domainrepo "github.com/benchline/lims-core/domains/access/be/repo"
	"github.com/benchline/lims-core/platform/go/apperrors"
	"github.com/benchline/lims-core/platform/go/identity"
	"github.com/benchline/lims-core/platform/go/logging"
	"github.com/benchline/lims-core/platform/go/persistence"
)

// Domain-level error sentinel values.
var (
	ErrUnknownUser  = fmt.Errorf("%w: unknown user", apperrors.ErrUnauthenticated)
	ErrInactiveUser = fmt.Errorf("%w: user is inactive", apperrors.ErrUnauthenticated)
)

// TxRunner opens a transaction bound to a resolved identity. persistence.SessionDB satisfies it.
type TxRunner interface {
	WithUser(ctx context.Context, rc identity.RequestContext, fn func(tx pgx.Tx) error) error
}

// Service resolves identities and guards work behind authorization rules.
type Service interface {
	GetUserPermissions(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error)
	Resolve(ctx context.Context, userID uuid.UUID) (identity.RequestContext, error)
	Authorize(ctx context.Context, rule Rule) error
	Enter(ctx context.Context, userID uuid.UUID, rule Rule, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type service struct {
	repo   domainrepo.Repository
	tx     TxRunner
	logger *zap.Logger
}

// New builds an access control Service. A nil logger disables logging.
func New(repo domainrepo.Repository, tx TxRunner, logger *zap.Logger) Service {
	if repo == nil {
		panic("access repository is required")
	}
	if tx == nil {
		panic("tx runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, tx: tx, logger: logger}
}

func (s *service) GetUserPermissions(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error) {
	names, err := s.repo.ListUserPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list permissions: %w", apperrors.ErrBackend, err)
	}
	return identity.NewPermissionSet(names...), nil
}

func (s *service) Resolve(ctx context.Context, userID uuid.UUID) (identity.RequestContext, error) {
	if userID == uuid.Nil {
		return identity.RequestContext{}, ErrUnknownUser
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return identity.RequestContext{}, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
		}
		return identity.RequestContext{}, fmt.Errorf("%w: load user: %w", apperrors.ErrBackend, err)
	}
	if !user.Active {
		return identity.RequestContext{}, fmt.Errorf("%w: %s", ErrInactiveUser, userID)
	}

	permissions, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return identity.RequestContext{}, err
	}

	rc := identity.RequestContext{
		UserID:      user.UserID,
		ClientID:    user.ClientID,
		Permissions: permissions,
	}
	// An inactive role confers neither its name nor its permissions.
	if user.RoleActive {
		rc.RoleName = user.RoleName
	}

	return rc, nil
}

// Authorize checks rule against the identity already attached to ctx.
func (s *service) Authorize(ctx context.Context, rule Rule) error {
	rc, ok := identity.FromContext(ctx)
	if !ok || rc.IsZero() {
		return errNoIdentity
	}
	return s.check(ctx, rc, rule)
}

// Enter resolves userID, checks rule and runs fn in a transaction whose session carries the
// identity for row-level security. ctx passed to fn carries the RequestContext and an
// identity-enriched logger. A nil rule only requires an active user.
func (s *service) Enter(ctx context.Context, userID uuid.UUID, rule Rule, fn func(ctx context.Context, tx pgx.Tx) error) error {
	rc, err := s.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.check(ctx, rc, rule); err != nil {
		return err
	}

	scoped := identity.WithRequest(ctx, rc)
	scoped = logging.WithIdentity(scoped, s.logger)

	return s.tx.WithUser(scoped, rc, func(tx pgx.Tx) error {
		return fn(scoped, tx)
	})
}

func (s *service) check(ctx context.Context, rc identity.RequestContext, rule Rule) error {
	if rule == nil {
		return nil
	}
	err := rule.Check(rc)
	if err == nil {
		return nil
	}

	var forbidden *ForbiddenError
	if errors.As(err, &forbidden) {
		logging.FromContextOr(ctx, s.logger).Info("access denied",
			zap.String("user_id", rc.UserID.String()),
			zap.String("role", rc.RoleName),
			zap.Strings("missing", forbidden.Missing),
			zap.String("reason", forbidden.Reason),
		)
	}
	return err
}
