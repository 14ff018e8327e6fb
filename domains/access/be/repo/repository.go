package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/benchline/lims-core/platform/go/persistence"
)

// Repository defines the identity lookups required by the access control service.
type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (persistence.AccessUser, error)
	ListUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type postgresRepository struct {
	store *persistence.AccessStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.AccessStore) Repository {
	if store == nil {
		panic("access store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) GetUser(ctx context.Context, id uuid.UUID) (persistence.AccessUser, error) {
	return r.store.GetUser(ctx, id)
}

func (r *postgresRepository) ListUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return r.store.ListUserPermissions(ctx, userID)
}
