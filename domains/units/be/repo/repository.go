package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/benchline/lims-core/platform/go/persistence"
)

// Repository defines the unit registry lookups required by the conversion engine.
type Repository interface {
	// GetActiveUnit returns persistence.ErrUnitNotFound for absent and inactive units alike.
	GetActiveUnit(ctx context.Context, id uuid.UUID) (persistence.Unit, error)
	BaseUnit(ctx context.Context, dimension persistence.Dimension) (persistence.Unit, error)
	ListUnits(ctx context.Context, dimension persistence.Dimension) ([]persistence.Unit, error)
}

type postgresRepository struct {
	store *persistence.UnitStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.UnitStore) Repository {
	if store == nil {
		panic("unit store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) GetActiveUnit(ctx context.Context, id uuid.UUID) (persistence.Unit, error) {
	unit, err := r.store.GetUnit(ctx, id)
	if err != nil {
		return persistence.Unit{}, err
	}
	if !unit.Active {
		return persistence.Unit{}, persistence.ErrUnitNotFound
	}
	return unit, nil
}

func (r *postgresRepository) BaseUnit(ctx context.Context, dimension persistence.Dimension) (persistence.Unit, error) {
	return r.store.FindBaseUnit(ctx, dimension)
}

func (r *postgresRepository) ListUnits(ctx context.Context, dimension persistence.Dimension) ([]persistence.Unit, error) {
	return r.store.ListUnits(ctx, dimension)
}
