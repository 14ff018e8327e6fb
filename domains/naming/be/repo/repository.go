package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/benchline/lims-core/platform/go/persistence"
)

// Repository defines the persistence operations required by the name generator.
type Repository interface {
	GetActiveTemplate(ctx context.Context, entityType persistence.EntityType) (persistence.NameTemplate, error)
	CreateTemplate(ctx context.Context, params persistence.CreateTemplateParams) (persistence.NameTemplate, error)
	DeactivateTemplate(ctx context.Context, id uuid.UUID) error
	NextSequenceValue(ctx context.Context, entityType persistence.EntityType) (int64, error)
	PeekSequenceValue(ctx context.Context, entityType persistence.EntityType) (int64, error)
	ResetSequence(ctx context.Context, entityType persistence.EntityType, next int64) error
	NameExists(ctx context.Context, entityType persistence.EntityType, name string) (bool, error)
}

type postgresRepository struct {
	templates *persistence.NameTemplateStore
	sequences *persistence.SequenceStore
	names     *persistence.EntityNameStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(templates *persistence.NameTemplateStore, sequences *persistence.SequenceStore, names *persistence.EntityNameStore) Repository {
	if templates == nil || sequences == nil || names == nil {
		panic("naming stores are required")
	}
	return &postgresRepository{templates: templates, sequences: sequences, names: names}
}

func (r *postgresRepository) GetActiveTemplate(ctx context.Context, entityType persistence.EntityType) (persistence.NameTemplate, error) {
	return r.templates.GetActiveTemplate(ctx, entityType)
}

func (r *postgresRepository) CreateTemplate(ctx context.Context, params persistence.CreateTemplateParams) (persistence.NameTemplate, error) {
	return r.templates.CreateTemplate(ctx, params)
}

func (r *postgresRepository) DeactivateTemplate(ctx context.Context, id uuid.UUID) error {
	return r.templates.DeactivateTemplate(ctx, id)
}

func (r *postgresRepository) NextSequenceValue(ctx context.Context, entityType persistence.EntityType) (int64, error) {
	return r.sequences.NextValue(ctx, entityType)
}

func (r *postgresRepository) PeekSequenceValue(ctx context.Context, entityType persistence.EntityType) (int64, error) {
	return r.sequences.PeekNextValue(ctx, entityType)
}

func (r *postgresRepository) ResetSequence(ctx context.Context, entityType persistence.EntityType, next int64) error {
	return r.sequences.Reset(ctx, entityType, next)
}

func (r *postgresRepository) NameExists(ctx context.Context, entityType persistence.EntityType, name string) (bool, error) {
	return r.names.NameExists(ctx, entityType, name)
}
