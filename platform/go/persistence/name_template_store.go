package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const NameTemplatesTable = "name_templates"

// NameTemplate represents a row in the name_templates table.
type NameTemplate struct {
	TemplateID       uuid.UUID  `db:"template_id" json:"templateId"`
	EntityType       EntityType `db:"entity_type" json:"entityType"`
	Template         string     `db:"template" json:"template"`
	SeqPaddingDigits int        `db:"seq_padding_digits" json:"seqPaddingDigits"`
	Active           bool       `db:"active" json:"active"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

var (
	// ErrTemplateNotFound indicates no (active) template matched.
	ErrTemplateNotFound = errors.New("name template not found")
	// ErrTemplateConflict indicates a concurrent activation raced the partial unique index.
	ErrTemplateConflict = errors.New("name template conflict")
)

// NameTemplateStore exposes persistence helpers for the name_templates table.
type NameTemplateStore struct {
	db *SessionDB
}

// NewNameTemplateStore returns a store instance; it assumes bootstrap already created the table.
func NewNameTemplateStore(db *SessionDB) (*NameTemplateStore, error) {
	if db == nil {
		return nil, errors.New("session db is required")
	}
	return &NameTemplateStore{db: db}, nil
}

const templateColumns = `template_id, entity_type, template, seq_padding_digits, active, created_at`

// GetActiveTemplate returns the single active template for the entity type.
func (s *NameTemplateStore) GetActiveTemplate(ctx context.Context, entityType EntityType) (NameTemplate, error) {
	if !entityType.Valid() {
		return NameTemplate{}, fmt.Errorf("%w %q", ErrUnknownEntityType, string(entityType))
	}

	var tmpl NameTemplate
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT %s FROM %s WHERE entity_type = $1 AND active
        `, templateColumns, NameTemplatesTable), string(entityType))

		var scanErr error
		tmpl, scanErr = scanTemplate(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NameTemplate{}, ErrTemplateNotFound
		}
		return NameTemplate{}, err
	}

	return tmpl, nil
}

// CreateTemplateParams captures the fields required to insert a template.
type CreateTemplateParams struct {
	TemplateID       uuid.UUID
	EntityType       EntityType
	Template         string
	SeqPaddingDigits int
}

// CreateTemplate deactivates the current active template for the entity type and inserts
// the new one as active, in a single transaction.
func (s *NameTemplateStore) CreateTemplate(ctx context.Context, params CreateTemplateParams) (NameTemplate, error) {
	if params.TemplateID == uuid.Nil {
		return NameTemplate{}, errors.New("template id is required")
	}
	if !params.EntityType.Valid() {
		return NameTemplate{}, fmt.Errorf("%w %q", ErrUnknownEntityType, string(params.EntityType))
	}
	padding := params.SeqPaddingDigits
	if padding <= 0 {
		padding = 1
	}

	var tmpl NameTemplate
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET active = FALSE WHERE entity_type = $1 AND active
        `, NameTemplatesTable), string(params.EntityType)); err != nil {
			return fmt.Errorf("deactivate previous template: %w", err)
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (template_id, entity_type, template, seq_padding_digits)
            VALUES ($1, $2, $3, $4)
            RETURNING %s
        `, NameTemplatesTable, templateColumns),
			params.TemplateID,
			string(params.EntityType),
			strings.TrimSpace(params.Template),
			padding,
		)

		var scanErr error
		tmpl, scanErr = scanTemplate(row)
		return scanErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return NameTemplate{}, ErrTemplateConflict
		}
		return NameTemplate{}, err
	}

	return tmpl, nil
}

// DeactivateTemplate soft-deletes a template.
func (s *NameTemplateStore) DeactivateTemplate(ctx context.Context, id uuid.UUID) error {
	return s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET active = FALSE WHERE template_id = $1 AND active`, NameTemplatesTable), id)
		if err != nil {
			return fmt.Errorf("deactivate template: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrTemplateNotFound
		}
		return nil
	})
}

func scanTemplate(row pgx.Row) (NameTemplate, error) {
	var (
		tmpl       NameTemplate
		entityType string
	)

	if err := row.Scan(&tmpl.TemplateID, &entityType, &tmpl.Template, &tmpl.SeqPaddingDigits, &tmpl.Active, &tmpl.CreatedAt); err != nil {
		return NameTemplate{}, err
	}

	tmpl.EntityType = EntityType(entityType)
	return tmpl, nil
}
