package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SequenceStore advances and inspects the per-entity-type name sequences.
// Increments rely on nextval, which is atomic across concurrent sessions and is
// never rolled back.
type SequenceStore struct {
	db *SessionDB
}

// NewSequenceStore returns a store instance.
func NewSequenceStore(db *SessionDB) (*SequenceStore, error) {
	if db == nil {
		return nil, errors.New("session db is required")
	}
	return &SequenceStore{db: db}, nil
}

// NextValue advances the entity type's sequence. Bootstrap creates every sequence; a
// missing one is created on the first draw that finds it absent.
func (s *SequenceStore) NextValue(ctx context.Context, entityType EntityType) (int64, error) {
	seq, err := entityType.SequenceName()
	if err != nil {
		return 0, err
	}

	value, err := s.nextval(ctx, seq)
	if isUndefinedTable(err) {
		if err := s.ensure(ctx, seq); err != nil {
			return 0, err
		}
		value, err = s.nextval(ctx, seq)
	}
	if err != nil {
		return 0, fmt.Errorf("nextval %s: %w", seq, err)
	}

	return value, nil
}

func (s *SequenceStore) nextval(ctx context.Context, seq string) (int64, error) {
	var value int64
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT nextval($1::regclass)`, seq).Scan(&value)
	})
	return value, err
}

// PeekNextValue reports the value the next NextValue call would return without
// consuming it. A sequence that does not exist yet peeks as 1.
func (s *SequenceStore) PeekNextValue(ctx context.Context, entityType EntityType) (int64, error) {
	seq, err := entityType.SequenceName()
	if err != nil {
		return 0, err
	}

	var (
		lastValue int64
		isCalled  bool
	)
	err = s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, fmt.Sprintf(`SELECT last_value, is_called FROM %s`, seq)).Scan(&lastValue, &isCalled)
	})
	if err != nil {
		if isUndefinedTable(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("peek %s: %w", seq, err)
	}

	if !isCalled {
		return lastValue, nil
	}
	return lastValue + 1, nil
}

// Reset makes next the value returned by the following NextValue call. Admin only.
func (s *SequenceStore) Reset(ctx context.Context, entityType EntityType, next int64) error {
	if next < 1 {
		return fmt.Errorf("sequence restart value must be >= 1, got %d", next)
	}

	seq, err := entityType.SequenceName()
	if err != nil {
		return err
	}

	if err := s.ensure(ctx, seq); err != nil {
		return err
	}

	return s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT setval($1::regclass, $2, false)`, seq, next); err != nil {
			return fmt.Errorf("setval %s: %w", seq, err)
		}
		return nil
	})
}

// ensure creates the sequence lazily. Two sessions racing on creation may see a
// unique violation on the catalog; the sequence exists afterwards either way.
func (s *SequenceStore) ensure(ctx context.Context, seq string) error {
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, fmt.Sprintf(`CREATE SEQUENCE IF NOT EXISTS %s`, seq))
		return err
	})
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("create sequence %s: %w", seq, err)
	}
	return nil
}
