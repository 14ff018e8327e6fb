package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// EntityNameStore answers name-uniqueness questions against the live entity tables.
// Checks go through the entity_name_taken SECURITY DEFINER helper, so client-scoped RLS
// never hides a collision whatever role the connection runs as.
type EntityNameStore struct {
	db *SessionDB
}

// NewEntityNameStore returns a store instance.
func NewEntityNameStore(db *SessionDB) (*EntityNameStore, error) {
	if db == nil {
		return nil, errors.New("session db is required")
	}
	return &EntityNameStore{db: db}, nil
}

// NameExists reports whether any row of the entity type's table already carries name.
func (s *EntityNameStore) NameExists(ctx context.Context, entityType EntityType, name string) (bool, error) {
	table, err := entityType.TableName()
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT entity_name_taken($1::regclass, $2)`, table, name).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check %s name: %w", entityType, err)
	}

	return exists, nil
}
