package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// EntityType enumerates the entity kinds that receive generated names.
type EntityType string

const (
	EntitySample    EntityType = "sample"
	EntityProject   EntityType = "project"
	EntityBatch     EntityType = "batch"
	EntityAnalysis  EntityType = "analysis"
	EntityContainer EntityType = "container"
)

// ErrUnknownEntityType is returned for values outside the closed EntityType set.
var ErrUnknownEntityType = errors.New("unknown entity type")

type entityObjects struct {
	table    string
	sequence string
}

// Identifiers derived from an EntityType only ever come from this map, never from caller input.
var entityObjectNames = map[EntityType]entityObjects{
	EntitySample:    {table: "samples", sequence: "sample_name_seq"},
	EntityProject:   {table: "projects", sequence: "project_name_seq"},
	EntityBatch:     {table: "batches", sequence: "batch_name_seq"},
	EntityAnalysis:  {table: "analyses", sequence: "analysis_name_seq"},
	EntityContainer: {table: "containers", sequence: "container_name_seq"},
}

// EntityTypes lists every supported entity type in a stable order.
func EntityTypes() []EntityType {
	return []EntityType{EntitySample, EntityProject, EntityBatch, EntityAnalysis, EntityContainer}
}

// ParseEntityType trims and lowercases input and ensures it is a member of the closed set.
func ParseEntityType(input string) (EntityType, error) {
	normalized := EntityType(strings.ToLower(strings.TrimSpace(input)))
	if _, ok := entityObjectNames[normalized]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownEntityType, input)
	}
	return normalized, nil
}

// Valid reports whether e is a member of the closed set.
func (e EntityType) Valid() bool {
	_, ok := entityObjectNames[e]
	return ok
}

// TableName returns the sanitized table identifier for e.
func (e EntityType) TableName() (string, error) {
	objs, ok := entityObjectNames[e]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownEntityType, string(e))
	}
	return pgx.Identifier{objs.table}.Sanitize(), nil
}

// SequenceName returns the sanitized sequence identifier for e.
func (e EntityType) SequenceName() (string, error) {
	objs, ok := entityObjectNames[e]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownEntityType, string(e))
	}
	return pgx.Identifier{objs.sequence}.Sanitize(), nil
}
