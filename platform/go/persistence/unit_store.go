package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const UnitsTable = "units"

// Dimension is the measurement category a unit belongs to.
type Dimension string

const (
	DimensionMass          Dimension = "mass"
	DimensionVolume        Dimension = "volume"
	DimensionConcentration Dimension = "concentration"
)

// Valid reports whether d is a supported dimension.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionMass, DimensionVolume, DimensionConcentration:
		return true
	default:
		return false
	}
}

// Unit represents a row in the units table.
type Unit struct {
	UnitID     uuid.UUID        `db:"unit_id" json:"unitId"`
	Name       string           `db:"name" json:"name"`
	Dimension  Dimension        `db:"dimension" json:"dimension"`
	Multiplier *decimal.Decimal `db:"multiplier" json:"multiplier"`
	Active     bool             `db:"active" json:"active"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}

var (
	// ErrUnitNotFound indicates a missing unit record.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrUnitConflict indicates a uniqueness violation (duplicate name or second base unit).
	ErrUnitConflict = errors.New("unit conflict")
)

// UnitStore exposes persistence helpers for the units table.
type UnitStore struct {
	db *SessionDB
}

// NewUnitStore returns a store instance; it assumes bootstrap already created the table.
func NewUnitStore(db *SessionDB) (*UnitStore, error) {
	if db == nil {
		return nil, errors.New("session db is required")
	}
	return &UnitStore{db: db}, nil
}

// CreateUnitParams captures the fields required to insert a unit.
type CreateUnitParams struct {
	UnitID     uuid.UUID
	Name       string
	Dimension  Dimension
	Multiplier *decimal.Decimal
}

const unitColumns = `unit_id, name, dimension, multiplier::text, active, created_at`

// CreateUnit inserts a unit and returns the persisted record.
func (s *UnitStore) CreateUnit(ctx context.Context, params CreateUnitParams) (Unit, error) {
	if params.UnitID == uuid.Nil {
		return Unit{}, errors.New("unit id is required")
	}
	if !params.Dimension.Valid() {
		return Unit{}, fmt.Errorf("invalid dimension %q", params.Dimension)
	}

	var multiplier *string
	if params.Multiplier != nil {
		m := params.Multiplier.String()
		multiplier = &m
	}

	var unit Unit
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (unit_id, name, dimension, multiplier)
            VALUES ($1, $2, $3, $4::numeric)
            RETURNING %s
        `, UnitsTable, unitColumns),
			params.UnitID,
			strings.TrimSpace(params.Name),
			string(params.Dimension),
			multiplier,
		)

		var scanErr error
		unit, scanErr = scanUnit(row)
		return scanErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Unit{}, ErrUnitConflict
		}
		return Unit{}, err
	}

	return unit, nil
}

// GetUnit returns a unit by identifier regardless of its active flag.
func (s *UnitStore) GetUnit(ctx context.Context, id uuid.UUID) (Unit, error) {
	var unit Unit
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE unit_id = $1`, unitColumns, UnitsTable), id)

		var scanErr error
		unit, scanErr = scanUnit(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, ErrUnitNotFound
		}
		return Unit{}, err
	}

	return unit, nil
}

// FindBaseUnit returns the active unit of the dimension whose multiplier is exactly 1.
func (s *UnitStore) FindBaseUnit(ctx context.Context, dimension Dimension) (Unit, error) {
	var unit Unit
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT %s FROM %s
            WHERE dimension = $1 AND active AND multiplier = 1
            ORDER BY created_at
            LIMIT 1
        `, unitColumns, UnitsTable), string(dimension))

		var scanErr error
		unit, scanErr = scanUnit(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, ErrUnitNotFound
		}
		return Unit{}, err
	}

	return unit, nil
}

// ListUnits returns the active units of a dimension ordered by multiplier.
func (s *UnitStore) ListUnits(ctx context.Context, dimension Dimension) ([]Unit, error) {
	units := make([]Unit, 0)
	err := s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
            SELECT %s FROM %s
            WHERE dimension = $1 AND active
            ORDER BY multiplier NULLS LAST, name
        `, unitColumns, UnitsTable), string(dimension))
		if err != nil {
			return fmt.Errorf("list units: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			unit, scanErr := scanUnit(rows)
			if scanErr != nil {
				return fmt.Errorf("scan unit: %w", scanErr)
			}
			units = append(units, unit)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate units: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return units, nil
}

// DeactivateUnit soft-deletes a unit.
func (s *UnitStore) DeactivateUnit(ctx context.Context, id uuid.UUID) error {
	return s.db.WithSystem(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET active = FALSE WHERE unit_id = $1 AND active`, UnitsTable), id)
		if err != nil {
			return fmt.Errorf("deactivate unit: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUnitNotFound
		}
		return nil
	})
}

func scanUnit(row pgx.Row) (Unit, error) {
	var (
		unit       Unit
		dimension  string
		multiplier *string
	)

	if err := row.Scan(&unit.UnitID, &unit.Name, &dimension, &multiplier, &unit.Active, &unit.CreatedAt); err != nil {
		return Unit{}, err
	}

	unit.Dimension = Dimension(dimension)
	if multiplier != nil {
		m, err := decimal.NewFromString(*multiplier)
		if err != nil {
			return Unit{}, fmt.Errorf("parse multiplier %q: %w", *multiplier, err)
		}
		unit.Multiplier = &m
	}

	return unit, nil
}
