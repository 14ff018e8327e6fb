package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainrepo "github.com/benchline/lims-core/domains/units/be/repo"
	"github.com/benchline/lims-core/platform/go/apperrors"
	"github.com/benchline/lims-core/platform/go/persistence"
)

// DefaultPrecision is the number of fractional digits kept by divisions.
const DefaultPrecision int32 = 28

// PooledValue is an aggregate expressed in the base unit of its dimension.
type PooledValue struct {
	Value  decimal.Decimal
	UnitID uuid.UUID
}

// PoolInput describes one sample contributing to a pool.
type PoolInput struct {
	Concentration       decimal.Decimal
	ConcentrationUnitID uuid.UUID
	Amount              decimal.Decimal
	AmountUnitID        uuid.UUID
}

// PooledResult carries the combined concentration and the summed derived volume of a pool.
type PooledResult struct {
	Concentration       decimal.Decimal
	ConcentrationUnitID uuid.UUID
	TotalVolume         decimal.Decimal
	VolumeUnitID        uuid.UUID
}

// Service exposes unit conversions and pooled aggregates. Every operation is deterministic
// for a given unit table.
type Service interface {
	ConvertToBase(ctx context.Context, value decimal.Decimal, unitID uuid.UUID) (decimal.Decimal, error)
	ConvertFromBase(ctx context.Context, value decimal.Decimal, unitID uuid.UUID) (decimal.Decimal, error)
	Convert(ctx context.Context, value decimal.Decimal, fromUnitID, toUnitID uuid.UUID) (decimal.Decimal, error)
	VolumeFromConcentrationAndAmount(ctx context.Context, concentration decimal.Decimal, concentrationUnitID uuid.UUID, amount decimal.Decimal, amountUnitID uuid.UUID) (decimal.Decimal, error)
	PooledConcentration(ctx context.Context, concentrations []decimal.Decimal, concentrationUnitIDs []uuid.UUID, amounts []decimal.Decimal, amountUnitIDs []uuid.UUID) (PooledValue, error)
	PooledVolume(ctx context.Context, amounts []decimal.Decimal, amountUnitIDs []uuid.UUID) (PooledValue, error)
	Pool(ctx context.Context, samples []PoolInput) (PooledResult, error)
}

// Option customises the conversion service.
type Option func(*service)

// WithPrecision overrides the division precision. Non-positive values are ignored.
func WithPrecision(precision int32) Option {
	return func(s *service) {
		if precision > 0 {
			s.precision = precision
		}
	}
}

// WithLogger attaches a logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	repo      domainrepo.Repository
	precision int32
	logger    *zap.Logger
}

// New builds a conversion Service backed by the provided unit repository.
func New(repo domainrepo.Repository, opts ...Option) Service {
	if repo == nil {
		panic("units repository is required")
	}
	s := &service{
		repo:      repo,
		precision: DefaultPrecision,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromFloat decimalizes v through its shortest round-trip string, so 0.1 becomes exactly 0.1.
func FromFloat(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrNotFinite, v)
	}
	return decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
}

func (s *service) ConvertToBase(ctx context.Context, value decimal.Decimal, unitID uuid.UUID) (decimal.Decimal, error) {
	return newUnitCache(s.repo).toBase(ctx, value, unitID)
}

func (s *service) ConvertFromBase(ctx context.Context, value decimal.Decimal, unitID uuid.UUID) (decimal.Decimal, error) {
	_, multiplier, err := newUnitCache(s.repo).lookup(ctx, unitID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return value.DivRound(multiplier, s.precision), nil
}

func (s *service) Convert(ctx context.Context, value decimal.Decimal, fromUnitID, toUnitID uuid.UUID) (decimal.Decimal, error) {
	cache := newUnitCache(s.repo)

	from, fromMultiplier, err := cache.lookup(ctx, fromUnitID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	to, toMultiplier, err := cache.lookup(ctx, toUnitID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if from.Dimension != to.Dimension {
		return decimal.Decimal{}, fmt.Errorf("%w: %s (%s) to %s (%s)", ErrDimensionMismatch, from.Name, from.Dimension, to.Name, to.Dimension)
	}

	return value.Mul(fromMultiplier).DivRound(toMultiplier, s.precision), nil
}

func (s *service) VolumeFromConcentrationAndAmount(ctx context.Context, concentration decimal.Decimal, concentrationUnitID uuid.UUID, amount decimal.Decimal, amountUnitID uuid.UUID) (decimal.Decimal, error) {
	cache := newUnitCache(s.repo)

	concentrationBase, err := cache.toBase(ctx, concentration, concentrationUnitID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	amountBase, err := cache.toBase(ctx, amount, amountUnitID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if concentrationBase.IsZero() {
		return decimal.Decimal{}, ErrDivisionByZero
	}

	return amountBase.DivRound(concentrationBase, s.precision), nil
}

func (s *service) PooledConcentration(ctx context.Context, concentrations []decimal.Decimal, concentrationUnitIDs []uuid.UUID, amounts []decimal.Decimal, amountUnitIDs []uuid.UUID) (PooledValue, error) {
	n := len(concentrations)
	if len(concentrationUnitIDs) != n || len(amounts) != n || len(amountUnitIDs) != n {
		return PooledValue{}, fmt.Errorf("%w: got %d concentrations, %d concentration units, %d amounts, %d amount units",
			ErrShapeMismatch, n, len(concentrationUnitIDs), len(amounts), len(amountUnitIDs))
	}

	if n == 0 {
		return PooledValue{}, ErrEmptyInput
	}

	samples := make([]PoolInput, n)
	for i := range samples {
		samples[i] = PoolInput{
			Concentration:       concentrations[i],
			ConcentrationUnitID: concentrationUnitIDs[i],
			Amount:              amounts[i],
			AmountUnitID:        amountUnitIDs[i],
		}
	}

	base, err := s.baseUnit(ctx, persistence.DimensionConcentration)
	if err != nil {
		return PooledValue{}, err
	}

	concentration, _, err := s.aggregate(ctx, newUnitCache(s.repo), samples)
	if err != nil {
		return PooledValue{}, err
	}

	return PooledValue{Value: concentration, UnitID: base.UnitID}, nil
}

func (s *service) PooledVolume(ctx context.Context, amounts []decimal.Decimal, amountUnitIDs []uuid.UUID) (PooledValue, error) {
	if len(amounts) != len(amountUnitIDs) {
		return PooledValue{}, fmt.Errorf("%w: got %d amounts, %d amount units", ErrShapeMismatch, len(amounts), len(amountUnitIDs))
	}
	if len(amounts) == 0 {
		return PooledValue{}, ErrEmptyInput
	}

	base, err := s.baseUnit(ctx, persistence.DimensionVolume)
	if err != nil {
		return PooledValue{}, err
	}

	cache := newUnitCache(s.repo)
	total := decimal.Zero
	for i, amount := range amounts {
		amountBase, err := cache.toBase(ctx, amount, amountUnitIDs[i])
		if err != nil {
			return PooledValue{}, err
		}
		total = total.Add(amountBase)
	}

	return PooledValue{Value: total, UnitID: base.UnitID}, nil
}

func (s *service) Pool(ctx context.Context, samples []PoolInput) (PooledResult, error) {
	if len(samples) == 0 {
		return PooledResult{}, ErrEmptyInput
	}

	concentrationBase, err := s.baseUnit(ctx, persistence.DimensionConcentration)
	if err != nil {
		return PooledResult{}, err
	}
	volumeBase, err := s.baseUnit(ctx, persistence.DimensionVolume)
	if err != nil {
		return PooledResult{}, err
	}

	concentration, totalVolume, err := s.aggregate(ctx, newUnitCache(s.repo), samples)
	if err != nil {
		return PooledResult{}, err
	}

	return PooledResult{
		Concentration:       concentration,
		ConcentrationUnitID: concentrationBase.UnitID,
		TotalVolume:         totalVolume,
		VolumeUnitID:        volumeBase.UnitID,
	}, nil
}

// aggregate returns the volume-weighted mean concentration and the summed derived volume.
// Samples whose base concentration is not positive contribute nothing.
func (s *service) aggregate(ctx context.Context, cache *unitCache, samples []PoolInput) (decimal.Decimal, decimal.Decimal, error) {
	weighted := decimal.Zero
	totalVolume := decimal.Zero

	for i, sample := range samples {
		concentrationBase, err := cache.toBase(ctx, sample.Concentration, sample.ConcentrationUnitID)
		if err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, err
		}
		amountBase, err := cache.toBase(ctx, sample.Amount, sample.AmountUnitID)
		if err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, err
		}

		if !concentrationBase.IsPositive() {
			s.logger.Debug("skipping pool contribution with non-positive concentration",
				zap.Int("index", i),
				zap.String("concentration", concentrationBase.String()),
			)
			continue
		}

		volume := amountBase.DivRound(concentrationBase, s.precision)
		weighted = weighted.Add(concentrationBase.Mul(volume))
		totalVolume = totalVolume.Add(volume)
	}

	if totalVolume.IsZero() {
		return decimal.Decimal{}, decimal.Decimal{}, ErrZeroTotalVolume
	}

	return weighted.DivRound(totalVolume, s.precision), totalVolume, nil
}

func (s *service) baseUnit(ctx context.Context, dimension persistence.Dimension) (persistence.Unit, error) {
	unit, err := s.repo.BaseUnit(ctx, dimension)
	if err != nil {
		if errors.Is(err, persistence.ErrUnitNotFound) {
			return persistence.Unit{}, fmt.Errorf("%w: %s", ErrBaseUnitNotConfigured, dimension)
		}
		return persistence.Unit{}, fmt.Errorf("%w: load base unit for %s: %w", apperrors.ErrBackend, dimension, err)
	}
	return unit, nil
}

// unitCache memoises unit lookups for the duration of one operation.
type unitCache struct {
	repo  domainrepo.Repository
	units map[uuid.UUID]persistence.Unit
}

func newUnitCache(repo domainrepo.Repository) *unitCache {
	return &unitCache{repo: repo, units: make(map[uuid.UUID]persistence.Unit)}
}

// lookup enforces the unit contract: present, active and carrying a positive multiplier.
func (c *unitCache) lookup(ctx context.Context, id uuid.UUID) (persistence.Unit, decimal.Decimal, error) {
	unit, ok := c.units[id]
	if !ok {
		loaded, err := c.repo.GetActiveUnit(ctx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrUnitNotFound) {
				return persistence.Unit{}, decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
			}
			return persistence.Unit{}, decimal.Decimal{}, fmt.Errorf("%w: load unit %s: %w", apperrors.ErrBackend, id, err)
		}
		unit = loaded
		c.units[id] = unit
	}

	if !unit.Active {
		return persistence.Unit{}, decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	if unit.Multiplier == nil {
		return persistence.Unit{}, decimal.Decimal{}, fmt.Errorf("%w: %s", ErrMissingMultiplier, unit.Name)
	}
	if !unit.Multiplier.IsPositive() {
		return persistence.Unit{}, decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInvalidMultiplier, unit.Name)
	}

	return unit, *unit.Multiplier, nil
}

func (c *unitCache) toBase(ctx context.Context, value decimal.Decimal, id uuid.UUID) (decimal.Decimal, error) {
	_, multiplier, err := c.lookup(ctx, id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return value.Mul(multiplier), nil
}
