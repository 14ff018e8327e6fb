package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/benchline/lims-core/platform/go/apperrors"
	"github.com/benchline/lims-core/platform/go/persistence"
)

type mockRepository struct {
	getActiveUnitFn func(ctx context.Context, id uuid.UUID) (persistence.Unit, error)
	baseUnitFn      func(ctx context.Context, dimension persistence.Dimension) (persistence.Unit, error)
	listUnitsFn     func(ctx context.Context, dimension persistence.Dimension) ([]persistence.Unit, error)
}

func (m *mockRepository) GetActiveUnit(ctx context.Context, id uuid.UUID) (persistence.Unit, error) {
	if m.getActiveUnitFn == nil {
		panic("getActiveUnitFn not configured")
	}
	return m.getActiveUnitFn(ctx, id)
}

func (m *mockRepository) BaseUnit(ctx context.Context, dimension persistence.Dimension) (persistence.Unit, error) {
	if m.baseUnitFn == nil {
		panic("baseUnitFn not configured")
	}
	return m.baseUnitFn(ctx, dimension)
}

func (m *mockRepository) ListUnits(ctx context.Context, dimension persistence.Dimension) ([]persistence.Unit, error) {
	if m.listUnitsFn == nil {
		panic("listUnitsFn not configured")
	}
	return m.listUnitsFn(ctx, dimension)
}

// unitTable is an in-memory unit registry for the mock repository.
type unitTable map[uuid.UUID]persistence.Unit

func (u unitTable) add(name string, dimension persistence.Dimension, multiplier string) persistence.Unit {
	unit := persistence.Unit{UnitID: uuid.New(), Name: name, Dimension: dimension, Active: true}
	if multiplier != "" {
		m := decimal.RequireFromString(multiplier)
		unit.Multiplier = &m
	}
	u[unit.UnitID] = unit
	return unit
}

func (u unitTable) repo() *mockRepository {
	return &mockRepository{
		getActiveUnitFn: func(ctx context.Context, id uuid.UUID) (persistence.Unit, error) {
			unit, ok := u[id]
			if !ok || !unit.Active {
				return persistence.Unit{}, persistence.ErrUnitNotFound
			}
			return unit, nil
		},
		baseUnitFn: func(ctx context.Context, dimension persistence.Dimension) (persistence.Unit, error) {
			for _, unit := range u {
				if unit.Active && unit.Dimension == dimension && unit.Multiplier != nil && unit.Multiplier.Equal(decimal.NewFromInt(1)) {
					return unit, nil
				}
			}
			return persistence.Unit{}, persistence.ErrUnitNotFound
		},
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	mg := units.add("mg", persistence.DimensionMass, "0.001")
	seven := units.add("x7", persistence.DimensionMass, "7")
	svc := New(units.repo())
	ctx := context.Background()

	for _, unit := range []persistence.Unit{mg, seven} {
		for _, raw := range []string{"0", "1.1", "123.456", "-42.5", "0.000001"} {
			v := dec(t, raw)
			base, err := svc.ConvertToBase(ctx, v, unit.UnitID)
			require.NoError(t, err)
			back, err := svc.ConvertFromBase(ctx, base, unit.UnitID)
			require.NoError(t, err)
			require.True(t, back.Equal(v), "%s via %s came back as %s", raw, unit.Name, back)
		}
	}

	base, err := svc.ConvertToBase(ctx, dec(t, "250"), mg.UnitID)
	require.NoError(t, err)
	require.Equal(t, "0.25", base.String())
}

func TestConvertLookupContract(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	retired := units.add("oz", persistence.DimensionMass, "28.35")
	retired.Active = false
	units[retired.UnitID] = retired
	pinch := units.add("pinch", persistence.DimensionMass, "")
	svc := New(units.repo())
	ctx := context.Background()

	_, err := svc.ConvertToBase(ctx, decimal.NewFromInt(1), uuid.New())
	require.ErrorIs(t, err, ErrUnitNotFound)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.ConvertFromBase(ctx, decimal.NewFromInt(1), retired.UnitID)
	require.ErrorIs(t, err, ErrUnitNotFound)

	_, err = svc.ConvertToBase(ctx, decimal.NewFromInt(1), pinch.UnitID)
	require.ErrorIs(t, err, ErrMissingMultiplier)
	require.ErrorIs(t, err, apperrors.ErrPrecondition)
}

func TestConvertBackendErrorIsNotMasked(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	repo := &mockRepository{
		getActiveUnitFn: func(ctx context.Context, id uuid.UUID) (persistence.Unit, error) {
			return persistence.Unit{}, boom
		},
	}

	_, err := New(repo).ConvertToBase(context.Background(), decimal.NewFromInt(1), uuid.New())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, apperrors.ErrBackend)
	require.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConvertBetweenUnits(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	g := units.add("g", persistence.DimensionMass, "1")
	mg := units.add("mg", persistence.DimensionMass, "0.001")
	mL := units.add("mL", persistence.DimensionVolume, "1")
	svc := New(units.repo())
	ctx := context.Background()

	out, err := svc.Convert(ctx, dec(t, "1.5"), g.UnitID, mg.UnitID)
	require.NoError(t, err)
	require.True(t, out.Equal(dec(t, "1500")), out.String())

	_, err = svc.Convert(ctx, dec(t, "1"), g.UnitID, mL.UnitID)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	require.ErrorIs(t, err, apperrors.ErrPrecondition)
}

func TestVolumeFromConcentrationAndAmount(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	mgPerML := units.add("mg/mL", persistence.DimensionConcentration, "1")
	mg := units.add("mg", persistence.DimensionMass, "1")
	svc := New(units.repo())
	ctx := context.Background()

	volume, err := svc.VolumeFromConcentrationAndAmount(ctx, dec(t, "10"), mgPerML.UnitID, dec(t, "5"), mg.UnitID)
	require.NoError(t, err)
	require.True(t, volume.Equal(dec(t, "0.5")))

	for _, amount := range []string{"0", "1", "-3", "1000000"} {
		_, err := svc.VolumeFromConcentrationAndAmount(ctx, decimal.Zero, mgPerML.UnitID, dec(t, amount), mg.UnitID)
		require.ErrorIs(t, err, ErrDivisionByZero)
		require.ErrorIs(t, err, apperrors.ErrArithmetic)
		require.Contains(t, err.Error(), "cannot calculate volume: concentration is zero")
	}
}

func TestPooledConcentrationWeightedAverage(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	mgPerML := units.add("mg/mL", persistence.DimensionConcentration, "1")
	mg := units.add("mg", persistence.DimensionMass, "1")
	svc := New(units.repo())

	pooled, err := svc.PooledConcentration(context.Background(),
		[]decimal.Decimal{dec(t, "10.0"), dec(t, "20.0")},
		[]uuid.UUID{mgPerML.UnitID, mgPerML.UnitID},
		[]decimal.Decimal{dec(t, "5.0"), dec(t, "10.0")},
		[]uuid.UUID{mg.UnitID, mg.UnitID},
	)
	require.NoError(t, err)
	require.Equal(t, mgPerML.UnitID, pooled.UnitID)

	want := dec(t, "25").DivRound(dec(t, "1.5"), DefaultPrecision)
	require.True(t, pooled.Value.Equal(want), pooled.Value.String())
	require.Contains(t, pooled.Value.String(), "16.666666666")
}

func TestPooledConcentrationSkipsNonPositiveConcentration(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	mgPerML := units.add("mg/mL", persistence.DimensionConcentration, "1")
	mg := units.add("mg", persistence.DimensionMass, "1")
	svc := New(units.repo())
	ctx := context.Background()

	pooled, err := svc.PooledConcentration(ctx,
		[]decimal.Decimal{dec(t, "12"), dec(t, "0"), dec(t, "-4")},
		[]uuid.UUID{mgPerML.UnitID, mgPerML.UnitID, mgPerML.UnitID},
		[]decimal.Decimal{dec(t, "6"), dec(t, "3"), dec(t, "2")},
		[]uuid.UUID{mg.UnitID, mg.UnitID, mg.UnitID},
	)
	require.NoError(t, err)
	require.True(t, pooled.Value.Equal(dec(t, "12")), pooled.Value.String())

	_, err = svc.PooledConcentration(ctx,
		[]decimal.Decimal{dec(t, "0")},
		[]uuid.UUID{mgPerML.UnitID},
		[]decimal.Decimal{dec(t, "3")},
		[]uuid.UUID{mg.UnitID},
	)
	require.ErrorIs(t, err, ErrZeroTotalVolume)
	require.ErrorIs(t, err, apperrors.ErrArithmetic)
}

func TestPooledPreconditions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	empty := unitTable{}
	svc := New(empty.repo())

	_, err := svc.PooledConcentration(ctx, nil, nil, nil, nil)
	require.ErrorIs(t, err, ErrEmptyInput)
	require.ErrorIs(t, err, apperrors.ErrPrecondition)

	_, err = svc.PooledVolume(ctx, []decimal.Decimal{}, []uuid.UUID{})
	require.ErrorIs(t, err, ErrEmptyInput)
	require.ErrorIs(t, err, apperrors.ErrPrecondition)

	_, err = svc.PooledConcentration(ctx,
		[]decimal.Decimal{decimal.NewFromInt(1)}, []uuid.UUID{uuid.New()},
		[]decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)}, []uuid.UUID{uuid.New()},
	)
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = svc.PooledVolume(ctx, []decimal.Decimal{decimal.NewFromInt(1)}, nil)
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = svc.PooledConcentration(ctx,
		[]decimal.Decimal{decimal.NewFromInt(1)}, []uuid.UUID{uuid.New()},
		[]decimal.Decimal{decimal.NewFromInt(1)}, []uuid.UUID{uuid.New()},
	)
	require.ErrorIs(t, err, ErrBaseUnitNotConfigured)
	require.ErrorIs(t, err, apperrors.ErrPrecondition)

	_, err = svc.Pool(ctx, nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestPooledVolumeSumsBaseAmounts(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	mL := units.add("mL", persistence.DimensionVolume, "1")
	uL := units.add("uL", persistence.DimensionVolume, "0.001")
	svc := New(units.repo())

	pooled, err := svc.PooledVolume(context.Background(),
		[]decimal.Decimal{dec(t, "1.5"), dec(t, "250")},
		[]uuid.UUID{mL.UnitID, uL.UnitID},
	)
	require.NoError(t, err)
	require.Equal(t, mL.UnitID, pooled.UnitID)
	require.True(t, pooled.Value.Equal(dec(t, "1.75")), pooled.Value.String())
}

func TestPoolCombinesConcentrationAndVolume(t *testing.T) {
	t.Parallel()

	units := unitTable{}
	mgPerML := units.add("mg/mL", persistence.DimensionConcentration, "1")
	mL := units.add("mL", persistence.DimensionVolume, "1")
	mg := units.add("mg", persistence.DimensionMass, "1")
	svc := New(units.repo(), WithPrecision(10))

	result, err := svc.Pool(context.Background(), []PoolInput{
		{Concentration: dec(t, "10"), ConcentrationUnitID: mgPerML.UnitID, Amount: dec(t, "5"), AmountUnitID: mg.UnitID},
		{Concentration: dec(t, "20"), ConcentrationUnitID: mgPerML.UnitID, Amount: dec(t, "10"), AmountUnitID: mg.UnitID},
	})
	require.NoError(t, err)
	require.Equal(t, mgPerML.UnitID, result.ConcentrationUnitID)
	require.Equal(t, mL.UnitID, result.VolumeUnitID)
	require.True(t, result.TotalVolume.Equal(dec(t, "1.5")))
	require.Equal(t, "16.6666666667", result.Concentration.String())
}

func TestFromFloatUsesShortestRepresentation(t *testing.T) {
	t.Parallel()

	d, err := FromFloat(0.1)
	require.NoError(t, err)
	require.Equal(t, "0.1", d.String())

	d, err = FromFloat(1e-7)
	require.NoError(t, err)
	require.Equal(t, "0.0000001", d.String())

	_, err = FromFloat(math.NaN())
	require.ErrorIs(t, err, ErrNotFinite)
	_, err = FromFloat(math.Inf(1))
	require.ErrorIs(t, err, apperrors.ErrPrecondition)
}
