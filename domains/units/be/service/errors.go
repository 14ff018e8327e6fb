package service

import (
	"fmt"

	"github.com/benchline/lims-core/platform/go/apperrors"
)

// Domain-level error sentinel values. Each wraps an apperrors kind.
var (
	ErrUnitNotFound          = fmt.Errorf("%w: unit not found or inactive", apperrors.ErrNotFound)
	ErrMissingMultiplier     = fmt.Errorf("%w: unit has no multiplier", apperrors.ErrPrecondition)
	ErrInvalidMultiplier     = fmt.Errorf("%w: unit multiplier must be positive", apperrors.ErrPrecondition)
	ErrShapeMismatch         = fmt.Errorf("%w: input lists must have the same length", apperrors.ErrPrecondition)
	ErrEmptyInput            = fmt.Errorf("%w: input lists must not be empty", apperrors.ErrPrecondition)
	ErrBaseUnitNotConfigured = fmt.Errorf("%w: base unit not configured", apperrors.ErrPrecondition)
	ErrDimensionMismatch     = fmt.Errorf("%w: units belong to different dimensions", apperrors.ErrPrecondition)
	ErrNotFinite             = fmt.Errorf("%w: value must be a finite number", apperrors.ErrPrecondition)
	ErrDivisionByZero        = fmt.Errorf("%w: cannot calculate volume: concentration is zero", apperrors.ErrArithmetic)
	ErrZeroTotalVolume       = fmt.Errorf("%w: cannot pool: total volume is zero", apperrors.ErrArithmetic)
)
