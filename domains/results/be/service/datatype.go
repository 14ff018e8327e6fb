package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/benchline/lims-core/platform/go/apperrors"
)

// Data type tags as stored on analytes and custom attribute definitions.
const (
	TypeNumeric = "numeric"
	TypeText    = "text"
	TypeDate    = "date"
	TypeBoolean = "boolean"
	TypeSelect  = "select"
)

// DefaultDateLayout is used by Date when no layout is configured.
const DefaultDateLayout = "2006-01-02"

var (
	ErrUnknownDataType = fmt.Errorf("%w: unknown data type", apperrors.ErrPrecondition)
	ErrInvalidRules    = fmt.Errorf("%w: invalid data type rules", apperrors.ErrPrecondition)
)

// DataType is the closed set of value types a result or attribute can declare.
// The unexported method seals the interface to the variants below.
type DataType interface {
	Name() string
	sealed()
}

// Numeric values parse as decimals and may carry bounds and a significant-figure budget.
type Numeric struct {
	Low     *decimal.Decimal
	High    *decimal.Decimal
	SigFigs *int
}

// Text values may be limited in length (runes). MaxLength 0 means unlimited.
type Text struct {
	MaxLength int
}

// Date values must parse with Layout.
type Date struct {
	Layout string
}

// Boolean values accept true/false, yes/no and 1/0.
type Boolean struct{}

// Select values must match one of Options exactly.
type Select struct {
	Options []string
}

func (Numeric) Name() string { return TypeNumeric }
func (Text) Name() string    { return TypeText }
func (Date) Name() string    { return TypeDate }
func (Boolean) Name() string { return TypeBoolean }
func (Select) Name() string  { return TypeSelect }

func (Numeric) sealed() {}
func (Text) sealed()    {}
func (Date) sealed()    {}
func (Boolean) sealed() {}
func (Select) sealed()  {}

// Rules carries the optional per-type configuration read alongside a data type tag.
type Rules struct {
	Low       *decimal.Decimal
	High      *decimal.Decimal
	SigFigs   *int
	MaxLength int
	Layout    string
	Options   []string
}

// ParseDataType maps a stored tag and its rules onto a DataType variant.
func ParseDataType(name string, rules Rules) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case TypeNumeric:
		if rules.SigFigs != nil && *rules.SigFigs <= 0 {
			return nil, fmt.Errorf("%w: significant figures must be positive", ErrInvalidRules)
		}
		return Numeric{Low: rules.Low, High: rules.High, SigFigs: rules.SigFigs}, nil
	case TypeText:
		if rules.MaxLength < 0 {
			return nil, fmt.Errorf("%w: max length must not be negative", ErrInvalidRules)
		}
		return Text{MaxLength: rules.MaxLength}, nil
	case TypeDate:
		return Date{Layout: rules.Layout}, nil
	case TypeBoolean:
		return Boolean{}, nil
	case TypeSelect:
		if len(rules.Options) == 0 {
			return nil, fmt.Errorf("%w: select requires at least one option", ErrInvalidRules)
		}
		return Select{Options: append([]string(nil), rules.Options...)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, name)
	}
}
