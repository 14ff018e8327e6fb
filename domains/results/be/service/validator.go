package service

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation reports whether a value satisfied its declared type. Errors are human readable
// and name the offending value and bound.
type Validation struct {
	Valid  bool
	Errors []string
}

func newValidation(errs []string) Validation {
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// ValidateResult checks a raw analyte result against the analyte's declared rule. It never
// fails; callers decide whether to reject. Data types other than numeric pass through.
func ValidateResult(value, dataType string, low, high *decimal.Decimal, sigFigs *int) Validation {
	if !strings.EqualFold(strings.TrimSpace(dataType), TypeNumeric) {
		return newValidation(nil)
	}
	return Validate(value, Numeric{Low: low, High: high, SigFigs: sigFigs})
}

// Validate applies the analyte result rules for dt. Only Numeric carries result checks.
func Validate(value string, dt DataType) Validation {
	switch t := concrete(dt).(type) {
	case Numeric:
		return newValidation(validateNumeric(value, t))
	case Text, Date, Boolean, Select, nil:
		return newValidation(nil)
	default:
		return unsupported(dt)
	}
}

// ValidateAttribute applies the strict per-variant rules used for custom attributes.
func ValidateAttribute(value string, dt DataType) Validation {
	switch t := concrete(dt).(type) {
	case Numeric:
		return newValidation(validateNumeric(value, t))
	case Text:
		if t.MaxLength > 0 {
			if n := utf8.RuneCountInString(value); n > t.MaxLength {
				return newValidation([]string{fmt.Sprintf("value has %d characters, maximum is %d", n, t.MaxLength)})
			}
		}
		return newValidation(nil)
	case Date:
		layout := t.Layout
		if layout == "" {
			layout = DefaultDateLayout
		}
		if _, err := time.Parse(layout, strings.TrimSpace(value)); err != nil {
			return newValidation([]string{fmt.Sprintf("value %q is not a valid date (expected layout %s)", value, layout)})
		}
		return newValidation(nil)
	case Boolean:
		if _, ok := parseBool(value); !ok {
			return newValidation([]string{fmt.Sprintf("value %q is not a valid boolean", value)})
		}
		return newValidation(nil)
	case Select:
		if !slices.Contains(t.Options, value) {
			return newValidation([]string{fmt.Sprintf("value %q is not one of [%s]", value, strings.Join(t.Options, ", "))})
		}
		return newValidation(nil)
	case nil:
		return newValidation([]string{"data type is not configured"})
	default:
		return unsupported(dt)
	}
}

// concrete dereferences pointer variants so both forms share one switch. A nil pointer
// behaves like a missing data type.
func concrete(dt DataType) DataType {
	switch t := dt.(type) {
	case *Numeric:
		if t != nil {
			return *t
		}
	case *Text:
		if t != nil {
			return *t
		}
	case *Date:
		if t != nil {
			return *t
		}
	case *Boolean:
		if t != nil {
			return *t
		}
	case *Select:
		if t != nil {
			return *t
		}
	default:
		return dt
	}
	return nil
}

func unsupported(dt DataType) Validation {
	return newValidation([]string{fmt.Sprintf("unsupported data type %T", dt)})
}

func validateNumeric(value string, rule Numeric) []string {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return []string{fmt.Sprintf("value %q is not a valid number", value)}
	}

	var errs []string
	if rule.Low != nil && parsed.LessThan(*rule.Low) {
		errs = append(errs, fmt.Sprintf("value %s is below minimum %s", parsed, rule.Low))
	}
	if rule.High != nil && parsed.GreaterThan(*rule.High) {
		errs = append(errs, fmt.Sprintf("value %s is above maximum %s", parsed, rule.High))
	}
	if rule.SigFigs != nil {
		if n := SignificantFigures(parsed); n > *rule.SigFigs {
			errs = append(errs, fmt.Sprintf("value %s has %d significant figures, expected at most %d (advisory)", parsed, n, *rule.SigFigs))
		}
	}
	return errs
}

// SignificantFigures approximates the significant-figure count of d: the digits of its
// normalized string with sign, decimal point and leading zeros removed. Trailing zeros of
// integers count; trailing fractional zeros are dropped by normalization.
func SignificantFigures(d decimal.Decimal) int {
	digits := strings.NewReplacer("-", "", ".", "").Replace(d.String())
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return 1
	}
	return len(digits)
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	default:
		return false, false
	}
}
