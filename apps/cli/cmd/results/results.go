package resultscmd

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	resultsservice "github.com/benchline/lims-core/domains/results/be/service"
)

// ErrInvalidResult is returned when validation reports at least one error.
var ErrInvalidResult = errors.New("result failed validation")

// Command groups result validation helpers. They run offline and need no database.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Validate result and attribute values",
	}

	cmd.AddCommand(validateCommand())
	return cmd
}

func validateCommand() *cobra.Command {
	var (
		value     string
		dataType  string
		low       string
		high      string
		sigFigs   int
		maxLength int
		layout    string
		options   []string
		strict    bool
	)

	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate a value against a data type and its rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := resultsservice.Rules{MaxLength: maxLength, Layout: layout, Options: options}
			var err error
			if rules.Low, err = optionalDecimal(low); err != nil {
				return fmt.Errorf("invalid --low: %w", err)
			}
			if rules.High, err = optionalDecimal(high); err != nil {
				return fmt.Errorf("invalid --high: %w", err)
			}
			if cmd.Flags().Changed("sig-figs") {
				rules.SigFigs = &sigFigs
			}

			dt, err := resultsservice.ParseDataType(dataType, rules)
			if err != nil {
				return err
			}

			validation := resultsservice.Validate(value, dt)
			if strict {
				validation = resultsservice.ValidateAttribute(value, dt)
			}

			out := cmd.OutOrStdout()
			if validation.Valid {
				fmt.Fprintln(out, "valid")
				return nil
			}
			for _, msg := range validation.Errors {
				fmt.Fprintf(out, "invalid: %s\n", msg)
			}
			return ErrInvalidResult
		},
	}

	c.Flags().StringVar(&value, "value", "", "Raw value to validate")
	c.Flags().StringVar(&dataType, "type", resultsservice.TypeNumeric, "numeric | text | date | boolean | select")
	c.Flags().StringVar(&low, "low", "", "Inclusive lower bound (numeric)")
	c.Flags().StringVar(&high, "high", "", "Inclusive upper bound (numeric)")
	c.Flags().IntVar(&sigFigs, "sig-figs", 0, "Advisory significant figures (numeric)")
	c.Flags().IntVar(&maxLength, "max-length", 0, "Maximum characters (text, 0 means unlimited)")
	c.Flags().StringVar(&layout, "layout", "", "Date layout in Go reference form (date)")
	c.Flags().StringArrayVar(&options, "option", nil, "Allowed option (select, repeatable)")
	c.Flags().BoolVar(&strict, "strict", false, "Apply attribute rules to non-numeric types")
	_ = c.MarkFlagRequired("value")
	return c
}

func optionalDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
