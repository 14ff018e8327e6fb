package unitscmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/benchline/lims-core/apps/cli/cmd/app"
	"github.com/benchline/lims-core/platform/go/persistence"
)

// Command groups unit registry and conversion helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "Unit registry and decimal conversions",
	}

	cmd.AddCommand(addCommand())
	cmd.AddCommand(listCommand())
	cmd.AddCommand(convertCommand())
	return cmd
}

func addCommand() *cobra.Command {
	var (
		name       string
		dimension  string
		multiplier string
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Register a unit (multiplier 1 marks the dimension's base unit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dim := persistence.Dimension(strings.ToLower(strings.TrimSpace(dimension)))
			if !dim.Valid() {
				return fmt.Errorf("invalid dimension %q (use mass, volume or concentration)", dimension)
			}

			var m *decimal.Decimal
			if multiplier != "" {
				parsed, err := decimal.NewFromString(multiplier)
				if err != nil {
					return fmt.Errorf("invalid multiplier: %w", err)
				}
				m = &parsed
			}

			ctx := context.Background()
			a, err := app.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			_, store, err := a.Units()
			if err != nil {
				return err
			}

			unit, err := store.CreateUnit(ctx, persistence.CreateUnitParams{
				UnitID:     uuid.New(),
				Name:       name,
				Dimension:  dim,
				Multiplier: m,
			})
			if err != nil {
				return fmt.Errorf("create unit: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", unit.UnitID, unit.Name, unit.Dimension)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "Unit name, e.g. mg")
	c.Flags().StringVar(&dimension, "dimension", "", "mass | volume | concentration")
	c.Flags().StringVar(&multiplier, "multiplier", "", "Factor to the base unit (decimal string)")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("dimension")

	return c
}

func listCommand() *cobra.Command {
	var dimension string

	c := &cobra.Command{
		Use:   "list",
		Short: "List active units of a dimension",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := app.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			_, store, err := a.Units()
			if err != nil {
				return err
			}

			units, err := store.ListUnits(ctx, persistence.Dimension(strings.ToLower(dimension)))
			if err != nil {
				return fmt.Errorf("list units: %w", err)
			}
			for _, unit := range units {
				multiplier := "-"
				if unit.Multiplier != nil {
					multiplier = unit.Multiplier.String()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", unit.UnitID, unit.Name, multiplier)
			}
			return nil
		},
	}

	c.Flags().StringVar(&dimension, "dimension", "", "mass | volume | concentration")
	_ = c.MarkFlagRequired("dimension")

	return c
}

func convertCommand() *cobra.Command {
	var (
		value string
		from  string
		to    string
	)

	c := &cobra.Command{
		Use:   "convert",
		Short: "Convert a value to the base unit, or between two units of one dimension",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := decimal.NewFromString(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("invalid value: %w", err)
			}
			fromID, err := uuid.Parse(from)
			if err != nil {
				return fmt.Errorf("invalid --from unit id: %w", err)
			}

			ctx := context.Background()
			a, err := app.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, _, err := a.Units()
			if err != nil {
				return err
			}

			var out decimal.Decimal
			if to == "" {
				out, err = svc.ConvertToBase(ctx, v, fromID)
			} else {
				toID, parseErr := uuid.Parse(to)
				if parseErr != nil {
					return fmt.Errorf("invalid --to unit id: %w", parseErr)
				}
				out, err = svc.Convert(ctx, v, fromID, toID)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}

	c.Flags().StringVar(&value, "value", "", "Decimal value to convert")
	c.Flags().StringVar(&from, "from", "", "Source unit id")
	c.Flags().StringVar(&to, "to", "", "Target unit id (defaults to the base unit)")
	_ = c.MarkFlagRequired("value")
	_ = c.MarkFlagRequired("from")

	return c
}
