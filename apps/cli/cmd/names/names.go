package namescmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/benchline/lims-core/apps/cli/cmd/app"
	namingservice "github.com/benchline/lims-core/domains/naming/be/service"
	"github.com/benchline/lims-core/platform/go/persistence"
)

// Command groups name generation and template administration helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Generate, preview and administer entity names",
	}

	cmd.AddCommand(generateCommand())
	cmd.AddCommand(previewCommand())
	cmd.AddCommand(resetCommand())
	cmd.AddCommand(templateCommand())
	return cmd
}

type nameFlags struct {
	entity string
	client string
	date   string
	extra  []string
}

func (f *nameFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.entity, "entity", "", "Entity type (sample, project, batch, analysis, container)")
	c.Flags().StringVar(&f.client, "client", "", "Client name for the {CLIENT} placeholder")
	c.Flags().StringVar(&f.date, "date", "", "Reference date (YYYY-MM-DD); defaults to today")
	c.Flags().StringArrayVar(&f.extra, "set", nil, "Extra placeholder KEY=VALUE (repeatable)")
	_ = c.MarkFlagRequired("entity")
}

func (f *nameFlags) input() (namingservice.GenerateInput, error) {
	entityType, err := persistence.ParseEntityType(f.entity)
	if err != nil {
		return namingservice.GenerateInput{}, err
	}

	input := namingservice.GenerateInput{EntityType: entityType, ClientName: f.client}
	if f.date != "" {
		date, err := time.Parse(time.DateOnly, f.date)
		if err != nil {
			return namingservice.GenerateInput{}, fmt.Errorf("invalid --date: %w", err)
		}
		input.ReferenceDate = date
	}
	if len(f.extra) > 0 {
		input.Extra = make(map[string]string, len(f.extra))
		for _, pair := range f.extra {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return namingservice.GenerateInput{}, fmt.Errorf("invalid --set %q, expected KEY=VALUE", pair)
			}
			input.Extra[key] = value
		}
	}
	return input, nil
}

func generateCommand() *cobra.Command {
	var flags nameFlags

	c := &cobra.Command{
		Use:   "generate",
		Short: "Generate the next unique name for an entity type",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}
			return withNaming(func(ctx context.Context, svc namingservice.Service) error {
				name, err := svc.Generate(ctx, input)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}
	flags.register(c)
	return c
}

func previewCommand() *cobra.Command {
	var flags nameFlags

	c := &cobra.Command{
		Use:   "preview",
		Short: "Show the next name without advancing the sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}
			return withNaming(func(ctx context.Context, svc namingservice.Service) error {
				name, err := svc.Preview(ctx, input)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}
	flags.register(c)
	return c
}

func resetCommand() *cobra.Command {
	var (
		entity string
		next   int64
	)

	c := &cobra.Command{
		Use:   "reset",
		Short: "Restart the sequence of an entity type",
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := persistence.ParseEntityType(entity)
			if err != nil {
				return err
			}
			return withNaming(func(ctx context.Context, svc namingservice.Service) error {
				if err := svc.ResetSequence(ctx, entityType, next); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sequence for %s restarts at %d.\n", entityType, next)
				return nil
			})
		},
	}

	c.Flags().StringVar(&entity, "entity", "", "Entity type")
	c.Flags().Int64Var(&next, "next", 1, "Next value handed out")
	_ = c.MarkFlagRequired("entity")
	return c
}

func templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage name templates",
	}

	var (
		entity  string
		pattern string
		padding int
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Create the active template for an entity type",
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := persistence.ParseEntityType(entity)
			if err != nil {
				return err
			}
			return withNaming(func(ctx context.Context, svc namingservice.Service) error {
				tmpl, err := svc.CreateTemplate(ctx, namingservice.CreateTemplateInput{
					EntityType:       entityType,
					Template:         pattern,
					SeqPaddingDigits: padding,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", tmpl.TemplateID, tmpl.EntityType, tmpl.Template)
				return nil
			})
		},
	}
	set.Flags().StringVar(&entity, "entity", "", "Entity type")
	set.Flags().StringVar(&pattern, "template", "", "Template, e.g. {CLIENT}-{YYYY}{MM}-{SEQ}")
	set.Flags().IntVar(&padding, "padding", namingservice.MinSeqPadding, "Zero padding of {SEQ}")
	_ = set.MarkFlagRequired("entity")
	_ = set.MarkFlagRequired("template")

	var id string
	deactivate := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a template by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			templateID, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
			}
			return withNaming(func(ctx context.Context, svc namingservice.Service) error {
				if err := svc.DeactivateTemplate(ctx, templateID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Template %s deactivated.\n", templateID)
				return nil
			})
		},
	}
	deactivate.Flags().StringVar(&id, "id", "", "Template id")
	_ = deactivate.MarkFlagRequired("id")

	cmd.AddCommand(set, deactivate)
	return cmd
}

func withNaming(fn func(ctx context.Context, svc namingservice.Service) error) error {
	ctx := context.Background()
	a, err := app.Open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.Naming()
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}
