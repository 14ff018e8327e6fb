package bootstrap

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benchline/lims-core/apps/cli/cmd/app"
	"github.com/benchline/lims-core/platform/go/identity"
	"github.com/benchline/lims-core/platform/go/persistence"
)

// Notes/constraints:
// - Schema DDL is idempotent; rerunning bootstrap on an initialised database is safe.
// - The app role is created NOLOGIN and granted to the connecting user so SET LOCAL ROLE works.
// - The admin user created here belongs to the System client and holds the Administrator role.

// Command groups bootstrap helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap database resources (schema, app role, first administrator)",
	}

	cmd.AddCommand(schemaCommand())
	cmd.AddCommand(adminCommand())
	return cmd
}

func schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Apply the embedded DDL and row-level security policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := app.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := persistence.BootstrapSchema(ctx, a.Pool, persistence.BootstrapConfig{
				Schema:  a.Config.Schema,
				AppRole: a.Config.AppRole,
			}); err != nil {
				return fmt.Errorf("bootstrap schema: %w", err)
			}

			a.Logger.Info("schema bootstrapped", zap.String("schema", a.Config.Schema), zap.String("app_role", a.Config.AppRole))
			fmt.Fprintf(cmd.OutOrStdout(), "Schema %q ready (app role %q).\n", a.Config.Schema, a.Config.AppRole)
			return nil
		},
	}
}

func adminCommand() *cobra.Command {
	var email string

	c := &cobra.Command{
		Use:   "admin",
		Short: "Create the Administrator role and a System-client administrator user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := app.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := persistence.NewAccessStore(a.SessionDB)
			if err != nil {
				return fmt.Errorf("init access store: %w", err)
			}

			roleID := uuid.New()
			if err := store.CreateRole(ctx, roleID, identity.AdministratorRole); err != nil {
				return fmt.Errorf("create administrator role: %w", err)
			}

			userID := uuid.New()
			if err := store.CreateUser(ctx, persistence.CreateUserParams{
				UserID:   userID,
				Email:    email,
				RoleID:   roleID,
				ClientID: identity.SystemClientID,
			}); err != nil {
				return fmt.Errorf("create administrator user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Administrator created: %s (%s)\n", email, userID)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "Administrator email")
	_ = c.MarkFlagRequired("email")

	return c
}
