package accesscmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/benchline/lims-core/apps/cli/cmd/app"
	accessservice "github.com/benchline/lims-core/domains/access/be/service"
)

// Command groups access control helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Inspect users and evaluate permission rules",
	}

	cmd.AddCommand(whoamiCommand())
	cmd.AddCommand(checkCommand())
	return cmd
}

func whoamiCommand() *cobra.Command {
	var user string

	c := &cobra.Command{
		Use:   "whoami",
		Short: "Resolve a user into role, client and permission set",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			ctx := context.Background()
			a, err := app.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.Access()
			if err != nil {
				return err
			}

			rc, err := svc.Resolve(ctx, userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:        %s\n", rc.UserID)
			fmt.Fprintf(out, "client:      %s\n", rc.ClientID)
			fmt.Fprintf(out, "role:        %s\n", rc.RoleName)
			fmt.Fprintf(out, "admin:       %t\n", accessservice.IsSystemClientOrAdmin(rc))
			fmt.Fprintf(out, "permissions: %s\n", strings.Join(rc.PermissionNames(), ", "))
			return nil
		},
	}

	c.Flags().StringVar(&user, "user", "", "User id")
	_ = c.MarkFlagRequired("user")
	return c
}

func checkCommand() *cobra.Command {
	var (
		user        string
		permissions []string
		roles       []string
		matchAny    bool
	)

	c := &cobra.Command{
		Use:   "check",
		Short: "Evaluate permission and role requirements for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if len(permissions) == 0 && len(roles) == 0 {
				return errors.New("at least one --permission or --role is required")
			}

			var rules []accessservice.Rule
			if len(permissions) > 0 {
				if matchAny {
					rules = append(rules, accessservice.RequireAnyPermission(permissions...))
				} else {
					rules = append(rules, accessservice.RequireAllPermissions(permissions...))
				}
			}
			if len(roles) > 0 {
				rules = append(rules, accessservice.RequireAnyRole(roles...))
			}
			rule := accessservice.AllOf(rules...)
			if matchAny {
				rule = accessservice.AnyOf(rules...)
			}

			ctx := context.Background()
			a, err := app.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.Access()
			if err != nil {
				return err
			}

			rc, err := svc.Resolve(ctx, userID)
			if err != nil {
				return err
			}
			if err := rule.Check(rc); err != nil {
				var forbidden *accessservice.ForbiddenError
				if errors.As(err, &forbidden) {
					fmt.Fprintf(cmd.OutOrStdout(), "denied: %s\n", forbidden.Error())
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			return nil
		},
	}

	c.Flags().StringVar(&user, "user", "", "User id")
	c.Flags().StringArrayVar(&permissions, "permission", nil, "Required permission (repeatable)")
	c.Flags().StringArrayVar(&roles, "role", nil, "Accepted role (repeatable)")
	c.Flags().BoolVar(&matchAny, "any", false, "Accept any listed permission instead of requiring all")
	_ = c.MarkFlagRequired("user")
	return c
}
