package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the LIMS operator CLI. Subcommands (bootstrap, units, names, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "lims",
	Short:         "LIMS core operator CLI",
	Long:          "Operator utilities for the LIMS core (schema bootstrap, unit conversions, entity naming, access checks, result validation).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
