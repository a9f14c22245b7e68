// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/asctl/cmd/asctl/handlers"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
}

var globals globalFlags

// Root returns the root command for the asctl CLI.
//
// The root command owns the persistent --config and --verbose flags and
// installs the logger into the command context before any subcommand runs.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "asctl",
		Short:         "Manage your attachment service instances and image builds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := handlers.NewLogger(globals.verbose)
			if err != nil {
				return err
			}
			cmd.SetContext(logr.NewContext(cmd.Context(), log))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&globals.configPath, "config", "c", "", "Path to the configuration file (default: $XDG_CONFIG_HOME/asctl/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&globals.verbose, "verbose", "v", false, "Enable debug logging")

	// Instance commands
	cmd.AddCommand(Status())
	cmd.AddCommand(Generate())
	cmd.AddCommand(Configure())
	cmd.AddCommand(Remove())
	cmd.AddCommand(Download())

	// Image builds
	cmd.AddCommand(Images())
	cmd.AddCommand(Artifacts())

	cmd.AddCommand(Watch())
	cmd.AddCommand(Version())

	return cmd
}
