package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/asctl/cmd/asctl/handlers"
)

// Watch returns the watch command.
func Watch() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live dashboard of instances and image builds",
		Long: `Watch polls your image builds and shows them next to your instances
until you quit or the session expires.

Keys: up/down select, r refresh, x dismiss messages, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Watch(cmd.Context(), globals.configPath, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}
