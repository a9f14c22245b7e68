package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/asctl/cmd/asctl/handlers"
)

// Status returns the status command.
func Status() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your instances, attachment points and image builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), globals.configPath)
		},
	}
}

// Generate returns the generate command.
func Generate() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a new instance",
		Long: `Generate asks the coordinator to allocate a new instance.

The new instance starts unconfigured. Use 'asctl configure' to attach it.
The server rejects the request once your resource limit is reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Generate(cmd.Context(), globals.configPath)
		},
	}
}

// Configure returns the configure command.
//
// Flags left unset keep the instance's current value. Missing values are
// prompted for when stdout is a terminal.
func Configure() *cobra.Command {
	var opts handlers.ConfigureOptions

	cmd := &cobra.Command{
		Use:   "configure <instance-id>",
		Short: "Configure an instance and download its configuration",
		Long: `Configure attaches an instance to an attachment point and downloads the
resulting configuration tarball into the download directory.

Examples:
  asctl configure ffaa:1:1 --mode vpn --ap 1-ff00:0:110 --port 50000
  asctl configure ffaa:1:1 --mode public-ip --ip 203.0.113.10 --ap 1-ff00:0:111 --port 50000 --type dedicated`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Configure(cmd.Context(), globals.configPath, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Attachment mode: vpn or public-ip")
	cmd.Flags().StringVar(&opts.IP, "ip", "", "Public IP address (public-ip mode)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port (1024-65535)")
	cmd.Flags().StringVar(&opts.AttachmentPoint, "ap", "", "Attachment point identifier")
	cmd.Flags().StringVar(&opts.Label, "label", "", "Instance label")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Instance type: vm (1) or dedicated (2)")
	cmd.Flags().BoolVar(&opts.Interactive, "interactive", true, "Prompt for missing values when running in a terminal")

	return cmd
}

// Remove returns the remove command.
func Remove() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <instance-id>",
		Short: "Remove an instance's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Remove(cmd.Context(), globals.configPath, args[0])
		},
	}
}

// Download returns the download command.
func Download() *cobra.Command {
	return &cobra.Command{
		Use:   "download <instance-id>",
		Short: "Download an instance's configuration tarball",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Download(cmd.Context(), globals.configPath, args[0])
		},
	}
}
