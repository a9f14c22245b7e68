package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/asctl/cmd/asctl/handlers"
)

// Images returns the parent command for image builds.
func Images() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Build and download device images",
	}

	cmd.AddCommand(imagesList())
	cmd.AddCommand(imagesBuild())
	cmd.AddCommand(imagesDownload())

	return cmd
}

func imagesList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available images and your builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ImagesList(cmd.Context(), globals.configPath)
		},
	}
}

func imagesBuild() *cobra.Command {
	return &cobra.Command{
		Use:   "build <instance-id> <image>",
		Short: "Start an image build for an instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ImagesBuild(cmd.Context(), globals.configPath, args[0], args[1])
		},
	}
}

func imagesDownload() *cobra.Command {
	return &cobra.Command{
		Use:   "download <instance-id> <image>",
		Short: "Download a finished image build",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ImagesDownload(cmd.Context(), globals.configPath, args[0], args[1])
		},
	}
}

// Artifacts returns the parent command for the S3 artifact mirror.
func Artifacts() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect downloads mirrored to S3",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List mirrored downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ArtifactsList(cmd.Context(), globals.configPath)
		},
	})

	return cmd
}
