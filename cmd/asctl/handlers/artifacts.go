package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/asctl/internal/config"
)

// ArtifactsList handles the artifacts list command.
func ArtifactsList(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.Artifacts.Enabled() {
		return errors.New("no artifact bucket configured: set artifacts.bucket or " + config.EnvS3Bucket)
	}

	sink, err := newArtifactSink(ctx, cfg.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to create artifact sink: %w", err)
	}
	keys, err := sink.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(stdout, "No artifacts in s3://%s\n", sink.Bucket())
		return nil
	}
	for _, key := range keys {
		fmt.Fprintf(stdout, "s3://%s/%s\n", sink.Bucket(), key)
	}
	return nil
}
