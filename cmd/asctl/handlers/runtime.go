package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/config"
	"github.com/imamik/asctl/internal/coordinator"
	"github.com/imamik/asctl/internal/navigation"
	"github.com/imamik/asctl/internal/platform/s3"
)

// ErrSessionExpired is returned when the server ended the session.
var ErrSessionExpired = errors.New("session expired")

// Factory function variables - can be replaced in tests.
var (
	loadConfig     = config.Load
	newCoordinator = coordinator.New

	// newArtifactSink creates the S3 mirror for downloads.
	newArtifactSink = func(ctx context.Context, a config.ArtifactsConfig) (artifactStore, error) {
		sink, err := s3.NewSink(ctx, s3.Options{
			Endpoint:  a.Endpoint,
			Region:    a.Region,
			AccessKey: a.AccessKey,
			SecretKey: a.SecretKey,
			Bucket:    a.Bucket,
			Prefix:    a.Prefix,
			PathStyle: a.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil
	}

	isTerminal = func() bool {
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}

	stdout io.Writer = os.Stdout
)

// artifactStore is the S3 sink as seen by the handlers.
type artifactStore interface {
	navigation.ArtifactSink
	Bucket() string
	EnsureBucket(ctx context.Context) error
	List(ctx context.Context) ([]string, error)
}

// runtime is one logged-in session.
type runtime struct {
	cfg    *config.Config
	coord  *coordinator.Coordinator
	sink   artifactStore
	notice *navigation.LoginNotice
	log    logr.Logger
}

// connect loads the configuration, builds the coordinator and logs in.
func connect(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log := logr.FromContextOrDiscard(ctx)

	rt := &runtime{cfg: cfg, log: log}
	if cfg.Artifacts.Enabled() {
		sink, err := newArtifactSink(ctx, cfg.Artifacts)
		if err != nil {
			return nil, fmt.Errorf("failed to create artifact sink: %w", err)
		}
		if err := sink.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		rt.sink = sink
	}

	rt.notice = navigation.NewLoginNotice(stdout, nil, cfg.Server.URL)
	opts := coordinator.Options{
		BaseURL:      cfg.Server.URL,
		TokenHeader:  cfg.Server.TokenHeader,
		Timeout:      cfg.Server.Timeout,
		PollInterval: cfg.Poll.Interval,
		DownloadDir:  cfg.Download.Dir,
		Login:        rt.notice,
		Log:          log,
	}
	if rt.sink != nil {
		opts.ArtifactSink = rt.sink
	}
	rt.coord, err = newCoordinator(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	if cfg.Credentials.Email == "" {
		return nil, fmt.Errorf("no credentials configured: set credentials.email and credentials.password or %s and %s",
			config.EnvEmail, config.EnvPassword)
	}
	if err := rt.coord.Login(ctx, cfg.Credentials.Email, cfg.Credentials.Password); err != nil {
		return nil, err
	}
	return rt, nil
}

// close ends the session.
func (rt *runtime) close(ctx context.Context) {
	if rt.coord.Expired() {
		rt.coord.Stop()
		return
	}
	if err := rt.coord.Logout(ctx); err != nil {
		rt.log.V(1).Info("logout failed", "error", err.Error())
	}
}

// check maps an operation error to the command error.
func (rt *runtime) check(err error) error {
	if err == nil {
		return nil
	}
	if api.IsAuthExpired(err) || rt.coord.Expired() {
		return ErrSessionExpired
	}
	return err
}

// reportDownloads prints every artifact saved by the default downloader.
func (rt *runtime) reportDownloads() {
	d, ok := rt.coord.Navigator().(*navigation.Downloader)
	if !ok {
		return
	}
	for _, a := range d.Artifacts() {
		fmt.Fprintf(stdout, "Saved %s (%d bytes)\n", a.Path, a.Size)
		if a.Key != "" && rt.sink != nil {
			fmt.Fprintf(stdout, "Uploaded to s3://%s/%s\n", rt.sink.Bucket(), a.Key)
		}
	}
}
