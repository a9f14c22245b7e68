package navigation

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/asctl/internal/api"
)

// ArtifactSink mirrors downloaded artifacts. *s3.Sink satisfies it.
type ArtifactSink interface {
	Upload(ctx context.Context, name, contentType string, body io.ReadSeeker, size int64) (string, error)
}

// Artifact is one completed download.
type Artifact struct {
	URL  string
	Path string
	Key  string
	Size int64
}

// Downloader is the CLI Navigator: it saves every target into a directory.
type Downloader struct {
	client *http.Client
	dir    string
	sink   ArtifactSink
	log    logr.Logger

	mu        sync.Mutex
	artifacts []Artifact
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithSink mirrors every download to sink.
func WithSink(sink ArtifactSink) DownloaderOption {
	return func(d *Downloader) {
		d.sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.log = log
	}
}

// NewDownloader creates a downloader saving into dir through client.
func NewDownloader(client *http.Client, dir string, opts ...DownloaderOption) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	d := &Downloader{client: client, dir: dir, log: logr.Discard()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open implements Navigator.
func (d *Downloader) Open(ctx context.Context, target string) error {
	_, err := d.Download(ctx, target)
	return err
}

// Download fetches target and stores it.
func (d *Downloader) Download(ctx context.Context, target string) (Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Artifact{}, &api.NetworkError{Endpoint: "download", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Artifact{}, &api.AuthExpiredError{StatusCode: resp.StatusCode, Endpoint: "download"}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Artifact{}, &api.ServerRejectedError{
			StatusCode: resp.StatusCode,
			Endpoint:   "download",
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	name := fileName(resp.Header.Get("Content-Disposition"), target)
	dest := filepath.Join(d.dir, name)
	size, err := d.save(resp.Body, dest)
	if err != nil {
		return Artifact{}, err
	}

	artifact := Artifact{URL: target, Path: dest, Size: size}
	if d.sink != nil {
		key, err := d.mirror(ctx, name, resp.Header.Get("Content-Type"), dest, size)
		if err != nil {
			return artifact, fmt.Errorf("saved %s but failed to mirror it: %w", dest, err)
		}
		artifact.Key = key
	}

	d.log.Info("downloaded artifact", "path", dest, "bytes", size, "key", artifact.Key)

	d.mu.Lock()
	d.artifacts = append(d.artifacts, artifact)
	d.mu.Unlock()
	return artifact, nil
}

// save streams body into a temporary file next to dest and renames it into
// place once complete, so dest never holds a partial download.
func (d *Downloader) save(body io.Reader, dest string) (int64, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}
	tmp, err := os.CreateTemp(d.dir, ".asctl-download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, err := io.Copy(tmp, body)
	if err != nil {
		_ = tmp.Close()
		return 0, &api.NetworkError{Endpoint: "download", Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return size, nil
}

// mirror uploads the saved file to the sink.
func (d *Downloader) mirror(ctx context.Context, name, contentType, file string, size int64) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return d.sink.Upload(ctx, name, contentType, f, size)
}

// Artifacts returns the completed downloads in order.
func (d *Downloader) Artifacts() []Artifact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Artifact(nil), d.artifacts...)
}

// fileName picks the local name of a download: the Content-Disposition
// filename when present, else the last element of the URL path.
func fileName(disposition, target string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if fn := params["filename"]; fn != "" {
				if name := filepath.Base(fn); name != "." && name != "/" {
					return name
				}
			}
		}
	}
	if u, err := url.Parse(target); err == nil {
		if name := path.Base(u.Path); name != "." && name != "/" {
			return name
		}
	}
	return "download"
}
