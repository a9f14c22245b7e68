package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/asctl/internal/config"
	"github.com/imamik/asctl/internal/coordinator"
	"github.com/imamik/asctl/internal/model"
	asctltest "github.com/imamik/asctl/internal/testing"
	"github.com/imamik/asctl/internal/testing/fakeserver"
	"github.com/imamik/asctl/internal/ui/tui"
)

// fakeStore is an in-memory artifact sink.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	ensured bool
}

func (f *fakeStore) Upload(_ context.Context, name, _ string, body io.ReadSeeker, _ int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	key := "asctl/" + name
	f.objects[key] = data
	return key, nil
}

func (f *fakeStore) Bucket() string { return "artifacts" }

func (f *fakeStore) EnsureBucket(context.Context) error {
	f.ensured = true
	return nil
}

func (f *fakeStore) List(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

type env struct {
	srv   *fakeserver.Server
	out   *bytes.Buffer
	cfg   *config.Config
	store *fakeStore
}

// setup points the handlers at a fake server. Handlers share package
// state, so these tests do not run in parallel.
func setup(t *testing.T) *env {
	t.Helper()
	srv := fakeserver.New(t)
	srv.SetAttachmentPoints(
		fakeserver.AttachmentPoint{IA: "AP1", HasVPN: true},
		fakeserver.AttachmentPoint{IA: "AP2"},
	)
	srv.SetImages(fakeserver.Image{Name: "ubuntu", DisplayName: "Ubuntu 20.04"})
	srv.AddInstance(fakeserver.Instance{ASID: "a1", Type: "1"})

	cfg := asctltest.NewConfigBuilder().
		WithServer(srv.URL).
		WithCredentials("alice@example.org", "secret").
		WithDownloadDir(t.TempDir()).
		Build()

	e := &env{srv: srv, out: &bytes.Buffer{}, cfg: cfg, store: &fakeStore{}}

	origLoad, origSink, origOut, origTerm := loadConfig, newArtifactSink, stdout, isTerminal
	origPrompt, origDash := runConfigurePrompt, runDashboard
	t.Cleanup(func() {
		loadConfig, newArtifactSink, stdout, isTerminal = origLoad, origSink, origOut, origTerm
		runConfigurePrompt, runDashboard = origPrompt, origDash
	})

	loadConfig = func(string) (*config.Config, error) { return e.cfg, nil }
	newArtifactSink = func(context.Context, config.ArtifactsConfig) (artifactStore, error) { return e.store, nil }
	stdout = e.out
	isTerminal = func() bool { return false }
	return e
}

func TestConnect_RequiresCredentials(t *testing.T) {
	e := setup(t)
	e.cfg.Credentials.Email = ""

	err := Status(asctltest.TestContext(t), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials configured")
}

func TestConnect_ConfigError(t *testing.T) {
	setup(t)
	loadConfig = func(string) (*config.Config, error) { return nil, errors.New("bad config") }

	assert.EqualError(t, Generate(context.Background(), "asctl.yaml"), "bad config")
}

func TestStatus(t *testing.T) {
	e := setup(t)
	e.srv.SetRecords(fakeserver.BuildRecord{Image: "ubuntu", ASID: "a1", Status: "done", DownloadLink: "/download/ubuntu-a1.img"})

	require.NoError(t, Status(context.Background(), ""))

	out := e.out.String()
	assert.Contains(t, out, "alice@example.org")
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "Unconfigured")
	assert.Contains(t, out, "AP1")
	assert.Contains(t, out, "Ubuntu 20.04")
	assert.Contains(t, out, "ready")
	assert.Equal(t, 1, e.srv.CountRequests("/api/logout"))
}

func TestStatus_SessionExpired(t *testing.T) {
	e := setup(t)
	e.srv.Fail("/api/userPageData", http.StatusUnauthorized, "")

	err := Status(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Contains(t, e.out.String(), "Session expired")
	assert.Zero(t, e.srv.CountRequests("/api/logout"))
}

func TestGenerate(t *testing.T) {
	e := setup(t)

	require.NoError(t, Generate(context.Background(), ""))

	assert.Contains(t, e.out.String(), "AS generated")
	assert.Len(t, e.srv.Instances(), 2)
}

func TestGenerate_LimitReached(t *testing.T) {
	e := setup(t)
	e.srv.SetResourceLimit(1)

	err := Generate(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "You have reached the maximum number of ASes", err.Error())
}

func TestConfigure(t *testing.T) {
	e := setup(t)
	e.cfg.Artifacts.Bucket = "artifacts"

	err := Configure(context.Background(), "", "a1", ConfigureOptions{
		Mode:            "public-ip",
		IP:              "10.0.0.1",
		Port:            9000,
		AttachmentPoint: "AP1",
	})
	require.NoError(t, err)

	out := e.out.String()
	assert.Contains(t, out, "AS configured")
	assert.Contains(t, out, "Saved "+filepath.Join(e.cfg.Download.Dir, "a1.tar.gz"))
	assert.Contains(t, out, "s3://artifacts/asctl/a1.tar.gz")
	assert.True(t, e.store.ensured)

	data, err := os.ReadFile(filepath.Join(e.cfg.Download.Dir, "a1.tar.gz"))
	require.NoError(t, err)
	assert.Equal(t, "tarball:a1", string(data))
}

func TestConfigure_Type(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		want float64
	}{
		{"keep current", "", 1},
		{"dedicated", "dedicated", 2},
		{"numeric", "2", 2},
		{"vm", "VM", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)

			require.NoError(t, Configure(context.Background(), "", "a1", ConfigureOptions{
				Mode:            "vpn",
				Port:            50000,
				AttachmentPoint: "AP1",
				Type:            tt.typ,
			}))

			reqs := e.srv.RequestsTo("/api/as/configureAS")
			require.Len(t, reqs, 1)
			var body map[string]any
			require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
			assert.Equal(t, tt.want, body["type"])
		})
	}
}

func TestConfigure_UnknownType(t *testing.T) {
	e := setup(t)

	err := Configure(context.Background(), "", "a1", ConfigureOptions{Type: "mainframe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
	assert.Zero(t, e.srv.CountRequests("/api/as/configureAS"))
}

func TestConfigure_ValidationMessage(t *testing.T) {
	e := setup(t)

	err := Configure(context.Background(), "", "a1", ConfigureOptions{
		Mode:            "vpn",
		Port:            80,
		AttachmentPoint: "AP1",
	})
	require.Error(t, err)
	assert.Equal(t, "The port must be between 1024 and 65535.", err.Error())
	assert.Zero(t, e.srv.CountRequests("/api/as/configureAS"))
}

func TestConfigure_UnknownMode(t *testing.T) {
	setup(t)

	err := Configure(context.Background(), "", "a1", ConfigureOptions{Mode: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestConfigure_UnknownInstance(t *testing.T) {
	setup(t)

	err := Configure(context.Background(), "", "nope", ConfigureOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `instance "nope" not found`)
}

func TestConfigure_PromptsForMissingFields(t *testing.T) {
	e := setup(t)
	isTerminal = func() bool { return true }

	var offered []model.AttachmentPoint
	runConfigurePrompt = func(_ context.Context, in *model.Instance, aps []model.AttachmentPoint) error {
		offered = aps
		in.Mode = model.ModeVPN
		in.Port = 50000
		in.AttachmentPoint = "AP1"
		return nil
	}

	require.NoError(t, Configure(context.Background(), "", "a1", ConfigureOptions{Interactive: true}))
	assert.Len(t, offered, 2)
	assert.Contains(t, e.out.String(), "AS configured")
}

func TestRemove(t *testing.T) {
	e := setup(t)
	e.srv.AddInstance(fakeserver.Instance{ASID: "a2", Type: "1", Status: 1, ServerIA: "AP1", IsVPN: true, Port: 50000})

	require.NoError(t, Remove(context.Background(), "", "a2"))
	assert.Contains(t, e.out.String(), "AS removed")
}

func TestDownload(t *testing.T) {
	e := setup(t)

	require.NoError(t, Download(context.Background(), "", "a1"))
	assert.Contains(t, e.out.String(), "a1.tar.gz")
	assert.Equal(t, 1, e.srv.CountRequests("/api/as/downloadTarball/a1"))
}

func TestImagesList(t *testing.T) {
	e := setup(t)
	e.srv.SetRecords(fakeserver.BuildRecord{Image: "ubuntu", ASID: "a1", Status: "pending"})

	require.NoError(t, ImagesList(context.Background(), ""))

	out := e.out.String()
	assert.Contains(t, out, "ubuntu")
	assert.Contains(t, out, "Ubuntu 20.04")
	assert.Contains(t, out, "building")
}

func TestImagesBuild(t *testing.T) {
	e := setup(t)

	require.NoError(t, ImagesBuild(context.Background(), "", "a1", "ubuntu"))
	assert.Contains(t, e.out.String(), "Build job submitted")
}

func TestImagesBuild_UnknownImage(t *testing.T) {
	e := setup(t)

	err := ImagesBuild(context.Background(), "", "a1", "windows")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown image "windows"`)
	assert.Zero(t, e.srv.CountRequests("/api/imgbuild/create/a1"))
}

func TestImagesBuild_Rejected(t *testing.T) {
	e := setup(t)
	e.srv.Fail("/api/imgbuild/create/a1", http.StatusTooManyRequests, "Too many build requests")

	err := ImagesBuild(context.Background(), "", "a1", "ubuntu")
	require.Error(t, err)
	assert.Equal(t, "Too many build requests", err.Error())
}

func TestImagesDownload(t *testing.T) {
	e := setup(t)
	e.srv.SetRecords(
		fakeserver.BuildRecord{Image: "ubuntu", ASID: "a1", Status: "done", DownloadLink: "/download/ubuntu-a1.img"},
		fakeserver.BuildRecord{Image: "ubuntu", ASID: "a1", Status: "pending"},
	)

	require.NoError(t, ImagesDownload(context.Background(), "", "a1", "ubuntu"))
	data, err := os.ReadFile(filepath.Join(e.cfg.Download.Dir, "ubuntu-a1.img"))
	require.NoError(t, err)
	assert.Equal(t, "image:ubuntu-a1.img", string(data))
}

func TestImagesDownload_NotFinished(t *testing.T) {
	e := setup(t)
	e.srv.SetRecords(fakeserver.BuildRecord{Image: "ubuntu", ASID: "a1", Status: "pending"})

	err := ImagesDownload(context.Background(), "", "a1", "ubuntu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finished yet")

	err = ImagesDownload(context.Background(), "", "a2", "ubuntu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no build")
}

func TestFindRecord(t *testing.T) {
	records := []model.BuildRecord{
		{Image: "ubuntu", ResourceID: "a1", Status: "done", DownloadLink: "/old"},
		{Image: "ubuntu", ResourceID: "a1", Status: "done", DownloadLink: "/new"},
		{Image: "ubuntu", ResourceID: "a1", Status: "pending"},
		{Image: "debian", ResourceID: "a1", Status: "pending"},
	}

	rec, ok := findRecord(records, "a1", "ubuntu")
	require.True(t, ok)
	assert.Equal(t, "/new", rec.DownloadLink)

	rec, ok = findRecord(records, "a1", "debian")
	require.True(t, ok)
	assert.Equal(t, "pending", rec.Status)

	_, ok = findRecord(records, "a2", "ubuntu")
	assert.False(t, ok)
}

func TestArtifactsList(t *testing.T) {
	e := setup(t)

	err := ArtifactsList(context.Background(), "")
	require.Error(t, err, "no bucket configured")

	e.cfg.Artifacts.Bucket = "artifacts"
	require.NoError(t, ArtifactsList(context.Background(), ""))
	assert.Contains(t, e.out.String(), "No artifacts in s3://artifacts")

	_, _ = e.store.Upload(context.Background(), "a1.tar.gz", "", strings.NewReader("x"), 1)
	require.NoError(t, ArtifactsList(context.Background(), ""))
	assert.Contains(t, e.out.String(), "s3://artifacts/asctl/a1.tar.gz")
}

func TestWatch(t *testing.T) {
	e := setup(t)

	var server string
	runDashboard = func(_ context.Context, c *coordinator.Coordinator, srv string, _ ...tea.ProgramOption) error {
		server = srv
		require.NotNil(t, c)
		return tui.ErrSessionExpired
	}

	err := Watch(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, e.srv.URL, server)

	runDashboard = func(context.Context, *coordinator.Coordinator, string, ...tea.ProgramOption) error {
		return context.Canceled
	}
	assert.NoError(t, Watch(context.Background(), "", "127.0.0.1:0"))
}

func TestServeMetrics(t *testing.T) {
	stop, err := serveMetrics("127.0.0.1:0")
	require.NoError(t, err)
	stop()

	_, err = serveMetrics("not-an-address")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		log, err := NewLogger(verbose)
		require.NoError(t, err)
		assert.NotNil(t, log.GetSink())
		assert.Equal(t, verbose, log.V(1).Enabled())
	}
}
