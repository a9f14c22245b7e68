package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/asctl/internal/model"
	"github.com/imamik/asctl/internal/session"
	"github.com/imamik/asctl/internal/testing/fakeserver"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(url, session.New(""))
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	tests := []string{"", "not a url", "/relative/path"}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := NewClient(raw, nil)
			assert.Error(t, err)
		})
	}
}

func TestClient_URLBuilders(t *testing.T) {
	c, err := NewClient("https://coord.example.com/", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://coord.example.com/api/as/downloadTarball/ffaa:1:1", c.DownloadTarballURL("ffaa:1:1"))
	assert.Equal(t, "https://coord.example.com/download/img.tar.gz", c.ResolveURL("/download/img.tar.gz"))
	assert.Equal(t, "https://cdn.example.com/x.img", c.ResolveURL("https://cdn.example.com/x.img"))
}

func TestClient_URLBuilders_BasePath(t *testing.T) {
	c, err := NewClient("https://coord.example.com/lab", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://coord.example.com/lab/api/as/downloadTarball/a1", c.DownloadTarballURL("a1"))
}

func TestClient_FetchDirectory(t *testing.T) {
	srv := fakeserver.New(t, fakeserver.WithUser("alice@example.com"))
	srv.SetAttachmentPoints(
		fakeserver.AttachmentPoint{IA: "AP1", HasVPN: true},
		fakeserver.AttachmentPoint{IA: "AP2"},
	)
	srv.AddInstance(fakeserver.Instance{ASID: "a1", IsVPN: true, ServerIA: "AP1", Port: 50000, Type: "2", Status: 1})
	srv.AddInstance(fakeserver.Instance{ASID: "a2", IP: "10.0.0.2", Status: 2})
	srv.AddInstance(fakeserver.Instance{ASID: "a3", Status: 4})

	c := newTestClient(t, srv.URL)
	snap, err := c.FetchDirectory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", snap.User.Email)
	assert.Equal(t, 5, snap.ResourceLimit)
	assert.Equal(t, []model.AttachmentPoint{{ID: "AP1", HasVPN: true}, {ID: "AP2"}}, snap.AttachmentPoints)
	require.Len(t, snap.Instances, 3)

	assert.Equal(t, model.Instance{
		ID: "a1", Mode: model.ModeVPN, Port: 50000, AttachmentPoint: "AP1", Type: "2", State: model.StateConfigured,
	}, snap.Instances[0])
	assert.Equal(t, model.ModePublicIP, snap.Instances[1].Mode)
	assert.Equal(t, model.StateConfiguring, snap.Instances[1].State)
	assert.Equal(t, model.StateRemoving, snap.Instances[2].State)
	assert.Equal(t, "alice@example.com", c.Session().UserEmail())
}

func TestClient_FetchDirectory_LenientWireTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"user": {"email": "bob@example.com"},
			"resourceLimit": 1,
			"attachmentPoints": null,
			"resourceInstances": [{"asID": "a1", "port": "1194", "type": 2, "status": 3}]
		}`))
	}))
	defer server.Close()

	snap, err := newTestClient(t, server.URL).FetchDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Instances, 1)
	assert.Equal(t, 1194, snap.Instances[0].Port)
	assert.Equal(t, "2", snap.Instances[0].Type)
	assert.Equal(t, model.StateConfiguring, snap.Instances[0].State)
	assert.Empty(t, snap.AttachmentPoints)
}

func TestClient_Configure_Body(t *testing.T) {
	tests := []struct {
		name     string
		params   ConfigureParams
		wantVPN  bool
		wantType int
	}{
		{
			name:     "public ip",
			params:   ConfigureParams{ResourceID: "a1", OwnerEmail: "u@example.com", Mode: model.ModePublicIP, IP: "10.0.0.1", AttachmentPoint: "AP1", Port: 9000, Type: "1"},
			wantVPN:  false,
			wantType: 1,
		},
		{
			name:     "vpn with type 2",
			params:   ConfigureParams{ResourceID: "a1", Mode: model.ModeVPN, AttachmentPoint: "AP1", Port: 1194, Type: "2"},
			wantVPN:  true,
			wantType: 2,
		},
		{
			name:     "unknown type maps to 1",
			params:   ConfigureParams{ResourceID: "a1", Mode: model.ModeVPN, AttachmentPoint: "AP1", Port: 1194, Type: "box"},
			wantVPN:  true,
			wantType: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/as/configureAS", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				_, _ = w.Write([]byte("AS configured"))
			}))
			defer server.Close()

			msg, err := newTestClient(t, server.URL).Configure(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, "AS configured", msg)

			assert.Equal(t, tt.params.ResourceID, got["asID"])
			assert.Equal(t, tt.params.OwnerEmail, got["userEmail"])
			assert.Equal(t, tt.wantVPN, got["isVPN"])
			assert.Equal(t, tt.params.IP, got["ip"])
			assert.Equal(t, tt.params.AttachmentPoint, got["serverIA"])
			assert.Equal(t, float64(tt.wantType), got["type"])
			assert.Equal(t, float64(tt.params.Port), got["port"])
		})
	}
}

func TestClient_MessageCalls(t *testing.T) {
	srv := fakeserver.New(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	msg, err := c.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AS generated", msg)

	instances := srv.Instances()
	require.Len(t, instances, 1)

	msg, err = c.SubmitBuildJob(ctx, instances[0].ASID, "ubuntu")
	require.NoError(t, err)
	assert.Equal(t, "Build job submitted", msg)

	reqs := srv.RequestsTo("/api/imgbuild/create/" + instances[0].ASID)
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"ubuntu"}, reqs[0].Form["image_name"])

	msg, err = c.Remove(ctx, instances[0].ASID)
	require.NoError(t, err)
	assert.Equal(t, "AS removed", msg)
	assert.Empty(t, srv.Instances())
}

func TestClient_ImageCatalogAndRecords(t *testing.T) {
	srv := fakeserver.New(t)
	srv.SetImages(fakeserver.Image{Name: "ubuntu", DisplayName: "Ubuntu 20.04"})
	srv.SetRecords(fakeserver.BuildRecord{Image: "ubuntu", ASID: "a1", Status: "done", DownloadLink: "/download/u.img"})

	c := newTestClient(t, srv.URL)
	catalog, err := c.ImageCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.ImageDescriptor{{Name: "ubuntu", DisplayName: "Ubuntu 20.04"}}, catalog)

	records, err := c.UserBuildRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.BuildRecord{{Image: "ubuntu", ResourceID: "a1", Status: "done", DownloadLink: "/download/u.img"}}, records)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		check    func(error) bool
		wantText string
	}{
		{"unauthorized", http.StatusUnauthorized, "no session", IsAuthExpired, ""},
		{"forbidden", http.StatusForbidden, "XSRF Token mismatch", IsAuthExpired, ""},
		{"bad request", http.StatusBadRequest, "Port already in use", IsServerRejected, "Port already in use"},
		{"json string body", http.StatusConflict, `"AS limit reached"`, IsServerRejected, "AS limit reached"},
		{"empty body", http.StatusInternalServerError, "", IsServerRejected, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Generate(context.Background())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %T", err)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, UserMessage(err))
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).FetchDirectory(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsAuthExpired(err))
}

func TestClient_LoginCarriesCookieAndToken(t *testing.T) {
	srv := fakeserver.New(t, fakeserver.WithStrictTokens())
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "carol@example.com", "secret"))
	assert.Equal(t, "carol@example.com", c.Session().UserEmail())
	assert.Equal(t, srv.Token(), c.Session().Token())

	// Strict mode rejects a POST with a stale token, so a second mutating
	// call succeeding proves the rotated token was carried.
	_, err := c.Generate(ctx)
	require.NoError(t, err)
	_, err = c.Generate(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Session().Token())
}

func TestClient_StaleTokenIsAuthExpired(t *testing.T) {
	srv := fakeserver.New(t, fakeserver.WithStrictTokens())
	s := session.New("")
	c, err := NewClient(srv.URL, s)
	require.NoError(t, err)

	_, err = c.FetchDirectory(context.Background())
	require.NoError(t, err)
	s.Rotate("forged")

	_, err = c.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
}

func TestDecodeMessage(t *testing.T) {
	tests := map[string]string{
		`"AS generated"`:            "AS generated",
		"plain text\n":              "plain text",
		`{"message":"from object"}`: "from object",
		`{"error":"bad thing"}`:     "bad thing",
		"":                          "",
	}
	for body, want := range tests {
		assert.Equal(t, want, decodeMessage([]byte(body)), "body %q", body)
	}
}
