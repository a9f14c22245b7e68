package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rotatingServer hands out token-1, token-2, ... and records what each request carried.
type rotatingServer struct {
	mu       sync.Mutex
	n        int
	received []string
	skip     map[int]bool // response numbers without a rotation header
}

func (s *rotatingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	s.received = append(s.received, r.Header.Get(DefaultTokenHeader))
	if !s.skip[s.n] {
		w.Header().Set(DefaultTokenHeader, fmt.Sprintf("token-%d", s.n))
	}
	w.WriteHeader(http.StatusOK)
}

func newClient(s *Session) *http.Client {
	return &http.Client{Transport: NewTransport(s, nil, logr.Discard())}
}

func TestTransport_NextRequestCarriesRotatedToken(t *testing.T) {
	srv := &rotatingServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := New("")
	client := newClient(s)

	for i := 0; i < 3; i++ {
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, []string{"", "token-1", "token-2"}, srv.received)
	assert.Equal(t, "token-3", s.Token())
}

func TestTransport_AbsentHeaderKeepsPriorToken(t *testing.T) {
	srv := &rotatingServer{skip: map[int]bool{2: true}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := New("")
	client := newClient(s)

	for i := 0; i < 3; i++ {
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// response 2 had no header, so request 3 still carries token-1
	assert.Equal(t, []string{"", "token-1", "token-1"}, srv.received)
}

func TestTransport_TokenUpdatedBeforeResponseReturned(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(DefaultTokenHeader, "fresh")
	}))
	defer ts.Close()

	s := New("")
	resp, err := newClient(s).Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "fresh", s.Token())
}

func TestTransport_StampsRequestID(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
	}))
	defer ts.Close()

	resp, err := newClient(New("")).Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Len(t, got, 36)
}

func TestTransport_CustomHeader(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Csrf")
		w.Header().Set("X-Csrf", "abc")
	}))
	defer ts.Close()

	s := New("X-Csrf")
	client := newClient(s)
	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, "abc", got)
}

func TestSession_RotateEmptyIsNoop(t *testing.T) {
	s := New("")
	assert.True(t, s.Rotate("a"))
	assert.False(t, s.Rotate(""))
	assert.Equal(t, "a", s.Token())

	s.SetUser("u@example.com")
	s.Reset()
	assert.Empty(t, s.Token())
	assert.Empty(t, s.UserEmail())
}
