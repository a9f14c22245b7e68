package session

import (
	"net/http"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/asctl/internal/metrics"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// Transport is the token rotation guard. It wraps another RoundTripper,
// stamps the session token on each request and rotates it from each response.
type Transport struct {
	Session *Session
	Base    http.RoundTripper
	Log     logr.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil) with the guard.
func NewTransport(s *Session, base http.RoundTripper, log logr.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Session: s, Base: base, Log: log}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	if token := t.Session.Token(); token != "" {
		out.Header.Set(t.Session.Header(), token)
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}

	resp, err := t.Base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	// Rotate before the response reaches the caller.
	if t.Session.Rotate(resp.Header.Get(t.Session.Header())) {
		metrics.RecordTokenRotation()
		t.Log.V(2).Info("rotated session token",
			"requestID", out.Header.Get(RequestIDHeader),
			"path", out.URL.Path)
	}
	return resp, nil
}
