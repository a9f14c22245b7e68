package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/asctl/internal/metrics"
	"github.com/imamik/asctl/internal/session"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps response bodies read into memory.
const maxBodySize = 10 << 20

// Client talks to the coordinator API under {base}/api/.
type Client struct {
	base       *url.URL
	session    *session.Session
	httpClient *http.Client
	baseRT     http.RoundTripper
	timeout    time.Duration
	log        logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRoundTripper sets the transport the session guard wraps.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.baseRT = rt
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the server at baseURL. All requests carry
// the token held by s and rotate it from every response.
func NewClient(baseURL string, s *session.Session, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	if s == nil {
		s = session.New("")
	}

	c := &Client{
		base:    base,
		session: s,
		timeout: DefaultTimeout,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	c.httpClient = &http.Client{
		Transport: session.NewTransport(s, c.baseRT, c.log.WithName("session")),
		Jar:       jar,
		Timeout:   c.timeout,
	}
	return c, nil
}

// Session returns the session context the client stamps requests from.
func (c *Client) Session() *session.Session {
	return c.session
}

// HTTPClient returns the client's session-aware HTTP client. Navigation
// targets must be fetched through it so they carry the session cookie and
// token.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// BaseURL returns the server base URL with a trailing slash.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// endpointURL returns {base}/api/{path}.
func (c *Client) endpointURL(path string) string {
	return c.base.ResolveReference(&url.URL{Path: "api/" + path}).String()
}

// DownloadTarballURL is the deterministic navigation target for an
// instance's configuration tarball.
func (c *Client) DownloadTarballURL(resourceID string) string {
	return c.endpointURL("as/downloadTarball/" + resourceID)
}

// ResolveURL resolves a server-provided link against the base URL.
// Absolute links are returned unchanged.
func (c *Client) ResolveURL(link string) string {
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return c.base.ResolveReference(ref).String()
}

// request is one API call.
type request struct {
	endpoint    string
	method      string
	path        string
	body        io.Reader
	contentType string
}

func jsonRequest(endpoint, method, path string, v any) (request, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}
	return request{
		endpoint:    endpoint,
		method:      method,
		path:        path,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	}, nil
}

// do performs r and returns the body of a 2xx response. Failures are
// classified into the package error types.
func (c *Client) do(ctx context.Context, r request) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPICall(r.endpoint, resultLabel(err), time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpointURL(r.path), r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", r.endpoint, err)
	}
	req.Header.Set("Accept", "application/json, text/plain")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: r.endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Endpoint: r.endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var requestID string
	if resp.Request != nil {
		requestID = resp.Request.Header.Get(session.RequestIDHeader)
	}
	c.log.V(1).Info("api call", "endpoint", r.endpoint, "status", resp.StatusCode, "requestID", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(r.endpoint, resp.StatusCode, body)
	}
	return body, nil
}

// doJSON performs r and decodes a 2xx body into out.
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.endpoint, err)
	}
	return nil
}

// doMessage performs r and returns the 2xx body as a message string.
func (c *Client) doMessage(ctx context.Context, r request) (string, error) {
	body, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}

// decodeMessage accepts a JSON string, a JSON object with a "message" field
// or plain text.
func decodeMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '{':
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if obj.Message != "" {
				return obj.Message
			}
			if obj.Error != "" {
				return obj.Error
			}
		}
	}
	return string(trimmed)
}
