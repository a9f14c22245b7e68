// Package fakeserver is an in-process stand-in for the coordinator API used
// by package tests. It keeps a small in-memory directory, rotates the session
// token on every response and records every request it receives.
package fakeserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// TokenHeader is the rotation header the fake server issues.
const TokenHeader = "X-Xsrf-Token"

// Instance is a resource instance in wire form.
type Instance struct {
	ASID     string `json:"asID"`
	IsVPN    bool   `json:"isVPN"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	ServerIA string `json:"serverIA"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Status   int    `json:"status"`
}

// AttachmentPoint is an attachment point in wire form.
type AttachmentPoint struct {
	IA     string `json:"ia"`
	HasVPN bool   `json:"hasVPN"`
}

// Image is a catalog entry in wire form.
type Image struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// BuildRecord is a user build job in wire form.
type BuildRecord struct {
	Image        string `json:"image"`
	ASID         string `json:"asID"`
	Status       string `json:"status"`
	DownloadLink string `json:"download_link"`
}

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Token  string
	Body   []byte
	Form   map[string][]string
}

type failure struct {
	status int
	body   string
	times  int // 0 means until cleared
}

// Server is the fake coordinator.
type Server struct {
	*httptest.Server

	mu               sync.Mutex
	strict           bool
	expired          bool
	tokenSeq         int
	token            string
	email            string
	limit            int
	nextID           int
	instances        []Instance
	attachmentPoints []AttachmentPoint
	images           []Image
	records          []BuildRecord
	failures         map[string]*failure
	requests         []Request
}

// Option configures a Server.
type Option func(*Server)

// WithStrictTokens rejects mutating requests whose token is not the latest
// one issued, the way the real server's XSRF middleware does.
func WithStrictTokens() Option {
	return func(s *Server) {
		s.strict = true
	}
}

// WithUser sets the email of the logged-in user.
func WithUser(email string) Option {
	return func(s *Server) {
		s.email = email
	}
}

// TB is the part of testing.TB the server needs. GinkgoT() satisfies it.
type TB interface {
	Helper()
	Cleanup(func())
}

// New starts a fake server that is closed when the test ends.
func New(t TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		email:    "user@example.com",
		limit:    5,
		nextID:   1,
		failures: make(map[string]*failure),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recordMiddleware, s.failureMiddleware, s.tokenMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/userPageData", s.handleUserPageData).Methods(http.MethodGet)
	api.HandleFunc("/as/generateAS", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/as/configureAS", s.handleConfigure).Methods(http.MethodPost)
	api.HandleFunc("/as/removeAS/{asID}", s.handleRemove).Methods(http.MethodPost)
	api.HandleFunc("/as/downloadTarball/{asID}", s.handleDownloadTarball).Methods(http.MethodGet)
	api.HandleFunc("/imgbuild/images", s.handleImages).Methods(http.MethodGet)
	api.HandleFunc("/imgbuild/user-images", s.handleUserImages).Methods(http.MethodGet)
	api.HandleFunc("/imgbuild/create/{asID}", s.handleCreateImage).Methods(http.MethodPost)
	r.HandleFunc("/download/{file}", s.handleDownloadFile).Methods(http.MethodGet)
	return r
}

// APIURL returns the absolute URL of an API path.
func (s *Server) APIURL(path string) string {
	return s.URL + "/api/" + path
}

func writeMessage(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msg)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	data, _ := io.ReadAll(r.Body)
	return data
}

func (s *Server) newID() string {
	id := fmt.Sprintf("ffaa:1:%x", s.nextID)
	s.nextID++
	return id
}
