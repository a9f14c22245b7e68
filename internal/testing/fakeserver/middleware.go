package fakeserver

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// recordMiddleware records the request before any other handling.
func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := readBody(r)
		r.Body = io.NopCloser(bytes.NewReader(body))

		var form map[string][]string
		if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
			if values, err := url.ParseQuery(string(body)); err == nil {
				form = values
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Token:  r.Header.Get(TokenHeader),
			Body:   body,
			Form:   form,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// failureMiddleware answers with a configured failure for a path.
func (s *Server) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.URL.Path]
		if ok && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(s.failures, r.URL.Path)
			}
		}
		s.mu.Unlock()

		if ok {
			http.Error(w, f.body, f.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenMiddleware rotates the session token on every response. Expired
// sessions are rejected with 401. In strict mode a mutating request with a
// stale token is rejected with 403.
func (s *Server) tokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		if s.expired && r.URL.Path != "/api/login" {
			s.mu.Unlock()
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}

		mutating := r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete
		if s.strict && mutating && r.URL.Path != "/api/login" {
			got := r.Header.Get(TokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
				s.mu.Unlock()
				http.Error(w, "XSRF Token mismatch", http.StatusForbidden)
				return
			}
		}

		s.tokenSeq++
		s.token = fmt.Sprintf("token-%d", s.tokenSeq)
		w.Header().Set(TokenHeader, s.token)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}
