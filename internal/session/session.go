package session

import (
	"sync"
)

// DefaultTokenHeader is the literal header carrying the rotation token.
const DefaultTokenHeader = "X-Xsrf-Token"

// Session is the process-wide session context: the rotation token and the
// identity of the logged-in user. It is safe for concurrent use.
type Session struct {
	header string

	mu        sync.RWMutex
	token     string
	userEmail string
}

// New creates a session whose token travels in the given header.
// An empty header name selects DefaultTokenHeader.
func New(header string) *Session {
	if header == "" {
		header = DefaultTokenHeader
	}
	return &Session{header: header}
}

// Header returns the name of the token header.
func (s *Session) Header() string {
	return s.header
}

// Token returns the token attached to the next outgoing request.
// It is empty until the first response carrying the header arrives.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Rotate replaces the token. An empty value leaves the prior token in place
// and reports false.
func (s *Session) Rotate(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return true
}

// SetUser records the email of the logged-in user.
func (s *Session) SetUser(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userEmail = email
}

// UserEmail returns the email recorded by SetUser.
func (s *Session) UserEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userEmail
}

// Reset clears the token and user, as after a logout.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userEmail = ""
}
