package navigation

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/imamik/asctl/internal/session"
)

// Navigator opens a navigation target such as a tarball download link.
type Navigator interface {
	Open(ctx context.Context, target string) error
}

// LoginBoundary is where an expired session sends the user.
type LoginBoundary interface {
	RedirectToLogin(ctx context.Context)
}

// LoginNotice is the CLI login boundary. It clears the session context and
// tells the user to log in again.
type LoginNotice struct {
	out      io.Writer
	session  *session.Session
	loginURL string

	mu        sync.Mutex
	redirects int
}

// NewLoginNotice creates a login boundary writing to out.
func NewLoginNotice(out io.Writer, s *session.Session, loginURL string) *LoginNotice {
	return &LoginNotice{out: out, session: s, loginURL: loginURL}
}

// RedirectToLogin implements LoginBoundary.
func (n *LoginNotice) RedirectToLogin(_ context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects++
	if n.session != nil {
		n.session.Reset()
	}
	_, _ = fmt.Fprintf(n.out, "Session expired. Log in again at %s or check your credentials.\n", n.loginURL)
}

// Redirects returns how many times the boundary was triggered.
func (n *LoginNotice) Redirects() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.redirects
}
