package navigation

import (
	"context"
	"sync"
)

// Recorder is an in-memory Navigator and LoginBoundary for tests.
type Recorder struct {
	// OpenErr is returned by every Open call when set.
	OpenErr error

	mu        sync.Mutex
	opened    []string
	redirects int
}

// Open implements Navigator.
func (r *Recorder) Open(_ context.Context, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, target)
	return r.OpenErr
}

// RedirectToLogin implements LoginBoundary.
func (r *Recorder) RedirectToLogin(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects++
}

// Opened returns every target passed to Open.
func (r *Recorder) Opened() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.opened...)
}

// Redirects returns the number of login redirects.
func (r *Recorder) Redirects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirects
}
