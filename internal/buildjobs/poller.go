package buildjobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/metrics"
	"github.com/imamik/asctl/internal/model"
	"github.com/imamik/asctl/internal/navigation"
	"github.com/imamik/asctl/internal/util/retry"
)

// DefaultInterval is the nominal poll period.
const DefaultInterval = 15 * time.Second

// ErrNoDownloadLink is returned when a record has nothing to download yet.
var ErrNoDownloadLink = errors.New("build has no download link yet")

// Client is the subset of the API client the poller calls.
type Client interface {
	ImageCatalog(ctx context.Context) ([]model.ImageDescriptor, error)
	UserBuildRecords(ctx context.Context) ([]model.BuildRecord, error)
	SubmitBuildJob(ctx context.Context, resourceID, imageName string) (string, error)
	ResolveURL(link string) string
}

// Deps are the collaborators of a Poller.
type Deps struct {
	Client    Client
	Messages  *messages.Channel
	Navigator navigation.Navigator
	Login     navigation.LoginBoundary
	Log       logr.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll period.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithCatalogRetry sets how the catalog fetch retries network failures.
func WithCatalogRetry(attempts int, initialDelay time.Duration) Option {
	return func(p *Poller) {
		p.catalogRetry = []retry.Option{
			retry.WithMaxAttempts(attempts),
			retry.WithInitialDelay(initialDelay),
		}
	}
}

// Listener is called with the new record list after every applied fetch.
type Listener func(records []model.BuildRecord)

// Poller is the build job poller. It is safe for concurrent use.
type Poller struct {
	deps         Deps
	interval     time.Duration
	catalogRetry []retry.Option

	// issued numbers every fetch; results older than the last applied
	// one are dropped.
	issued atomic.Uint64

	mu        sync.RWMutex
	catalog   []model.ImageDescriptor
	names     map[string]string
	records   []model.BuildRecord
	applied   uint64
	lastPoll  time.Time
	lastErr   error
	listeners []Listener

	runMu    sync.Mutex
	starting bool
	halted   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a stopped poller.
func New(deps Deps, opts ...Option) *Poller {
	if deps.Log.GetSink() == nil {
		deps.Log = logr.Discard()
	}
	p := &Poller{
		deps:     deps,
		interval: DefaultInterval,
		catalogRetry: []retry.Option{
			retry.WithMaxAttempts(4),
			retry.WithInitialDelay(500 * time.Millisecond),
		},
		names: map[string]string{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start fetches the catalog and starts the poll loop. The first poll runs
// immediately. An expired session triggers the login boundary and the loop
// is not started; any other catalog failure is logged and the loop starts
// with an empty catalog. The loop outlives ctx; it ends with Stop, Halt or
// an expired session.
func (p *Poller) Start(ctx context.Context) error {
	p.runMu.Lock()
	if p.starting || p.isRunningLocked() {
		p.runMu.Unlock()
		return errors.New("poller is already running")
	}
	p.starting = true
	p.halted = false
	p.runMu.Unlock()

	err := p.loadCatalog(ctx)

	p.runMu.Lock()
	p.starting = false
	halted := p.halted
	p.runMu.Unlock()

	if err != nil {
		if api.IsAuthExpired(err) {
			metrics.RecordPoll("auth_expired")
			p.deps.Login.RedirectToLogin(ctx)
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		p.deps.Log.Error(err, "image catalog unavailable, records will show image names")
	}
	if halted {
		return nil
	}

	p.runMu.Lock()
	defer p.runMu.Unlock()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx, p.done)
	return nil
}

func (p *Poller) isRunningLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Running reports whether the poll loop is active.
func (p *Poller) Running() bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.isRunningLocked()
}

// Stop cancels the poll loop and waits for it to exit. It must not be
// called from a Listener or the login boundary; use Halt there.
func (p *Poller) Stop() {
	p.runMu.Lock()
	if p.starting {
		p.halted = true
	}
	cancel, done := p.cancel, p.done
	p.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Halt cancels the poll loop without waiting. A Start still fetching the
// catalog will not start the loop.
func (p *Poller) Halt() {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.starting {
		p.halted = true
	}
	if p.cancel != nil {
		p.cancel()
	}
}

// Done is closed when the poll loop exits. It is nil before Start.
func (p *Poller) Done() <-chan struct{} {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.done
}

func (p *Poller) loadCatalog(ctx context.Context) error {
	var catalog []model.ImageDescriptor
	opts := append([]retry.Option{
		retry.WithRetryIf(api.IsNetwork),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			p.deps.Log.V(1).Info("retrying image catalog", "attempt", attempt, "delay", delay, "error", err.Error())
		}),
	}, p.catalogRetry...)

	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		catalog, err = p.deps.Client.ImageCatalog(ctx)
		return err
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to fetch image catalog: %w", err)
	}

	names := make(map[string]string, len(catalog))
	for _, img := range catalog {
		names[img.Name] = img.DisplayName
	}
	p.mu.Lock()
	p.catalog = catalog
	p.names = names
	p.mu.Unlock()
	return nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if stop := p.poll(ctx); stop {
			return
		}
		timer.Reset(p.interval)
	}
}

// poll runs one scheduled fetch and reports whether the loop must stop.
func (p *Poller) poll(ctx context.Context) bool {
	err := p.fetch(ctx)
	switch {
	case err == nil:
		metrics.RecordPoll("success")
		return false
	case ctx.Err() != nil:
		return true
	case api.IsAuthExpired(err):
		metrics.RecordPoll("auth_expired")
		p.deps.Log.Info("session expired, stopping build job polling")
		p.deps.Login.RedirectToLogin(ctx)
		return true
	default:
		metrics.RecordPoll("transient")
		p.deps.Log.V(1).Info("build job poll failed, retrying at next tick", "error", err.Error())
		return false
	}
}

// fetch loads the records and applies them unless a newer fetch already
// has been applied.
func (p *Poller) fetch(ctx context.Context) error {
	gen := p.issued.Add(1)
	records, err := p.deps.Client.UserBuildRecords(ctx)

	p.mu.Lock()
	p.lastPoll = time.Now()
	if err != nil {
		p.lastErr = err
		p.mu.Unlock()
		return err
	}
	if gen < p.applied {
		p.mu.Unlock()
		p.deps.Log.V(2).Info("discarding stale build records", "generation", gen)
		return nil
	}
	for i := range records {
		records[i].DisplayName = p.displayNameLocked(records[i].Image)
	}
	p.records = records
	p.applied = gen
	p.lastErr = nil
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Status]++
	}
	metrics.RecordBuildRecords(counts)

	for _, l := range listeners {
		l(append([]model.BuildRecord(nil), records...))
	}
	return nil
}

func (p *Poller) displayNameLocked(image string) string {
	if name, ok := p.names[image]; ok && name != "" {
		return name
	}
	return image
}

// Refresh fetches the records out of schedule. An expired session triggers
// the login boundary.
func (p *Poller) Refresh(ctx context.Context) error {
	err := p.fetch(ctx)
	if api.IsAuthExpired(err) {
		p.deps.Login.RedirectToLogin(ctx)
	}
	return err
}

// LoadCatalog fetches the image catalog without starting the poll loop. An
// expired session triggers the login boundary.
func (p *Poller) LoadCatalog(ctx context.Context) error {
	err := p.loadCatalog(ctx)
	if api.IsAuthExpired(err) {
		p.deps.Login.RedirectToLogin(ctx)
	}
	return err
}

// SubmitBuildJob starts a build of imageName for the instance. On success
// the instance slot shows the server message and the records are re-fetched
// immediately; on failure only the error text is set.
func (p *Poller) SubmitBuildJob(ctx context.Context, resourceID, imageName string) (msg string, err error) {
	defer func() {
		metrics.RecordAction("build", resultLabel(err))
	}()

	log := p.deps.Log.WithValues("asID", resourceID, "image", imageName)
	msg, err = p.deps.Client.SubmitBuildJob(ctx, resourceID, imageName)
	if err != nil {
		if api.IsAuthExpired(err) {
			p.deps.Login.RedirectToLogin(ctx)
			return "", err
		}
		log.Error(err, "build job rejected")
		p.deps.Messages.SetError(messages.SlotInstance, api.UserMessage(err))
		return "", err
	}

	p.deps.Messages.SetSuccess(messages.SlotInstance, msg)
	log.Info("build job submitted")
	if err := p.Refresh(ctx); err != nil && !api.IsAuthExpired(err) {
		log.V(1).Info("immediate build record refresh failed", "error", err.Error())
	}
	return msg, nil
}

// DownloadImage opens the record's download link.
func (p *Poller) DownloadImage(ctx context.Context, rec model.BuildRecord) error {
	if rec.DownloadLink == "" {
		return ErrNoDownloadLink
	}
	target := p.deps.Client.ResolveURL(rec.DownloadLink)
	err := p.deps.Navigator.Open(ctx, target)
	if api.IsAuthExpired(err) {
		p.deps.Login.RedirectToLogin(ctx)
	}
	return err
}

// Records returns the last applied build records.
func (p *Poller) Records() []model.BuildRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.BuildRecord(nil), p.records...)
}

// Catalog returns the image catalog.
func (p *Poller) Catalog() []model.ImageDescriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.ImageDescriptor(nil), p.catalog...)
}

// DisplayName returns the catalog display name of image, or image itself.
func (p *Poller) DisplayName(image string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.displayNameLocked(image)
}

// LastPoll returns the time of the last fetch and its error, if any.
func (p *Poller) LastPoll() (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPoll, p.lastErr
}

// Subscribe registers a listener for applied record lists.
func (p *Poller) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case api.IsAuthExpired(err):
		return "auth_expired"
	case api.IsServerRejected(err):
		return "rejected"
	default:
		return "error"
	}
}
