// Package coordinator wires the resource-lifecycle components around one
// session: the API client and its token rotation guard, the resource
// directory, the provisioning workflow, the build job poller and the message
// channel.
//
// The coordinator is also the login boundary seen by its components. The
// first expired-session report halts the poller and is forwarded to the
// external boundary; later reports are dropped until the next login.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/buildjobs"
	"github.com/imamik/asctl/internal/directory"
	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
	"github.com/imamik/asctl/internal/navigation"
	"github.com/imamik/asctl/internal/session"
	"github.com/imamik/asctl/internal/util/async"
	"github.com/imamik/asctl/internal/workflow"
)

// Options configures a Coordinator.
type Options struct {
	BaseURL      string
	TokenHeader  string
	Timeout      time.Duration
	PollInterval time.Duration
	// Transport is the base transport under the token rotation guard.
	Transport http.RoundTripper
	// Navigator opens download targets. When nil, a Downloader saving
	// into DownloadDir is used.
	Navigator   navigation.Navigator
	DownloadDir string
	// ArtifactSink receives a copy of every download saved by the
	// default Downloader. Optional.
	ArtifactSink navigation.ArtifactSink
	// Login is the external login boundary.
	Login navigation.LoginBoundary
	Log   logr.Logger
}

// Coordinator owns every component of one session.
type Coordinator struct {
	Session   *session.Session
	Client    *api.Client
	Directory *directory.Directory
	Messages  *messages.Channel
	Workflow  *workflow.Workflow
	Poller    *buildjobs.Poller

	login      navigation.LoginBoundary
	navigator  navigation.Navigator
	redirected atomic.Bool
	log        logr.Logger
}

// New builds a stopped coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Login == nil {
		return nil, errors.New("a login boundary is required")
	}
	log := opts.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	sess := session.New(opts.TokenHeader)
	clientOpts := []api.Option{api.WithLogger(log.WithName("api"))}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, api.WithTimeout(opts.Timeout))
	}
	if opts.Transport != nil {
		clientOpts = append(clientOpts, api.WithRoundTripper(opts.Transport))
	}
	client, err := api.NewClient(opts.BaseURL, sess, clientOpts...)
	if err != nil {
		return nil, err
	}

	nav := opts.Navigator
	if nav == nil {
		dlOpts := []navigation.DownloaderOption{navigation.WithLogger(log.WithName("download"))}
		if opts.ArtifactSink != nil {
			dlOpts = append(dlOpts, navigation.WithSink(opts.ArtifactSink))
		}
		nav = navigation.NewDownloader(client.HTTPClient(), opts.DownloadDir, dlOpts...)
	}

	c := &Coordinator{
		Session:   sess,
		Client:    client,
		Messages:  messages.NewChannel(),
		login:     opts.Login,
		navigator: nav,
		log:       log,
	}
	c.Directory = directory.New(client, log.WithName("directory"))
	c.Workflow = workflow.New(workflow.Deps{
		Client:    client,
		Directory: c.Directory,
		Messages:  c.Messages,
		Navigator: nav,
		Login:     c,
		Owner:     sess.UserEmail,
		Log:       log.WithName("workflow"),
	})
	c.Poller = buildjobs.New(buildjobs.Deps{
		Client:    client,
		Messages:  c.Messages,
		Navigator: nav,
		Login:     c,
		Log:       log.WithName("buildjobs"),
	}, buildjobs.WithInterval(opts.PollInterval))
	return c, nil
}

// Login establishes the session and re-arms the login boundary.
func (c *Coordinator) Login(ctx context.Context, email, password string) error {
	if err := c.Client.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.redirected.Store(false)
	c.log.V(1).Info("logged in", "user", email)
	return nil
}

// Logout ends the session.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.Stop()
	return c.Client.Logout(ctx)
}

// Start loads the directory and starts the poller concurrently.
func (c *Coordinator) Start(ctx context.Context) error {
	return async.Run(ctx,
		async.Task{Name: "directory", Func: c.Refresh},
		async.Task{Name: "build jobs", Func: c.Poller.Start},
	)
}

// Refresh reloads the directory. An expired session triggers the login
// boundary.
func (c *Coordinator) Refresh(ctx context.Context) error {
	err := c.Directory.Refresh(ctx)
	if api.IsAuthExpired(err) {
		c.RedirectToLogin(ctx)
	}
	return err
}

// Stop cancels the poller and waits for it.
func (c *Coordinator) Stop() {
	c.Poller.Stop()
}

// RedirectToLogin implements navigation.LoginBoundary for the components.
func (c *Coordinator) RedirectToLogin(ctx context.Context) {
	if !c.redirected.CompareAndSwap(false, true) {
		return
	}
	c.log.Info("session expired, redirecting to login")
	c.Poller.Halt()
	c.login.RedirectToLogin(ctx)
}

// Expired reports whether the session has been sent to the login boundary.
func (c *Coordinator) Expired() bool {
	return c.redirected.Load()
}

// Submit runs a provisioning action.
func (c *Coordinator) Submit(ctx context.Context, action model.Action, in model.Instance) (workflow.Result, error) {
	return c.Workflow.Submit(ctx, action, in)
}

// Navigator returns the navigator download targets are opened with.
func (c *Coordinator) Navigator() navigation.Navigator {
	return c.navigator
}
