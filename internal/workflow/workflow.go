package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/metrics"
	"github.com/imamik/asctl/internal/model"
	"github.com/imamik/asctl/internal/navigation"
)

// ErrInFlight is returned when an action is submitted on a slot that is not
// idle.
var ErrInFlight = errors.New("an action is already in progress for this instance")

// Phase is the state of a workflow slot.
type Phase string

const (
	PhaseIdle       Phase = "Idle"
	PhaseValidating Phase = "Validating"
	PhaseSubmitting Phase = "Submitting"
)

// generateKey is the slot key of the generate action.
const generateKey = ""

// Client is the subset of the API client the workflow calls.
type Client interface {
	Generate(ctx context.Context) (string, error)
	Configure(ctx context.Context, p api.ConfigureParams) (string, error)
	Remove(ctx context.Context, resourceID string) (string, error)
	DownloadTarballURL(resourceID string) string
}

// Refresher reloads the resource directory.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Deps are the collaborators of a Workflow.
type Deps struct {
	Client    Client
	Directory Refresher
	Messages  *messages.Channel
	Navigator navigation.Navigator
	Login     navigation.LoginBoundary
	// Owner returns the email of the logged-in user.
	Owner func() string
	Log   logr.Logger
}

// Result is the outcome of a successful action.
type Result struct {
	Message string
	// Target is the navigation target opened by the action, if any.
	Target string
}

// Workflow is the provisioning workflow. It is safe for concurrent use.
type Workflow struct {
	deps Deps

	mu    sync.Mutex
	slots map[string]Phase
}

// New creates a workflow.
func New(deps Deps) *Workflow {
	if deps.Owner == nil {
		deps.Owner = func() string { return "" }
	}
	if deps.Log.GetSink() == nil {
		deps.Log = logr.Discard()
	}
	return &Workflow{deps: deps, slots: make(map[string]Phase)}
}

// Phase returns the state of the slot of resourceID. The generate slot has
// the empty key.
func (w *Workflow) Phase(resourceID string) Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.slots[resourceID]; ok {
		return p
	}
	return PhaseIdle
}

func (w *Workflow) acquire(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.slots[key]; busy {
		return false
	}
	w.slots[key] = PhaseValidating
	return true
}

func (w *Workflow) advance(key string, p Phase) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.slots[key] = p
}

func (w *Workflow) release(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.slots, key)
}

// Submit runs action on in. For generate, in is ignored.
func (w *Workflow) Submit(ctx context.Context, action model.Action, in model.Instance) (res Result, err error) {
	if action == model.ActionDownload {
		return w.download(ctx, in)
	}

	key := in.ID
	if action == model.ActionGenerate {
		key = generateKey
	} else if in.ID == "" {
		// The empty key belongs to generate.
		metrics.RecordAction(string(action), "validation")
		w.deps.Messages.SetError(messages.SlotInstance, MsgInstanceRequired)
		return Result{}, &api.ValidationError{Field: "asID", Message: MsgInstanceRequired}
	}
	if !w.acquire(key) {
		metrics.RecordAction(string(action), "in_flight")
		return Result{}, ErrInFlight
	}
	defer w.release(key)
	defer func() {
		metrics.RecordAction(string(action), outcome(err))
	}()

	log := w.deps.Log.WithValues("action", action, "asID", in.ID)

	switch action {
	case model.ActionGenerate:
		return w.generate(ctx, log)
	case model.ActionUpdate:
		return w.update(ctx, log, in)
	case model.ActionRemove:
		return w.remove(ctx, log, in)
	default:
		return Result{}, fmt.Errorf("unknown action %q", action)
	}
}

func (w *Workflow) generate(ctx context.Context, log logr.Logger) (Result, error) {
	w.advance(generateKey, PhaseSubmitting)
	msg, err := w.deps.Client.Generate(ctx)
	if err != nil {
		return Result{}, w.fail(ctx, log, messages.SlotGeneral, err)
	}
	w.refresh(ctx, log)
	w.deps.Messages.SetSuccess(messages.SlotGeneral, msg)
	log.Info("instance generated")
	return Result{Message: msg}, nil
}

func (w *Workflow) update(ctx context.Context, log logr.Logger, in model.Instance) (Result, error) {
	if err := Validate(in); err != nil {
		var valErr *api.ValidationError
		if errors.As(err, &valErr) {
			w.deps.Messages.SetError(messages.SlotInstance, valErr.Message)
		}
		log.V(1).Info("configuration rejected locally", "reason", err.Error())
		return Result{}, err
	}

	w.advance(in.ID, PhaseSubmitting)
	msg, err := w.deps.Client.Configure(ctx, api.ConfigureParams{
		ResourceID:      in.ID,
		OwnerEmail:      w.deps.Owner(),
		Mode:            in.Mode,
		IP:              in.IP,
		AttachmentPoint: in.AttachmentPoint,
		Label:           in.Label,
		Type:            in.Type,
		Port:            in.Port,
	})
	if err != nil {
		return Result{}, w.fail(ctx, log, messages.SlotInstance, err)
	}

	target := w.deps.Client.DownloadTarballURL(in.ID)
	if err := w.deps.Navigator.Open(ctx, target); err != nil {
		if api.IsAuthExpired(err) {
			log.Info("session expired")
			w.deps.Login.RedirectToLogin(ctx)
			return Result{}, err
		}
		log.Error(err, "failed to open configuration download", "target", target)
	}
	w.deps.Messages.SetSuccess(messages.SlotInstance, msg)
	w.refresh(ctx, log)
	log.Info("instance configured")
	return Result{Message: msg, Target: target}, nil
}

func (w *Workflow) remove(ctx context.Context, log logr.Logger, in model.Instance) (Result, error) {
	w.advance(in.ID, PhaseSubmitting)
	msg, err := w.deps.Client.Remove(ctx, in.ID)
	if err != nil {
		return Result{}, w.fail(ctx, log, messages.SlotInstance, err)
	}
	w.deps.Messages.SetSuccess(messages.SlotInstance, msg)
	w.refresh(ctx, log)
	log.Info("instance removed")
	return Result{Message: msg}, nil
}

// download hands the tarball URL to the navigator. It makes no API call and
// does not occupy a slot.
func (w *Workflow) download(ctx context.Context, in model.Instance) (Result, error) {
	target := w.deps.Client.DownloadTarballURL(in.ID)
	err := w.deps.Navigator.Open(ctx, target)
	metrics.RecordAction(string(model.ActionDownload), outcome(err))
	if err != nil {
		if api.IsAuthExpired(err) {
			w.deps.Login.RedirectToLogin(ctx)
			return Result{}, err
		}
		return Result{}, fmt.Errorf("failed to open %s: %w", target, err)
	}
	return Result{Target: target}, nil
}

// fail routes a failed call: an expired session goes to the login boundary,
// anything else to the error text of slot.
func (w *Workflow) fail(ctx context.Context, log logr.Logger, slot messages.Slot, err error) error {
	if api.IsAuthExpired(err) {
		log.Info("session expired")
		w.deps.Login.RedirectToLogin(ctx)
		return err
	}
	log.Error(err, "action failed")
	w.deps.Messages.SetError(slot, api.UserMessage(err))
	return err
}

// refresh reloads the directory after a successful action. Failures are
// logged; an expired session also triggers the login boundary.
func (w *Workflow) refresh(ctx context.Context, log logr.Logger) {
	err := w.deps.Directory.Refresh(ctx)
	if err == nil {
		return
	}
	if api.IsAuthExpired(err) {
		w.deps.Login.RedirectToLogin(ctx)
		return
	}
	log.Error(err, "failed to refresh directory")
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case api.IsValidation(err):
		return "validation"
	case api.IsAuthExpired(err):
		return "auth_expired"
	case api.IsServerRejected(err):
		return "rejected"
	case api.IsNetwork(err):
		return "network"
	default:
		return "error"
	}
}
