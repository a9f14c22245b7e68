// Package directory holds the user's resource instances and the selection
// into them. The instance list is replaced wholesale on every refresh.
package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/asctl/internal/model"
)

// NoSelection is the selection index meaning "nothing selected".
const NoSelection = -1

// Fetcher returns a directory snapshot. *api.Client satisfies it.
type Fetcher interface {
	FetchDirectory(ctx context.Context) (*model.Snapshot, error)
}

// Directory is the resource directory. It is safe for concurrent use.
type Directory struct {
	fetcher Fetcher
	log     logr.Logger

	mu       sync.RWMutex
	snapshot model.Snapshot
	loaded   bool
	selected int
}

// New creates an empty directory backed by fetcher.
func New(fetcher Fetcher, log logr.Logger) *Directory {
	return &Directory{
		fetcher:  fetcher,
		log:      log,
		selected: NoSelection,
	}
}

// Refresh fetches the directory and replaces the current snapshot. On error
// the previous snapshot and selection are kept and the error is returned
// unchanged so callers can classify it.
func (d *Directory) Refresh(ctx context.Context) error {
	snap, err := d.fetcher.FetchDirectory(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh directory: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	prevID := ""
	if d.selected >= 0 && d.selected < len(d.snapshot.Instances) {
		prevID = d.snapshot.Instances[d.selected].ID
	}
	hadSelection := d.loaded && d.selected != NoSelection

	d.snapshot = cloneSnapshot(*snap)
	d.loaded = true
	d.selected = resolveSelection(d.snapshot.Instances, hadSelection, d.selected, prevID)

	d.log.V(1).Info("directory refreshed",
		"instances", len(d.snapshot.Instances),
		"selected", d.selected)
	return nil
}

// resolveSelection picks the selection for a new instance list.
func resolveSelection(instances []model.Instance, hadSelection bool, prevIndex int, prevID string) int {
	if len(instances) == 0 {
		return NoSelection
	}
	if !hadSelection {
		return 0
	}
	for i, in := range instances {
		if in.ID == prevID {
			return i
		}
	}
	if prevIndex >= len(instances) {
		return len(instances) - 1
	}
	if prevIndex < 0 {
		return 0
	}
	return prevIndex
}

// Loaded reports whether at least one refresh succeeded.
func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Select sets the selection index. Out of range indexes are rejected.
func (d *Directory) Select(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i == NoSelection {
		d.selected = NoSelection
		return nil
	}
	if i < 0 || i >= len(d.snapshot.Instances) {
		return fmt.Errorf("selection %d out of range [0, %d)", i, len(d.snapshot.Instances))
	}
	d.selected = i
	return nil
}

// SelectID selects the instance with the given identifier.
func (d *Directory) SelectID(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, in := range d.snapshot.Instances {
		if in.ID == id {
			d.selected = i
			return nil
		}
	}
	return fmt.Errorf("instance %q not found", id)
}

// SelectedIndex returns the selection index or NoSelection.
func (d *Directory) SelectedIndex() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected
}

// Selected returns the selected instance.
func (d *Directory) Selected() (model.Instance, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.selected < 0 || d.selected >= len(d.snapshot.Instances) {
		return model.Instance{}, false
	}
	return d.snapshot.Instances[d.selected], true
}

// Instances returns a copy of the instance list.
func (d *Directory) Instances() []model.Instance {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Instance(nil), d.snapshot.Instances...)
}

// Instance returns the instance with the given identifier.
func (d *Directory) Instance(id string) (model.Instance, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, in := range d.snapshot.Instances {
		if in.ID == id {
			return in, true
		}
	}
	return model.Instance{}, false
}

// AttachmentPoints returns a copy of the attachment points.
func (d *Directory) AttachmentPoints() []model.AttachmentPoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.AttachmentPoint(nil), d.snapshot.AttachmentPoints...)
}

// AttachmentPoint returns the attachment point with the given identifier.
func (d *Directory) AttachmentPoint(id string) (model.AttachmentPoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, ap := range d.snapshot.AttachmentPoints {
		if ap.ID == id {
			return ap, true
		}
	}
	return model.AttachmentPoint{}, false
}

// User returns the account owning the directory.
func (d *Directory) User() model.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot.User
}

// ResourceLimit returns the maximum number of instances the user may hold.
func (d *Directory) ResourceLimit() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot.ResourceLimit
}

// CanGenerate reports whether the user is below the resource limit. It is
// advisory; the server enforces the limit.
func (d *Directory) CanGenerate() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.snapshot.Instances) < d.snapshot.ResourceLimit
}

func cloneSnapshot(s model.Snapshot) model.Snapshot {
	s.AttachmentPoints = append([]model.AttachmentPoint(nil), s.AttachmentPoints...)
	s.Instances = append([]model.Instance(nil), s.Instances...)
	return s
}
