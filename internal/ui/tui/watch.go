package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/asctl/internal/coordinator"
	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
)

// Sender delivers messages to a running program.
type Sender interface {
	Send(msg tea.Msg)
}

// relay forwards to a program created after the subscriptions.
type relay struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *relay) set(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *relay) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Bind subscribes s to the coordinator's message channel and build
// records, and returns the dashboard actions operating on c.
func Bind(ctx context.Context, c *coordinator.Coordinator, s Sender) Actions {
	c.Messages.Subscribe(func(slot messages.Slot, text messages.Text) {
		s.Send(SlotMsg{Slot: slot, Text: text})
	})
	c.Poller.Subscribe(func(records []model.BuildRecord) {
		s.Send(RecordsMsg{Records: records, PolledAt: time.Now()})
	})

	return Actions{
		Refresh: func() {
			if err := c.Refresh(ctx); err != nil {
				if c.Expired() {
					s.Send(SessionExpiredMsg{})
				}
				return
			}
			SendDirectory(c, s)
			_ = c.Poller.Refresh(ctx)
		},
		Dismiss: func(slot messages.Slot) {
			c.Messages.DismissError(slot)
			c.Messages.DismissSuccess(slot)
		},
	}
}

// SendDirectory sends the current directory contents.
func SendDirectory(c *coordinator.Coordinator, s Sender) {
	s.Send(DirectoryMsg{
		User:          c.Directory.User(),
		ResourceLimit: c.Directory.ResourceLimit(),
		Instances:     c.Directory.Instances(),
	})
}

// Watch starts the coordinator and shows the dashboard until the user quits,
// the session expires or ctx is cancelled. The coordinator is stopped on
// return.
func Watch(ctx context.Context, c *coordinator.Coordinator, server string, opts ...tea.ProgramOption) error {
	r := &relay{}
	m := NewModel(server, c.Poller.Interval(), Bind(ctx, c, r))

	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)...)
	r.set(p)
	defer c.Stop()

	go func() {
		if err := c.Start(ctx); err != nil {
			if c.Expired() {
				r.Send(SessionExpiredMsg{})
			} else {
				r.Send(ErrMsg{Err: err})
			}
			return
		}
		SendDirectory(c, r)
		watchPoller(ctx, c, r)
	}()

	finalModel, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm, ok := finalModel.(Model)
	if !ok {
		return ctx.Err()
	}
	switch {
	case fm.Expired:
		return ErrSessionExpired
	case fm.Err != nil:
		return fm.Err
	}
	return ctx.Err()
}

// ErrSessionExpired is returned by Watch when the server ended the session.
var ErrSessionExpired = errors.New("session expired, log in again")

// watchPoller reports failed polls and the end of the poll loop.
func watchPoller(ctx context.Context, c *coordinator.Coordinator, s Sender) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var reported time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Poller.Done():
			if c.Expired() {
				s.Send(SessionExpiredMsg{})
			}
			return
		case <-ticker.C:
			at, err := c.Poller.LastPoll()
			if err != nil && at.After(reported) {
				reported = at
				s.Send(RecordsMsg{PolledAt: at, Err: err})
			}
		}
	}
}
