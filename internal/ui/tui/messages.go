// Package tui provides the Bubble Tea dashboard behind asctl watch.
package tui

import (
	"time"

	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
)

// DirectoryMsg carries a fresh directory snapshot.
type DirectoryMsg struct {
	User          model.User
	ResourceLimit int
	Instances     []model.Instance
}

// RecordsMsg carries the build records of one poll.
type RecordsMsg struct {
	Records  []model.BuildRecord
	PolledAt time.Time
	Err      error
}

// SlotMsg reports a change of one message slot.
type SlotMsg struct {
	Slot messages.Slot
	Text messages.Text
}

// SessionExpiredMsg reports that the server ended the session.
type SessionExpiredMsg struct{}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the dashboard should exit.
type DoneMsg struct{}
