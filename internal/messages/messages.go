// Package messages holds the two user-facing message slots. Each slot keeps
// an optional success text and an optional error text independently; setting
// or dismissing one never touches the other.
package messages

import (
	"fmt"
	"sync"
)

// Slot identifies a message slot.
type Slot int

const (
	// SlotGeneral carries generate and other account-wide outcomes.
	SlotGeneral Slot = 1
	// SlotInstance carries per-instance configure, remove and build outcomes.
	SlotInstance Slot = 2
)

func (s Slot) valid() bool {
	return s == SlotGeneral || s == SlotInstance
}

func (s Slot) String() string {
	return fmt.Sprintf("slot-%d", int(s))
}

// Text is the content of one slot. Empty strings mean "no message".
type Text struct {
	Success string
	Error   string
}

// Empty reports whether neither field is set.
func (t Text) Empty() bool {
	return t.Success == "" && t.Error == ""
}

// Listener is notified after every change with the slot and its new content.
type Listener func(slot Slot, text Text)

// Channel is the message/error channel. It is safe for concurrent use.
type Channel struct {
	mu        sync.RWMutex
	slots     [2]Text
	listeners []Listener
}

// NewChannel creates a channel with both slots empty.
func NewChannel() *Channel {
	return &Channel{}
}

// Subscribe registers a listener. Listeners run synchronously outside the
// channel lock.
func (c *Channel) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// SetSuccess replaces the success text of slot.
func (c *Channel) SetSuccess(slot Slot, text string) {
	c.update(slot, func(t *Text) { t.Success = text })
}

// SetError replaces the error text of slot.
func (c *Channel) SetError(slot Slot, text string) {
	c.update(slot, func(t *Text) { t.Error = text })
}

// DismissSuccess clears the success text of slot.
func (c *Channel) DismissSuccess(slot Slot) {
	c.update(slot, func(t *Text) { t.Success = "" })
}

// DismissError clears the error text of slot.
func (c *Channel) DismissError(slot Slot) {
	c.update(slot, func(t *Text) { t.Error = "" })
}

// Get returns the content of slot.
func (c *Channel) Get(slot Slot) Text {
	if !slot.valid() {
		return Text{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots[slot-1]
}

func (c *Channel) update(slot Slot, fn func(*Text)) {
	if !slot.valid() {
		return
	}
	c.mu.Lock()
	fn(&c.slots[slot-1])
	text := c.slots[slot-1]
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(slot, text)
	}
}
