package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
)

// Actions are the side effects the dashboard can trigger. Nil actions are
// ignored.
type Actions struct {
	Refresh func()
	Dismiss func(slot messages.Slot)
}

// Model is the Bubble Tea model for the watch dashboard.
type Model struct {
	Server string

	// Directory
	User          model.User
	ResourceLimit int
	Instances     []model.Instance
	Cursor        int

	// Build jobs
	Records  []model.BuildRecord
	LastPoll time.Time
	PollErr  error
	Interval time.Duration

	Slots map[messages.Slot]messages.Text

	// Animation
	SpinnerFrame int

	// UI state
	Width   int
	Height  int
	Err     error
	Expired bool
	Done    bool

	actions Actions
}

// NewModel creates a dashboard model.
func NewModel(server string, interval time.Duration, actions Actions) Model {
	return Model{
		Server:   server,
		Interval: interval,
		Slots:    make(map[messages.Slot]messages.Text),
		actions:  actions,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Done = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Instances)-1 {
				m.Cursor++
			}
		case "r":
			return m, m.run(func() {
				if m.actions.Refresh != nil {
					m.actions.Refresh()
				}
			})
		case "x":
			return m, m.run(func() {
				if m.actions.Dismiss != nil {
					m.actions.Dismiss(messages.SlotGeneral)
					m.actions.Dismiss(messages.SlotInstance)
				}
			})
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case DirectoryMsg:
		m.User = msg.User
		m.ResourceLimit = msg.ResourceLimit
		m.Instances = msg.Instances
		if m.Cursor >= len(m.Instances) {
			m.Cursor = max(len(m.Instances)-1, 0)
		}

	case RecordsMsg:
		m.PollErr = msg.Err
		m.LastPoll = msg.PolledAt
		if msg.Err == nil {
			m.Records = msg.Records
		}

	case SlotMsg:
		if m.Slots == nil {
			m.Slots = make(map[messages.Slot]messages.Text)
		}
		m.Slots[msg.Slot] = msg.Text

	case SessionExpiredMsg:
		m.Expired = true
		return m, tea.Quit

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// SelectedInstance returns the instance under the cursor.
func (m Model) SelectedInstance() (model.Instance, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Instances) {
		return model.Instance{}, false
	}
	return m.Instances[m.Cursor], true
}

// run executes fn off the update loop.
func (m Model) run(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
