package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderSlot(&b, m, messages.SlotGeneral)
	renderInstances(&b, m)
	renderSlot(&b, m, messages.SlotInstance)
	renderRecords(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := "asctl"
	if m.User.Email != "" {
		title += ": " + m.User.Email
	}
	b.WriteString(titleStyle.Render(title))
	if m.Server != "" {
		b.WriteString(dimStyle.Render(" (" + m.Server + ")"))
	}

	status := " "
	switch {
	case m.Expired:
		status += failedStyle.Render("Session expired")
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.LastPoll.IsZero():
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + dimStyle.Render("Loading...")
	default:
		status += readyStyle.Render("Watching")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderSlot(b *strings.Builder, m Model, slot messages.Slot) {
	text := m.Slots[slot]
	if text.Success != "" {
		fmt.Fprintf(b, "  %s %s\n", readyStyle.Render(checkMark), readyStyle.Render(text.Success))
	}
	if text.Error != "" {
		fmt.Fprintf(b, "  %s %s\n", failedStyle.Render(crossMark), failedStyle.Render(text.Error))
	}
}

func renderInstances(b *strings.Builder, m Model) {
	header := "  Instances"
	if m.ResourceLimit > 0 {
		header += fmt.Sprintf(" (%d/%d)", len(m.Instances), m.ResourceLimit)
	}
	b.WriteString(sectionStyle.Render(header))
	b.WriteString("\n")

	if len(m.Instances) == 0 {
		b.WriteString(dimStyle.Render("    none"))
		b.WriteString("\n")
		return
	}

	for i, in := range m.Instances {
		cursor := "  "
		if i == m.Cursor {
			cursor = cursorStyle.Render("> ")
		}
		icon, style := stateIcon(in.State, m.SpinnerFrame)
		fmt.Fprintf(b, "  %s%s %-16s %s\n", cursor, style(icon), style(in.ID), dimStyle.Render(describeInstance(in)))
	}
}

func renderRecords(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Image builds"))
	b.WriteString("\n")

	if len(m.Records) == 0 {
		b.WriteString(dimStyle.Render("    none"))
		b.WriteString("\n")
		return
	}

	for _, rec := range m.Records {
		icon, style := recordIcon(rec, m.SpinnerFrame)
		name := rec.DisplayName
		if name == "" {
			name = rec.Image
		}
		fmt.Fprintf(b, "    %s %-24s %-16s %s\n", style(icon), style(name), rec.ResourceID, dimStyle.Render(rec.Status))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	var parts []string
	if !m.LastPoll.IsZero() {
		parts = append(parts, fmt.Sprintf("last poll: %s", m.LastPoll.Format(time.TimeOnly)))
	}
	if m.Interval > 0 {
		parts = append(parts, fmt.Sprintf("every %s", formatDuration(m.Interval)))
	}
	if m.PollErr != nil {
		parts = append(parts, warningStyle.Render(warnMark+" "+m.PollErr.Error()))
	}
	parts = append(parts, "r: refresh", "x: dismiss", "q: quit")
	b.WriteString(footerStyle.Render("  " + strings.Join(parts, "  |  ")))
	b.WriteString("\n")
}

// Helper functions

func describeInstance(in model.Instance) string {
	parts := []string{string(in.State)}
	if in.AttachmentPoint != "" {
		parts = append(parts, "via "+in.AttachmentPoint)
	}
	switch in.Mode {
	case model.ModeVPN:
		parts = append(parts, "vpn")
	case model.ModePublicIP:
		if in.IP != "" {
			parts = append(parts, fmt.Sprintf("%s:%d", in.IP, in.Port))
		}
	}
	if in.Label != "" {
		parts = append(parts, fmt.Sprintf("%q", in.Label))
	}
	return strings.Join(parts, "  ")
}

func stateIcon(state model.LifecycleState, frame int) (string, styleFunc) {
	switch state {
	case model.StateConfigured:
		return checkMark, sf(readyStyle)
	case model.StateConfiguring, model.StateRemoving:
		return currentSpinner(frame), sf(warningStyle)
	default:
		return pending, sf(dimStyle)
	}
}

func recordIcon(rec model.BuildRecord, frame int) (string, styleFunc) {
	if rec.DownloadLink != "" {
		return checkMark, sf(readyStyle)
	}
	if strings.Contains(strings.ToLower(rec.Status), "fail") {
		return crossMark, sf(failedStyle)
	}
	return currentSpinner(frame), sf(activeStyle)
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
