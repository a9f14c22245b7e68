package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/model"
)

// Colors matching internal/ui/tui/styles.go palette.
var (
	statusColorGreen  = lipgloss.Color("#22c55e")
	statusColorYellow = lipgloss.Color("#eab308")
	statusColorBlue   = lipgloss.Color("#3b82f6")
	statusColorDim    = lipgloss.Color("#6b7280")
	statusColorWhite  = lipgloss.Color("#f9fafb")
)

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(statusColorWhite)

	statusSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(statusColorBlue)

	statusDimStyle = lipgloss.NewStyle().
			Foreground(statusColorDim)

	statusGreenStyle = lipgloss.NewStyle().
				Foreground(statusColorGreen)

	statusYellowStyle = lipgloss.NewStyle().
				Foreground(statusColorYellow)
)

// statusReport is everything the status command shows.
type statusReport struct {
	User             model.User
	ResourceLimit    int
	CanGenerate      bool
	AttachmentPoints []model.AttachmentPoint
	Instances        []model.Instance
	Records          []model.BuildRecord
}

// Status handles the status command.
func Status(ctx context.Context, configPath string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if err := rt.coord.Refresh(ctx); err != nil {
		return rt.check(err)
	}
	records, err := rt.buildRecords(ctx)
	if err != nil {
		return err
	}

	dir := rt.coord.Directory
	fmt.Fprint(stdout, renderStatus(statusReport{
		User:             dir.User(),
		ResourceLimit:    dir.ResourceLimit(),
		CanGenerate:      dir.CanGenerate(),
		AttachmentPoints: dir.AttachmentPoints(),
		Instances:        dir.Instances(),
		Records:          records,
	}))
	return nil
}

// buildRecords loads the catalog and the user's build records. A catalog
// failure other than an expired session only loses the display names.
func (rt *runtime) buildRecords(ctx context.Context) ([]model.BuildRecord, error) {
	p := rt.coord.Poller
	if err := p.LoadCatalog(ctx); err != nil {
		if api.IsAuthExpired(err) {
			return nil, ErrSessionExpired
		}
		rt.log.V(1).Info("image catalog unavailable", "error", err.Error())
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, rt.check(fmt.Errorf("failed to load build records: %w", err))
	}
	return p.Records(), nil
}

func renderStatus(r statusReport) string {
	var b strings.Builder

	b.WriteString(statusTitleStyle.Render(fmt.Sprintf("  asctl: %s", r.User.Email)))
	b.WriteString("\n")
	if r.User.Organisation != "" {
		b.WriteString(statusDimStyle.Render("  " + r.User.Organisation))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	header := "  Instances"
	if r.ResourceLimit > 0 {
		header += fmt.Sprintf(" (%d/%d)", len(r.Instances), r.ResourceLimit)
	}
	b.WriteString(statusSectionStyle.Render(header))
	b.WriteString("\n")
	if len(r.Instances) == 0 {
		b.WriteString(statusDimStyle.Render("  No instances. Run 'asctl generate' to create one."))
		b.WriteString("\n")
	} else {
		b.WriteString(statusDimStyle.Render(fmt.Sprintf("  %-18s %-13s %-10s %-22s %s", "ID", "State", "Mode", "Attachment Point", "Actions")))
		b.WriteString("\n")
		for _, in := range r.Instances {
			fmt.Fprintf(&b, "  %-18s %s %-10s %-22s %s\n",
				in.ID, renderState(in.State), renderMode(in), in.AttachmentPoint, renderActions(in.Actions()))
		}
	}
	if !r.CanGenerate {
		b.WriteString(statusYellowStyle.Render("  Resource limit reached."))
		b.WriteString("\n")
	}

	if len(r.AttachmentPoints) > 0 {
		b.WriteString("\n")
		b.WriteString(statusSectionStyle.Render("  Attachment Points"))
		b.WriteString("\n")
		for _, ap := range r.AttachmentPoints {
			vpn := ""
			if ap.HasVPN {
				vpn = statusDimStyle.Render(" (VPN)")
			}
			fmt.Fprintf(&b, "  %s%s\n", ap.ID, vpn)
		}
	}

	b.WriteString("\n")
	b.WriteString(statusSectionStyle.Render("  Image Builds"))
	b.WriteString("\n")
	if len(r.Records) == 0 {
		b.WriteString(statusDimStyle.Render("  No image builds."))
		b.WriteString("\n")
	}
	for _, rec := range renderRecords(r.Records) {
		b.WriteString(rec)
	}
	return b.String()
}

func renderRecords(records []model.BuildRecord) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		ready := statusDimStyle.Render("building")
		if rec.DownloadLink != "" {
			ready = statusGreenStyle.Render("ready")
		}
		lines = append(lines, fmt.Sprintf("  %-24s %-18s %-12s %s\n", rec.DisplayName, rec.ResourceID, rec.Status, ready))
	}
	return lines
}

func renderState(s model.LifecycleState) string {
	text := fmt.Sprintf("%-13s", s)
	switch s {
	case model.StateConfigured:
		return statusGreenStyle.Render(text)
	case model.StateConfiguring, model.StateRemoving:
		return statusYellowStyle.Render(text)
	default:
		return statusDimStyle.Render(text)
	}
}

func renderMode(in model.Instance) string {
	if in.Mode == model.ModePublicIP && in.IP != "" {
		return fmt.Sprintf("%s:%d", in.IP, in.Port)
	}
	return string(in.Mode)
}

func renderActions(a model.InstanceActions) string {
	var offered []string
	for _, act := range []struct {
		name string
		av   model.Availability
	}{
		{"configure", a.Update},
		{"download", a.Download},
		{"remove", a.Remove},
	} {
		if act.av.Offered() {
			offered = append(offered, act.name)
		}
	}
	if len(offered) == 0 {
		return statusDimStyle.Render("-")
	}
	return strings.Join(offered, ", ")
}
