// Package prompt asks for configure fields the user did not pass on the
// command line.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/asctl/internal/model"
	"github.com/imamik/asctl/internal/workflow"
)

// ModeOptions lists the attachment modes in display order.
var ModeOptions = []huh.Option[model.AttachmentMode]{
	huh.NewOption("VPN (tunnel through the attachment point)", model.ModeVPN),
	huh.NewOption("Public IP (direct connection)", model.ModePublicIP),
}

// TypeOptions lists the instance types in display order.
var TypeOptions = []huh.Option[string]{
	huh.NewOption("VM (packaged virtual machine)", model.TypeVM),
	huh.NewOption("Dedicated (own hardware)", model.TypeDedicated),
}

// AttachmentPointOptions converts attachment points to select options. In
// VPN mode only points with a VPN server are offered.
func AttachmentPointOptions(aps []model.AttachmentPoint, mode model.AttachmentMode) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(aps))
	for _, ap := range aps {
		if mode == model.ModeVPN && !ap.HasVPN {
			continue
		}
		label := ap.ID
		if ap.HasVPN {
			label += " (VPN)"
		}
		opts = append(opts, huh.NewOption(label, ap.ID))
	}
	return opts
}

// ValidateIP accepts an empty value only in VPN mode.
func ValidateIP(mode model.AttachmentMode) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if mode == model.ModeVPN {
				return nil
			}
			return errors.New(workflow.MsgPublicIPRequired)
		}
		if net.ParseIP(s) == nil {
			return fmt.Errorf("%q is not an IP address", s)
		}
		return nil
	}
}

// ValidatePort checks the port range.
func ValidatePort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < workflow.MinPort || port > workflow.MaxPort {
		return errors.New(workflow.MsgPortOutOfRange)
	}
	return nil
}

// Missing reports whether any configure field of in still needs input.
func Missing(in model.Instance) bool {
	return in.Mode == "" ||
		(in.Mode == model.ModePublicIP && in.IP == "") ||
		in.Port == 0 ||
		in.AttachmentPoint == ""
}

// Configure fills the empty fields of in interactively. Fields already
// set are used as defaults.
func Configure(ctx context.Context, in *model.Instance, aps []model.AttachmentPoint) error {
	if in.Mode == "" {
		in.Mode = model.ModeVPN
	}
	if in.Type != model.TypeDedicated {
		in.Type = model.TypeVM
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.AttachmentMode]().
				Title("Mode").
				Description("How the AS connects to its attachment point").
				Options(ModeOptions...).
				Value(&in.Mode),
			huh.NewSelect[string]().
				Title("Type").
				Description("What the AS runs on").
				Options(TypeOptions...).
				Value(&in.Type),
		).Title(fmt.Sprintf("Configure %s", in.ID)),
	).RunWithContext(ctx)
	if err != nil {
		return fmt.Errorf("mode and type: %w", err)
	}

	options := AttachmentPointOptions(aps, in.Mode)
	if len(options) == 0 {
		return fmt.Errorf("no attachment point supports mode %s", in.Mode)
	}

	port := ""
	if in.Port != 0 {
		port = strconv.Itoa(in.Port)
	}

	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Attachment Point").
			Options(options...).
			Value(&in.AttachmentPoint),
		huh.NewInput().
			Title("Port").
			Description(fmt.Sprintf("%d-%d", workflow.MinPort, workflow.MaxPort)).
			Placeholder("50000").
			Value(&port).
			Validate(ValidatePort),
	}
	if in.Mode == model.ModePublicIP {
		fields = append([]huh.Field{
			huh.NewInput().
				Title("Public IP").
				Description("Address the attachment point connects to").
				Placeholder("203.0.113.10").
				Value(&in.IP).
				Validate(ValidateIP(in.Mode)),
		}, fields...)
	}
	fields = append(fields, huh.NewInput().
		Title("Label (Optional)").
		Value(&in.Label))

	if err := huh.NewForm(huh.NewGroup(fields...).Title("Connection")).RunWithContext(ctx); err != nil {
		return fmt.Errorf("connection: %w", err)
	}

	in.IP = strings.TrimSpace(in.IP)
	// Validated above.
	in.Port, _ = strconv.Atoi(strings.TrimSpace(port))
	return nil
}
