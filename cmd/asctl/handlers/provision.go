package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
	"github.com/imamik/asctl/internal/ui/prompt"
)

// runConfigurePrompt asks for missing configure fields.
var runConfigurePrompt = prompt.Configure

// ConfigureOptions are the configure command flags. Zero values keep the
// instance's current setting.
type ConfigureOptions struct {
	Mode            string
	IP              string
	Port            int
	AttachmentPoint string
	Label           string
	Type            string
	// Interactive prompts for missing fields when stdout is a terminal.
	Interactive bool
}

// Generate handles the generate command.
func Generate(ctx context.Context, configPath string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if err := rt.coord.Refresh(ctx); err != nil {
		return rt.check(err)
	}
	if !rt.coord.Directory.CanGenerate() {
		rt.log.Info("resource limit reached, the server will likely reject the request",
			"limit", rt.coord.Directory.ResourceLimit())
	}

	_, err = rt.coord.Submit(ctx, model.ActionGenerate, model.Instance{})
	return rt.report(messages.SlotGeneral, err)
}

// Configure handles the configure command.
func Configure(ctx context.Context, configPath, id string, opts ConfigureOptions) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	in, err := rt.instance(ctx, id)
	if err != nil {
		return err
	}
	if err := applyConfigureOptions(&in, opts); err != nil {
		return err
	}
	if opts.Interactive && prompt.Missing(in) && isTerminal() {
		if err := runConfigurePrompt(ctx, &in, rt.coord.Directory.AttachmentPoints()); err != nil {
			return err
		}
	}

	_, err = rt.coord.Submit(ctx, model.ActionUpdate, in)
	if err := rt.report(messages.SlotInstance, err); err != nil {
		return err
	}
	rt.reportDownloads()
	return nil
}

// Remove handles the remove command.
func Remove(ctx context.Context, configPath, id string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	in, err := rt.instance(ctx, id)
	if err != nil {
		return err
	}
	if acts := in.Actions(); !acts.Remove.Offered() {
		rt.log.Info("remove is not offered for this instance", "asID", in.ID, "state", in.State)
	}

	_, err = rt.coord.Submit(ctx, model.ActionRemove, in)
	return rt.report(messages.SlotInstance, err)
}

// Download handles the download command.
func Download(ctx context.Context, configPath, id string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	in, err := rt.instance(ctx, id)
	if err != nil {
		return err
	}
	if _, err := rt.coord.Submit(ctx, model.ActionDownload, in); err != nil {
		return rt.check(fmt.Errorf("download failed: %w", err))
	}
	rt.reportDownloads()
	return nil
}

// instance refreshes the directory and selects id.
func (rt *runtime) instance(ctx context.Context, id string) (model.Instance, error) {
	if err := rt.coord.Refresh(ctx); err != nil {
		return model.Instance{}, rt.check(err)
	}
	if err := rt.coord.Directory.SelectID(id); err != nil {
		return model.Instance{}, err
	}
	in, _ := rt.coord.Directory.Selected()
	return in, nil
}

// report prints the slot's success text, or returns its error text.
func (rt *runtime) report(slot messages.Slot, err error) error {
	text := rt.coord.Messages.Get(slot)
	if err != nil {
		if err = rt.check(err); errors.Is(err, ErrSessionExpired) {
			return err
		}
		if text.Error != "" {
			return errors.New(text.Error)
		}
		return errors.New(api.UserMessage(err))
	}
	if text.Success != "" {
		fmt.Fprintln(stdout, text.Success)
	}
	return nil
}

func applyConfigureOptions(in *model.Instance, opts ConfigureOptions) error {
	if opts.Mode != "" {
		mode, ok := model.ParseAttachmentMode(opts.Mode)
		if !ok {
			return fmt.Errorf("unknown mode %q, expected vpn or public-ip", opts.Mode)
		}
		in.Mode = mode
	}
	if opts.IP != "" {
		in.IP = opts.IP
	}
	if opts.Port != 0 {
		in.Port = opts.Port
	}
	if opts.AttachmentPoint != "" {
		in.AttachmentPoint = opts.AttachmentPoint
	}
	if opts.Label != "" {
		in.Label = opts.Label
	}
	if opts.Type != "" {
		typ, ok := model.ParseInstanceType(opts.Type)
		if !ok {
			return fmt.Errorf("unknown type %q, expected vm or dedicated", opts.Type)
		}
		in.Type = typ
	}
	return nil
}
