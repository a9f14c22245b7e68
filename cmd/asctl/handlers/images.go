package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/buildjobs"
	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
)

// ImagesList handles the images list command.
func ImagesList(ctx context.Context, configPath string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	records, err := rt.buildRecords(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(statusSectionStyle.Render("  Available Images"))
	b.WriteString("\n")
	for _, img := range rt.coord.Poller.Catalog() {
		fmt.Fprintf(&b, "  %-20s %s\n", img.Name, statusDimStyle.Render(img.DisplayName))
	}
	b.WriteString("\n")
	b.WriteString(statusSectionStyle.Render("  Your Builds"))
	b.WriteString("\n")
	if len(records) == 0 {
		b.WriteString(statusDimStyle.Render("  No image builds."))
		b.WriteString("\n")
	}
	for _, line := range renderRecords(records) {
		b.WriteString(line)
	}
	fmt.Fprint(stdout, b.String())
	return nil
}

// ImagesBuild handles the images build command.
func ImagesBuild(ctx context.Context, configPath, id, image string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if err := rt.coord.Poller.LoadCatalog(ctx); err != nil {
		if api.IsAuthExpired(err) {
			return ErrSessionExpired
		}
		rt.log.V(1).Info("image catalog unavailable, submitting unchecked", "error", err.Error())
	} else if !inCatalog(rt.coord.Poller.Catalog(), image) {
		return fmt.Errorf("unknown image %q, see 'asctl images list'", image)
	}

	_, err = rt.coord.Poller.SubmitBuildJob(ctx, id, image)
	return rt.report(messages.SlotInstance, err)
}

// ImagesDownload handles the images download command. It downloads the
// newest finished build of image for the instance.
func ImagesDownload(ctx context.Context, configPath, id, image string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	records, err := rt.buildRecords(ctx)
	if err != nil {
		return err
	}
	rec, ok := findRecord(records, id, image)
	if !ok {
		return fmt.Errorf("no build of %q for %s", image, id)
	}
	if err := rt.coord.Poller.DownloadImage(ctx, rec); err != nil {
		if errors.Is(err, buildjobs.ErrNoDownloadLink) {
			return fmt.Errorf("the build of %q for %s is not finished yet (%s)", image, id, rec.Status)
		}
		return rt.check(fmt.Errorf("download failed: %w", err))
	}
	rt.reportDownloads()
	return nil
}

func inCatalog(catalog []model.ImageDescriptor, image string) bool {
	for _, img := range catalog {
		if img.Name == image {
			return true
		}
	}
	return false
}

// findRecord returns the last matching record, preferring finished builds.
func findRecord(records []model.BuildRecord, id, image string) (model.BuildRecord, bool) {
	var found model.BuildRecord
	ok := false
	for _, rec := range records {
		if rec.ResourceID != id || rec.Image != image {
			continue
		}
		if !ok || rec.DownloadLink != "" || found.DownloadLink == "" {
			found, ok = rec, true
		}
	}
	return found, ok
}
