package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/imamik/asctl/internal/model"
)

// Endpoint names used in errors, logs and metrics.
const (
	EndpointLogin          = "login"
	EndpointLogout         = "logout"
	EndpointUserPageData   = "userPageData"
	EndpointGenerate       = "generateAS"
	EndpointConfigure      = "configureAS"
	EndpointRemove         = "removeAS"
	EndpointImageCatalog   = "imgbuild/images"
	EndpointUserImages     = "imgbuild/user-images"
	EndpointSubmitBuildJob = "imgbuild/create"
)

// ConfigureParams is a configure request in model terms.
type ConfigureParams struct {
	ResourceID      string
	OwnerEmail      string
	Mode            model.AttachmentMode
	IP              string
	AttachmentPoint string
	Label           string
	Type            string
	Port            int
}

// Login establishes the session cookie and the first rotation token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	r, err := jsonRequest(EndpointLogin, http.MethodPost, "login", loginBody{Email: email, Password: password})
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, r); err != nil {
		return err
	}
	c.session.SetUser(email)
	return nil
}

// Logout ends the session and clears the local session context.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{endpoint: EndpointLogout, method: http.MethodPost, path: "logout"})
	c.session.Reset()
	return err
}

// FetchDirectory returns the user's directory snapshot.
func (c *Client) FetchDirectory(ctx context.Context) (*model.Snapshot, error) {
	var data userPageData
	r := request{endpoint: EndpointUserPageData, method: http.MethodGet, path: "userPageData"}
	if err := c.doJSON(ctx, r, &data); err != nil {
		return nil, err
	}
	snap := data.toSnapshot()
	if snap.User.Email != "" {
		c.session.SetUser(snap.User.Email)
	}
	return snap, nil
}

// Generate creates a new resource instance and returns the server message.
func (c *Client) Generate(ctx context.Context) (string, error) {
	return c.doMessage(ctx, request{endpoint: EndpointGenerate, method: http.MethodPost, path: "as/generateAS"})
}

// Configure submits the configuration of an instance and returns the server
// message. It performs no validation.
func (c *Client) Configure(ctx context.Context, p ConfigureParams) (string, error) {
	body := configureBody{
		ASID:      p.ResourceID,
		UserEmail: p.OwnerEmail,
		IsVPN:     p.Mode == model.ModeVPN,
		IP:        p.IP,
		ServerIA:  p.AttachmentPoint,
		Label:     p.Label,
		Type:      typeCode(p.Type),
		Port:      p.Port,
	}
	r, err := jsonRequest(EndpointConfigure, http.MethodPost, "as/configureAS", body)
	if err != nil {
		return "", err
	}
	return c.doMessage(ctx, r)
}

// Remove deletes the instance and returns the server message.
func (c *Client) Remove(ctx context.Context, resourceID string) (string, error) {
	return c.doMessage(ctx, request{
		endpoint: EndpointRemove,
		method:   http.MethodPost,
		path:     "as/removeAS/" + resourceID,
	})
}

// ImageCatalog returns the buildable images.
func (c *Client) ImageCatalog(ctx context.Context) ([]model.ImageDescriptor, error) {
	var images []wireImage
	r := request{endpoint: EndpointImageCatalog, method: http.MethodGet, path: "imgbuild/images"}
	if err := c.doJSON(ctx, r, &images); err != nil {
		return nil, err
	}
	out := make([]model.ImageDescriptor, 0, len(images))
	for _, img := range images {
		out = append(out, model.ImageDescriptor{Name: img.Name, DisplayName: img.DisplayName})
	}
	return out, nil
}

// UserBuildRecords returns the user's build jobs without display names.
func (c *Client) UserBuildRecords(ctx context.Context) ([]model.BuildRecord, error) {
	var records []wireBuildRecord
	r := request{endpoint: EndpointUserImages, method: http.MethodGet, path: "imgbuild/user-images"}
	if err := c.doJSON(ctx, r, &records); err != nil {
		return nil, err
	}
	out := make([]model.BuildRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, model.BuildRecord{
			Image:        rec.Image,
			ResourceID:   rec.ASID,
			Status:       rec.Status,
			DownloadLink: rec.DownloadLink,
		})
	}
	return out, nil
}

// SubmitBuildJob starts an image build for the instance and returns the
// server message.
func (c *Client) SubmitBuildJob(ctx context.Context, resourceID, imageName string) (string, error) {
	form := url.Values{"image_name": {imageName}}
	return c.doMessage(ctx, request{
		endpoint:    EndpointSubmitBuildJob,
		method:      http.MethodPost,
		path:        "imgbuild/create/" + resourceID,
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
}
