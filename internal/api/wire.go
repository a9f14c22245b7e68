package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/imamik/asctl/internal/model"
)

// Server status codes of a resource instance.
const (
	statusInactive      = 0
	statusActive        = 1
	statusCreatePending = 2
	statusUpdatePending = 3
	statusRemovePending = 4
)

type userPageData struct {
	User              wireUser              `json:"user"`
	ResourceLimit     int                   `json:"resourceLimit"`
	AttachmentPoints  []wireAttachmentPoint `json:"attachmentPoints"`
	ResourceInstances []wireInstance        `json:"resourceInstances"`
}

type wireUser struct {
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Organisation string `json:"organisation"`
	IsAdmin      bool   `json:"isAdmin"`
}

type wireAttachmentPoint struct {
	IA     string `json:"ia"`
	HasVPN bool   `json:"hasVPN"`
}

type wireInstance struct {
	ASID     string     `json:"asID"`
	IsVPN    bool       `json:"isVPN"`
	IP       string     `json:"ip"`
	Port     flexInt    `json:"port"`
	ServerIA string     `json:"serverIA"`
	Label    string     `json:"label"`
	Type     flexString `json:"type"`
	Status   int        `json:"status"`
}

type configureBody struct {
	ASID      string `json:"asID"`
	UserEmail string `json:"userEmail"`
	IsVPN     bool   `json:"isVPN"`
	IP        string `json:"ip"`
	ServerIA  string `json:"serverIA"`
	Label     string `json:"label"`
	Type      int    `json:"type"`
	Port      int    `json:"port"`
}

type wireImage struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type wireBuildRecord struct {
	Image        string `json:"image"`
	ASID         string `json:"asID"`
	Status       string `json:"status"`
	DownloadLink string `json:"download_link"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*f = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

func stateFromStatus(status int) model.LifecycleState {
	switch status {
	case statusActive:
		return model.StateConfigured
	case statusCreatePending, statusUpdatePending:
		return model.StateConfiguring
	case statusRemovePending:
		return model.StateRemoving
	default:
		return model.StateUnconfigured
	}
}

func modeFromVPN(isVPN bool) model.AttachmentMode {
	if isVPN {
		return model.ModeVPN
	}
	return model.ModePublicIP
}

// typeCode maps the configure type token to its wire value.
func typeCode(t string) int {
	if t == "2" {
		return 2
	}
	return 1
}

func (d userPageData) toSnapshot() *model.Snapshot {
	snap := &model.Snapshot{
		User: model.User{
			Email:        d.User.Email,
			FirstName:    d.User.FirstName,
			LastName:     d.User.LastName,
			Organisation: d.User.Organisation,
			IsAdmin:      d.User.IsAdmin,
		},
		ResourceLimit:    d.ResourceLimit,
		AttachmentPoints: make([]model.AttachmentPoint, 0, len(d.AttachmentPoints)),
		Instances:        make([]model.Instance, 0, len(d.ResourceInstances)),
	}
	for _, ap := range d.AttachmentPoints {
		snap.AttachmentPoints = append(snap.AttachmentPoints, model.AttachmentPoint{
			ID:     ap.IA,
			HasVPN: ap.HasVPN,
		})
	}
	for _, in := range d.ResourceInstances {
		snap.Instances = append(snap.Instances, model.Instance{
			ID:              in.ASID,
			Mode:            modeFromVPN(in.IsVPN),
			IP:              in.IP,
			Port:            int(in.Port),
			AttachmentPoint: in.ServerIA,
			Label:           in.Label,
			Type:            string(in.Type),
			State:           stateFromStatus(in.Status),
		})
	}
	return snap
}
