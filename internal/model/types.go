package model

import "strings"

// AttachmentMode describes how a resource instance reaches its attachment point.
type AttachmentMode string

const (
	// ModeVPN tunnels the instance through the attachment point's VPN server.
	ModeVPN AttachmentMode = "vpn"
	// ModePublicIP connects the instance directly over a public address.
	ModePublicIP AttachmentMode = "public-ip"
)

// ParseAttachmentMode converts a user-facing token into an AttachmentMode.
func ParseAttachmentMode(s string) (AttachmentMode, bool) {
	switch s {
	case "vpn", "VPN":
		return ModeVPN, true
	case "public-ip", "publicip", "ip", "PublicIP":
		return ModePublicIP, true
	}
	return "", false
}

// Instance type tokens. The server stores them as 1 and 2.
const (
	TypeVM        = "1"
	TypeDedicated = "2"
)

// ParseInstanceType converts a user-facing token into an instance type.
func ParseInstanceType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "vm":
		return TypeVM, true
	case "2", "dedicated":
		return TypeDedicated, true
	}
	return "", false
}

// LifecycleState is the server-reported state of a resource instance.
type LifecycleState string

const (
	StateUnconfigured LifecycleState = "Unconfigured"
	StateConfiguring  LifecycleState = "Configuring"
	StateConfigured   LifecycleState = "Configured"
	StateRemoving     LifecycleState = "Removing"
)

// Instance is a user's resource instance (an attachment of one AS).
type Instance struct {
	ID              string
	Mode            AttachmentMode
	IP              string
	Port            int
	AttachmentPoint string
	Label           string
	Type            string
	State           LifecycleState
}

// AttachmentPoint is a reachable entry point an instance binds to.
type AttachmentPoint struct {
	ID     string
	HasVPN bool
}

// User is the account owning the directory.
type User struct {
	Email        string
	FirstName    string
	LastName     string
	Organisation string
	IsAdmin      bool
}

// Snapshot is one wholesale directory fetch.
type Snapshot struct {
	User             User
	ResourceLimit    int
	AttachmentPoints []AttachmentPoint
	Instances        []Instance
}

// ImageDescriptor is an entry of the build image catalog.
type ImageDescriptor struct {
	Name        string
	DisplayName string
}

// BuildRecord is the server-side state of one user image build job.
// DisplayName is filled in client-side from the catalog.
type BuildRecord struct {
	Image        string
	ResourceID   string
	Status       string
	DownloadLink string
	DisplayName  string
}
