package workflow

import (
	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/model"
)

// Port bounds accepted for an instance.
const (
	MinPort = 1024
	MaxPort = 65535
)

// Validation messages shown to the user.
const (
	MsgPublicIPRequired        = "Please provide the public IP address of your AS."
	MsgPortOutOfRange          = "The port must be between 1024 and 65535."
	MsgAttachmentPointRequired = "Please select an attachment point."
	MsgInstanceRequired        = "Please select an AS."
)

// Validate checks an instance before it is configured. Rules are applied in
// order and the first failure is returned.
func Validate(in model.Instance) error {
	if in.Mode != model.ModeVPN && in.IP == "" {
		return &api.ValidationError{Field: "ip", Message: MsgPublicIPRequired}
	}
	if in.Port < MinPort || in.Port > MaxPort {
		return &api.ValidationError{Field: "port", Message: MsgPortOutOfRange}
	}
	if in.AttachmentPoint == "" {
		return &api.ValidationError{Field: "attachmentPoint", Message: MsgAttachmentPointRequired}
	}
	return nil
}
