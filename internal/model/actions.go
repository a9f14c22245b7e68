package model

// Action is a user action on a resource instance.
type Action string

const (
	ActionGenerate Action = "generate"
	ActionUpdate   Action = "update"
	ActionDownload Action = "download"
	ActionRemove   Action = "remove"
)

// ParseAction converts a command token into an Action.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionGenerate, ActionUpdate, ActionDownload, ActionRemove:
		return a, true
	case "configure":
		return ActionUpdate, true
	}
	return "", false
}

// Availability tells a front end how to present one action.
type Availability struct {
	Label    string
	Hidden   bool
	Disabled bool
	Reason   string // shown when Disabled
}

// Offered reports whether the action is visible and enabled.
func (a Availability) Offered() bool {
	return !a.Hidden && !a.Disabled
}

// InstanceActions is the availability of the per-instance actions.
type InstanceActions struct {
	Update   Availability
	Download Availability
	Remove   Availability
}

// Actions derives the per-instance action availability from the lifecycle
// state. It is advisory only: the workflow never consults it.
func (i Instance) Actions() InstanceActions {
	acts := InstanceActions{
		Update: Availability{
			Label:    "Update and download configuration",
			Disabled: true,
			Reason:   "Updates are disabled while a request is pending.",
		},
		Download: Availability{
			Label:  "Re-download configuration",
			Reason: "There is no active configuration.",
		},
		Remove: Availability{
			Label:    "Remove configuration",
			Disabled: true,
			Reason:   "There is no active configuration.",
		},
	}

	switch i.State {
	case StateUnconfigured, "":
		acts.Update.Label = "Create and download configuration"
		acts.Update.Disabled = false
		acts.Download.Hidden = true
		acts.Remove.Hidden = true
	case StateConfigured:
		acts.Update.Disabled = false
		acts.Remove.Disabled = false
	case StateConfiguring:
		// pending create/update: only re-download is possible
	case StateRemoving:
		acts.Download.Disabled = true
		acts.Download.Reason = "The configuration is scheduled for removal."
	}
	return acts
}
