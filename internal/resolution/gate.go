package resolution

import "github.com/frahmantamala/resolution-tracker/internal/user"

// Permissions are the server-computed flags for the current viewer.
type Permissions struct {
	CanAccept   bool `json:"can_accept"`
	CanReturn   bool `json:"can_return"`
	CanEdit     bool `json:"can_edit"`
	CanDialogue bool `json:"can_dialogue"`
	CanChat     bool `json:"can_chat"`
}

type ChatMode int

const (
	ChatHidden ChatMode = iota
	ChatReadOnly
	ChatEnabled
)

func (m ChatMode) String() string {
	switch m {
	case ChatEnabled:
		return "enabled"
	case ChatReadOnly:
		return "read_only"
	default:
		return "hidden"
	}
}

// Gate derives every UI affordance for one viewer on one resolution. It is
// the only place gating decisions are made.
type Gate struct {
	Resolution  Resolution
	Viewer      user.User
	Permissions Permissions
}

func NewGate(r Resolution, viewer user.User, perms Permissions) Gate {
	return Gate{Resolution: r, Viewer: viewer, Permissions: perms}
}

func (g Gate) Chat() ChatMode {
	switch g.Resolution.Status {
	case StatusCancelled:
		return ChatHidden
	case StatusNotified, StatusInProgress:
		if g.Viewer.Position == user.PositionSecretary {
			return ChatHidden
		}
	case StatusCompleted:
		return ChatReadOnly
	}
	if g.Permissions.CanChat {
		return ChatEnabled
	}
	return ChatReadOnly
}

// CanSubmitProgress is true only for the executor unit itself on an
// operational resolution that is being worked on.
func (g Gate) CanSubmitProgress() bool {
	r := g.Resolution
	return r.IsExecutor(g.Viewer.ID) &&
		r.Type == TypeOperational &&
		r.Status == StatusInProgress &&
		!g.Viewer.HasPosition(user.PositionAuditor, user.PositionCEO)
}

// CanInvoke reports whether the viewer may start action now. update_status
// is offered when either completion or cancellation is reachable.
func (g Gate) CanInvoke(action Action) bool {
	if !g.flag(action) {
		return false
	}
	roles := RolesOf(g.Viewer, g.Resolution)
	if action == ActionUpdateStatus {
		return Allowed(g.Resolution.Status, action, StatusCompleted, roles) ||
			Allowed(g.Resolution.Status, action, StatusCancelled, roles)
	}
	return Allowed(g.Resolution.Status, action, "", roles)
}

// CanSetStatus narrows update_status to one target.
func (g Gate) CanSetStatus(target Status) bool {
	return g.flag(ActionUpdateStatus) &&
		Allowed(g.Resolution.Status, ActionUpdateStatus, target, RolesOf(g.Viewer, g.Resolution))
}

// Actions lists the actions the viewer can invoke right now.
func (g Gate) Actions() []Action {
	var out []Action
	for _, a := range Actions(g.Resolution.Status) {
		if g.CanInvoke(a) {
			out = append(out, a)
		}
	}
	return out
}

func (g Gate) flag(action Action) bool {
	p := g.Permissions
	switch action {
	case ActionAccept:
		return p.CanAccept
	case ActionReturn:
		return p.CanReturn
	case ActionReturnToSecretary:
		return p.CanDialogue
	case ActionApproveSecretary, ActionApproveCEO, ActionUpdateStatus:
		return p.CanEdit
	default:
		return false
	}
}

// ComputePermissions is the authority's rule for the flags it hands out.
// participant tells whether the viewer takes part in the discussion.
func ComputePermissions(viewer user.User, r Resolution, participant bool) Permissions {
	isExecutor := r.IsExecutor(viewer.ID)
	editor := viewer.HasPosition(user.PositionSecretary, user.PositionCEO, user.PositionAuditor)
	return Permissions{
		CanAccept:   isExecutor && r.Status == StatusNotified,
		CanReturn:   isExecutor && r.Status == StatusNotified,
		CanEdit:     editor && !r.Status.Terminal(),
		CanDialogue: viewer.Position == user.PositionSecretary && r.Status == StatusPendingSecretaryApproval,
		CanChat:     participant && !r.Status.Terminal(),
	}
}
