package resolution

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

type Action string

const (
	ActionApproveSecretary  Action = "approve_secretary"
	ActionReturnToSecretary Action = "return_to_secretary"
	ActionApproveCEO        Action = "approve_ceo"
	ActionAccept            Action = "accept"
	ActionAutoAccept        Action = "auto_accept"
	ActionReturn            Action = "return"
	ActionUpdateStatus      Action = "update_status"
)

type Role string

const (
	RoleSecretary Role = "secretary"
	RoleCEO       Role = "ceo"
	RoleAuditor   Role = "auditor"
	RoleExecutor  Role = "executor"
	RoleSystem    Role = "system"
)

// Request is the payload of a transition. Only the fields relevant to the
// action are read.
type Request struct {
	Action   Action     `json:"action"`
	Status   Status     `json:"status,omitempty"`
	Comment  string     `json:"comment,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type requirement int

const (
	requireNothing requirement = iota
	requireComment
	requireReason
	requireDeadline
)

type edge struct {
	from   Status
	action Action
	to     Status
	// toInformational overrides to for informational resolutions.
	toInformational Status
	roles           []Role
	requires        requirement
}

var edges = []edge{
	{from: StatusPendingSecretaryApproval, action: ActionApproveSecretary, to: StatusPendingCEOApproval, toInformational: StatusNotified, roles: []Role{RoleSecretary}},
	{from: StatusPendingSecretaryApproval, action: ActionReturnToSecretary, to: StatusReturnedToSecretary, roles: []Role{RoleSecretary}, requires: requireComment},
	{from: StatusReturnedToSecretary, action: ActionApproveSecretary, to: StatusPendingCEOApproval, toInformational: StatusNotified, roles: []Role{RoleSecretary}},
	{from: StatusPendingCEOApproval, action: ActionApproveCEO, to: StatusNotified, roles: []Role{RoleCEO}, requires: requireDeadline},
	{from: StatusNotified, action: ActionAccept, to: StatusInProgress, roles: []Role{RoleExecutor}},
	{from: StatusNotified, action: ActionAutoAccept, to: StatusInProgress, roles: []Role{RoleSystem}},
	{from: StatusNotified, action: ActionReturn, to: StatusPendingCEOApproval, roles: []Role{RoleExecutor}, requires: requireReason},
	{from: StatusInProgress, action: ActionUpdateStatus, to: StatusCompleted, roles: []Role{RoleAuditor, RoleSecretary, RoleCEO}},
}

var editorRoles = []Role{RoleAuditor, RoleSecretary, RoleCEO}

// lookup finds the edge leaving from for action. For update_status the
// requested target selects between completion and cancellation.
func lookup(from Status, action Action, target Status) (edge, bool) {
	if action == ActionUpdateStatus && target == StatusCancelled {
		if from.Terminal() || !from.Valid() {
			return edge{}, false
		}
		return edge{from: from, action: action, to: StatusCancelled, roles: editorRoles}, true
	}
	for _, e := range edges {
		if e.from != from || e.action != action {
			continue
		}
		if action == ActionUpdateStatus && target != e.to {
			continue
		}
		return e, true
	}
	return edge{}, false
}

func (e edge) target(t Type) Status {
	if t == TypeInformational && e.toInformational != "" {
		return e.toInformational
	}
	return e.to
}

func (e edge) permits(roles []Role) bool {
	for _, have := range roles {
		for _, want := range e.roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Plan validates req against the current state of r and returns the status
// the resolution moves to. It never mutates r.
func Plan(r Resolution, req Request) (Status, error) {
	e, ok := lookup(r.Status, req.Action, req.Status)
	if !ok {
		return r.Status, internal.ErrInvalidTransition.WithMessage(
			fmt.Sprintf("cannot %s a resolution in status %s", humanize(req.Action), r.Status))
	}

	switch e.requires {
	case requireComment:
		if strings.TrimSpace(req.Comment) == "" {
			return r.Status, internal.ErrReasonRequired.WithMessage("a comment is required when returning to the secretary")
		}
	case requireReason:
		if strings.TrimSpace(req.Reason) == "" {
			return r.Status, internal.ErrReasonRequired
		}
	case requireDeadline:
		if r.Type == TypeOperational && r.Deadline == nil && req.Deadline == nil {
			return r.Status, internal.ErrDeadlineRequired
		}
	}

	to := e.target(r.Type)
	if r.Type == TypeOperational && to.PostApproval() && r.ExecutorUnit == nil {
		return r.Status, internal.ErrExecutorRequired
	}
	return to, nil
}

// Allowed reports whether any of roles may take action from status.
func Allowed(status Status, action Action, target Status, roles []Role) bool {
	e, ok := lookup(status, action, target)
	return ok && e.permits(roles)
}

// Actions lists every action with at least one edge leaving status.
func Actions(status Status) []Action {
	var out []Action
	seen := map[Action]bool{}
	for _, e := range edges {
		if e.from == status && !seen[e.action] {
			seen[e.action] = true
			out = append(out, e.action)
		}
	}
	if !status.Terminal() && status.Valid() && !seen[ActionUpdateStatus] {
		out = append(out, ActionUpdateStatus)
	}
	return out
}

// RolesOf derives the workflow roles viewer holds on r. Position decides the
// organizational roles; the executor role belongs to the executor unit only.
func RolesOf(viewer user.User, r Resolution) []Role {
	var roles []Role
	switch viewer.Position {
	case user.PositionSecretary:
		roles = append(roles, RoleSecretary)
	case user.PositionCEO:
		roles = append(roles, RoleCEO)
	case user.PositionAuditor:
		roles = append(roles, RoleAuditor)
	}
	if r.IsExecutor(viewer.ID) {
		roles = append(roles, RoleExecutor)
	}
	return roles
}

// Apply moves r to the status planned for req and records the side data the
// action carries. The caller must have called Plan first.
func Apply(r *Resolution, req Request, to Status, now time.Time) {
	if req.Action == ActionApproveCEO && req.Deadline != nil {
		d := *req.Deadline
		r.Deadline = &d
	}
	if to == StatusNotified && r.Status != StatusNotified {
		n := now
		r.NotifiedAt = &n
	}
	if to == StatusCompleted && r.Type == TypeOperational {
		r.Progress = 100
	}
	r.Status = to
	r.UpdatedAt = now
}

// AutoAcceptDue reports whether a notified resolution has waited longer than
// window for the executor to respond.
func AutoAcceptDue(r Resolution, now time.Time, window time.Duration) bool {
	if r.Status != StatusNotified || r.Type != TypeOperational || r.NotifiedAt == nil {
		return false
	}
	return !now.Before(r.NotifiedAt.Add(window))
}

// InitialStatus is the status a new resolution starts in, decided by who
// drafted it.
func InitialStatus(creator user.User, t Type) Status {
	if creator.Position != user.PositionSecretary {
		return StatusPendingSecretaryApproval
	}
	if t == TypeInformational {
		return StatusNotified
	}
	return StatusPendingCEOApproval
}

func humanize(a Action) string {
	return strings.ReplaceAll(string(a), "_", " ")
}
