package resolution

import (
	"fmt"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

type Status string

const (
	StatusPendingSecretaryApproval Status = "pending_secretary_approval"
	StatusPendingCEOApproval       Status = "pending_ceo_approval"
	StatusNotified                 Status = "notified"
	StatusInProgress               Status = "in_progress"
	StatusCompleted                Status = "completed"
	StatusCancelled                Status = "cancelled"
	StatusReturnedToSecretary      Status = "returned_to_secretary"
)

var statuses = []Status{
	StatusPendingSecretaryApproval,
	StatusPendingCEOApproval,
	StatusNotified,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusReturnedToSecretary,
}

func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) Valid() bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PostApproval reports whether the chief executive has already ratified.
func (s Status) PostApproval() bool {
	return s == StatusNotified || s == StatusInProgress || s == StatusCompleted
}

type Type string

const (
	TypeOperational   Type = "operational"
	TypeInformational Type = "informational"
)

func (t Type) Valid() bool {
	return t == TypeOperational || t == TypeInformational
}

type Resolution struct {
	PublicID      string      `json:"public_id"`
	MeetingNumber string      `json:"meeting_number"`
	MeetingDate   time.Time   `json:"meeting_date"`
	Clause        string      `json:"clause"`
	Subclause     string      `json:"subclause,omitempty"`
	Description   string      `json:"description"`
	Type          Type        `json:"type"`
	Status        Status      `json:"status"`
	Progress      int         `json:"progress"`
	Deadline      *time.Time  `json:"deadline,omitempty"`
	ExecutorUnit  *user.User  `json:"executor_unit,omitempty"`
	Coworkers     []user.User `json:"coworkers,omitempty"`
	InformUnits   []user.User `json:"inform_units,omitempty"`
	NotifiedAt    *time.Time  `json:"notified_at,omitempty"`
	CreatedBy     *user.Ref   `json:"created_by,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Reference is the human readable "meeting/clause" label.
func (r Resolution) Reference() string {
	ref := fmt.Sprintf("%s/%s", r.MeetingNumber, r.Clause)
	if r.Subclause != "" {
		ref += "." + r.Subclause
	}
	return ref
}

func (r Resolution) IsExecutor(id int64) bool {
	return r.ExecutorUnit != nil && r.ExecutorUnit.ID == id
}

func (r Resolution) IsCoworker(id int64) bool {
	for _, c := range r.Coworkers {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (r Resolution) IsInformUnit(id int64) bool {
	for _, u := range r.InformUnits {
		if u.ID == id {
			return true
		}
	}
	return false
}

// CoworkerIDs returns the coworker unit ids in declaration order.
func (r Resolution) CoworkerIDs() []int64 {
	return user.IDs(r.Coworkers)
}

// Validate checks the structural invariants that hold in every state.
func (r Resolution) Validate() error {
	if !r.Type.Valid() {
		return internal.NewValidationFieldError("type", "type must be operational or informational", internal.ErrCodeInvalidType)
	}
	if !r.Status.Valid() {
		return internal.NewValidationFieldError("status", fmt.Sprintf("unknown status %q", r.Status), internal.ErrCodeValidationFailed)
	}
	if r.Progress < 0 || r.Progress > 100 {
		return internal.ErrInvalidProgress
	}

	switch r.Type {
	case TypeInformational:
		if r.ExecutorUnit != nil || len(r.Coworkers) > 0 {
			return internal.NewValidationFieldError("executor_unit", "informational resolutions cannot have executor or coworker units", internal.ErrCodeInvalidUnits)
		}
		if r.Progress != 0 {
			return internal.NewValidationFieldError("progress", "informational resolutions do not track progress", internal.ErrCodeInvalidProgress)
		}
	case TypeOperational:
		if len(r.InformUnits) > 0 {
			return internal.NewValidationFieldError("inform_units", "operational resolutions cannot have inform units", internal.ErrCodeInvalidUnits)
		}
		if r.Status.PostApproval() && r.ExecutorUnit == nil {
			return internal.ErrExecutorRequired
		}
		if r.ExecutorUnit != nil && r.IsCoworker(r.ExecutorUnit.ID) {
			return internal.NewValidationFieldError("coworkers", "the executor unit cannot also be a coworker", internal.ErrCodeInvalidUnits)
		}
	}
	return nil
}
