// Package authority is the engine's view of the server that owns
// resolutions. Every decision the server makes is final; the engine only
// predicts it for display.
package authority

import (
	"context"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

type Authority interface {
	FetchResolution(ctx context.Context, publicID string) (*resolution.Resolution, error)
	FetchInteractions(ctx context.Context, publicID string) (*InteractionsPage, error)
	FetchProgress(ctx context.Context, publicID string) ([]interaction.ProgressUpdate, error)
	FetchTimeline(ctx context.Context, publicID string) ([]timeline.Event, error)
	PostInteraction(ctx context.Context, publicID string, req PostInteractionRequest) (*interaction.Interaction, error)
	PostProgress(ctx context.Context, publicID string, req PostProgressRequest) (*interaction.ProgressUpdate, error)
	Transition(ctx context.Context, publicID string, req resolution.Request) (*resolution.Resolution, error)
	CheckHierarchy(ctx context.Context, userID int64, supervisorIDs []int64) (bool, error)
	CreateResolution(ctx context.Context, req CreateResolutionRequest) (*resolution.Resolution, error)
}

// InteractionsPage is everything the discussion panel needs in one fetch.
type InteractionsPage struct {
	Comments         []interaction.Interaction `json:"comments"`
	Permissions      resolution.Permissions    `json:"permissions"`
	ChatParticipants []user.User               `json:"chat_participants"`
}

type PostInteractionRequest struct {
	Content     string                   `json:"content"`
	Mentions    []int64                  `json:"mentions"`
	ReplyToID   *int64                   `json:"reply_to_id,omitempty"`
	Attachments []interaction.Attachment `json:"attachments,omitempty"`
}

type PostProgressRequest struct {
	Progress    int    `json:"progress"`
	Description string `json:"description"`
}

type CreateResolutionRequest struct {
	MeetingNumber  string          `json:"meeting_number"`
	MeetingDate    time.Time       `json:"meeting_date"`
	Clause         string          `json:"clause"`
	Subclause      string          `json:"subclause,omitempty"`
	Description    string          `json:"description"`
	Type           resolution.Type `json:"type"`
	ExecutorUnitID *int64          `json:"executor_unit_id,omitempty"`
	CoworkerIDs    []int64         `json:"coworker_ids,omitempty"`
	InformUnitIDs  []int64         `json:"inform_unit_ids,omitempty"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
}

type HierarchyCheckRequest struct {
	UserID        int64   `json:"user_id"`
	SupervisorIDs []int64 `json:"supervisor_ids"`
}

type HierarchyCheckResponse struct {
	IsSubordinate bool `json:"is_subordinate"`
}
