package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/authority"
	"github.com/frahmantamala/resolution-tracker/internal/content"
	"github.com/frahmantamala/resolution-tracker/internal/core/common/validation"
	"github.com/frahmantamala/resolution-tracker/internal/core/events"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

// Create drafts a new resolution. Drafts by the secretary skip the
// secretary approval step.
func (s *Service) Create(ctx context.Context, req authority.CreateResolutionRequest) (*resolution.Resolution, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := validation.ValidateDraft(validation.Draft{
		MeetingNumber: req.MeetingNumber,
		MeetingDate:   req.MeetingDate,
		Clause:        req.Clause,
		Subclause:     req.Subclause,
		Description:   req.Description,
		Type:          string(req.Type),
		Deadline:      req.Deadline,
	}, now); err != nil {
		return nil, err
	}

	creator := actor.Ref()
	r := &resolution.Resolution{
		PublicID:      uuid.New().String(),
		MeetingNumber: strings.TrimSpace(req.MeetingNumber),
		MeetingDate:   req.MeetingDate,
		Clause:        strings.TrimSpace(req.Clause),
		Subclause:     strings.TrimSpace(req.Subclause),
		Description:   content.Sanitize(req.Description),
		Type:          req.Type,
		Status:        resolution.InitialStatus(*actor, req.Type),
		Deadline:      req.Deadline,
		CreatedBy:     &creator,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if req.ExecutorUnitID != nil {
		units, err := s.units(ctx, []int64{*req.ExecutorUnitID})
		if err != nil {
			return nil, err
		}
		r.ExecutorUnit = &units[0]
	}
	if r.Coworkers, err = s.units(ctx, req.CoworkerIDs); err != nil {
		return nil, err
	}
	if r.InformUnits, err = s.units(ctx, req.InformUnitIDs); err != nil {
		return nil, err
	}
	if r.Status == resolution.StatusNotified {
		notified := now
		r.NotifiedAt = &notified
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.ErrorContext(ctx, "failed to create resolution", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.record(ctx, r.PublicID, actor, timeline.ActionCreated, fmt.Sprintf("Resolution %s drafted", r.Reference()), nil)
	if r.Status == resolution.StatusNotified {
		s.record(ctx, r.PublicID, actor, timeline.ActionInformed, "Inform units notified", nil)
	}
	s.publish(ctx, events.NewResolutionEvent(events.EventTypeResolutionCreated, r.PublicID, actor.ID, r))

	s.logger.InfoContext(ctx, "resolution created",
		"resolution_id", r.PublicID,
		"user_id", actor.ID,
		"type", r.Type,
		"status", r.Status)
	return r, nil
}

// units loads ids in order, failing on the first unknown id.
func (s *Service) units(ctx context.Context, ids []int64) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := user.ByID(found)
	out := make([]user.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, internal.NewValidationFieldError("units", fmt.Sprintf("unknown unit %d", id), internal.ErrCodeInvalidUnits)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, publicID string) (*resolution.Resolution, error) {
	_, r, err := s.load(ctx, publicID)
	return r, err
}

// Interactions returns the discussion along with the actor's permission
// flags and the participant roster.
func (s *Service) Interactions(ctx context.Context, publicID string) (*authority.InteractionsPage, error) {
	actor, r, err := s.load(ctx, publicID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.ListInteractions(ctx, publicID)
	if err != nil {
		return nil, err
	}
	perms, participants, err := s.permissions(ctx, *actor, *r)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []interaction.Interaction{}
	}
	return &authority.InteractionsPage{
		Comments:         comments,
		Permissions:      perms,
		ChatParticipants: participants,
	}, nil
}

// PostInteraction stores a message. Content is sanitised; mentions that are
// not participants are dropped.
func (s *Service) PostInteraction(ctx context.Context, publicID string, req authority.PostInteractionRequest) (*interaction.Interaction, error) {
	actor, r, err := s.load(ctx, publicID)
	if err != nil {
		return nil, err
	}
	perms, participants, err := s.permissions(ctx, *actor, *r)
	if err != nil {
		return nil, err
	}
	if resolution.NewGate(*r, *actor, perms).Chat() != resolution.ChatEnabled {
		return nil, internal.ErrChatClosed
	}

	body := content.Sanitize(req.Content)
	if content.IsBlank(body) && len(req.Attachments) == 0 {
		return nil, internal.ErrEmptyContent
	}

	known := user.ByID(participants)
	mentions := make([]int64, 0, len(req.Mentions))
	seen := map[int64]bool{}
	for _, id := range req.Mentions {
		if _, ok := known[id]; ok && !seen[id] {
			seen[id] = true
			mentions = append(mentions, id)
		}
	}

	in := &interaction.Interaction{
		Content:     body,
		CommentType: interaction.CommentMessage,
		Author:      actor.Ref(),
		CreatedAt:   s.now(),
		Attachments: req.Attachments,
		Mentions:    mentions,
	}
	if req.ReplyToID != nil {
		target, err := s.repo.GetInteraction(ctx, publicID, *req.ReplyToID)
		if err != nil {
			return nil, err
		}
		in.ReplyTo = target.Snapshot()
	}

	if err := s.repo.CreateInteraction(ctx, publicID, in); err != nil {
		s.logger.ErrorContext(ctx, "failed to store interaction", "error", err, "resolution_id", publicID)
		return nil, err
	}
	s.publish(ctx, events.NewInteractionCreatedEvent(publicID, actor.ID, in))
	return in, nil
}

func (s *Service) Progress(ctx context.Context, publicID string) ([]interaction.ProgressUpdate, error) {
	if _, _, err := s.load(ctx, publicID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListProgress(ctx, publicID)
	if items == nil {
		items = []interaction.ProgressUpdate{}
	}
	return items, err
}

// PostProgress records a progress report from the executor unit and moves
// the resolution's percentage with it.
func (s *Service) PostProgress(ctx context.Context, publicID string, req authority.PostProgressRequest) (*interaction.ProgressUpdate, error) {
	actor, r, err := s.load(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if !resolution.NewGate(*r, *actor, resolution.Permissions{}).CanSubmitProgress() {
		return nil, internal.ErrActionNotAllowed
	}
	if req.Progress < 0 || req.Progress > 100 {
		return nil, internal.ErrInvalidProgress
	}
	description := content.Sanitize(req.Description)
	if content.IsBlank(description) {
		return nil, internal.ErrEmptyContent.WithMessage("a progress description is required")
	}

	now := s.now()
	p := &interaction.ProgressUpdate{
		Progress:    req.Progress,
		Description: description,
		Author:      actor.Ref(),
		CreatedAt:   now,
	}
	if err := s.repo.CreateProgress(ctx, publicID, p); err != nil {
		return nil, err
	}

	r.Progress = req.Progress
	r.UpdatedAt = now
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.record(ctx, publicID, actor, timeline.ActionProgressUpdate,
		fmt.Sprintf("Progress updated to %d%%", req.Progress),
		map[string]any{"progress": req.Progress})
	s.publish(ctx, events.NewProgressCreatedEvent(publicID, actor.ID, p))
	return p, nil
}

// Transition applies req for the actor. Edges that do not exist are
// conflicts; edges the actor holds no role for are forbidden; missing
// payload is a validation error.
func (s *Service) Transition(ctx context.Context, publicID string, req resolution.Request) (*resolution.Resolution, error) {
	actor, r, err := s.load(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if req.Action == resolution.ActionAutoAccept {
		return nil, internal.ErrActionNotAllowed
	}

	to, planErr := resolution.Plan(*r, req)
	if errors.Is(planErr, internal.ErrInvalidTransition) {
		return nil, planErr
	}
	if !resolution.Allowed(r.Status, req.Action, req.Status, resolution.RolesOf(*actor, *r)) {
		s.logger.WarnContext(ctx, "transition denied",
			"resolution_id", publicID,
			"user_id", actor.ID,
			"action", req.Action,
			"status", r.Status)
		return nil, internal.ErrActionNotAllowed
	}
	if planErr != nil {
		return nil, planErr
	}

	return s.apply(ctx, actor, r, req, to)
}

func (s *Service) apply(ctx context.Context, actor *user.User, r *resolution.Resolution, req resolution.Request, to resolution.Status) (*resolution.Resolution, error) {
	from := r.Status
	resolution.Apply(r, req, to, s.now())
	if err := s.repo.Update(ctx, r); err != nil {
		s.logger.ErrorContext(ctx, "failed to store transition", "error", err, "resolution_id", r.PublicID)
		return nil, err
	}

	if note := strings.TrimSpace(req.Reason + req.Comment); note != "" && actor != nil {
		s.note(ctx, actor, r.PublicID, note)
	}

	action, description := describe(req, from, to, r.Type)
	data := map[string]any{"from": string(from), "to": string(to)}
	if req.Deadline != nil {
		data["deadline"] = req.Deadline
	}
	if req.Reason != "" {
		data["reason"] = req.Reason
	}
	if req.Comment != "" {
		data["comment"] = req.Comment
	}
	s.record(ctx, r.PublicID, actor, action, description, data)

	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}
	s.publish(ctx, events.NewStatusChangedEvent(r.PublicID, actorID, r))

	s.logger.InfoContext(ctx, "resolution transitioned",
		"resolution_id", r.PublicID,
		"action", req.Action,
		"from", from,
		"to", to,
		"user_id", actorID)
	return r, nil
}

// note posts the reason given for a return as an action comment so it
// shows in the discussion.
func (s *Service) note(ctx context.Context, actor *user.User, publicID, text string) {
	in := &interaction.Interaction{
		Content:     content.Sanitize(text),
		CommentType: interaction.CommentAction,
		Author:      actor.Ref(),
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateInteraction(ctx, publicID, in); err != nil {
		s.logger.WarnContext(ctx, "failed to store transition note", "error", err, "resolution_id", publicID)
		return
	}
	s.publish(ctx, events.NewInteractionCreatedEvent(publicID, actor.ID, in))
}

func describe(req resolution.Request, from, to resolution.Status, t resolution.Type) (string, string) {
	switch req.Action {
	case resolution.ActionApproveSecretary:
		if t == resolution.TypeInformational {
			return timeline.ActionInformed, "Approved by the secretary and sent to inform units"
		}
		return timeline.ActionSecretaryApproved, "Approved by the secretary"
	case resolution.ActionReturnToSecretary:
		return timeline.ActionReturnToSecretary, "Returned to the secretary for revision"
	case resolution.ActionApproveCEO:
		return timeline.ActionCEOApproved, "Approved by the chief executive"
	case resolution.ActionAccept:
		return timeline.ActionExecutorAccepted, "Accepted by the executor unit"
	case resolution.ActionAutoAccept:
		return timeline.ActionAutoAccepted, "Accepted automatically after no response"
	case resolution.ActionReturn:
		return timeline.ActionReturn, "Returned by the executor unit"
	case resolution.ActionUpdateStatus:
		if to == resolution.StatusCancelled {
			return timeline.ActionCancelled, "Resolution cancelled"
		}
		return timeline.ActionCompleted, "Resolution completed"
	}
	return timeline.ActionEdit, fmt.Sprintf("Status changed from %s to %s", from, to)
}

func (s *Service) Timeline(ctx context.Context, publicID string) ([]timeline.Event, error) {
	if _, _, err := s.load(ctx, publicID); err != nil {
		return nil, err
	}
	items, err := s.log.List(ctx, publicID)
	if items == nil {
		items = []timeline.Event{}
	}
	return items, err
}

// CheckHierarchy walks the supervisor chain of userID.
func (s *Service) CheckHierarchy(ctx context.Context, userID int64, supervisorIDs []int64) (bool, error) {
	if _, err := s.actor(ctx); err != nil {
		return false, err
	}
	return s.hierarchy.CheckHierarchy(ctx, userID, supervisorIDs)
}

// record appends to the event log. The log is history, so a failed write
// is logged and does not undo the change it describes.
func (s *Service) record(ctx context.Context, publicID string, actor *user.User, action, description string, data map[string]any) {
	e := timeline.Event{
		ID:          uuid.New().String(),
		Action:      action,
		Timestamp:   s.now(),
		Description: description,
		Data:        data,
	}
	if actor != nil {
		ref := actor.Ref()
		e.Actor = &ref
	}
	if err := s.log.Append(ctx, publicID, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to append event", "error", err, "resolution_id", publicID, "action", action)
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "error", err, "event_type", e.EventType())
	}
}
