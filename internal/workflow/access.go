package workflow

import (
	"context"
	"errors"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

// oversight positions see every resolution.
var oversight = []user.Position{
	user.PositionSecretary,
	user.PositionCEO,
	user.PositionAuditor,
	user.PositionBoard,
}

// actor loads the user the request is made for.
func (s *Service) actor(ctx context.Context) (*user.User, error) {
	id := internal.UserIDFromContext(ctx)
	if id == 0 {
		return nil, internal.ErrInvalidToken.WithMessage("authentication required")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// involved reports whether u takes part in r: oversight, drafter, one of
// its units, or anyone reporting to the executor or a coworker.
func (s *Service) involved(ctx context.Context, u user.User, r resolution.Resolution) (bool, error) {
	if u.HasPosition(oversight...) {
		return true, nil
	}
	if r.CreatedBy != nil && r.CreatedBy.ID == u.ID {
		return true, nil
	}
	if r.IsExecutor(u.ID) || r.IsCoworker(u.ID) || r.IsInformUnit(u.ID) {
		return true, nil
	}

	targets := r.CoworkerIDs()
	if r.ExecutorUnit != nil {
		targets = append(targets, r.ExecutorUnit.ID)
	}
	targets = append(targets, user.IDs(r.InformUnits)...)
	if len(targets) == 0 {
		return false, nil
	}
	return s.hierarchy.CheckHierarchy(ctx, u.ID, targets)
}

// load fetches the resolution and checks the actor may see it.
func (s *Service) load(ctx context.Context, publicID string) (*user.User, *resolution.Resolution, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	ok, err := s.involved(ctx, *actor, *r)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		s.logger.WarnContext(ctx, "unauthorized access to resolution", "resolution_id", publicID, "user_id", actor.ID)
		return nil, nil, internal.ErrUnauthorizedAccess
	}
	return actor, r, nil
}

// roster lists everyone taking part in the discussion of r.
func (s *Service) roster(ctx context.Context, r resolution.Resolution) ([]user.User, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]user.User, 0, len(all))
	for _, u := range all {
		ok, err := s.involved(ctx, u, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Service) permissions(ctx context.Context, actor user.User, r resolution.Resolution) (resolution.Permissions, []user.User, error) {
	participants, err := s.roster(ctx, r)
	if err != nil {
		return resolution.Permissions{}, nil, err
	}
	_, participant := user.ByID(participants)[actor.ID]
	return resolution.ComputePermissions(actor, r, participant), participants, nil
}
