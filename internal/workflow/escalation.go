package workflow

import (
	"context"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal/resolution"
)

// EscalateStale auto-accepts operational resolutions the executor left
// unanswered past the configured window. It returns how many moved.
func (s *Service) EscalateStale(ctx context.Context) (int, error) {
	pending, err := s.repo.ListByStatus(ctx, resolution.StatusNotified)
	if err != nil {
		return 0, err
	}

	now := s.now()
	moved := 0
	for i := range pending {
		r := pending[i]
		if !resolution.AutoAcceptDue(r, now, s.workflow.AutoAcceptAfter) {
			continue
		}
		req := resolution.Request{Action: resolution.ActionAutoAccept}
		to, err := resolution.Plan(r, req)
		if err != nil {
			s.logger.WarnContext(ctx, "cannot auto-accept resolution", "resolution_id", r.PublicID, "error", err)
			continue
		}
		if _, err := s.apply(ctx, nil, &r, req, to); err != nil {
			return moved, err
		}
		moved++
	}
	if moved > 0 {
		s.logger.InfoContext(ctx, "auto-accepted stale resolutions", "count", moved)
	}
	return moved, nil
}

// RunEscalation sweeps every interval until ctx ends.
func (s *Service) RunEscalation(ctx context.Context) error {
	ticker := time.NewTicker(s.workflow.EscalationInterval)
	defer ticker.Stop()

	for {
		if _, err := s.EscalateStale(ctx); err != nil {
			s.logger.ErrorContext(ctx, "escalation sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
