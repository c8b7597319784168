package resolution

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

// Transitioner submits a transition to the authority and returns the
// resolution as the authority now sees it.
type Transitioner interface {
	Transition(ctx context.Context, publicID string, req Request) (*Resolution, error)
}

// Controller drives transitions for a single resolution on the client side.
// At most one request is in flight; the status is applied optimistically and
// rolled back if the authority refuses.
type Controller struct {
	client Transitioner
	logger *slog.Logger

	// OnChange is invoked with the current state after every local change.
	OnChange func(Resolution)

	mu       sync.Mutex
	current  Resolution
	inFlight bool
}

func NewController(client Transitioner, r Resolution, lg *slog.Logger) *Controller {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Controller{client: client, logger: lg, current: r}
}

func (c *Controller) Current() Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Transition validates req locally, applies the planned status and submits
// it. Local validation failures return without contacting the authority.
func (c *Controller) Transition(ctx context.Context, req Request) (Resolution, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return c.Current(), internal.ErrTransitionInFlight
	}
	prior := c.current
	to, err := Plan(prior, req)
	if err != nil {
		c.mu.Unlock()
		return prior, err
	}
	c.inFlight = true
	c.current.Status = to
	optimistic := c.current
	c.mu.Unlock()
	c.notify(optimistic)

	updated, err := c.client.Transition(ctx, prior.PublicID, req)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.current = prior
		c.mu.Unlock()
		c.logger.Warn("transition rejected, rolled back",
			"resolution_id", prior.PublicID,
			"action", req.Action,
			"status", prior.Status,
			"error", err,
		)
		c.notify(prior)
		return prior, err
	}
	if updated != nil {
		c.current = *updated
	}
	settled := c.current
	c.mu.Unlock()
	c.notify(settled)
	return settled, nil
}

// Reconcile replaces local state with a server copy, unless a transition is
// pending, in which case its own response wins.
func (c *Controller) Reconcile(r Resolution) bool {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return false
	}
	c.current = r
	c.mu.Unlock()
	c.notify(r)
	return true
}

func (c *Controller) notify(r Resolution) {
	if c.OnChange != nil {
		c.OnChange(r)
	}
}
