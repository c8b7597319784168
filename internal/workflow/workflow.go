// Package workflow is the reference authority: it owns resolutions, applies
// transitions and records everything that happens to them.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/core/events"
	"github.com/frahmantamala/resolution-tracker/internal/hierarchy"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

// Repository stores resolutions and their discussion. Lookups by public id
// return internal.ErrResolutionNotFound when nothing matches.
type Repository interface {
	Create(ctx context.Context, r *resolution.Resolution) error
	GetByPublicID(ctx context.Context, publicID string) (*resolution.Resolution, error)
	Update(ctx context.Context, r *resolution.Resolution) error
	ListByStatus(ctx context.Context, status resolution.Status) ([]resolution.Resolution, error)

	ListInteractions(ctx context.Context, publicID string) ([]interaction.Interaction, error)
	GetInteraction(ctx context.Context, publicID string, id int64) (*interaction.Interaction, error)
	CreateInteraction(ctx context.Context, publicID string, in *interaction.Interaction) error

	ListProgress(ctx context.Context, publicID string) ([]interaction.ProgressUpdate, error)
	CreateProgress(ctx context.Context, publicID string, p *interaction.ProgressUpdate) error
}

// EventLog is the append-only history behind the timeline.
type EventLog interface {
	Append(ctx context.Context, publicID string, e timeline.Event) error
	List(ctx context.Context, publicID string) ([]timeline.Event, error)
}

type Users interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]user.User, error)
	List(ctx context.Context) ([]user.User, error)
	SupervisorOf(ctx context.Context, id int64) (*int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      Repository
	log       EventLog
	users     Users
	publisher Publisher
	hierarchy *hierarchy.ChainChecker
	logger    *slog.Logger
	workflow  internal.WorkflowConfig
	now       func() time.Time
}

func NewService(repo Repository, log EventLog, users Users, publisher Publisher, cfg internal.WorkflowConfig, lg *slog.Logger) *Service {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Service{
		repo:      repo,
		log:       log,
		users:     users,
		publisher: publisher,
		hierarchy: hierarchy.NewChainChecker(users),
		logger:    lg,
		workflow:  cfg.WithDefaults(),
		now:       time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
