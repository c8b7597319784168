// Package participant classifies the people in a resolution discussion
// relative to its executor and coworker units.
package participant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type Type string

const (
	TypeExecutor Type = "executor"
	TypeCoworker Type = "coworker"
	TypeAuditor  Type = "auditor"
	TypeOther    Type = "other"
)

// HierarchyResolver answers transitive reporting questions.
type HierarchyResolver interface {
	IsSubordinateOf(ctx context.Context, candidateID int64, targets []int64) bool
}

// Cache holds classification results for one open view. It is never
// shared between resolutions.
type Cache struct {
	mu      sync.RWMutex
	entries map[int64]Type
}

func NewCache() *Cache {
	return &Cache{entries: make(map[int64]Type)}
}

func (c *Cache) Get(id int64) (Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[id]
	return t, ok
}

// TypeOf returns the cached type, or other while it is still unresolved.
func (c *Cache) TypeOf(id int64) Type {
	if t, ok := c.Get(id); ok {
		return t
	}
	return TypeOther
}

func (c *Cache) Set(id int64, t Type) {
	c.mu.Lock()
	c.entries[id] = t
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[int64]Type)
	c.mu.Unlock()
}

type Classifier struct {
	hierarchy HierarchyResolver
	cache     *Cache
	logger    *slog.Logger
}

func NewClassifier(h HierarchyResolver, cache *Cache, lg *slog.Logger) *Classifier {
	if cache == nil {
		cache = NewCache()
	}
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Classifier{hierarchy: h, cache: cache, logger: lg}
}

func (c *Classifier) Cache() *Cache {
	return c.cache
}

// Classify returns the participant type of p, first match wins:
// oversight position, executor unit, coworker unit, reports to the
// executor, reports to a coworker.
func (c *Classifier) Classify(ctx context.Context, p user.User, r resolution.Resolution) Type {
	if t, ok := c.cache.Get(p.ID); ok {
		return t
	}
	t := c.classify(ctx, p, r)
	c.cache.Set(p.ID, t)
	return t
}

func (c *Classifier) classify(ctx context.Context, p user.User, r resolution.Resolution) Type {
	if p.HasPosition(user.PositionAuditor, user.PositionCEO) {
		return TypeAuditor
	}
	if r.IsExecutor(p.ID) {
		return TypeExecutor
	}
	if r.IsCoworker(p.ID) {
		return TypeCoworker
	}
	if r.ExecutorUnit != nil && c.hierarchy.IsSubordinateOf(ctx, p.ID, []int64{r.ExecutorUnit.ID}) {
		return TypeExecutor
	}
	if ids := r.CoworkerIDs(); len(ids) > 0 && c.hierarchy.IsSubordinateOf(ctx, p.ID, ids) {
		return TypeCoworker
	}
	return TypeOther
}

// Seed records the answers that need no hierarchy lookup so a view can
// render them immediately.
func (c *Classifier) Seed(roster []user.User, r resolution.Resolution) {
	for _, p := range roster {
		switch {
		case p.HasPosition(user.PositionAuditor, user.PositionCEO):
			c.cache.Set(p.ID, TypeAuditor)
		case r.IsExecutor(p.ID):
			c.cache.Set(p.ID, TypeExecutor)
		case r.IsCoworker(p.ID):
			c.cache.Set(p.ID, TypeCoworker)
		}
	}
}

const defaultWorkers = 4

// ClassifyRoster classifies every participant concurrently on at most
// workers goroutines. onResult is called as each answer lands; it may be
// nil. The call returns once the whole roster is classified or ctx ends.
func (c *Classifier) ClassifyRoster(ctx context.Context, roster []user.User, r resolution.Resolution, workers int, onResult func(id int64, t Type)) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	jobs := make(chan user.User)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				t := c.Classify(ctx, p, r)
				if onResult != nil {
					onResult(p.ID, t)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range roster {
			select {
			case jobs <- p:
			case <-ctx.Done():
				c.logger.Debug("roster classification cancelled", "resolution_id", r.PublicID, "error", ctx.Err())
				return
			}
		}
	}()

	wg.Wait()
}

// Label is the display label for a participant of type t.
func Label(p user.User, t Type) string {
	if p.Position == user.PositionCEO {
		return "chief executive"
	}
	switch t {
	case TypeAuditor:
		return "auditor"
	case TypeExecutor:
		return "executor"
	case TypeCoworker:
		return "coworker"
	default:
		return "participant"
	}
}
