// Package hierarchy answers "does this person report, directly or
// transitively, to one of these units" for participant classification.
package hierarchy

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

// Checker performs the authoritative subordination lookup.
type Checker interface {
	CheckHierarchy(ctx context.Context, subordinateID int64, supervisorIDs []int64) (bool, error)
}

// Resolver memoizes Checker answers for the lifetime of one view. The cache
// is read-through and never invalidated while the view is open.
type Resolver struct {
	checker Checker
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]bool
}

func NewResolver(checker Checker, lg *slog.Logger) *Resolver {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Resolver{
		checker: checker,
		logger:  lg,
		cache:   make(map[string]bool),
	}
}

// IsSubordinateOf reports whether candidateID sits below any of targets.
// Lookup failures are logged and answered false; they are not cached.
func (r *Resolver) IsSubordinateOf(ctx context.Context, candidateID int64, targets []int64) bool {
	normalized := normalize(targets)
	if len(normalized) == 0 {
		return false
	}

	key := cacheKey(candidateID, normalized)
	r.mu.RLock()
	v, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return v
	}

	result, err := r.checker.CheckHierarchy(ctx, candidateID, normalized)
	if err != nil {
		r.logger.WarnContext(ctx, "hierarchy check failed, treating as not subordinate",
			"candidate_id", candidateID,
			"targets", normalized,
			"error", err,
		)
		return false
	}

	r.mu.Lock()
	r.cache[key] = result
	r.mu.Unlock()
	return result
}

// Len returns the number of memoized answers.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// Clear drops every memoized answer. Called when the owning view closes.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]bool)
	r.mu.Unlock()
}

func normalize(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func cacheKey(candidateID int64, targets []int64) string {
	parts := make([]string, len(targets))
	for i, id := range targets {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strconv.FormatInt(candidateID, 10) + ":" + strings.Join(parts, ",")
}
