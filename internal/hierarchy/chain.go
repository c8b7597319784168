package hierarchy

import (
	"context"
	"fmt"
	"sync"
)

// SupervisorLookup returns the direct supervisor of id, or nil at the top.
type SupervisorLookup interface {
	SupervisorOf(ctx context.Context, id int64) (*int64, error)
}

// WalkChain climbs the supervisor chain starting above candidateID and
// reports whether any ancestor is in targets. A repeated id ends the walk so
// malformed (cyclic) data terminates.
func WalkChain(ctx context.Context, lookup SupervisorLookup, candidateID int64, targets []int64) (bool, error) {
	if len(targets) == 0 {
		return false, nil
	}
	set := make(map[int64]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}
	return walk(ctx, lookup, candidateID, set, map[int64]struct{}{candidateID: {}})
}

func walk(ctx context.Context, lookup SupervisorLookup, id int64, targets, visited map[int64]struct{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	sup, err := lookup.SupervisorOf(ctx, id)
	if err != nil {
		return false, fmt.Errorf("lookup supervisor of %d: %w", id, err)
	}
	if sup == nil {
		return false, nil
	}
	if _, ok := targets[*sup]; ok {
		return true, nil
	}
	if _, seen := visited[*sup]; seen {
		return false, nil
	}
	visited[*sup] = struct{}{}
	return walk(ctx, lookup, *sup, targets, visited)
}

// ChainChecker answers hierarchy checks by walking a SupervisorLookup.
type ChainChecker struct {
	Lookup SupervisorLookup
}

func NewChainChecker(lookup SupervisorLookup) *ChainChecker {
	return &ChainChecker{Lookup: lookup}
}

func (c *ChainChecker) CheckHierarchy(ctx context.Context, subordinateID int64, supervisorIDs []int64) (bool, error) {
	return WalkChain(ctx, c.Lookup, subordinateID, supervisorIDs)
}

// RosterLookup is an in-memory SupervisorLookup over a known roster.
type RosterLookup struct {
	mu          sync.RWMutex
	supervisors map[int64]int64
}

func NewRosterLookup() *RosterLookup {
	return &RosterLookup{supervisors: make(map[int64]int64)}
}

// Set records that supervisorID is the direct supervisor of id.
func (l *RosterLookup) Set(id, supervisorID int64) {
	l.mu.Lock()
	l.supervisors[id] = supervisorID
	l.mu.Unlock()
}

// Len returns the number of known supervisor links.
func (l *RosterLookup) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.supervisors)
}

func (l *RosterLookup) SupervisorOf(_ context.Context, id int64) (*int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sup, ok := l.supervisors[id]
	if !ok {
		return nil, nil
	}
	return &sup, nil
}

// LocalFirst answers from Local when it can prove subordination and asks
// Remote otherwise. A local "no" is never final since the local data may
// not hold the whole chain.
type LocalFirst struct {
	Local  Checker
	Remote Checker
}

func (c LocalFirst) CheckHierarchy(ctx context.Context, subordinateID int64, supervisorIDs []int64) (bool, error) {
	if c.Local != nil {
		if ok, err := c.Local.CheckHierarchy(ctx, subordinateID, supervisorIDs); err == nil && ok {
			return true, nil
		}
	}
	return c.Remote.CheckHierarchy(ctx, subordinateID, supervisorIDs)
}
