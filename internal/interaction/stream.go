package interaction

import (
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal/user"
)

type Kind string

const (
	KindInteraction Kind = "interaction"
	KindProgress    Kind = "progress"
)

type Placement string

const (
	PlacementLeft   Placement = "left"
	PlacementRight  Placement = "right"
	PlacementCenter Placement = "center"
)

// StreamItem is one entry of the merged discussion: exactly one of
// Interaction and Progress is set.
type StreamItem struct {
	Kind        Kind            `json:"kind"`
	Interaction *Interaction    `json:"interaction,omitempty"`
	Progress    *ProgressUpdate `json:"progress,omitempty"`
}

func (s StreamItem) ID() int64 {
	if s.Kind == KindProgress {
		return s.Progress.ID
	}
	return s.Interaction.ID
}

func (s StreamItem) CreatedAt() time.Time {
	if s.Kind == KindProgress {
		return s.Progress.CreatedAt
	}
	return s.Interaction.CreatedAt
}

func (s StreamItem) Author() user.Ref {
	if s.Kind == KindProgress {
		return s.Progress.Author
	}
	return s.Interaction.Author
}

// Placement decides where the item renders for viewerID: action comments
// in the center, the viewer's own items on the right.
func (s StreamItem) Placement(viewerID int64) Placement {
	if s.Kind == KindInteraction && s.Interaction.CommentType == CommentAction {
		return PlacementCenter
	}
	if s.Author().ID == viewerID {
		return PlacementRight
	}
	return PlacementLeft
}

// Merge interleaves interactions and progress updates by creation time.
// The sort is stable and interactions win ties, so merging the same input
// always yields the same order.
func Merge(interactions []Interaction, progress []ProgressUpdate) []StreamItem {
	items := make([]StreamItem, 0, len(interactions)+len(progress))
	for i := range interactions {
		it := interactions[i]
		items = append(items, StreamItem{Kind: KindInteraction, Interaction: &it})
	}
	for i := range progress {
		p := progress[i]
		items = append(items, StreamItem{Kind: KindProgress, Progress: &p})
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt().Before(items[b].CreatedAt())
	})
	return items
}

// Stream accumulates discussion items from fetches, local sends and realtime
// events. Items are added or replaced by id and Items re-merges. Only
// pending local sends are ever removed.
type Stream struct {
	mu           sync.RWMutex
	interactions []Interaction
	progress     []ProgressUpdate
}

func NewStream(interactions []Interaction, progress []ProgressUpdate) *Stream {
	s := &Stream{}
	for _, i := range interactions {
		s.AddInteraction(i)
	}
	for _, p := range progress {
		s.AddProgress(p)
	}
	return s
}

// AddInteraction appends i or replaces the item with the same id. It
// reports whether the item was new.
func (s *Stream) AddInteraction(i Interaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.interactions {
		if s.interactions[idx].ID == i.ID {
			s.interactions[idx] = i
			return false
		}
	}
	s.interactions = append(s.interactions, i)
	return true
}

// RemovePending drops the pending interaction with id. Confirmed items are
// left alone.
func (s *Stream) RemovePending(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.interactions {
		if s.interactions[idx].ID == id && s.interactions[idx].Pending {
			s.interactions = append(s.interactions[:idx], s.interactions[idx+1:]...)
			return true
		}
	}
	return false
}

func (s *Stream) AddProgress(p ProgressUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.progress {
		if s.progress[idx].ID == p.ID {
			s.progress[idx] = p
			return false
		}
	}
	s.progress = append(s.progress, p)
	return true
}

func (s *Stream) Items() []StreamItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Merge(s.interactions, s.progress)
}

func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.interactions) + len(s.progress)
}

// LatestProgress returns the most recent progress update, if any.
func (s *Stream) LatestProgress() (ProgressUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest ProgressUpdate
	found := false
	for _, p := range s.progress {
		if !found || !p.CreatedAt.Before(latest.CreatedAt) {
			latest = p
			found = true
		}
	}
	return latest, found
}
