// Package timeline turns the append-only resolution event log into a
// chronological, styled activity list.
package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal/user"
)

const (
	ActionCreated           = "created"
	ActionSecretaryApproved = "secretary_approved"
	ActionCEOApproved       = "ceo_approved"
	ActionExecutorAccepted  = "executor_accepted"
	ActionAutoAccepted      = "auto_accepted"
	ActionProgressUpdate    = "progress_update"
	ActionEdit              = "edit"
	ActionReturn            = "return"
	ActionReturnToSecretary = "return_to_secretary"
	ActionCompleted         = "completed"
	ActionCancelled         = "cancelled"
	ActionInformed          = "informed"
)

// Event is one entry of the log as the authority returns it.
type Event struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Actor       *user.Ref      `json:"actor,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

type Style struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var fallback = Style{Icon: "history", Color: "neutral"}

var styles = map[string]Style{
	ActionCreated:           {Icon: "add_circle", Color: "blue"},
	ActionSecretaryApproved: {Icon: "task_alt", Color: "teal"},
	ActionCEOApproved:       {Icon: "verified", Color: "green"},
	ActionExecutorAccepted:  {Icon: "handshake", Color: "indigo"},
	ActionAutoAccepted:      {Icon: "schedule", Color: "amber"},
	ActionProgressUpdate:    {Icon: "trending_up", Color: "cyan"},
	ActionEdit:              {Icon: "edit", Color: "slate"},
	ActionReturn:            {Icon: "undo", Color: "orange"},
	ActionReturnToSecretary: {Icon: "reply", Color: "orange"},
	ActionCompleted:         {Icon: "check_circle", Color: "green"},
	ActionCancelled:         {Icon: "cancel", Color: "red"},
	ActionInformed:          {Icon: "campaign", Color: "blue"},
}

// StyleFor maps an action tag to its icon and color. Unknown tags get a
// neutral history marker.
func StyleFor(action string) Style {
	if s, ok := styles[action]; ok {
		return s
	}
	return fallback
}

type Item struct {
	Event
	Style Style `json:"style"`
	// Progress is set for progress updates and replaces the icon.
	Progress *int `json:"progress,omitempty"`
}

// Badge is the marker rendered next to the item.
func (i Item) Badge() string {
	if i.Progress != nil {
		return fmt.Sprintf("%d%%", *i.Progress)
	}
	return i.Style.Icon
}

// Build orders events chronologically, keeping log order for equal
// timestamps, and derives each item's style.
func Build(events []Event) []Item {
	items := make([]Item, 0, len(events))
	for _, e := range events {
		item := Item{Event: e, Style: StyleFor(e.Action)}
		if e.Action == ActionProgressUpdate {
			if p, ok := progressOf(e.Data); ok {
				item.Progress = &p
			}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Timestamp.Before(items[b].Timestamp)
	})
	return items
}

// progressOf reads data["progress"], which arrives as a JSON number.
func progressOf(data map[string]any) (int, bool) {
	v, ok := data["progress"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(math.Round(n)), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
