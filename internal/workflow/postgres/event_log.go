package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	rdm "github.com/frahmantamala/resolution-tracker/internal/core/datamodel/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

const (
	insertEventQuery = `INSERT INTO resolution_events
		(id, resolution_id, seq, action, actor_id, actor_name, description, data, occurred_at)
		VALUES (:id, :resolution_id, :seq, :action, :actor_id, :actor_name, :description, :data, :occurred_at)`

	listEventsQuery = `SELECT id, resolution_id, seq, action, actor_id, actor_name, description, data, occurred_at
		FROM resolution_events
		WHERE resolution_id = ?
		ORDER BY occurred_at ASC, seq ASC`
)

// EventLog implements workflow.EventLog on plain SQL. Rows are only ever
// inserted.
type EventLog struct {
	db *sqlx.DB
}

func NewEventLog(db *sqlx.DB) *EventLog {
	return &EventLog{db: db}
}

func (l *EventLog) Append(ctx context.Context, publicID string, e timeline.Event) error {
	data := []byte("{}")
	if len(e.Data) > 0 {
		var err error
		if data, err = json.Marshal(e.Data); err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
	}

	row := rdm.Event{
		ID:           e.ID,
		ResolutionID: publicID,
		Seq:          time.Now().UnixNano(),
		Action:       e.Action,
		Description:  e.Description,
		Data:         string(data),
		OccurredAt:   e.Timestamp.UTC(),
	}
	if e.Actor != nil {
		id, name := e.Actor.ID, e.Actor.Name
		row.ActorID = &id
		row.ActorName = &name
	}

	if _, err := l.db.NamedExecContext(ctx, insertEventQuery, row); err != nil {
		return fmt.Errorf("append event %s: %w", e.Action, err)
	}
	return nil
}

func (l *EventLog) List(ctx context.Context, publicID string) ([]timeline.Event, error) {
	var rows []rdm.Event
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(listEventsQuery), publicID); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]timeline.Event, 0, len(rows))
	for _, row := range rows {
		e := timeline.Event{
			ID:          row.ID,
			Action:      row.Action,
			Timestamp:   row.OccurredAt,
			Description: row.Description,
		}
		if row.ActorID != nil {
			ref := user.Ref{ID: *row.ActorID}
			if row.ActorName != nil {
				ref.Name = *row.ActorName
			}
			e.Actor = &ref
		}
		if row.Data != "" && row.Data != "{}" {
			if err := json.Unmarshal([]byte(row.Data), &e.Data); err != nil {
				return nil, fmt.Errorf("decode event %s data: %w", row.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}
