package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const TypeAttemptSubmitted = "attempt.submitted"

type Event struct {
	Seq       int64
	SiteID    string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

// NewEvent marshals data into an event payload.
func NewEvent(siteID, typ, key string, data interface{}) (Event, error) {
	buf, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: %w", typ, err)
	}
	return Event{SiteID: siteID, Type: typ, Key: key, DataJSON: string(buf), CreatedAt: time.Now().Unix()}, nil
}

// Recorder accepts domain events. EventRepo stores them in the outbox,
// Publisher sends them straight to the broker.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// EventRepo is the event_log outbox.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Record(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, event_key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, e.CreatedAt)
	return err
}

// Pending returns undelivered events, oldest first.
func (r *EventRepo) Pending(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, event_key, data, created_at
		   FROM event_log WHERE delivered_at IS NULL ORDER BY seq LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepo) MarkDelivered(ctx context.Context, seq int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE event_log SET delivered_at=$1 WHERE seq=$2`, time.Now().Unix(), seq)
	return err
}

// LogRecorder only writes the event to the process log.
type LogRecorder struct{ Printf func(format string, v ...interface{}) }

func (l LogRecorder) Record(_ context.Context, e Event) error {
	if l.Printf != nil {
		l.Printf("event %s key=%s data=%s", e.Type, e.Key, e.DataJSON)
	}
	return nil
}
