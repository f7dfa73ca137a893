package changelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Event struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"` // e.g. module.created
	Key       string          `json:"key"`  // id of the affected entity or parent
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

type EventRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventRepo(db *sql.DB, now func() time.Time) *EventRepo {
	if now == nil {
		now = time.Now
	}
	return &EventRepo{db: db, now: now}
}

// Record appends one event. data is stored as JSON.
func (r *EventRepo) Record(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("changelog: marshal %s: %w", typ, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), r.now().UTC().UnixNano())
	return err
}

// Recent lists up to limit events, newest first.
func (r *EventRepo) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, typ, key, data, created_at FROM event_log ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e    Event
			data string
			at   int64
		)
		if err := rows.Scan(&e.Seq, &e.Type, &e.Key, &data, &at); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		e.CreatedAt = time.Unix(0, at).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
