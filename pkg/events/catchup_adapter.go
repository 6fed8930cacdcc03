package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLCatchupQuerier implements CatchupQuerier directly against the
// generation_events table written by Publisher.persistAndNotify, with no
// dependency on the persistence package's higher-level deck/slide model.
type SQLCatchupQuerier struct {
	db *sql.DB
}

// NewSQLCatchupQuerier builds a CatchupQuerier over db.
func NewSQLCatchupQuerier(db *sql.DB) *SQLCatchupQuerier {
	return &SQLCatchupQuerier{db: db}
}

// GetCatchupEvents returns events on channel with id > sinceID, oldest
// first, capped at limit rows.
func (q *SQLCatchupQuerier) GetCatchupEvents(ctx context.Context, channel string, sinceID, limit int) ([]CatchupEvent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, payload FROM generation_events WHERE channel = $1 AND id > $2 ORDER BY id ASC LIMIT $3`,
		channel, sinceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query catchup events: %w", err)
	}
	defer rows.Close()

	var result []CatchupEvent
	for rows.Next() {
		var id int
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan catchup event: %w", err)
		}
		var payload GenerationEvent
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal catchup event payload: %w", err)
		}
		result = append(result, CatchupEvent{ID: id, Payload: payload})
	}
	return result, rows.Err()
}
