package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Publisher persists generation events and broadcasts them via NOTIFY so
// every pod serving a subscriber for the same deck receives them, not just
// the pod running the orchestrator. Non-priority progress events skip
// persistence entirely — they are transient and only meaningful live.
type Publisher struct {
	db *sql.DB
}

// NewPublisher creates a Publisher over the database's pool. db should be
// the *sql.DB obtained from persistence.Client.DB().
func NewPublisher(db *sql.DB) *Publisher {
	return &Publisher{db: db}
}

// Publish routes ev to the deck's channel. Priority events (errors, slide
// lifecycle terminals, theme_generated, deck_complete) are persisted to the
// generation_events table and broadcast in the same transaction so late
// subscribers can catch up; everything else is NOTIFY-only.
func (p *Publisher) Publish(ctx context.Context, deckID string, ev GenerationEvent) error {
	payloadJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal generation event: %w", err)
	}

	channel := DeckChannel(deckID)
	if ev.Type.IsPriority() {
		if err := p.persistAndNotify(ctx, deckID, channel, payloadJSON); err != nil {
			return err
		}
	} else {
		if err := p.notifyOnly(ctx, channel, payloadJSON); err != nil {
			return err
		}
	}

	if ev.Type == EventDeckComplete || ev.Type == EventError {
		if err := p.notifyOnly(ctx, GlobalDecksChannel, payloadJSON); err != nil {
			slog.Warn("failed to publish terminal event to global decks channel",
				"deck_id", deckID, "type", ev.Type, "error", err)
		}
	}
	return nil
}

// persistAndNotify persists a pre-marshaled event to the database and
// broadcasts via NOTIFY within the same transaction — pg_notify is
// transactional and held until COMMIT, so a reader never observes a NOTIFY
// for a row that isn't there yet.
func (p *Publisher) persistAndNotify(ctx context.Context, deckID, channel string, payloadJSON []byte) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var eventID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO generation_events (deck_id, channel, payload, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		deckID, channel, payloadJSON, time.Now(),
	).Scan(&eventID)
	if err != nil {
		return fmt.Errorf("persist generation event: %w", err)
	}

	notifyPayload, err := injectDBEventIDAndTruncate(payloadJSON, eventID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, notifyPayload); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit generation event transaction: %w", err)
	}
	return nil
}

// notifyOnly broadcasts a pre-marshaled event via NOTIFY without persisting.
func (p *Publisher) notifyOnly(ctx context.Context, channel string, payloadJSON []byte) error {
	notifyPayload, err := truncateIfNeeded(string(payloadJSON))
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, notifyPayload); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

// injectDBEventIDAndTruncate adds db_event_id to the JSON payload for NOTIFY
// delivery and applies truncation if the result exceeds PostgreSQL's limit.
func injectDBEventIDAndTruncate(payloadJSON []byte, dbEventID int64) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(payloadJSON, &m); err != nil {
		return "", fmt.Errorf("unmarshal payload for db_event_id injection: %w", err)
	}
	m["db_event_id"] = dbEventID

	enrichedBytes, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal enriched NOTIFY payload: %w", err)
	}
	return truncateIfNeeded(string(enrichedBytes))
}

// truncateIfNeeded returns the payload string as-is if it fits within
// PostgreSQL's 8000-byte NOTIFY limit, otherwise returns a minimal
// truncation envelope with only routing fields.
func truncateIfNeeded(payloadStr string) (string, error) {
	if len(payloadStr) <= 7900 {
		return payloadStr, nil
	}
	return buildTruncatedPayload([]byte(payloadStr))
}

// buildTruncatedPayload creates a minimal truncation envelope from the full
// JSON payload bytes, extracting only the routing fields the client needs
// to fetch the complete event from the database.
func buildTruncatedPayload(payloadBytes []byte) (string, error) {
	var routing struct {
		Type      string `json:"type"`
		DBEventID *int64 `json:"db_event_id,omitempty"`
	}
	if err := json.Unmarshal(payloadBytes, &routing); err != nil {
		return "", fmt.Errorf("extract routing fields for truncation: %w", err)
	}

	truncated := map[string]any{
		"type":      routing.Type,
		"truncated": true,
	}
	if routing.DBEventID != nil {
		truncated["db_event_id"] = *routing.DBEventID
	}

	truncBytes, err := json.Marshal(truncated)
	if err != nil {
		return "", fmt.Errorf("marshal truncated payload: %w", err)
	}
	return string(truncBytes), nil
}
