package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nextslide/deckengine/pkg/models"
)

// PostgresSnapshotStore implements pauseresume.SnapshotStore against the
// generation_snapshots table, storing each GenerationState as a JSONB
// payload versioned by an incrementing integer.
type PostgresSnapshotStore struct {
	store *PostgresStore
}

// NewPostgresSnapshotStore wraps store's pool for snapshot persistence,
// reusing the same connection pool and migrations rather than opening a
// second one.
func NewPostgresSnapshotStore(store *PostgresStore) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{store: store}
}

// Save upserts generationId's snapshot, incrementing version on conflict.
func (s *PostgresSnapshotStore) Save(ctx context.Context, state models.GenerationState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal generation state: %w", err)
	}

	const query = `
		INSERT INTO generation_snapshots (generation_id, deck_id, version, payload_json, written_at)
		VALUES ($1, $2, 1, $3, now())
		ON CONFLICT (generation_id) DO UPDATE SET
			payload_json = EXCLUDED.payload_json,
			version = generation_snapshots.version + 1,
			written_at = now()
	`
	_, err = s.store.pool.Exec(ctx, query, state.GenerationID, state.DeckID, payload)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", state.GenerationID, err)
	}
	return nil
}

// Load returns generationId's most recently written snapshot, or
// ok=false if none exists.
func (s *PostgresSnapshotStore) Load(ctx context.Context, generationID string) (models.GenerationState, bool, error) {
	const query = `SELECT payload_json FROM generation_snapshots WHERE generation_id = $1`

	var payload []byte
	err := s.store.pool.QueryRow(ctx, query, generationID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GenerationState{}, false, nil
		}
		return models.GenerationState{}, false, fmt.Errorf("load snapshot %s: %w", generationID, err)
	}

	var state models.GenerationState
	if err := json.Unmarshal(payload, &state); err != nil {
		return models.GenerationState{}, false, fmt.Errorf("unmarshal snapshot %s: %w", generationID, err)
	}
	return state, true, nil
}

// Delete removes generationId's snapshot. Deleting a snapshot that does
// not exist is not an error.
func (s *PostgresSnapshotStore) Delete(ctx context.Context, generationID string) error {
	const query = `DELETE FROM generation_snapshots WHERE generation_id = $1`
	_, err := s.store.pool.Exec(ctx, query, generationID)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", generationID, err)
	}
	return nil
}
