package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nextslide/deckengine/pkg/models"
)

// SaveDeck upserts deck by UUID, replacing every column on conflict. This
// is the only write path for a deck's theme, status, outline, and notes;
// UpdateSlide is the only write path for an individual slide thereafter.
func (s *PostgresStore) SaveDeck(ctx context.Context, deck *models.Deck) error {
	size, err := json.Marshal(deck.Size)
	if err != nil {
		return fmt.Errorf("marshal deck size: %w", err)
	}
	status, err := json.Marshal(deck.Status)
	if err != nil {
		return fmt.Errorf("marshal deck status: %w", err)
	}
	outline, err := json.Marshal(deck.Outline)
	if err != nil {
		return fmt.Errorf("marshal deck outline: %w", err)
	}
	slides, err := json.Marshal(deck.Slides)
	if err != nil {
		return fmt.Errorf("marshal deck slides: %w", err)
	}
	var theme []byte
	if deck.Theme != nil {
		theme, err = json.Marshal(deck.Theme)
		if err != nil {
			return fmt.Errorf("marshal deck theme: %w", err)
		}
	}

	const query = `
		INSERT INTO decks (uuid, name, size, status, outline, theme, slides, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (uuid) DO UPDATE SET
			name = EXCLUDED.name,
			size = EXCLUDED.size,
			status = EXCLUDED.status,
			outline = EXCLUDED.outline,
			theme = EXCLUDED.theme,
			slides = EXCLUDED.slides,
			notes = EXCLUDED.notes,
			version = decks.version + 1,
			updated_at = GREATEST(decks.updated_at, now())
	`
	_, err = s.pool.Exec(ctx, query,
		deck.UUID, deck.Name, size, status, outline, theme, slides, deck.Notes, max(deck.Version, 1),
	)
	if err != nil {
		return fmt.Errorf("upsert deck %s: %w", deck.UUID, err)
	}
	return nil
}

// UpdateSlide atomically replaces deckID's slide at index via jsonb_set,
// never reading the full slides array back into the application. Calling
// it again with an identical slide produces an identical row (a no-op
// beyond updated_at, which GREATEST keeps monotonically non-decreasing).
func (s *PostgresStore) UpdateSlide(ctx context.Context, deckID string, index int, slide models.Slide) error {
	payload, err := json.Marshal(slide)
	if err != nil {
		return fmt.Errorf("marshal slide: %w", err)
	}

	const query = `
		UPDATE decks
		SET slides = jsonb_set(slides, $2, $3::jsonb, true),
		    updated_at = GREATEST(updated_at, now())
		WHERE uuid = $1
	`
	path := fmt.Sprintf("{%d}", index)
	tag, err := s.pool.Exec(ctx, query, deckID, path, payload)
	if err != nil {
		return fmt.Errorf("update slide %d of deck %s: %w", index, deckID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDeckNotFound, deckID)
	}
	return nil
}

// GetDeck returns deckID's current snapshot.
func (s *PostgresStore) GetDeck(ctx context.Context, deckID string) (*models.Deck, error) {
	const query = `
		SELECT uuid, name, size, status, outline, theme, slides, notes, version, created_at, updated_at
		FROM decks
		WHERE uuid = $1
	`
	row := s.pool.QueryRow(ctx, query, deckID)

	var (
		deck    models.Deck
		size    []byte
		status  []byte
		outline []byte
		theme   []byte
		slides  []byte
	)
	err := row.Scan(&deck.UUID, &deck.Name, &size, &status, &outline, &theme, &slides,
		&deck.Notes, &deck.Version, &deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, deckID)
		}
		return nil, fmt.Errorf("scan deck %s: %w", deckID, err)
	}

	if err := json.Unmarshal(size, &deck.Size); err != nil {
		return nil, fmt.Errorf("unmarshal deck size: %w", err)
	}
	if err := json.Unmarshal(status, &deck.Status); err != nil {
		return nil, fmt.Errorf("unmarshal deck status: %w", err)
	}
	if err := json.Unmarshal(outline, &deck.Outline); err != nil {
		return nil, fmt.Errorf("unmarshal deck outline: %w", err)
	}
	if err := json.Unmarshal(slides, &deck.Slides); err != nil {
		return nil, fmt.Errorf("unmarshal deck slides: %w", err)
	}
	if len(theme) > 0 {
		var t models.ThemeSpec
		if err := json.Unmarshal(theme, &t); err != nil {
			return nil, fmt.Errorf("unmarshal deck theme: %w", err)
		}
		deck.Theme = &t
	}

	return &deck, nil
}
