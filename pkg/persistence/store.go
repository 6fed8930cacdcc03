// Package persistence implements the deck/slide storage contract:
// upsert-by-uuid deck saves, atomic per-slide updates, and deck lookup for
// resume, directly on pgx/v5 with hand-written SQL rather than a
// generated ORM client.
package persistence

import (
	"context"

	"github.com/nextslide/deckengine/pkg/models"
)

// Store is the minimal persistence contract DeckOrchestrator,
// SlideGenerator and the HTTP API depend on.
type Store interface {
	// SaveDeck upserts deck by UUID.
	SaveDeck(ctx context.Context, deck *models.Deck) error
	// UpdateSlide atomically replaces the slide at index within deckID.
	// Calling it twice with an identical slide is a no-op beyond bumping
	// UpdatedAt, which never moves backward.
	UpdateSlide(ctx context.Context, deckID string, index int, slide models.Slide) error
	// GetDeck returns deckID's current snapshot, or ErrDeckNotFound.
	GetDeck(ctx context.Context, deckID string) (*models.Deck, error)
}
