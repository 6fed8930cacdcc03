package api

import "github.com/nextslide/deckengine/pkg/models"

// CreateDeckRequest is the HTTP request body for POST /api/v1/decks.
type CreateDeckRequest struct {
	Outline models.DeckOutline       `json:"outline"`
	Options models.GenerationOptions `json:"options,omitempty"`
}
