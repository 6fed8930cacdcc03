package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/nextslide/deckengine/pkg/models"
)

// createDeckHandler handles POST /api/v1/decks. It validates the outline,
// assigns a deck id, and kicks off orchestration in the background: the
// HTTP response returns immediately with ids a client uses to open the
// stream/ws endpoint, before the generation it starts has finished.
func (s *Server) createDeckHandler(c *echo.Context) error {
	var req CreateDeckRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}

	deckID := uuid.New().String()
	opts := req.Options
	if opts.GenerationID == "" {
		opts.GenerationID = deckID
	}
	if opts.UserID == "" {
		opts.UserID = extractUserID(c)
	}

	ch := s.orchestr.Orchestrate(context.Background(), req.Outline, deckID, opts)
	go s.pipeEvents(context.Background(), deckID, ch)

	return c.JSON(http.StatusAccepted, &CreateDeckResponse{
		DeckID:       deckID,
		GenerationID: opts.GenerationID,
		Status:       string(models.DeckStatePending),
	})
}

// getDeckHandler handles GET /api/v1/decks/:id.
func (s *Server) getDeckHandler(c *echo.Context) error {
	deckID := c.Param("id")
	if deckID == "" {
		return badRequest(c, "deck id is required")
	}

	deck, err := s.store.GetDeck(c.Request().Context(), deckID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, deck)
}

// pauseDeckHandler handles POST /api/v1/decks/:id/pause. The generation id
// defaults to the deck id, matching createDeckHandler's default, so a
// client that never set a custom generation id can pause by deck id alone.
func (s *Server) pauseDeckHandler(c *echo.Context) error {
	deckID := c.Param("id")
	if deckID == "" {
		return badRequest(c, "deck id is required")
	}

	if !s.pauseResume.Pause(c.Request().Context(), deckID) {
		return c.JSON(http.StatusNotFound, &ErrorResponse{Code: "not_found", Message: "no active generation for that deck"})
	}

	return c.JSON(http.StatusOK, &ActionResponse{DeckID: deckID, Status: string(models.RunStatePaused)})
}

// resumeDeckHandler handles POST /api/v1/decks/:id/resume.
func (s *Server) resumeDeckHandler(c *echo.Context) error {
	deckID := c.Param("id")
	if deckID == "" {
		return badRequest(c, "deck id is required")
	}

	if !s.pauseResume.CanResume(c.Request().Context(), deckID) {
		return c.JSON(http.StatusConflict, &ErrorResponse{Code: "not_paused", Message: "generation is not paused"})
	}

	ch := s.orchestr.Resume(context.Background(), deckID)
	go s.pipeEvents(context.Background(), deckID, ch)

	return c.JSON(http.StatusAccepted, &ActionResponse{DeckID: deckID, Status: string(models.RunStateSlidesInProgress)})
}
