package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextslide/deckengine/pkg/events"
)

func TestStreamDeckHandler_MissingID(t *testing.T) {
	s := &Server{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks//stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.streamDeckHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamDeckHandler_DeliversPublishedEventThenEnds(t *testing.T) {
	s := &Server{bus: events.NewBus()}
	e := echo.New()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/deck-1/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("deck-1")

	done := make(chan error, 1)
	go func() { done <- s.streamDeckHandler(c) }()

	// Give the handler's subscribe a moment to register before publishing.
	time.Sleep(20 * time.Millisecond)
	s.bus.Publish(events.DeckChannel("deck-1"), events.New(events.EventDeckComplete, nil))
	s.bus.Publish(events.DeckChannel("deck-1"), events.New(events.EventEnd, nil))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("stream handler did not return after end event")
	}

	assert.Contains(t, rec.Body.String(), "deck_complete")
	assert.Contains(t, rec.Body.String(), "event: end")
}
