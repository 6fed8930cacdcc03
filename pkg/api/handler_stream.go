package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/nextslide/deckengine/pkg/events"
)

// streamDeckHandler handles GET /api/v1/decks/:id/stream, a Server-Sent
// Events feed of the deck's generation events. Unlike wsHandler it has no
// client-driven subscribe handshake, so it subscribes directly to the
// channel named by the path rather than delegating to ConnectionManager.
func (s *Server) streamDeckHandler(c *echo.Context) error {
	deckID := c.Param("id")
	if deckID == "" {
		return badRequest(c, "deck id is required")
	}

	res := c.Response()
	res.Header().Set("Content-Type", "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	msgs := make(chan events.GenerationEvent, 32)
	channel := events.DeckChannel(deckID)
	sub := s.bus.SubscribeSync(channel, func(ev events.GenerationEvent) {
		select {
		case msgs <- ev:
		default:
		}
	})
	defer s.bus.Unsubscribe(sub)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-msgs:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.Type, payload)
			res.Flush()
			if ev.Type == events.EventEnd {
				return nil
			}
		}
	}
}
