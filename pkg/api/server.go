// Package api provides the HTTP API surface for the deck composition
// engine: submitting an outline, fetching a deck, pausing/resuming a
// generation, and streaming its events over SSE or WebSocket.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/nextslide/deckengine/pkg/events"
	"github.com/nextslide/deckengine/pkg/orchestrator"
	"github.com/nextslide/deckengine/pkg/pauseresume"
	"github.com/nextslide/deckengine/pkg/persistence"
)

// Server is the HTTP API server.
type Server struct {
	echo        *echo.Echo
	httpServer  *http.Server
	store       persistence.Store
	orchestr    *orchestrator.Orchestrator
	pauseResume *pauseresume.Manager
	bus         *events.Bus
	publisher   *events.Publisher // nil when running without cross-pod NOTIFY fan-out
	connManager *events.ConnectionManager
}

// NewServer wires up routes against the given collaborators. publisher may
// be nil for a single-process deployment: events still reach SSE/WebSocket
// subscribers via bus, just not other pods.
func NewServer(
	store persistence.Store,
	orchestr *orchestrator.Orchestrator,
	pauseResume *pauseresume.Manager,
	bus *events.Bus,
	publisher *events.Publisher,
	connManager *events.ConnectionManager,
) *Server {
	e := echo.New()

	s := &Server{
		echo:        e,
		store:       store,
		orchestr:    orchestr,
		pauseResume: pauseResume,
		bus:         bus,
		publisher:   publisher,
		connManager: connManager,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(8 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/decks", s.createDeckHandler)
	v1.GET("/decks/:id", s.getDeckHandler)
	v1.POST("/decks/:id/pause", s.pauseDeckHandler)
	v1.POST("/decks/:id/resume", s.resumeDeckHandler)
	v1.GET("/decks/:id/stream", s.streamDeckHandler)
	v1.GET("/decks/:id/ws", s.wsHandler)
}

// Start starts the HTTP server on the given address (non-blocking beyond the
// call itself; ListenAndServe blocks until Shutdown).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener. Used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// pipeEvents drains ch, publishing each event to bus for same-process
// SSE/WebSocket-via-Bus subscribers and, when a Publisher is configured,
// persisting+NOTIFYing it for cross-pod delivery. Runs until ch closes,
// which Orchestrate/Resume guarantee happens once generation ends.
func (s *Server) pipeEvents(ctx context.Context, deckID string, ch <-chan events.GenerationEvent) {
	channel := events.DeckChannel(deckID)
	for ev := range ch {
		s.bus.Publish(channel, ev)
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, deckID, ev); err != nil {
				slog.Error("publish generation event", "deck_id", deckID, "type", ev.Type, "error", err)
			}
		}
	}
}
