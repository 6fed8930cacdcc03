package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextslide/deckengine/pkg/api"
	"github.com/nextslide/deckengine/pkg/events"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		mediaDir     string
		mediaBaseURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the deck composition HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, mediaDir, mediaBaseURL)
		},
	}

	cmd.Flags().StringVar(&mediaDir, "media-dir", "./data/media", "local directory uploaded media is written to")
	cmd.Flags().StringVar(&mediaBaseURL, "media-base-url", "/media", "URL prefix served media is reachable at")

	return cmd
}

func runServe(ctx context.Context, configPath, mediaDir, mediaBaseURL string) error {
	cfg, dsn, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}

	engine, err := buildOrchestrator(ctx, cfg, dsn, mediaDir, mediaBaseURL)
	if err != nil {
		return err
	}
	defer engine.store.Close()

	eventsDB, err := openEventsDB(dsn)
	if err != nil {
		return err
	}
	defer eventsDB.Close()

	bus := events.NewBus()
	publisher := events.NewPublisher(eventsDB)
	catchup := events.NewSQLCatchupQuerier(eventsDB)
	connManager := events.NewConnectionManager(catchup, cfg.Server.WriteTimeout)
	listener := events.NewNotifyListener(dsn, connManager)
	connManager.SetListener(listener)
	if err := listener.Start(ctx); err != nil {
		return fmt.Errorf("start notify listener: %w", err)
	}
	defer listener.Stop(context.Background())

	server := api.NewServer(engine.store, engine.orchestr, engine.pauseResume, bus, publisher, connManager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("deckengine listening", "addr", addr)
		serveErrCh <- server.StartWithListener(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serveErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}
