package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextslide/deckengine/pkg/events"
)

func newResumeCmd(configPath *string) *cobra.Command {
	var (
		mediaDir     string
		mediaBaseURL string
	)

	cmd := &cobra.Command{
		Use:   "resume <generation-id>",
		Short: "Resume a paused generation and print its events to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResume(cmd.Context(), *configPath, args[0], mediaDir, mediaBaseURL)
		},
	}

	cmd.Flags().StringVar(&mediaDir, "media-dir", "./data/media", "local directory uploaded media is written to")
	cmd.Flags().StringVar(&mediaBaseURL, "media-base-url", "/media", "URL prefix served media is reachable at")

	return cmd
}

func runResume(ctx context.Context, configPath, generationID, mediaDir, mediaBaseURL string) error {
	cfg, dsn, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}

	engine, err := buildOrchestrator(ctx, cfg, dsn, mediaDir, mediaBaseURL)
	if err != nil {
		return err
	}
	defer engine.store.Close()

	if !engine.pauseResume.CanResume(ctx, generationID) {
		return fmt.Errorf("generation %s is not resumable", generationID)
	}

	for ev := range engine.orchestr.Resume(ctx, generationID) {
		printEvent(ev)
	}
	return nil
}

func printEvent(ev events.GenerationEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		fmt.Printf("%s: <unmarshalable event>\n", ev.Type)
		return
	}
	fmt.Println(string(payload))
}
