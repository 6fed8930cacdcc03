// Command deckengine runs the deck composition engine's HTTP API, or
// performs one-off operational tasks against the same configuration and
// storage (running migrations, resuming a single paused generation)
// without starting the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextslide/deckengine/pkg/version"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "deckengine",
		Short:   "AI-driven multi-slide deck composition engine",
		Version: version.Full(),
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "deckengine.yaml", "path to config file")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newMigrateCmd(&configPath))
	rootCmd.AddCommand(newResumeCmd(&configPath))

	return rootCmd
}
