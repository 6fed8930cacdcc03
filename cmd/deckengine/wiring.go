package main

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"os"

	"github.com/nextslide/deckengine/pkg/concurrency"
	"github.com/nextslide/deckengine/pkg/config"
	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/media"
	"github.com/nextslide/deckengine/pkg/orchestrator"
	"github.com/nextslide/deckengine/pkg/pauseresume"
	"github.com/nextslide/deckengine/pkg/persistence"
	"github.com/nextslide/deckengine/pkg/rag"
	"github.com/nextslide/deckengine/pkg/ratelimit"
	"github.com/nextslide/deckengine/pkg/registry"
	"github.com/nextslide/deckengine/pkg/retry"
	"github.com/nextslide/deckengine/pkg/slidegen"
	"github.com/nextslide/deckengine/pkg/theme"
	"github.com/nextslide/deckengine/pkg/validate"
)

// loadConfig initializes configuration from configPath and resolves the
// database DSN out of the environment variable it names.
func loadConfig(ctx context.Context, configPath string) (*config.Config, string, error) {
	cfg, err := config.Initialize(ctx, configPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	dsn := os.Getenv(cfg.Database.DSNEnv)
	if dsn == "" {
		return nil, "", fmt.Errorf("environment variable %s is not set", cfg.Database.DSNEnv)
	}
	return cfg, dsn, nil
}

// openStore opens the Postgres-backed deck store, running pending
// migrations as a side effect of construction.
func openStore(ctx context.Context, dsn string, cfg config.DatabaseConfig) (*persistence.PostgresStore, error) {
	store, err := persistence.NewPostgresStore(ctx, dsn, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	return store, nil
}

// openEventsDB opens a second, independent *sql.DB against dsn for the
// events subsystem's Publisher and catchup querier. It is separate from
// PostgresStore's pgxpool because those collaborators are written directly
// against database/sql; the "pgx" driver is already registered process-wide
// by persistence's blank import of pgx/v5/stdlib.
func openEventsDB(dsn string) (*stdsql.DB, error) {
	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open events database handle: %w", err)
	}
	return db, nil
}

// buildRetryPolicy converts the loaded RetryConfig's by-kind map (keyed by
// the plain strings a YAML file can express) into the errs.Kind-keyed map
// retry.Policy expects.
func buildRetryPolicy(cfg config.RetryConfig) retry.Policy {
	byKind := make(map[errs.Kind]retry.BackoffParams, len(cfg.ByKind))
	for kind, backoff := range cfg.ByKind {
		byKind[errs.Kind(kind)] = retry.BackoffParams{
			BaseDelay: backoff.BaseDelay,
			MaxDelay:  backoff.MaxDelay,
		}
	}
	return retry.Policy{
		Default: retry.BackoffParams{
			BaseDelay: cfg.Default.BaseDelay,
			MaxDelay:  cfg.Default.MaxDelay,
		},
		ByKind:      byKind,
		MaxAttempts: cfg.MaxRetries,
	}
}

// deckEngine bundles the collaborators every subcommand needs to either
// start generations or resume them, plus store for direct lookups.
type deckEngine struct {
	store       *persistence.PostgresStore
	orchestr    *orchestrator.Orchestrator
	pauseResume *pauseresume.Manager
}

// buildOrchestrator wires every collaborator the generation pipeline
// depends on, excluding the event-distribution and HTTP layers that only
// "serve" needs. mediaDir/mediaBaseURL select the local media store; the
// CLI always uses LocalDiskStore, matching dev/single-node deployments.
func buildOrchestrator(ctx context.Context, cfg *config.Config, dsn, mediaDir, mediaBaseURL string) (*deckEngine, error) {
	store, err := openStore(ctx, dsn, cfg.Database)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	validator := validate.New(reg, validate.WithStrictMode(cfg.Registry.StrictMode))
	ragSvc := rag.New()
	retrier := retry.New(buildRetryPolicy(cfg.Retry))
	limiter := ratelimit.New(
		cfg.RateLimit.GlobalRequestsPerSecond, cfg.RateLimit.GlobalBurst,
		cfg.RateLimit.PerUserRequestsPerSecond, cfg.RateLimit.PerUserBurst,
	)
	conc := concurrency.NewManager(
		cfg.Concurrency.MaxGlobalSlideSlots, cfg.Concurrency.MaxUserSlideSlots, cfg.Concurrency.MaxDeckSlideSlots,
	)

	ai := buildAIClient(cfg.AIClient)
	images := buildImageSearch(cfg.ImageSearch)
	mediaProc := media.New(media.NewLocalDiskStore(mediaDir, mediaBaseURL), cfg.Media)

	themeGen := theme.New(ai, retrier)
	slideGen := slidegen.New(ragSvc, ai, validator, images, conc, limiter, retrier, store)
	slideGen.SetThumbnailsEnabled(cfg.Thumbnail.Enabled)

	pauseResume := pauseresume.New(persistenceSnapshotStore(store))
	orch := orchestrator.New(themeGen, mediaProc, images, slideGen, pauseResume, store, conc)

	return &deckEngine{store: store, orchestr: orch, pauseResume: pauseResume}, nil
}
