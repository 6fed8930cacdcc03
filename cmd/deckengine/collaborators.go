package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/nextslide/deckengine/pkg/aiclient"
	"github.com/nextslide/deckengine/pkg/config"
	"github.com/nextslide/deckengine/pkg/imagesearch"
	"github.com/nextslide/deckengine/pkg/pauseresume"
	"github.com/nextslide/deckengine/pkg/persistence"
)

// imageSearchHTTPTimeout bounds calls made by the HTTP image search
// provider; ImageSearchConfig has no separate timeout knob of its own.
const imageSearchHTTPTimeout = 10 * time.Second

// buildAIClient builds the AIClient implementation named by cfg. The API
// key is read from the environment variable cfg names rather than stored
// in configuration itself.
func buildAIClient(cfg config.AIClientConfig) aiclient.Client {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	return aiclient.NewHTTPClient(cfg.BaseURL, apiKey, cfg.Timeout)
}

// buildImageSearch wires the provider cfg.Provider names. For "grpc", an
// error from NewRemoteProvider falls back to the deterministic stub rather
// than failing startup, since image search failures are already non-fatal
// to deck generation; the gRPC client connects lazily, so a sidecar that is
// merely unreachable surfaces as failed searches, not as a fallback. The
// "http" provider is always built as configured, with no fallback.
func buildImageSearch(cfg config.ImageSearchConfig) *imagesearch.Service {
	var provider imagesearch.Provider
	switch cfg.Provider {
	case "http":
		apiKey := os.Getenv(cfg.HTTPConfig.APIKeyEnv)
		provider = imagesearch.NewUnsplashLikeProvider(cfg.HTTPConfig.BaseURL, apiKey, imageSearchHTTPTimeout)
	case "grpc":
		remote, err := imagesearch.NewRemoteProvider(cfg.GRPCConfig.Address)
		if err != nil {
			slog.Warn("failed to dial image search sidecar, falling back to stub provider", "error", err)
			provider = imagesearch.NewStubProvider()
		} else {
			provider = remote
		}
	default:
		provider = imagesearch.NewStubProvider()
	}
	return imagesearch.New(0, provider)
}

// persistenceSnapshotStore adapts store to pauseresume.SnapshotStore.
func persistenceSnapshotStore(store *persistence.PostgresStore) pauseresume.SnapshotStore {
	return persistence.NewPostgresSnapshotStore(store)
}
