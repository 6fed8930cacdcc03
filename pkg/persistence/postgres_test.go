package persistence_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nextslide/deckengine/pkg/config"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/persistence"
)

// newTestStore spins up a disposable PostgreSQL instance (testcontainers
// locally, or CI_DATABASE_URL's external service in CI) and runs the
// embedded migrations against it.
func newTestStore(t *testing.T) *persistence.PostgresStore {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("CI_DATABASE_URL")
	if dsn == "" {
		t.Log("using testcontainers for PostgreSQL")
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	} else {
		t.Log("using external PostgreSQL from CI_DATABASE_URL")
	}

	store, err := persistence.NewPostgresStore(ctx, dsn, config.DatabaseConfig{})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	return store
}

func testDeck(uuid string) *models.Deck {
	outline := models.DeckOutline{
		Title: "Quarterly Review",
		Slides: []models.SlideOutline{
			{ID: "s1", Title: "Intro"},
			{ID: "s2", Title: "Numbers"},
		},
	}
	deck := models.NewDeck(uuid, outline)
	return deck
}

func TestPostgresStore_SaveDeckThenGetDeckRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deck := testDeck("deck-roundtrip")
	require.NoError(t, store.SaveDeck(ctx, deck))

	got, err := store.GetDeck(ctx, deck.UUID)
	require.NoError(t, err)
	require.Equal(t, deck.UUID, got.UUID)
	require.Equal(t, deck.Name, got.Name)
	require.Len(t, got.Slides, 2)
	require.Equal(t, "s1", got.Slides[0].ID)
	require.Equal(t, "s2", got.Slides[1].ID)
	require.False(t, got.UpdatedAt.IsZero())
}

func TestPostgresStore_GetDeckUnknownUUIDReturnsErrDeckNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetDeck(ctx, "does-not-exist")
	require.ErrorIs(t, err, persistence.ErrDeckNotFound)
}

func TestPostgresStore_UpdateSlideReplacesOnlyThatSlide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deck := testDeck("deck-update-slide")
	require.NoError(t, store.SaveDeck(ctx, deck))

	updated := deck.Slides[1]
	updated.Status = models.SlideStatusCompleted
	updated.Components = []models.Component{{ID: "c1", Type: models.ComponentTextBlock, Props: map[string]any{"text": "done"}}}
	require.NoError(t, store.UpdateSlide(ctx, deck.UUID, 1, updated))

	got, err := store.GetDeck(ctx, deck.UUID)
	require.NoError(t, err)
	require.Equal(t, models.SlideStatusCompleted, got.Slides[1].Status)
	require.Len(t, got.Slides[1].Components, 1)
	require.Equal(t, "s1", got.Slides[0].ID)
	require.NotEqual(t, models.SlideStatusCompleted, got.Slides[0].Status)
}

func TestPostgresStore_UpdateSlideUnknownDeckReturnsErrDeckNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateSlide(ctx, "does-not-exist", 0, models.Slide{ID: "s1"})
	require.ErrorIs(t, err, persistence.ErrDeckNotFound)
}

func TestPostgresStore_SaveDeckIsIdempotentUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deck := testDeck("deck-upsert")
	require.NoError(t, store.SaveDeck(ctx, deck))

	deck.Name = "Quarterly Review (revised)"
	require.NoError(t, store.SaveDeck(ctx, deck))

	got, err := store.GetDeck(ctx, deck.UUID)
	require.NoError(t, err)
	require.Equal(t, "Quarterly Review (revised)", got.Name)
}
