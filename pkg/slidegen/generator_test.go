package slidegen_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextslide/deckengine/pkg/aiclient"
	"github.com/nextslide/deckengine/pkg/concurrency"
	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/events"
	"github.com/nextslide/deckengine/pkg/imagesearch"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/rag"
	"github.com/nextslide/deckengine/pkg/ratelimit"
	"github.com/nextslide/deckengine/pkg/registry"
	"github.com/nextslide/deckengine/pkg/retry"
	"github.com/nextslide/deckengine/pkg/slidegen"
	"github.com/nextslide/deckengine/pkg/validate"
)

type fakeRAG struct {
	err error
}

func (f fakeRAG) GetContext(context.Context, models.DeckOutline, models.SlideOutline) (rag.SlideDesignContext, error) {
	if f.err != nil {
		return rag.SlideDesignContext{}, f.err
	}
	return rag.SlideDesignContext{PredictedComponents: []models.ComponentType{models.ComponentTitle}}, nil
}

type fakeStore struct {
	mu     sync.Mutex
	saved  map[int]models.Slide
	failOn func(index int) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[int]models.Slide)}
}

func (f *fakeStore) SaveDeck(context.Context, *models.Deck) error { return nil }

func (f *fakeStore) UpdateSlide(_ context.Context, _ string, index int, slide models.Slide) error {
	if f.failOn != nil {
		if err := f.failOn(index); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[index] = slide
	return nil
}

func (f *fakeStore) GetDeck(context.Context, string) (*models.Deck, error) { return nil, nil }

func testHarness(t *testing.T, ai aiclient.Client, ragSvc rag.Service, store *fakeStore) *slidegen.Generator {
	t.Helper()
	reg := registry.New()
	validator := validate.New(reg)
	conc := concurrency.NewManager(4, 4, 4)
	rl := ratelimit.New(100, 10, 100, 10)
	retrier := retry.New(retry.Policy{MaxAttempts: 2, Default: retry.BackoffParams{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}})
	return slidegen.New(ragSvc, ai, validator, nil, conc, rl, retrier, store)
}

func testSlideContext() models.SlideContext {
	return models.SlideContext{
		Outline:     models.SlideOutline{ID: "s1", Title: "Intro", Content: "hello world"},
		Index:       0,
		TotalSlides: 3,
		Theme:       models.FallbackTheme(),
		Palette:     models.PaletteFrom(models.FallbackTheme()),
		DeckID:      "deck-1",
	}
}

func testOptions() models.GenerationOptions {
	return models.GenerationOptions{MaxParallel: 1, TimeoutSeconds: 10, MaxRetries: 2}
}

func collectEvents() (func(events.GenerationEvent), *[]events.GenerationEvent) {
	var mu sync.Mutex
	var got []events.GenerationEvent
	return func(ev events.GenerationEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	}, &got
}

func TestGenerate_SuccessfulResponseProducesCompletedSlideAndTerminalEvent(t *testing.T) {
	ai := aiclient.NewFakeClient(map[string]any{
		"id":    "s1",
		"title": "Intro",
		"components": []map[string]any{
			{"id": "c1", "type": "Title", "width": 800, "height": 200, "props": map[string]any{"text": "Welcome"}},
		},
	})
	store := newFakeStore()
	gen := testHarness(t, ai, fakeRAG{}, store)
	emit, got := collectEvents()

	slide := gen.Generate(context.Background(), "deck-1", "user-1", testSlideContext(), testOptions(), emit)

	require.Equal(t, models.SlideStatusCompleted, slide.Status)
	require.Len(t, slide.Components, 1)

	events := *got
	require.NotEmpty(t, events)
	assert.Equal(t, "slide_started", string(events[0].Type))
	assert.Equal(t, "slide_generated", string(events[len(events)-1].Type))

	saved, ok := store.saved[0]
	require.True(t, ok)
	assert.Equal(t, models.SlideStatusCompleted, saved.Status)
}

func TestGenerate_RAGFailureFallsBackWithoutFailingSlide(t *testing.T) {
	ai := aiclient.NewFakeClient(map[string]any{
		"id":    "s1",
		"title": "Intro",
		"components": []map[string]any{
			{"id": "c1", "type": "Title", "width": 800, "height": 200, "props": map[string]any{"text": "Welcome"}},
		},
	})
	store := newFakeStore()
	gen := testHarness(t, ai, fakeRAG{err: assertErr}, store)
	emit, _ := collectEvents()

	slide := gen.Generate(context.Background(), "deck-1", "user-1", testSlideContext(), testOptions(), emit)

	assert.Equal(t, models.SlideStatusCompleted, slide.Status)
}

func TestGenerate_EmptyComponentsCoercedToMinimumViableSlide(t *testing.T) {
	ai := aiclient.NewFakeClient(map[string]any{"id": "s1", "title": "Intro", "components": []map[string]any{}})
	store := newFakeStore()
	gen := testHarness(t, ai, fakeRAG{}, store)
	emit, _ := collectEvents()

	slide := gen.Generate(context.Background(), "deck-1", "user-1", testSlideContext(), testOptions(), emit)

	require.Equal(t, models.SlideStatusCompleted, slide.Status)
	assert.GreaterOrEqual(t, len(slide.Components), 2)
}

func TestGenerate_AIFailureExhaustingRetriesEmitsSlideError(t *testing.T) {
	ai := &aiclient.FakeClient{
		Respond: func(context.Context, aiclient.Request) (any, error) {
			return nil, errs.New(errs.KindAIOverloaded, assertErr)
		},
	}
	store := newFakeStore()
	gen := testHarness(t, ai, fakeRAG{}, store)
	emit, got := collectEvents()

	slide := gen.Generate(context.Background(), "deck-1", "user-1", testSlideContext(), testOptions(), emit)

	assert.Equal(t, models.SlideStatusFailed, slide.Status)
	events := *got
	assert.Equal(t, "slide_error", string(events[len(events)-1].Type))
}

func TestGenerate_UnparseableAIResponseIsSkippable(t *testing.T) {
	ai := &aiclient.FakeClient{
		Respond: func(context.Context, aiclient.Request) (any, error) {
			return nil, errs.New(errs.KindAIInvalidResponse, assertErr)
		},
	}
	store := newFakeStore()
	gen := testHarness(t, ai, fakeRAG{}, store)
	emit, got := collectEvents()

	slide := gen.Generate(context.Background(), "deck-1", "user-1", testSlideContext(), testOptions(), emit)

	assert.Equal(t, models.SlideStatusSkipped, slide.Status)
	events := *got
	assert.Equal(t, "slide_skipped", string(events[len(events)-1].Type))
}

func TestGenerate_PersistFailureEmitsSlideError(t *testing.T) {
	ai := aiclient.NewFakeClient(map[string]any{
		"id":    "s1",
		"title": "Intro",
		"components": []map[string]any{
			{"id": "c1", "type": "Title", "width": 800, "height": 200, "props": map[string]any{"text": "Welcome"}},
		},
	})
	store := newFakeStore()
	store.failOn = func(int) error { return assertErr }
	gen := testHarness(t, ai, fakeRAG{}, store)
	emit, got := collectEvents()

	slide := gen.Generate(context.Background(), "deck-1", "user-1", testSlideContext(), testOptions(), emit)

	assert.Equal(t, models.SlideStatusFailed, slide.Status)
	events := *got
	assert.Equal(t, "slide_error", string(events[len(events)-1].Type))
}

func TestGenerate_AssignsBackgroundSearchedImagesToImageComponents(t *testing.T) {
	ai := aiclient.NewFakeClient(map[string]any{
		"id":    "s1",
		"title": "Intro",
		"components": []map[string]any{
			{"id": "c1", "type": "Image", "width": 400, "height": 300, "props": map[string]any{}},
		},
	})
	store := newFakeStore()
	reg := registry.New()
	validator := validate.New(reg)
	conc := concurrency.NewManager(4, 4, 4)
	rl := ratelimit.New(100, 10, 100, 10)
	retrier := retry.New(retry.Policy{MaxAttempts: 2, Default: retry.BackoffParams{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}})

	images := imagesearch.New(3, imagesearch.NewStubProvider())
	sctx := testSlideContext()
	outline := models.DeckOutline{Title: "Deck", Slides: []models.SlideOutline{sctx.Outline}}
	handle := images.StartBackgroundSearch(context.Background(), outline, "deck-1", nil)
	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("background search never finished")
	}

	gen := slidegen.New(fakeRAG{}, ai, validator, images, conc, rl, retrier, store)
	emit, _ := collectEvents()

	slide := gen.Generate(context.Background(), "deck-1", "user-1", sctx, testOptions(), emit)

	require.Equal(t, models.SlideStatusCompleted, slide.Status)
	require.Len(t, slide.Components, 1)
	url, _ := slide.Components[0].Props["url"].(string)
	assert.NotEmpty(t, url)
}

var assertErr = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
