package orchestrator_test

import (
	"context"
	"fmt"
	"strings"
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
	"github.com/nextslide/deckengine/pkg/orchestrator"
	"github.com/nextslide/deckengine/pkg/pauseresume"
	"github.com/nextslide/deckengine/pkg/ratelimit"
	"github.com/nextslide/deckengine/pkg/registry"
	"github.com/nextslide/deckengine/pkg/retry"
	"github.com/nextslide/deckengine/pkg/rag"
	"github.com/nextslide/deckengine/pkg/slidegen"
	"github.com/nextslide/deckengine/pkg/theme"
	"github.com/nextslide/deckengine/pkg/validate"
)

type memSnapshotStore struct {
	mu   sync.Mutex
	byID map[string]models.GenerationState
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{byID: make(map[string]models.GenerationState)}
}

func (m *memSnapshotStore) Save(_ context.Context, state models.GenerationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[state.GenerationID] = state
	return nil
}

func (m *memSnapshotStore) Load(_ context.Context, generationID string) (models.GenerationState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[generationID]
	return s, ok, nil
}

func (m *memSnapshotStore) Delete(_ context.Context, generationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, generationID)
	return nil
}

type fakeDeckStore struct {
	mu    sync.Mutex
	decks map[string]*models.Deck
}

func newFakeDeckStore() *fakeDeckStore {
	return &fakeDeckStore{decks: make(map[string]*models.Deck)}
}

func (f *fakeDeckStore) SaveDeck(_ context.Context, deck *models.Deck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *deck
	f.decks[deck.UUID] = &cp
	return nil
}

func (f *fakeDeckStore) UpdateSlide(_ context.Context, deckID string, index int, slide models.Slide) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decks[deckID]
	if !ok || index >= len(d.Slides) {
		return nil
	}
	d.Slides[index] = slide
	return nil
}

func (f *fakeDeckStore) GetDeck(_ context.Context, deckID string) (*models.Deck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decks[deckID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

type fakeRAG struct{}

func (fakeRAG) GetContext(context.Context, models.DeckOutline, models.SlideOutline) (rag.SlideDesignContext, error) {
	return rag.SlideDesignContext{PredictedComponents: []models.ComponentType{models.ComponentTitle}}, nil
}

func slideResponse(id, title string) map[string]any {
	return map[string]any{
		"id":    id,
		"title": title,
		"components": []map[string]any{
			{"id": id + "-title", "type": "Title", "width": 800, "height": 200, "props": map[string]any{"text": title}},
		},
	}
}

func testOutline(n int) models.DeckOutline {
	slides := make([]models.SlideOutline, n)
	for i := range slides {
		slides[i] = models.SlideOutline{ID: fmt.Sprintf("s%d", i), Title: fmt.Sprintf("Slide %d", i), Content: "content"}
	}
	return models.DeckOutline{Title: "Launch Deck", Slides: slides}
}

func testOptions() models.GenerationOptions {
	return models.GenerationOptions{MaxParallel: 2, TimeoutSeconds: 10, MaxRetries: 2, DelayBetweenSlides: 0}
}

// harness bundles a fresh Orchestrator plus the fakes a test wants direct
// access to (store, snapshot store, ai client).
type harness struct {
	orch  *orchestrator.Orchestrator
	store *fakeDeckStore
	snaps *memSnapshotStore
	prMgr *pauseresume.Manager
}

func newHarness(t *testing.T, ai aiclient.Client) *harness {
	t.Helper()
	reg := registry.New()
	validator := validate.New(reg)
	conc := concurrency.NewManager(8, 8, 8)
	rl := ratelimit.New(1000, 100, 1000, 100)
	retrier := retry.New(retry.Policy{MaxAttempts: 2, Default: retry.BackoffParams{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}})
	store := newFakeDeckStore()

	slides := slidegen.New(fakeRAG{}, ai, validator, nil, conc, rl, retrier, store)
	themeGen := theme.New(ai, retrier)

	snaps := newMemSnapshotStore()
	prMgr := pauseresume.New(snaps)

	orch := orchestrator.New(themeGen, nil, nil, slides, prMgr, store, conc)
	return &harness{orch: orch, store: store, snaps: snaps, prMgr: prMgr}
}

func drain(ch <-chan events.GenerationEvent, timeout time.Duration) []events.GenerationEvent {
	var got []events.GenerationEvent
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			return got
		}
	}
}

func indexOfType(evs []events.GenerationEvent, typ events.EventType) int {
	for i, ev := range evs {
		if ev.Type == typ {
			return i
		}
	}
	return -1
}

func TestOrchestrate_HappyPathEmitsThemeBeforeSlidesThenCompletes(t *testing.T) {
	calls := 0
	ai := &aiclient.FakeClient{
		Respond: func(_ context.Context, req aiclient.Request) (any, error) {
			calls++
			return slideResponse("s0", "Slide"), nil
		},
	}
	h := newHarness(t, ai)
	outline := testOutline(2)

	ch := h.orch.Orchestrate(context.Background(), outline, "deck-1", testOptions())
	evs := drain(ch, 5*time.Second)

	require.NotEmpty(t, evs)
	assert.Equal(t, "started", string(evs[0].Type))

	themeIdx := indexOfType(evs, events.EventThemeGenerated)
	firstSlideIdx := indexOfType(evs, events.EventSlideStarted)
	require.GreaterOrEqual(t, themeIdx, 0)
	require.GreaterOrEqual(t, firstSlideIdx, 0)
	assert.Less(t, themeIdx, firstSlideIdx, "theme_generated must precede any slide_started")

	last := evs[len(evs)-1]
	assert.Equal(t, "end", string(last.Type))
	assert.Equal(t, "deck_complete", string(evs[len(evs)-2].Type))
	assert.Equal(t, true, evs[len(evs)-2].Data["success"])

	deck, err := h.store.GetDeck(context.Background(), "deck-1")
	require.NoError(t, err)
	require.NotNil(t, deck)
	assert.Equal(t, models.DeckStateComplete, deck.Status.State)
}

func TestOrchestrate_ConcurrentRunOnSameDeckIsRejected(t *testing.T) {
	block := make(chan struct{})
	ai := &aiclient.FakeClient{
		Respond: func(ctx context.Context, req aiclient.Request) (any, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}
			return slideResponse("s0", "Slide"), nil
		},
	}
	h := newHarness(t, ai)
	outline := testOutline(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := h.orch.Orchestrate(ctx, outline, "deck-2", testOptions())

	// give the first run time to pass initializing and acquire the deck lock
	time.Sleep(50 * time.Millisecond)

	second := h.orch.Orchestrate(context.Background(), outline, "deck-2", testOptions())
	evs := drain(second, 2*time.Second)

	require.NotEmpty(t, evs)
	errEvent := evs[0]
	assert.Equal(t, "error", string(errEvent.Type))
	assert.Contains(t, errEvent.Data["message"], "DECK_GENERATION_IN_PROGRESS")

	close(block)
	drain(first, 5*time.Second)
}

func TestOrchestrate_EmptyOutlineTitleEmitsConfigurationInvalidEvent(t *testing.T) {
	ai := aiclient.NewFakeClient(slideResponse("s0", "Slide"))
	h := newHarness(t, ai)
	outline := models.DeckOutline{Title: "", Slides: []models.SlideOutline{{ID: "s0", Title: "x"}}}

	ch := h.orch.Orchestrate(context.Background(), outline, "deck-3", testOptions())
	evs := drain(ch, 2*time.Second)

	require.Len(t, evs, 2)
	assert.Equal(t, "error", string(evs[0].Type))
	assert.Equal(t, string(errs.KindConfigInvalid), evs[0].Data["code"])
	assert.Equal(t, "end", string(evs[1].Type))
}

func TestOrchestrate_SkippableAIResponseStillCompletesDeckWithErrors(t *testing.T) {
	ai := &aiclient.FakeClient{
		Respond: func(context.Context, aiclient.Request) (any, error) {
			return nil, errs.New(errs.KindAIInvalidResponse, assertErr)
		},
	}
	h := newHarness(t, ai)
	outline := testOutline(1)

	ch := h.orch.Orchestrate(context.Background(), outline, "deck-4", testOptions())
	evs := drain(ch, 5*time.Second)

	skipIdx := indexOfType(evs, events.EventSlideSkipped)
	require.GreaterOrEqual(t, skipIdx, 0)

	completeIdx := indexOfType(evs, events.EventDeckComplete)
	require.GreaterOrEqual(t, completeIdx, 0)
	assert.Equal(t, false, evs[completeIdx].Data["success"])
}

func TestOrchestrate_ImageSearchAssignsCandidatesToImageComponents(t *testing.T) {
	ai := aiclient.NewFakeClient(map[string]any{
		"id":    "s0",
		"title": "Slide",
		"components": []map[string]any{
			{"id": "c1", "type": "Image", "width": 400, "height": 300, "props": map[string]any{}},
		},
	})
	reg := registry.New()
	validator := validate.New(reg)
	conc := concurrency.NewManager(8, 8, 8)
	rl := ratelimit.New(1000, 100, 1000, 100)
	retrier := retry.New(retry.Policy{MaxAttempts: 2, Default: retry.BackoffParams{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}})
	store := newFakeDeckStore()
	images := imagesearch.New(3, imagesearch.NewStubProvider())
	slides := slidegen.New(fakeRAG{}, ai, validator, images, conc, rl, retrier, store)
	themeGen := theme.New(ai, retrier)
	prMgr := pauseresume.New(newMemSnapshotStore())

	orch := orchestrator.New(themeGen, nil, images, slides, prMgr, store, conc)
	outline := testOutline(1)

	ch := orch.Orchestrate(context.Background(), outline, "deck-5", testOptions())
	evs := drain(ch, 5*time.Second)

	generatedIdx := indexOfType(evs, events.EventSlideGenerated)
	require.GreaterOrEqual(t, generatedIdx, 0)

	deck, err := store.GetDeck(context.Background(), "deck-5")
	require.NoError(t, err)
	require.Len(t, deck.Slides, 1)
	require.Len(t, deck.Slides[0].Components, 1)
	url, _ := deck.Slides[0].Components[0].Props["url"].(string)
	assert.NotEmpty(t, url)
}

func TestOrchestrate_PauseThenResumeOnlyRegeneratesPendingSlides(t *testing.T) {
	var mu sync.Mutex
	blockedOnce := false
	release := make(chan struct{})
	ai := &aiclient.FakeClient{
		Respond: func(ctx context.Context, req aiclient.Request) (any, error) {
			isSlideCall := len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, "one slide's components")
			if isSlideCall {
				mu.Lock()
				first := !blockedOnce
				blockedOnce = true
				mu.Unlock()
				if first {
					select {
					case <-release:
					case <-ctx.Done():
					}
				}
			}
			return slideResponse("s0", "Slide"), nil
		},
	}
	h := newHarness(t, ai)
	outline := testOutline(2)

	runCtx, cancel := context.WithCancel(context.Background())
	genID := "gen-pause-1"
	ch := h.orch.Orchestrate(runCtx, outline, "deck-6", models.GenerationOptions{MaxParallel: 1, TimeoutSeconds: 10, MaxRetries: 1, GenerationID: genID})

	time.Sleep(50 * time.Millisecond)
	paused := h.prMgr.Pause(context.Background(), genID)
	require.True(t, paused)
	cancel()
	close(release)
	drain(ch, 2*time.Second)

	require.True(t, h.prMgr.CanResume(context.Background(), genID))

	resumeCh := h.orch.Resume(context.Background(), genID)
	evs := drain(resumeCh, 5*time.Second)

	completeIdx := indexOfType(evs, events.EventDeckComplete)
	require.GreaterOrEqual(t, completeIdx, 0)
}

var assertErr = testErr("boom")

type testErr string

func (e testErr) Error() string { return string(e) }
