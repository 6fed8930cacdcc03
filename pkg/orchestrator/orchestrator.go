// Package orchestrator implements DeckOrchestrator: the deck-level state
// machine that drives a deck outline through theme generation, media
// preparation, background image search, parallel slide generation, and
// finalization, publishing one GenerationEvent per step along the way.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextslide/deckengine/pkg/concurrency"
	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/events"
	"github.com/nextslide/deckengine/pkg/imagesearch"
	"github.com/nextslide/deckengine/pkg/media"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/pauseresume"
	"github.com/nextslide/deckengine/pkg/persistence"
	"github.com/nextslide/deckengine/pkg/slidegen"
	"github.com/nextslide/deckengine/pkg/theme"
)

// eventChannelBuffer bounds the channel Orchestrate returns. A slow consumer
// backpressures slide generation rather than growing memory without limit.
const eventChannelBuffer = 64

// Orchestrator drives a single deck's generation through every phase,
// wiring together the per-concern collaborators: ThemeGenerator,
// MediaProcessor, ImageService's background search, SlideGenerator, the
// deck-exclusive lock and slide-parallelism gates in ConcurrencyManager, and
// PauseResumeManager's snapshotting.
type Orchestrator struct {
	theme       *theme.Generator
	mediaProc   *media.Processor
	images      *imagesearch.Service
	slides      *slidegen.Generator
	pauseResume *pauseresume.Manager
	store       persistence.Store
	concurrency *concurrency.Manager
}

// New builds an Orchestrator from its collaborators. mediaProc and images
// may be nil: a deck with no uploaded media and no image search configured
// simply skips those phases.
func New(
	themeGen *theme.Generator,
	mediaProc *media.Processor,
	images *imagesearch.Service,
	slides *slidegen.Generator,
	pauseResume *pauseresume.Manager,
	store persistence.Store,
	conc *concurrency.Manager,
) *Orchestrator {
	return &Orchestrator{
		theme:       themeGen,
		mediaProc:   mediaProc,
		images:      images,
		slides:      slides,
		pauseResume: pauseResume,
		store:       store,
		concurrency: conc,
	}
}

// Orchestrate runs the full deck generation state machine and returns the
// channel its events are delivered on. The channel is always returned and
// always eventually closed, even when generation never leaves the
// initializing phase — a rejected outline or an already-busy deck surfaces
// as a single error event rather than a Go error return, so every caller
// reads from one channel regardless of how generation ends.
func (o *Orchestrator) Orchestrate(ctx context.Context, outline models.DeckOutline, deckID string, opts models.GenerationOptions) <-chan events.GenerationEvent {
	opts = opts.WithDefaults()
	out := make(chan events.GenerationEvent, eventChannelBuffer)

	emit := func(ev events.GenerationEvent) {
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(out)
		o.run(ctx, outline, deckID, opts, emit)
	}()

	return out
}

func (o *Orchestrator) run(ctx context.Context, outline models.DeckOutline, deckID string, opts models.GenerationOptions, emit func(events.GenerationEvent)) {
	if err := outline.Validate(); err != nil {
		emitFatal(emit, errs.KindConfigInvalid, err)
		return
	}

	if err := o.concurrency.TryLockDeck(deckID); err != nil {
		emitFatal(emit, errs.KindOrchestrationDeck, fmt.Errorf("DECK_GENERATION_IN_PROGRESS: %w", err))
		return
	}
	defer o.concurrency.UnlockDeck(deckID)

	generationID := opts.GenerationID
	if generationID == "" {
		generationID = deckID
	}

	state := models.GenerationState{
		GenerationID: generationID,
		DeckID:       deckID,
		Outline:      outline,
		Options:      opts,
		CurrentPhase: models.RunStateInitializing,
		RunState:     models.RunStateInitializing,
		SlideStates:  make(map[string]models.SlideRunState),
		TotalSteps:   len(outline.Slides),
	}
	handle, runCtx, err := o.pauseResume.Register(ctx, state)
	if err != nil {
		emitFatal(emit, errs.KindOrchestrationDeck, err)
		return
	}
	defer handle.Cancel()

	emit(events.New(events.EventStarted, map[string]any{"deckId": deckID}))

	titles := make([]string, len(outline.Slides))
	for i, s := range outline.Slides {
		titles[i] = s.Title
	}
	emit(events.New(events.EventOutlineStructure, map[string]any{
		"slideCount":  len(outline.Slides),
		"slideTitles": titles,
	}))

	deck := models.NewDeck(deckID, outline)
	if err := o.store.SaveDeck(runCtx, deck); err != nil {
		slog.ErrorContext(runCtx, "failed to save initial deck record", "deck_id", deckID, "error", err)
	}
	o.pauseResume.UpdateState(generationID, func(s *models.GenerationState) { s.CurrentPhase = models.RunStateTheme })
	_ = o.pauseResume.Snapshot(runCtx, generationID)

	themeSpec := o.theme.GenerateTheme(runCtx, outline)
	deck.Theme = &themeSpec
	if err := o.store.SaveDeck(runCtx, deck); err != nil {
		slog.ErrorContext(runCtx, "failed to persist generated theme", "deck_id", deckID, "error", err)
	}
	emit(events.New(events.EventThemeGenerated, map[string]any{
		"palette":  models.PaletteFrom(themeSpec),
		"fonts":    themeSpec.Fonts,
		"fallback": themeSpec.Fallback,
	}))

	o.runMediaPreparation(runCtx, &outline, emit)

	imgHandle := o.startImageSearch(runCtx, outline, deckID, emit)
	if imgHandle != nil {
		defer imgHandle.Cancel()
	}

	o.pauseResume.UpdateState(generationID, func(s *models.GenerationState) { s.CurrentPhase = models.RunStateSlidesInProgress })
	_ = o.pauseResume.Snapshot(runCtx, generationID)

	hadErrors := o.runSlides(runCtx, deck, outline, outline.Slides, opts, emit, generationID)

	if runCtx.Err() != nil {
		// Paused or cancelled mid-flight: a snapshot was already persisted by
		// whichever call (Pause or parent cancellation) ended runCtx. Leave the
		// deck mid-generation rather than emitting a misleading deck_complete.
		return
	}

	o.finalize(runCtx, deck, hadErrors, emit)
	o.pauseResume.Forget(generationID)
}

// Resume picks a paused generation back up from its last durable snapshot,
// regenerating only the slides GetResumeContext reports as still pending.
// Like Orchestrate, failures surface as channel events rather than a Go
// error so callers only ever need to read from one channel.
func (o *Orchestrator) Resume(ctx context.Context, generationID string) <-chan events.GenerationEvent {
	out := make(chan events.GenerationEvent, eventChannelBuffer)
	emit := func(ev events.GenerationEvent) {
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(out)

		resumeCtx, err := o.pauseResume.GetResumeContext(ctx, generationID)
		if err != nil {
			emitFatal(emit, errs.KindOrchestrationDeck, err)
			return
		}

		deck, err := o.store.GetDeck(ctx, resumeCtx.DeckID)
		if err != nil || deck == nil || deck.Theme == nil {
			// Paused before theme_generation ever completed, so there is no
			// realized deck to resume into: drop the stale snapshot and run the
			// whole thing fresh. o.run does its own deck locking, so it must not
			// be entered while this method also holds the lock below.
			o.pauseResume.Forget(generationID)
			o.run(ctx, resumeCtx.Outline, resumeCtx.DeckID, resumeCtx.Options, emit)
			return
		}

		if err := o.concurrency.TryLockDeck(resumeCtx.DeckID); err != nil {
			emitFatal(emit, errs.KindOrchestrationDeck, fmt.Errorf("DECK_GENERATION_IN_PROGRESS: %w", err))
			return
		}
		defer o.concurrency.UnlockDeck(resumeCtx.DeckID)

		handle, runCtx, err := o.pauseResume.MarkResumed(ctx, generationID)
		if err != nil {
			emitFatal(emit, errs.KindOrchestrationDeck, err)
			return
		}
		defer handle.Cancel()

		emit(events.New(events.EventStarted, map[string]any{"deckId": resumeCtx.DeckID, "resumed": true}))

		pending := make([]models.SlideOutline, 0, len(resumeCtx.PendingSlides))
		pendingSet := make(map[string]bool, len(resumeCtx.PendingSlides))
		for _, id := range resumeCtx.PendingSlides {
			pendingSet[id] = true
		}
		for _, so := range resumeCtx.Outline.Slides {
			if pendingSet[so.ID] {
				pending = append(pending, so)
			}
		}

		hadErrors := o.runSlides(runCtx, deck, resumeCtx.Outline, pending, resumeCtx.Options, emit, generationID)
		if runCtx.Err() != nil {
			return
		}

		o.finalize(runCtx, deck, hadErrors, emit)
		o.pauseResume.Forget(generationID)
	}()

	return out
}

func (o *Orchestrator) runMediaPreparation(ctx context.Context, outline *models.DeckOutline, emit func(events.GenerationEvent)) {
	if o.mediaProc == nil || len(outline.UploadedMedia) == 0 {
		return
	}
	processed := o.mediaProc.Process(ctx, outline.UploadedMedia)
	outline.UploadedMedia = processed
	emit(events.New(events.EventMediaProcessed, map[string]any{"media": processed}))
}

func (o *Orchestrator) startImageSearch(ctx context.Context, outline models.DeckOutline, deckID string, emit func(events.GenerationEvent)) *imagesearch.Handle {
	if o.images == nil {
		return nil
	}
	return o.images.StartBackgroundSearch(ctx, outline, deckID, emit)
}

// runSlides fans slide generation for slides out across opts.MaxParallel
// workers, pacing each new slide's start by opts.DelayBetweenSlides, and
// reports whether any slide ended in a non-completed terminal state.
func (o *Orchestrator) runSlides(ctx context.Context, deck *models.Deck, outline models.DeckOutline, slides []models.SlideOutline, opts models.GenerationOptions, emit func(events.GenerationEvent), generationID string) bool {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxParallel)

	indexOf := make(map[string]int, len(outline.Slides))
	for i, so := range outline.Slides {
		indexOf[so.ID] = i
	}

	var mu sync.Mutex
	hadErrors := false
	for i, slideOutline := range slides {
		if gctx.Err() != nil {
			break
		}
		if i > 0 && opts.DelayBetweenSlides > 0 {
			select {
			case <-time.After(opts.DelayBetweenSlides):
			case <-gctx.Done():
			}
		}

		so := slideOutline
		index := indexOf[so.ID]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			sctx := o.buildSlideContext(deck, outline, so, index)
			result := o.slides.Generate(gctx, deck.UUID, opts.UserID, sctx, opts, emit)
			mu.Lock()
			if index < len(deck.Slides) {
				deck.Slides[index] = result
			}
			mu.Unlock()

			o.pauseResume.UpdateState(generationID, func(s *models.GenerationState) {
				s.SlideStates[so.ID] = models.SlideRunState{Status: result.Status, Attempts: 1}
				s.CompletedSteps++
			})
			if result.Status != models.SlideStatusCompleted {
				mu.Lock()
				hadErrors = true
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return hadErrors
}

func (o *Orchestrator) buildSlideContext(deck *models.Deck, outline models.DeckOutline, so models.SlideOutline, index int) models.SlideContext {
	var availableImages []models.Image
	if o.images != nil {
		availableImages = o.images.PendingFor(deck.UUID, so.ID)
	}
	return models.SlideContext{
		Outline:         so,
		Index:           index,
		TotalSlides:     len(outline.Slides),
		Theme:           *deck.Theme,
		Palette:         models.PaletteFrom(*deck.Theme),
		StyleManifesto:  deck.Theme.StyleManifesto,
		AvailableImages: availableImages,
		TaggedMedia:     so.TaggedMedia,
		HasChartData:    so.HasChartData(),
		HasTabularData:  so.HasTabularData(),
		DeckID:          deck.UUID,
	}
}

func (o *Orchestrator) finalize(ctx context.Context, deck *models.Deck, hadErrors bool, emit func(events.GenerationEvent)) {
	state := models.DeckStateComplete
	message := "deck generation complete"
	if hadErrors {
		state = models.DeckStateCompleteWithErrors
		message = "deck generation complete_with_errors"
	}

	deck.Status = models.DeckStatus{
		State:       state,
		CurrentSlide: len(deck.Outline.Slides),
		TotalSlides: len(deck.Outline.Slides),
		Message:     message,
		Progress:    100,
	}
	if err := o.store.SaveDeck(ctx, deck); err != nil {
		slog.ErrorContext(ctx, "failed to persist final deck status", "deck_id", deck.UUID, "error", err)
	}

	emit(events.New(events.EventDeckComplete, map[string]any{
		"success": !hadErrors,
		"message": message,
	}))
	emit(events.New(events.EventEnd, nil))
}

func emitFatal(emit func(events.GenerationEvent), kind errs.Kind, cause error) {
	emit(events.New(events.EventError, map[string]any{
		"code":    string(kind),
		"message": cause.Error(),
	}))
	emit(events.New(events.EventEnd, nil))
}
