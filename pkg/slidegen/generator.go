// Package slidegen implements SlideGenerator: the per-slide pipeline that
// looks up design context, prompts the AI provider, coerces and validates
// the response into registry-conformant components, assigns background-
// searched images, renders a preview thumbnail, and persists the result —
// emitting one GenerationEvent per sub-step along the way.
package slidegen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextslide/deckengine/pkg/aiclient"
	"github.com/nextslide/deckengine/pkg/concurrency"
	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/events"
	"github.com/nextslide/deckengine/pkg/imagesearch"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/persistence"
	"github.com/nextslide/deckengine/pkg/rag"
	"github.com/nextslide/deckengine/pkg/ratelimit"
	"github.com/nextslide/deckengine/pkg/retry"
	"github.com/nextslide/deckengine/pkg/thumbnail"
	"github.com/nextslide/deckengine/pkg/validate"
)

// ragTimeout bounds how long Generator waits on RAGService before falling
// back to the static context — the lookup is non-blocking by contract, not
// just best-effort.
const ragTimeout = 2 * time.Second

// Generator produces, validates, and persists a single slide.
type Generator struct {
	rag         rag.Service
	ai          aiclient.Client
	validator   *validate.Validator
	images      *imagesearch.Service
	concurrency *concurrency.Manager
	rateLimit   *ratelimit.Limiter
	retrier     *retry.Retrier
	store       persistence.Store

	thumbnailsEnabled bool
}

// New builds a Generator from its collaborators. Thumbnail rendering is on
// by default; call SetThumbnailsEnabled(false) to turn it off.
func New(
	ragSvc rag.Service,
	ai aiclient.Client,
	validator *validate.Validator,
	images *imagesearch.Service,
	conc *concurrency.Manager,
	rl *ratelimit.Limiter,
	retrier *retry.Retrier,
	store persistence.Store,
) *Generator {
	return &Generator{
		rag:               ragSvc,
		ai:                ai,
		validator:         validator,
		images:            images,
		concurrency:       conc,
		rateLimit:         rl,
		retrier:           retrier,
		store:             store,
		thumbnailsEnabled: true,
	}
}

// SetThumbnailsEnabled toggles whether Generate renders a preview
// thumbnail for each slide.
func (g *Generator) SetThumbnailsEnabled(enabled bool) {
	g.thumbnailsEnabled = enabled
}

// aiSlideResponse is the minimal structured shape requested from the AI
// provider: an id/title pair plus the raw component list, validated and
// coerced afterward rather than trusted as-is.
type aiSlideResponse struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Components []models.Component `json:"components"`
}

// Generate runs the full per-slide pipeline for sctx, emitting lifecycle
// and sub-step events via emit and returning the resulting Slide. The
// returned Slide's Status is exactly one of completed, skipped, or failed;
// Generate itself never returns an error — failure is reported through the
// slide's status and the terminal event, matching the "terminal event is
// exactly one of slide_generated | slide_skipped | slide_error" contract.
func (g *Generator) Generate(ctx context.Context, deckID, userID string, sctx models.SlideContext, opts models.GenerationOptions, emit func(events.GenerationEvent)) models.Slide {
	start := time.Now()
	index := sctx.Index

	emit(events.New(events.EventSlideStarted, map[string]any{
		"index": index,
		"title": sctx.Outline.Title,
	}))

	designCtx := g.ragLookup(ctx, sctx, emit, index)

	slide, err := g.aiGenerate(ctx, deckID, userID, sctx, opts, designCtx, emit, index)
	if err != nil {
		return g.terminalFromError(ctx, deckID, sctx, index, err, emit)
	}

	coerce(&slide, sctx)

	validated, err := g.validator.Validate(ctx, slide.Components, sctx.Theme, models.DefaultCanvas)
	if err != nil {
		return g.terminalFromError(ctx, deckID, sctx, index, err, emit)
	}
	slide.Components = validated

	g.applyImages(deckID, sctx, &slide)
	if g.thumbnailsEnabled {
		slide.ThumbnailSVG = thumbnail.Render(slide, models.DefaultCanvas)
	}

	emit(events.New(events.EventSlideSubstep, map[string]any{
		"index":   index,
		"substep": events.SubstepSaving,
	}))
	if err := g.persist(ctx, deckID, index, slide); err != nil {
		return g.terminalFromError(ctx, deckID, sctx, index, err, emit)
	}

	slide.Status = models.SlideStatusCompleted
	emit(events.New(events.EventSlideGenerated, map[string]any{
		"index":           index,
		"slide_data":      slide,
		"generation_time": time.Since(start).Seconds(),
	}))
	return slide
}

// ragLookup fetches design context for sctx, falling back to the static
// minimal context on error or timeout without failing the slide — a slow
// or broken RAGService is never allowed to block generation.
func (g *Generator) ragLookup(ctx context.Context, sctx models.SlideContext, emit func(events.GenerationEvent), index int) rag.SlideDesignContext {
	emit(events.New(events.EventSlideSubstep, map[string]any{
		"index":   index,
		"substep": events.SubstepPreparingContext,
	}))

	lookupCtx, cancel := context.WithTimeout(ctx, ragTimeout)
	defer cancel()

	outline := models.DeckOutline{Title: sctx.Outline.Title}
	designCtx, err := g.rag.GetContext(lookupCtx, outline, sctx.Outline)
	if err != nil {
		slog.WarnContext(ctx, "rag lookup failed, using fallback context", "slide_id", sctx.Outline.ID, "error", err)
		designCtx = rag.FallbackContext()
	}

	emit(events.New(events.EventSlideSubstep, map[string]any{
		"index":   index,
		"substep": events.SubstepRAGLookup,
	}))
	return designCtx
}

// aiGenerate acquires a slide slot and rate-limit token, then calls the AI
// provider under the Retrier's backoff policy, bounded by
// opts.TimeoutSeconds.
func (g *Generator) aiGenerate(ctx context.Context, deckID, userID string, sctx models.SlideContext, opts models.GenerationOptions, designCtx rag.SlideDesignContext, emit func(events.GenerationEvent), index int) (models.Slide, error) {
	emit(events.New(events.EventSlideSubstep, map[string]any{
		"index":   index,
		"substep": events.SubstepAIGeneration,
	}))

	slot, err := g.concurrency.AcquireSlide(ctx, userID, deckID)
	if err != nil {
		return models.Slide{}, fmt.Errorf("acquire slide slot: %w", err)
	}
	defer slot.Release()

	genCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.TimeoutSeconds)*time.Second)
	defer cancel()

	var resp aiSlideResponse
	err = g.retrier.Do(genCtx, func(attemptCtx context.Context) error {
		if err := g.rateLimit.Wait(attemptCtx, userID); err != nil {
			return err
		}
		req := aiclient.Request{
			Messages:    buildSlideMessages(sctx, designCtx),
			MaxTokens:   2048,
			Temperature: 0.8,
		}
		return g.ai.Generate(attemptCtx, req, &resp)
	})
	if err != nil {
		return models.Slide{}, err
	}

	return models.Slide{
		ID:         resp.ID,
		Title:      resp.Title,
		Components: resp.Components,
		Status:     models.SlideStatusGenerating,
	}, nil
}

// coerce fills in an id and title from sctx.Outline when the AI response
// omitted them, and injects a minimum-viable background + text component
// pair (using the deck theme's colors) when the response has none.
func coerce(slide *models.Slide, sctx models.SlideContext) {
	if slide.ID == "" {
		slide.ID = sctx.Outline.ID
	}
	if slide.Title == "" {
		slide.Title = sctx.Outline.Title
	}
	if len(slide.Components) == 0 {
		slide.Components = minimumViableComponents(sctx)
	}
}

func minimumViableComponents(sctx models.SlideContext) []models.Component {
	return []models.Component{
		{
			ID:     sctx.Outline.ID + "-bg",
			Type:   models.ComponentBackground,
			Width:  models.DefaultCanvas.Width,
			Height: models.DefaultCanvas.Height,
			Props:  map[string]any{"color": sctx.Theme.Colors.PrimaryBackground},
		},
		{
			ID:       sctx.Outline.ID + "-title",
			Type:     models.ComponentTitle,
			Position: models.Position{X: 120, Y: 120},
			Width:    models.DefaultCanvas.Width - 240,
			Height:   200,
			Props: map[string]any{
				"text":  sctx.Outline.Title,
				"color": sctx.Theme.Colors.PrimaryText,
			},
		},
	}
}

// applyImages consults the slide's pending candidate images (background-
// searched for this slide's topic) and assigns them in order to Image
// components whose url prop is still empty, tagging each with a
// fade-in animation hint. Image components may reach this
// step with no url at all — the registry does not require one up front, so
// Validate does not drop a slide's image placeholders before they get a
// chance to be filled in here.
func (g *Generator) applyImages(deckID string, sctx models.SlideContext, slide *models.Slide) {
	if g.images == nil {
		return
	}
	pending, ok := g.images.Apply(deckID, sctx.Outline.ID)
	if !ok || len(pending) == 0 {
		return
	}

	next := 0
	for i := range slide.Components {
		c := &slide.Components[i]
		if c.Type != models.ComponentImage {
			continue
		}
		if url, _ := c.Props["url"].(string); url != "" {
			continue
		}
		if next >= len(pending) {
			break
		}
		if c.Props == nil {
			c.Props = make(map[string]any)
		}
		c.Props["url"] = pending[next].URL
		c.Props["alt"] = pending[next].Alt
		c.SetMetadata("imageSource", pending[next].Source)
		c.SetMetadata("animation", "fade-in")
		next++
	}
}

// persist writes slide to deckID's slot, retrying transient storage
// errors under the Retrier.
func (g *Generator) persist(ctx context.Context, deckID string, index int, slide models.Slide) error {
	return g.retrier.Do(ctx, func(attemptCtx context.Context) error {
		if err := g.store.UpdateSlide(attemptCtx, deckID, index, slide); err != nil {
			return errs.New(errs.KindPersistenceSave, err)
		}
		return nil
	})
}

// terminalFromError classifies err and returns the slide in its terminal
// failed or skipped state, emitting the matching event. Only errors whose
// kind is Skippable (invalid AI responses, validation-component errors)
// end skipped; unclassified errors and every other kind end failed.
func (g *Generator) terminalFromError(ctx context.Context, deckID string, sctx models.SlideContext, index int, err error, emit func(events.GenerationEvent)) models.Slide {
	slide := models.Slide{ID: sctx.Outline.ID, Title: sctx.Outline.Title, Status: models.SlideStatusFailed}

	kind, classified := errs.As(err)
	skippable := classified && kind.DefaultDisposition() == errs.Skippable
	if skippable {
		slide.Status = models.SlideStatusSkipped
	}

	if saveErr := g.store.UpdateSlide(ctx, deckID, index, slide); saveErr != nil {
		slog.WarnContext(ctx, "failed to persist terminal slide status", "deck_id", deckID, "slide_id", slide.ID, "error", saveErr)
	}

	if skippable {
		emit(events.New(events.EventSlideSkipped, map[string]any{
			"index":  index,
			"reason": err.Error(),
		}))
		return slide
	}

	emit(events.New(events.EventSlideError, map[string]any{
		"index": index,
		"error": err.Error(),
	}))
	return slide
}

func buildSlideMessages(sctx models.SlideContext, designCtx rag.SlideDesignContext) []aiclient.Message {
	system := "You generate exactly one slide's components for a presentation deck. " +
		"Respond with the requested structured fields only: id, title, components."

	imageURLs := make([]string, 0, len(sctx.AvailableImages))
	for _, img := range sctx.AvailableImages {
		imageURLs = append(imageURLs, img.URL)
	}

	user, _ := json.Marshal(map[string]any{
		"slideIndex":           sctx.Index,
		"totalSlides":          sctx.TotalSlides,
		"title":                sctx.Outline.Title,
		"content":              sctx.Outline.Content,
		"layoutHint":           sctx.Outline.LayoutHint,
		"comparison":           sctx.Outline.Comparison,
		"hasChartData":         sctx.HasChartData,
		"hasTabularData":       sctx.HasTabularData,
		"extractedData":        sctx.Outline.ExtractedData,
		"styleManifesto":       sctx.StyleManifesto,
		"palette":              sctx.Palette,
		"predictedComponents":  designCtx.PredictedComponents,
		"layoutHints":          designCtx.LayoutHints,
		"designGuidelines":     designCtx.DesignGuidelines,
		"criticalRules":        designCtx.CriticalRules,
		"availableImageURLs":   imageURLs,
		"taggedMedia":          sctx.TaggedMedia,
	})

	return []aiclient.Message{
		{Role: aiclient.RoleSystem, Content: system},
		{Role: aiclient.RoleUser, Content: string(user)},
	}
}
