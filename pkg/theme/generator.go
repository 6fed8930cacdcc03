// Package theme implements ThemeGenerator: it asks an AI provider for a
// deck-wide palette and style once per deck, falling back to a
// deterministic neutral theme if generation cannot complete, and flags
// low-contrast palettes for client display without ever failing
// generation over a readability concern.
package theme

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nextslide/deckengine/pkg/aiclient"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/retry"
)

// Generator produces a ThemeSpec from a deck outline.
type Generator struct {
	ai      aiclient.Client
	retrier *retry.Retrier
}

// New builds a Generator backed by ai, retrying transient failures
// according to retrier's policy.
func New(ai aiclient.Client, retrier *retry.Retrier) *Generator {
	return &Generator{ai: ai, retrier: retrier}
}

// aiThemeResponse is the structured shape requested from the AI provider.
type aiThemeResponse struct {
	PaletteName    string        `json:"paletteName"`
	Colors         models.Colors `json:"colors"`
	Fonts          models.Fonts  `json:"fonts"`
	VisualStyle    string        `json:"visualStyle"`
	StyleManifesto string        `json:"styleManifesto"`
}

// GenerateTheme produces a ThemeSpec for outline. On persistent AI
// failure (retries exhausted) it returns FallbackTheme with Fallback set,
// not an error — a deck always gets a usable theme.
func (g *Generator) GenerateTheme(ctx context.Context, outline models.DeckOutline) models.ThemeSpec {
	var resp aiThemeResponse
	err := g.retrier.Do(ctx, func(ctx context.Context) error {
		req := aiclient.Request{
			Messages:    buildThemeMessages(outline),
			MaxTokens:   1024,
			Temperature: 0.7,
		}
		return g.ai.Generate(ctx, req, &resp)
	})
	if err != nil {
		slog.WarnContext(ctx, "theme generation exhausted retries, using fallback theme", "deck_id", outline.ID, "error", err)
		return models.FallbackTheme()
	}

	spec := models.ThemeSpec{
		PaletteName: resp.PaletteName,
		Colors:      resp.Colors,
		Fonts:       resp.Fonts,
		VisualStyle: resp.VisualStyle,
	}
	spec.StyleManifesto = resp.StyleManifesto
	if spec.StyleManifesto == "" {
		spec.StyleManifesto = g.createStyleManifesto(spec)
	}

	if warn, reason := checkPaletteContrast(spec.Colors.PrimaryText, spec.Colors.PrimaryBackground); warn {
		spec.ContrastWarning = true
		slog.WarnContext(ctx, "theme palette fails WCAG AA contrast", "deck_id", outline.ID, "reason", reason)
	}

	return spec
}

// GeneratePalette materializes the quick-access Palette view of theme.
// This is a deterministic projection, not a further AI call: the palette
// is always derived from the ThemeSpec already produced for the deck.
func (g *Generator) GeneratePalette(outline models.DeckOutline, theme models.ThemeSpec) models.Palette {
	return models.PaletteFrom(theme)
}

// createStyleManifesto builds a deterministic style manifesto sentence
// from a theme's fields, used when the AI response did not include one.
func (g *Generator) createStyleManifesto(spec models.ThemeSpec) string {
	style := spec.VisualStyle
	if style == "" {
		style = "minimal"
	}
	return fmt.Sprintf(
		"A %s visual style built around the %q palette, pairing %s headings with %s body text on a %s background.",
		style, spec.PaletteName, spec.Fonts.Hero, spec.Fonts.Body, spec.Colors.PrimaryBackground,
	)
}

func buildThemeMessages(outline models.DeckOutline) []aiclient.Message {
	system := "You design a cohesive color palette, font pairing, and one-paragraph style " +
		"manifesto for a presentation deck. Respond with the requested structured fields only."

	user, _ := json.Marshal(map[string]any{
		"title":      outline.Title,
		"styleHints": outline.StyleHints,
		"slideCount": len(outline.Slides),
	})

	return []aiclient.Message{
		{Role: aiclient.RoleSystem, Content: system},
		{Role: aiclient.RoleUser, Content: string(user)},
	}
}
