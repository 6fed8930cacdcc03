package theme

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextslide/deckengine/pkg/aiclient"
	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier() *retry.Retrier {
	return retry.New(retry.Policy{
		Default:     retry.BackoffParams{BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		MaxAttempts: 2,
	})
}

func TestGenerateTheme_ReturnsAIProducedTheme(t *testing.T) {
	ai := aiclient.NewFakeClient(aiThemeResponse{
		PaletteName: "midnight",
		Colors: models.Colors{
			PrimaryBackground: "#0a0a0a",
			PrimaryText:       "#ffffff",
		},
		Fonts:       models.Fonts{Hero: "Georgia", Body: "Inter"},
		VisualStyle: "bold",
	})
	g := New(ai, fastRetrier())

	spec := g.GenerateTheme(context.Background(), models.DeckOutline{ID: "d1", Title: "Launch"})
	require.False(t, spec.Fallback)
	assert.Equal(t, "midnight", spec.PaletteName)
	assert.NotEmpty(t, spec.StyleManifesto)
}

func TestGenerateTheme_FallsBackOnPersistentAIFailure(t *testing.T) {
	calls := 0
	ai := &aiclient.FakeClient{Respond: func(context.Context, aiclient.Request) (any, error) {
		calls++
		return nil, errs.New(errs.KindAITimeout, errors.New("ai unavailable"))
	}}
	g := New(ai, fastRetrier())

	spec := g.GenerateTheme(context.Background(), models.DeckOutline{ID: "d1", Title: "Launch"})
	assert.True(t, spec.Fallback)
	assert.Equal(t, models.FallbackTheme().PaletteName, spec.PaletteName)
	assert.Equal(t, 2, calls, "should retry up to MaxAttempts before falling back")
}

func TestGenerateTheme_FlagsLowContrastPalette(t *testing.T) {
	ai := aiclient.NewFakeClient(aiThemeResponse{
		PaletteName: "muted",
		Colors: models.Colors{
			PrimaryBackground: "#888888",
			PrimaryText:       "#999999",
		},
		Fonts:       models.Fonts{Hero: "Inter", Body: "Inter"},
		VisualStyle: "muted",
	})
	g := New(ai, fastRetrier())

	spec := g.GenerateTheme(context.Background(), models.DeckOutline{ID: "d1", Title: "Launch"})
	assert.True(t, spec.ContrastWarning)
}

func TestGeneratePalette_DerivesFromThemeColors(t *testing.T) {
	g := New(nil, nil)
	spec := models.ThemeSpec{Colors: models.Colors{PrimaryBackground: "#111111", PrimaryText: "#eeeeee"}}
	palette := g.GeneratePalette(models.DeckOutline{}, spec)
	assert.Equal(t, "#111111", palette.Primary)
	assert.Equal(t, "#eeeeee", palette.PrimaryText)
}

func TestCreateStyleManifesto_FallsBackWhenVisualStyleEmpty(t *testing.T) {
	g := New(nil, nil)
	manifesto := g.createStyleManifesto(models.ThemeSpec{PaletteName: "neutral"})
	assert.Contains(t, manifesto, "minimal")
}
