// Package validate implements ComponentValidator: it reconciles a slide's
// generated components against the component registry, fills defaults,
// coerces loosely-typed values, clamps off-canvas positions, and runs
// adaptive font sizing on text-bearing components.
package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/fontsizing"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/registry"
)

// defaultPadding is the inset applied around a text-bearing component's
// box before it is handed to AdaptiveFontSizer.
const defaultPadding = 16.0

// Validator reconciles a slide's raw components against a Registry.
type Validator struct {
	registry *registry.Registry
	sizer    *fontsizing.AdaptiveFontSizer
	strict   bool
}

// Option configures a Validator at construction.
type Option func(*Validator)

// WithStrictMode makes Validate fail on any unknown component type
// instead of dropping it with a logged warning.
func WithStrictMode(strict bool) Option {
	return func(v *Validator) { v.strict = strict }
}

// WithFontSizer overrides the default AdaptiveFontSizer, mainly for tests.
func WithFontSizer(sizer *fontsizing.AdaptiveFontSizer) Option {
	return func(v *Validator) { v.sizer = sizer }
}

// New builds a Validator against reg.
func New(reg *registry.Registry, opts ...Option) *Validator {
	v := &Validator{
		registry: reg,
		sizer:    fontsizing.NewDefault(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every component in components through: (a) type lookup in
// the registry, (b) default filling, (c) numeric coercion, (d) canvas
// position clamping, (e) adaptive font sizing for text-bearing types. A
// component whose type is unknown, or whose required props are still
// unset after default filling, is dropped from the result (and logged)
// unless strict mode is on, in which case Validate fails outright.
func (v *Validator) Validate(ctx context.Context, components []models.Component, theme models.ThemeSpec, canvas models.Canvas) ([]models.Component, error) {
	result := make([]models.Component, 0, len(components))

	for _, c := range components {
		schema, ok := v.registry.Schema(c.Type)
		if !ok {
			if v.strict {
				return nil, errs.Newf(errs.KindValidationSchema, "unknown component type %q", c.Type).
					WithContext("component_id", c.ID)
			}
			slog.WarnContext(ctx, "dropping component of unknown type", "component_id", c.ID, "type", c.Type)
			continue
		}

		v.registry.ApplyDefaults(&c)
		coerceNumeric(&c, schema)

		if missing := missingRequired(c, schema); len(missing) > 0 {
			if v.strict {
				return nil, errs.Newf(errs.KindValidationComponent, "component %s missing required props %v", c.ID, missing).
					WithContext("component_id", c.ID)
			}
			slog.WarnContext(ctx, "dropping component with missing required props", "component_id", c.ID, "type", c.Type, "missing", missing)
			continue
		}

		clampPosition(&c, canvas)

		if models.TextBearingTypes[c.Type] {
			v.applyFontSizing(&c, theme)
		}

		result = append(result, c)
	}

	return result, nil
}

func missingRequired(c models.Component, schema registry.ComponentSchema) []string {
	var missing []string
	for _, f := range schema.Fields {
		if !f.Required {
			continue
		}
		v, set := c.Props[f.Name]
		if !set || isZeroValue(v) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

func isZeroValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case nil:
		return true
	default:
		return false
	}
}

// coerceNumeric converts string-encoded numbers (as AI responses sometimes
// emit, e.g. "24" instead of 24) into float64 for any field the schema
// declares FieldNumber.
func coerceNumeric(c *models.Component, schema registry.ComponentSchema) {
	if c.Props == nil {
		return
	}
	for _, f := range schema.Fields {
		if f.Kind != registry.FieldNumber {
			continue
		}
		raw, ok := c.Props[f.Name]
		if !ok {
			continue
		}
		switch n := raw.(type) {
		case float64, int, int64:
			continue
		case string:
			var parsed float64
			if _, err := fmt.Sscanf(n, "%g", &parsed); err == nil {
				c.Props[f.Name] = parsed
			}
		}
	}
}

// clampPosition moves and, if necessary, shrinks a component so it fits
// fully within canvas rather than rejecting off-canvas placements.
func clampPosition(c *models.Component, canvas models.Canvas) {
	if c.Width > canvas.Width {
		c.Width = canvas.Width
	}
	if c.Height > canvas.Height {
		c.Height = canvas.Height
	}
	maxX := canvas.Width - c.Width
	maxY := canvas.Height - c.Height
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	if c.Position.X < 0 {
		c.Position.X = 0
	}
	if c.Position.X > maxX {
		c.Position.X = maxX
	}
	if c.Position.Y < 0 {
		c.Position.Y = 0
	}
	if c.Position.Y > maxY {
		c.Position.Y = maxY
	}
}

// applyFontSizing runs AdaptiveFontSizer against a text-bearing
// component's box using the theme's role-appropriate font family, and
// sets the chosen size as the fontSize prop and records the search's
// confidence as metadata.
func (v *Validator) applyFontSizing(c *models.Component, theme models.ThemeSpec) {
	family := theme.Fonts.Body
	if c.Type == models.ComponentTitle || c.Type == models.ComponentHeading {
		family = theme.Fonts.Hero
	}

	text := c.TextContent()
	res := v.sizer.FindOptimalSize(text, c.Width, c.Height, family, defaultPadding, defaultPadding)

	if c.Props == nil {
		c.Props = make(map[string]any)
	}
	c.Props["fontSize"] = float64(res.FontSize)
	c.SetMetadata("adaptiveSizing", true)
	c.SetMetadata("confidence", res.Confidence)
}
