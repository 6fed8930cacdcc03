package models

// Colors holds a theme's color roles.
type Colors struct {
	PrimaryBackground   string `json:"primary_background"`
	SecondaryBackground string `json:"secondary_background"`
	PrimaryText         string `json:"primary_text"`
	SecondaryText       string `json:"secondary_text"`
	Accent1             string `json:"accent_1"`
	Accent2             string `json:"accent_2"`
	Accent3             string `json:"accent_3"`
}

// Fonts holds a theme's font role assignments.
type Fonts struct {
	Hero string `json:"hero"`
	Body string `json:"body"`
}

// ThemeSpec is the deck-wide style manifesto and palette, produced once per
// deck by ThemeGenerator and read-only thereafter.
type ThemeSpec struct {
	PaletteName     string `json:"paletteName"`
	Colors          Colors `json:"colors"`
	Fonts           Fonts  `json:"fonts"`
	VisualStyle     string `json:"visualStyle"`
	StyleManifesto  string `json:"styleManifesto"`
	Fallback        bool   `json:"fallback,omitempty"`
	ContrastWarning bool   `json:"contrastWarning,omitempty"`
}

// Palette is the subset of ThemeSpec.Colors materialized for quick access
// by slide generation without threading the whole ThemeSpec through.
type Palette struct {
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	PrimaryText   string `json:"primaryText"`
	SecondaryText string `json:"secondaryText"`
	Accents       [3]string `json:"accents"`
}

// PaletteFrom materializes a Palette from a ThemeSpec's colors.
func PaletteFrom(t ThemeSpec) Palette {
	return Palette{
		Primary:       t.Colors.PrimaryBackground,
		Secondary:     t.Colors.SecondaryBackground,
		PrimaryText:   t.Colors.PrimaryText,
		SecondaryText: t.Colors.SecondaryText,
		Accents:       [3]string{t.Colors.Accent1, t.Colors.Accent2, t.Colors.Accent3},
	}
}

// FallbackTheme is the deterministic neutral-dark theme ThemeGenerator
// returns when AI generation is exhausted.
func FallbackTheme() ThemeSpec {
	return ThemeSpec{
		PaletteName: "neutral-fallback",
		Colors: Colors{
			PrimaryBackground:   "#1a1a1a",
			SecondaryBackground: "#2a2a2a",
			PrimaryText:         "#f5f5f5",
			SecondaryText:       "#c0c0c0",
			Accent1:             "#4f46e5",
			Accent2:             "#6366f1",
			Accent3:             "#818cf8",
		},
		Fonts: Fonts{
			Hero: "system-ui",
			Body: "system-ui",
		},
		VisualStyle: "minimal",
		StyleManifesto: "A neutral, high-contrast fallback style used when theme " +
			"generation could not be completed.",
		Fallback: true,
	}
}
