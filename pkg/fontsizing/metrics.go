// Package fontsizing implements the character-advance font metrics model
// and the binary-search AdaptiveFontSizer that ComponentValidator runs
// against text-bearing components.
package fontsizing

import "unicode"

// FontMetricsService estimates glyph advance widths and line heights for a
// font family/weight without ever rendering a glyph, giving callers an
// approximation good enough to drive the binary search, not pixel-exact
// typography.
type FontMetricsService interface {
	// Advance returns the horizontal space, in the same units as size,
	// that rune r occupies at the given font size.
	Advance(family, weight string, r rune, size float64) float64
	// LineHeight returns the vertical space one line occupies at the
	// given font size.
	LineHeight(family, weight string, size float64) float64
}

// familyRatio is the average glyph-width-to-em-size ratio for a handful of
// common font stacks. Unknown families fall back to defaultRatio.
var familyRatio = map[string]float64{
	"system-ui":        0.52,
	"Georgia":          0.56,
	"Helvetica":        0.50,
	"Helvetica Neue":   0.50,
	"Arial":            0.52,
	"Times New Roman":  0.49,
	"Courier New":      0.60,
	"Inter":            0.53,
}

const defaultRatio = 0.55

// CharacterAdvanceTable is the default FontMetricsService: a per-family
// average advance ratio, nudged per-rune for case and whitespace, rather
// than a real per-glyph metrics table.
type CharacterAdvanceTable struct{}

// NewCharacterAdvanceTable builds the default metrics service.
func NewCharacterAdvanceTable() *CharacterAdvanceTable {
	return &CharacterAdvanceTable{}
}

func ratioFor(family string) float64 {
	if r, ok := familyRatio[family]; ok {
		return r
	}
	return defaultRatio
}

// Advance implements FontMetricsService.
func (t *CharacterAdvanceTable) Advance(family, weight string, r rune, size float64) float64 {
	ratio := ratioFor(family)
	switch {
	case unicode.IsSpace(r):
		ratio *= 0.6
	case unicode.IsUpper(r):
		ratio *= 1.12
	case unicode.IsDigit(r):
		ratio *= 1.0
	case unicode.IsPunct(r):
		ratio *= 0.45
	}
	if weight == "bold" || weight == "700" || weight == "600" {
		ratio *= 1.08
	}
	return ratio * size
}

// LineHeight implements FontMetricsService. 1.2x the font size is the
// common default line-height multiplier across UI and print typography.
func (t *CharacterAdvanceTable) LineHeight(family, weight string, size float64) float64 {
	return size * 1.2
}
