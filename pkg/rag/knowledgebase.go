package rag

import "github.com/nextslide/deckengine/pkg/models"

// signature buckets a slide outline into one of a small number of shapes
// the knowledge base has tailored guidance for.
type signature string

const (
	sigStandard   signature = "standard"
	sigComparison signature = "comparison"
	sigChart      signature = "chart"
	sigTable      signature = "table"
	sigMedia      signature = "media"
)

func signatureFor(s models.SlideOutline) signature {
	switch {
	case s.Comparison:
		return sigComparison
	case s.HasChartData():
		return sigChart
	case s.HasTabularData():
		return sigTable
	case len(s.TaggedMedia) > 0:
		return sigMedia
	default:
		return sigStandard
	}
}

// entry is one signature's static design guidance.
type entry struct {
	PredictedComponents []models.ComponentType
	LayoutHints         []string
	DesignGuidelines    []string
}

// baseKnowledgeBase is the compact, compiled-in design knowledge base.
// Content is distilled from a production deck generator's prompt-embedded
// layout rules (character-based text sizing bands, component gap/edge
// margins, chart positioning, shapes-with-text guidance).
var baseKnowledgeBase = map[signature]entry{
	sigStandard: {
		PredictedComponents: []models.ComponentType{
			models.ComponentBackground, models.ComponentTitle, models.ComponentTextBlock,
		},
		LayoutHints: []string{
			"title anchored near the top third",
			"body content fills the remaining canvas with 80px edge margins",
		},
		DesignGuidelines: []string{
			"minimum 40px gap between all components",
			"text must stay at least 80px from any canvas edge",
		},
	},
	sigComparison: {
		PredictedComponents: []models.ComponentType{
			models.ComponentBackground, models.ComponentTitle, models.ComponentTextBlock, models.ComponentShape,
		},
		LayoutHints: []string{
			"split the canvas into two halves at x=960 with a visible divider",
			"mirror spacing and alignment between the two sides",
		},
		DesignGuidelines: []string{
			"minimum 40px gap between all components",
			"60px gap around the central divider",
		},
	},
	sigChart: {
		PredictedComponents: []models.ComponentType{
			models.ComponentBackground, models.ComponentTitle, models.ComponentChart,
		},
		LayoutHints: []string{
			"chart occupies either the left half (x=80) or right half (x=960), never centered",
			"chart width approximately 880px",
		},
		DesignGuidelines: []string{
			"legends off for bar, column, and pie charts",
			"legends shown only for multi-series line charts",
			"60px gap between the chart and any neighboring component",
		},
	},
	sigTable: {
		PredictedComponents: []models.ComponentType{
			models.ComponentBackground, models.ComponentTitle, models.ComponentTable,
		},
		LayoutHints: []string{
			"table centered with generous column padding",
		},
		DesignGuidelines: []string{
			"minimum 40px gap between the table and surrounding components",
		},
	},
	sigMedia: {
		PredictedComponents: []models.ComponentType{
			models.ComponentBackground, models.ComponentTitle, models.ComponentImage, models.ComponentTextBlock,
		},
		LayoutHints: []string{
			"hero images at least 1600x900, feature images at least 800x600",
			"captions placed directly beneath their image",
		},
		DesignGuidelines: []string{
			"images may bleed to the canvas edge; text must not",
		},
	},
}

// criticalRules are signature-independent rules surfaced for every slide,
// the Go equivalent of the Python knowledge base's "critical_rules_summary"
// quick-access section.
var criticalRules = []string{
	"character-based text sizing: 1-10 chars=320-480pt, 11-20=240-360pt, 21-40=180-240pt, 41-80=120-160pt, 80+=48-80pt",
	"single-line height = fontSize x 1.2; multi-line height = fontSize x lines x 1.3, plus a 10-20% buffer",
	"shapes carrying text use a single TiptapTextBlock with a background color rather than a separate shape and text pair",
}
