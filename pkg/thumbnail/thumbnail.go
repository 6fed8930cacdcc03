// Package thumbnail renders a small SVG preview of a generated slide:
// rectangles and text placeholders positioned per component, colored from
// the deck theme. It is a presentational convenience — rendering never
// fails slide generation, callers treat it as best-effort.
package thumbnail

import (
	"bytes"
	"fmt"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/nextslide/deckengine/pkg/models"
)

const (
	width  = 320
	height = 180

	maxLabelRunes = 28
)

// Render returns an SVG preview of slide scaled down from canvas to a fixed
// thumbnail size. An empty or zero-value canvas falls back to
// models.DefaultCanvas.
func Render(slide models.Slide, canvas models.Canvas) string {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = models.DefaultCanvas
	}
	scaleX := float64(width) / canvas.Width
	scaleY := float64(height) / canvas.Height

	buf := new(bytes.Buffer)
	out := svg.New(buf)
	out.Start(width, height)
	out.Rect(0, 0, width, height, "fill:#1a1a1a")

	components := orderedForPreview(slide.Components)
	for _, c := range components {
		drawComponent(out, c, scaleX, scaleY)
	}

	out.End()
	return buf.String()
}

// orderedForPreview returns a copy of components with Background first and
// everything else in top-to-bottom reading order, so later rects paint over
// the background rather than the other way around.
func orderedForPreview(components []models.Component) []models.Component {
	ordered := make([]models.Component, len(components))
	copy(ordered, components)
	sort.SliceStable(ordered, func(i, j int) bool {
		bi := ordered[i].Type == models.ComponentBackground
		bj := ordered[j].Type == models.ComponentBackground
		if bi != bj {
			return bi
		}
		return ordered[i].Position.Y < ordered[j].Position.Y
	})
	return ordered
}

func drawComponent(out *svg.SVG, c models.Component, scaleX, scaleY float64) {
	x := int(c.Position.X * scaleX)
	y := int(c.Position.Y * scaleY)
	w := maxInt(int(c.Width*scaleX), 1)
	h := maxInt(int(c.Height*scaleY), 1)

	switch c.Type {
	case models.ComponentBackground:
		out.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", colorProp(c, "#1a1a1a")))
	case models.ComponentTitle, models.ComponentHeading, models.ComponentTextBlock, models.ComponentTiptapTextBlock:
		out.Text(x+2, y+h/2, truncate(c.TextContent(), maxLabelRunes),
			fmt.Sprintf("font-size:%dpx;font-family:sans-serif;fill:%s", labelSize(c.Type), colorProp(c, "#f5f5f5")))
	case models.ComponentImage:
		out.Rect(x, y, w, h, "fill:#4a5568;opacity:0.6")
	case models.ComponentChart, models.ComponentTable:
		out.Rect(x, y, w, h, "fill:none;stroke:#718096;stroke-width:1;stroke-dasharray:2,2")
	default:
		out.Rect(x, y, w, h, fmt.Sprintf("fill:%s;opacity:0.8", colorProp(c, "#6366f1")))
	}
}

func colorProp(c models.Component, fallback string) string {
	if v, ok := c.Props["color"].(string); ok && v != "" {
		return v
	}
	return fallback
}

func labelSize(t models.ComponentType) int {
	if t == models.ComponentTitle {
		return 12
	}
	return 8
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
