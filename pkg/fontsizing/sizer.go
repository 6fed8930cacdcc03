package fontsizing

import (
	"math"
	"strings"
)

// Result is what findOptimalSize returns: the chosen font size plus
// diagnostics about how the search arrived there.
type Result struct {
	FontSize       int
	Iterations     int
	EstimatedLines int
	Confidence     float64
}

// AdaptiveFontSizer binary-searches the largest font size at which text
// wraps to fit within a container, using a FontMetricsService to estimate
// wrapped layout at each candidate size instead of rendering.
type AdaptiveFontSizer struct {
	metrics FontMetricsService
}

// New builds an AdaptiveFontSizer backed by the given metrics service.
func New(metrics FontMetricsService) *AdaptiveFontSizer {
	return &AdaptiveFontSizer{metrics: metrics}
}

// NewDefault builds an AdaptiveFontSizer backed by CharacterAdvanceTable.
func NewDefault() *AdaptiveFontSizer {
	return New(NewCharacterAdvanceTable())
}

// FindOptimalSize returns the largest font size at which text, wrapped to
// width-2*paddingX, fits within height-2*paddingY using fontFamily's
// metrics. Role hints (title/body/caption) are never passed here — they
// only affect metadata recorded by the caller, never the search itself.
func (s *AdaptiveFontSizer) FindOptimalSize(text string, width, height float64, fontFamily string, paddingX, paddingY float64) Result {
	return s.findOptimalSize(text, width, height, fontFamily, "", paddingX, paddingY)
}

// FindOptimalSizeWeighted is FindOptimalSize with an explicit font weight
// hint (e.g. "bold") passed through to the metrics service.
func (s *AdaptiveFontSizer) FindOptimalSizeWeighted(text string, width, height float64, fontFamily, weight string, paddingX, paddingY float64) Result {
	return s.findOptimalSize(text, width, height, fontFamily, weight, paddingX, paddingY)
}

func (s *AdaptiveFontSizer) findOptimalSize(text string, width, height float64, fontFamily, weight string, paddingX, paddingY float64) Result {
	const sLow = 1
	sHigh := int(math.Max(width, height))
	if sHigh < sLow {
		sHigh = sLow
	}

	innerWidth := width - 2*paddingX
	innerHeight := height - 2*paddingY
	if innerWidth < 0 {
		innerWidth = 0
	}
	if innerHeight < 0 {
		innerHeight = 0
	}

	fitsAt := func(size int) (bool, int) {
		lines, maxLineWidth := s.wrap(text, fontFamily, weight, float64(size), innerWidth)
		lineHeight := s.metrics.LineHeight(fontFamily, weight, float64(size))
		totalHeight := float64(len(lines)) * lineHeight
		ok := totalHeight <= innerHeight && maxLineWidth <= innerWidth
		return ok, len(lines)
	}

	lo, hi := sLow, sHigh
	bestFit := -1
	bestLines := 0
	iterations := 0
	for lo <= hi {
		iterations++
		mid := (lo + hi) / 2
		ok, lines := fitsAt(mid)
		if ok {
			bestFit = mid
			bestLines = lines
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	found := bestFit != -1
	if !found {
		bestFit = sLow
		_, bestLines = fitsAt(sLow)
	}

	return Result{
		FontSize:       bestFit,
		Iterations:     iterations,
		EstimatedLines: bestLines,
		Confidence:     confidence(found, iterations, sLow, sHigh),
	}
}

// confidence scores how tightly the search bracketed the fitting boundary.
// The binary search invariant guarantees the fitting size and the nearest
// non-fitting size are always adjacent once a fit is found, so confidence
// in that case is scaled only by how close the search ran to its
// theoretical minimum number of iterations (log2 of the search range).
// When nothing in the range fits, confidence is scaled down the same way
// but capped below the found-a-fit floor.
func confidence(found bool, iterations, sLow, sHigh int) float64 {
	rangeSize := sHigh - sLow + 1
	ideal := math.Log2(float64(rangeSize))
	if ideal < 1 {
		ideal = 1
	}
	ratio := math.Min(float64(iterations)/ideal, 1.0)
	if found {
		return 0.75 + 0.25*ratio
	}
	return 0.75 * ratio
}

// wrap greedily word-wraps text to fit within maxWidth at the given font
// size, returning the resulting lines and the widest measured line.
func (s *AdaptiveFontSizer) wrap(text, family, weight string, size, maxWidth float64) ([]string, float64) {
	if text == "" {
		return []string{""}, 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}, 0
	}

	spaceWidth := s.measure(" ", family, weight, size)

	var lines []string
	var maxLineWidth float64
	var current strings.Builder
	var currentWidth float64

	flush := func() {
		line := current.String()
		lines = append(lines, line)
		if currentWidth > maxLineWidth {
			maxLineWidth = currentWidth
		}
		current.Reset()
		currentWidth = 0
	}

	for _, word := range words {
		wordWidth := s.measure(word, family, weight, size)
		candidateWidth := currentWidth
		if current.Len() > 0 {
			candidateWidth += spaceWidth
		}
		candidateWidth += wordWidth

		if current.Len() > 0 && candidateWidth > maxWidth {
			flush()
			current.WriteString(word)
			currentWidth = wordWidth
			continue
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
			currentWidth += spaceWidth
		}
		current.WriteString(word)
		currentWidth += wordWidth
	}
	if current.Len() > 0 || len(lines) == 0 {
		flush()
	}

	return lines, maxLineWidth
}

func (s *AdaptiveFontSizer) measure(text, family, weight string, size float64) float64 {
	var total float64
	for _, r := range text {
		total += s.metrics.Advance(family, weight, r, size)
	}
	return total
}
