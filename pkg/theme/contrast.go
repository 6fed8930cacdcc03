package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// minAAContrast is the WCAG AA minimum contrast ratio for normal-size
// text against its background.
const minAAContrast = 4.5

// hexToRGB parses a "#rrggbb" color into its 0-255 components. An
// unparseable color falls back to mid-gray, matching the defensive
// behavior of a readability check that must never itself fail theme
// generation.
func hexToRGB(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 128, 128, 128
	}
	parse := func(s string) int {
		v, err := strconv.ParseInt(s, 16, 32)
		if err != nil {
			return 128
		}
		return int(v)
	}
	return parse(hex[0:2]), parse(hex[2:4]), parse(hex[4:6])
}

// relativeLuminance computes a color's WCAG relative luminance.
func relativeLuminance(r, g, b int) float64 {
	channel := func(c int) float64 {
		v := float64(c) / 255.0
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*channel(r) + 0.7152*channel(g) + 0.0722*channel(b)
}

// ContrastRatio computes the WCAG contrast ratio between two hex colors.
func ContrastRatio(hex1, hex2 string) float64 {
	r1, g1, b1 := hexToRGB(hex1)
	r2, g2, b2 := hexToRGB(hex2)

	lum1 := relativeLuminance(r1, g1, b1)
	lum2 := relativeLuminance(r2, g2, b2)
	if lum1 < lum2 {
		lum1, lum2 = lum2, lum1
	}
	return (lum1 + 0.05) / (lum2 + 0.05)
}

// PassesAA reports whether two colors meet the WCAG AA contrast minimum
// for normal text (4.5:1).
func PassesAA(hex1, hex2 string) bool {
	return ContrastRatio(hex1, hex2) >= minAAContrast
}

// checkPaletteContrast flags a palette whose primary text color does not
// meet WCAG AA contrast against its primary background. It never fails
// theme generation — only the palette's ContrastWarning flag is set, and
// the reason is returned for logging.
func checkPaletteContrast(primaryText, primaryBackground string) (warn bool, reason string) {
	ratio := ContrastRatio(primaryText, primaryBackground)
	if ratio >= minAAContrast {
		return false, ""
	}
	return true, fmt.Sprintf("primary text/background contrast %.2f:1 is below the WCAG AA minimum of %.1f:1", ratio, minAAContrast)
}
