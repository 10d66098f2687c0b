package tuicore

import (
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorDepth ranks the color resolution a terminal can accept, ordered
// so a plain numeric comparison tells you whether one depth subsumes
// another.
type ColorDepth uint8

const (
	ColorMono ColorDepth = iota
	Color16
	Color256
	ColorTrueColor
)

// CapabilityProfile describes what a target terminal can render. The
// Presenter consults it to decide how to encode color and which
// extended SGR/OSC features are safe to emit; attributes a profile
// cannot express are dropped, never substituted.
type CapabilityProfile struct {
	Depth         ColorDepth
	Italic        bool
	Strikethrough bool
	Hyperlinks    bool
	Sixel         bool
	Degraded      bool // ASCII-only fallback: no SGR, no box-drawing
}

// DetectCapabilities inspects the process environment the way a
// terminal program conventionally does: a non-empty NO_COLOR disables
// color entirely (Depth becomes ColorMono; plain attributes such as
// bold are still emitted), an empty NO_COLOR counts as unset, COLORTERM
// of "truecolor"/"24bit" signals full RGB, and TERM's suffix narrows
// the rest.
func DetectCapabilities() CapabilityProfile {
	term := os.Getenv("TERM")
	colorterm := os.Getenv("COLORTERM")

	profile := CapabilityProfile{Depth: Color16}

	if term == "" || term == "dumb" {
		return CapabilityProfile{Depth: ColorMono, Degraded: true}
	}

	switch {
	case colorterm == "truecolor" || colorterm == "24bit":
		profile.Depth = ColorTrueColor
	case strings.Contains(term, "256color"):
		profile.Depth = Color256
	default:
		profile.Depth = Color16
	}

	if os.Getenv("NO_COLOR") != "" {
		profile.Depth = ColorMono
	}

	profile.Italic = !strings.HasPrefix(term, "linux")
	profile.Strikethrough = strings.Contains(term, "xterm") || strings.Contains(term, "256color") || profile.Depth == ColorTrueColor
	profile.Hyperlinks = strings.Contains(term, "xterm") || colorterm != ""
	profile.Sixel = strings.Contains(term, "sixel")

	return profile
}

// palette16 is the classic 16-color ANSI table in RGB, used both to down
// convert truecolor/256 styles for a Color16 profile and as the
// candidate set NearestColor16 searches for the closest perceptual match.
var palette16 = [16]Color{
	RGB(0, 0, 0), RGB(205, 0, 0), RGB(0, 205, 0), RGB(205, 205, 0),
	RGB(0, 0, 238), RGB(205, 0, 205), RGB(0, 205, 205), RGB(229, 229, 229),
	RGB(127, 127, 127), RGB(255, 0, 0), RGB(0, 255, 0), RGB(255, 255, 0),
	RGB(92, 92, 255), RGB(255, 0, 255), RGB(0, 255, 255), RGB(255, 255, 255),
}

// NearestColor16 returns the index (0-15) of the palette16 entry
// perceptually closest to c, using CIE94 distance in Lab space rather
// than naive RGB Euclidean distance, which systematically picks
// the wrong neighbor for colors human vision treats as close (e.g. dark
// blues against black). The search is a pure function of c over a
// 16-entry table; it keeps no state between calls.
func NearestColor16(c Color) int {
	r, g, b, _ := c.RGBA8()
	target := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}

	best := 0
	bestDist := -1.0
	for i, p := range palette16 {
		pr, pg, pb, _ := p.RGBA8()
		cand := colorful.Color{R: float64(pr) / 255, G: float64(pg) / 255, B: float64(pb) / 255}
		d := target.DistanceCIE94(cand)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// DowngradeColor maps c to whatever depth allows, returning the color
// itself unchanged for ColorTrueColor and Color256 (the presenter's own
// 256-cube quantization handles that case without perceptual search;
// it is a direct formula, not a nearest-neighbor search).
func DowngradeColor(c Color, depth ColorDepth) Color {
	if depth == ColorTrueColor || c.IsTransparent() {
		return c
	}
	if depth == ColorMono {
		return c
	}
	if depth == Color16 {
		return palette16[NearestColor16(c)]
	}
	return c
}
