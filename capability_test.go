package tuicore

import "testing"

func TestDetectCapabilitiesDumbTerminal(t *testing.T) {
	t.Setenv("TERM", "dumb")
	t.Setenv("COLORTERM", "")
	profile := DetectCapabilities()
	if !profile.Degraded {
		t.Error("TERM=dumb should produce a degraded profile")
	}
	if profile.Depth != ColorMono {
		t.Errorf("Depth = %v, want ColorMono", profile.Depth)
	}
}

func TestDetectCapabilitiesTrueColor(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("COLORTERM", "truecolor")
	t.Setenv("NO_COLOR", "")
	profile := DetectCapabilities()
	if profile.Depth != ColorTrueColor {
		t.Errorf("Depth = %v, want ColorTrueColor", profile.Depth)
	}
}

func TestDetectCapabilities256Color(t *testing.T) {
	t.Setenv("TERM", "screen-256color")
	t.Setenv("COLORTERM", "")
	profile := DetectCapabilities()
	if profile.Depth != Color256 {
		t.Errorf("Depth = %v, want Color256", profile.Depth)
	}
}

func TestDetectCapabilitiesNoColorOverridesDepth(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("COLORTERM", "truecolor")
	t.Setenv("NO_COLOR", "1")
	profile := DetectCapabilities()
	if profile.Depth != ColorMono {
		t.Errorf("NO_COLOR set should force ColorMono, got %v", profile.Depth)
	}
}

func TestNearestColor16MatchesExactPaletteEntries(t *testing.T) {
	for i, c := range palette16 {
		if got := NearestColor16(c); got != i {
			t.Errorf("NearestColor16(palette16[%d]) = %d, want %d", i, got, i)
		}
	}
}

func TestNearestColor16Deterministic(t *testing.T) {
	c := RGB(12, 34, 56)
	first := NearestColor16(c)
	second := NearestColor16(c)
	if first != second {
		t.Errorf("NearestColor16 should be deterministic across calls: %d vs %d", first, second)
	}
}

func TestDowngradeColorTrueColorPassesThrough(t *testing.T) {
	c := RGB(17, 200, 99)
	if got := DowngradeColor(c, ColorTrueColor); got != c {
		t.Errorf("DowngradeColor at ColorTrueColor should pass through, got %v", got)
	}
}

func TestDowngradeColorTransparentPassesThrough(t *testing.T) {
	if got := DowngradeColor(Transparent, Color16); got != Transparent {
		t.Errorf("DowngradeColor(Transparent) = %v, want Transparent", got)
	}
}

func TestDowngradeColor16SnapsToPalette(t *testing.T) {
	near := RGB(204, 1, 1) // close to palette Red (205,0,0)
	got := DowngradeColor(near, Color16)
	if got != Red {
		t.Errorf("DowngradeColor(%v, Color16) = %v, want Red", near, got)
	}
}
