package tui

import "testing"

func TestGlyphs_FromEnv(t *testing.T) {
	t.Setenv(envGlyphs, "")
	setGlyphs(glyphSetUnicode)
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetUnicode {
		t.Fatalf("expected unicode glyphs by default; got %v", got)
	}

	t.Setenv(envGlyphs, "ascii")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected ascii glyphs; got %v", got)
	}
	if glyphTwistyCollapsed() != ">" || glyphArrow() != "->" {
		t.Fatalf("expected ascii twisty and arrow")
	}

	// Unknown values should be ignored (keep current).
	t.Setenv(envGlyphs, "bogus")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected unknown to be ignored; got %v", got)
	}

	setGlyphs(glyphSetUnicode)
}
