package tui

import (
	"strings"
	"testing"
)

func TestRenderMarkdown_CachesRendererPerWidth(t *testing.T) {
	t.Setenv("MENUBUILDER_TUI_MD_STYLE", "notty")

	out := renderMarkdown("# Main\n\n- [Home](/)\n", 40)
	if !strings.Contains(out, "Main") || !strings.Contains(out, "Home") {
		t.Fatalf("expected rendered heading and link text, got:\n%s", out)
	}

	mdRendererMu.Lock()
	_, ok := mdRenderers["notty:40"]
	mdRendererMu.Unlock()
	if !ok {
		t.Fatalf("expected cached renderer for notty:40")
	}

	if got := renderMarkdown("   ", 40); got != "" {
		t.Fatalf("expected empty output for blank input, got %q", got)
	}
}
