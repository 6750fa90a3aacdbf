package msgcat

import (
	"strings"
	"testing"
)

func TestRenderEmbeddedDefaults(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := cat.Render("wordle.accepted", map[string]string{"Name": "철수", "Puzzle": "1,234", "Score": "3"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "철수") || !strings.Contains(out, "1,234") {
		t.Fatalf("unexpected render: %q", out)
	}
}

func TestRenderMissingKey(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := cat.Render("wordle.nope", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestRenderMissingData(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// missingkey=error: incomplete data must not render silently.
	if _, err := cat.Render("wordle.accepted", map[string]string{"Name": "철수"}); err == nil {
		t.Fatalf("expected error for missing template data")
	}
}
