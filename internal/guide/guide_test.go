package guide

import (
	"strings"
	"testing"
)

func TestBuildPersonalizesPlan(t *testing.T) {
	steps := Build(Metadata{Title: "cells.pdf", Pages: 12, Chars: 2000, LongThreshold: 5000})
	if len(steps) != 5 {
		t.Fatalf("expected five steps, got %d", len(steps))
	}
	if !strings.Contains(steps[0].Description, "cells.pdf (12 pages)") {
		t.Fatalf("expected title in skim step, got %q", steps[0].Description)
	}
	if !strings.Contains(steps[2].Description, "comprehensive summary") {
		t.Fatalf("short documents should go straight to a summary: %q", steps[2].Description)
	}
}

func TestBuildSuggestsVariantForLongDocuments(t *testing.T) {
	steps := Build(Metadata{Chars: 9000, LongThreshold: 5000})
	if !strings.Contains(steps[0].Description, "this document") {
		t.Fatalf("expected fallback title, got %q", steps[0].Description)
	}
	if !strings.Contains(steps[2].Description, "pick a variant") {
		t.Fatalf("expected variant hint, got %q", steps[2].Description)
	}
}
