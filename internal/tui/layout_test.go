package tui

import (
	"strings"
	"testing"
)

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name           string
		width          int
		height         int
		viewportWidth  int
		viewportHeight int
	}{
		{name: "narrow", width: 80, height: 24, viewportWidth: 76, viewportHeight: 14},
		{name: "wide", width: 200, height: 40, viewportWidth: 196, viewportHeight: 30},
		{name: "tiny", width: 30, height: 10, viewportWidth: 40, viewportHeight: 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height)
			if layout.viewportWidth != tc.viewportWidth {
				t.Fatalf("viewport width mismatch: got %d want %d", layout.viewportWidth, tc.viewportWidth)
			}
			if layout.viewportHeight != tc.viewportHeight {
				t.Fatalf("viewport height mismatch: got %d want %d", layout.viewportHeight, tc.viewportHeight)
			}
		})
	}
}

func TestDisplayContentAnchors(t *testing.T) {
	m := newTestModel(t)
	loadFixture(t, m)
	view := m.buildDisplayContent()
	if view.anchors[anchorOutput] != 0 {
		t.Fatalf("output should lead the content, got line %d", view.anchors[anchorOutput])
	}
	if !(view.anchors[anchorPage] < view.anchors[anchorGuide]) {
		t.Fatalf("page preview should precede the plan: %v", view.anchors)
	}
	lines := strings.Split(view.content, "\n")
	if got := lines[view.anchors[anchorPage]]; !strings.Contains(got, "Page 1 of 2") {
		t.Fatalf("page anchor points at %q", got)
	}
}

func TestPageTurnStaysInRange(t *testing.T) {
	m := newTestModel(t)
	loadFixture(t, m)
	press(m, "[")
	if m.page != 1 {
		t.Fatalf("page = %d, want 1", m.page)
	}
	press(m, "]", "]")
	if m.page != 2 {
		t.Fatalf("page = %d, want 2", m.page)
	}
}
