package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestTable_WidthsFit(t *testing.T) {
	tb := newTable(0, column{header: "NAME"}, column{header: "N"})
	tb.addRow("uploads", "12345")
	got := tb.widths()
	if got[0] != 7 || got[1] != 5 {
		t.Errorf("widths = %v, want [7 5]", got)
	}
}

func TestTable_WidthsShrinkFlex(t *testing.T) {
	tb := newTable(20,
		column{header: "QUEUE", flex: true, min: 5},
		column{header: "PENDING"},
	)
	tb.addRow(strings.Repeat("q", 30), "1")

	w := tb.widths()
	if w[1] != 7 {
		t.Errorf("fixed column width = %d, want 7", w[1])
	}
	if total := w[0] + colGapWidth + w[1]; total != 20 {
		t.Errorf("total width = %d, want 20 (widths %v)", total, w)
	}
}

func TestTable_WidthsRespectMin(t *testing.T) {
	tb := newTable(5,
		column{header: "QUEUE", flex: true, min: 6},
		column{header: "PENDING"},
	)
	tb.addRow("long-queue-name", "1")
	w := tb.widths()
	if w[0] != 6 {
		t.Errorf("flex width = %d, want min 6", w[0])
	}
}

func TestTable_Render(t *testing.T) {
	tb := newTable(0, column{header: "KEY"}, column{header: "PENDING", right: true})
	tb.addRow("a", "1")
	tb.addRow("b", "22")

	lines := strings.Split(strings.TrimRight(ansi.Strip(tb.render(-1, 0)), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if lines[0] != "KEY  PENDING" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[3] != "b         22" {
		t.Errorf("row = %q, want right-aligned count", lines[3])
	}
}

func TestTable_RenderEmpty(t *testing.T) {
	tb := newTable(80, column{header: "KEY"})
	if got := ansi.Strip(tb.render(0, 10)); got != "  (empty)" {
		t.Errorf("render = %q", got)
	}
}

func TestTable_TruncatesCells(t *testing.T) {
	tb := newTable(0, column{header: "K"})
	got := tb.cell("abcdefghij", 6, false)
	if ansi.StringWidth(got) != 6 || !strings.HasSuffix(ansi.Strip(got), "...") {
		t.Errorf("cell = %q, want 6 wide with ellipsis", got)
	}
	if got := tb.cell("abcdef", 2, false); ansi.Strip(got) != "ab" {
		t.Errorf("narrow cell = %q, want ab", got)
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name                  string
		cursor, maxRows, rows int
		wantStart, wantEnd    int
	}{
		{"fits", 0, 10, 5, 0, 5},
		{"unlimited", 3, 0, 50, 0, 50},
		{"top", 0, 5, 10, 0, 4},
		{"bottom", 9, 5, 10, 6, 10},
		{"middle", 5, 5, 10, 4, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.cursor, tt.maxRows, tt.rows)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("window = [%d,%d), want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTable_ScrollHints(t *testing.T) {
	tb := newTable(0, column{header: "KEY"})
	for iter := 0; iter < 10; iter++ {
		tb.addRow("k")
	}
	out := ansi.Strip(tb.render(5, 5))
	if !strings.Contains(out, "↑ 4 more") || !strings.Contains(out, "↓ 3 more") {
		t.Errorf("render missing scroll hints:\n%s", out)
	}
}
