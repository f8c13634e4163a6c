package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// column describes one table column. Flexible columns give up width first
// when the terminal is narrow, but never below min.
type column struct {
	header string
	flex   bool
	min    int // 0 = header width
	right  bool
}

// table renders rows of styled cells into a width-constrained grid.
type table struct {
	cols     []column
	rows     [][]string
	natural  []int
	maxWidth int // 0 = unlimited
}

const (
	colGap      = "  "
	colGapWidth = len(colGap)
)

var (
	headerText     = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	separatorStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func newTable(maxWidth int, cols ...column) *table {
	t := &table{cols: cols, natural: make([]int, len(cols)), maxWidth: maxWidth}
	for i := range t.cols {
		w := ansi.StringWidth(t.cols[i].header)
		t.natural[i] = w
		if t.cols[i].min <= 0 {
			t.cols[i].min = w
		}
	}
	return t
}

func (t *table) addRow(cells ...string) {
	row := make([]string, len(t.cols))
	copy(row, cells)
	for i, c := range row {
		t.natural[i] = max(t.natural[i], ansi.StringWidth(c))
	}
	t.rows = append(t.rows, row)
}

// widths returns the column widths to render with. Content that fits is
// shown in full; otherwise the overflow is taken from flexible columns in
// proportion to how much each can give.
func (t *table) widths() []int {
	w := append([]int(nil), t.natural...)
	if t.maxWidth <= 0 {
		return w
	}

	total := colGapWidth * max(len(w)-1, 0)
	slack := 0
	for i, n := range w {
		total += n
		if t.cols[i].flex {
			slack += max(n-t.cols[i].min, 0)
		}
	}
	overflow := total - t.maxWidth
	if overflow <= 0 || slack == 0 {
		return w
	}
	overflow = min(overflow, slack)

	left := overflow
	for i, c := range t.cols {
		if !c.flex {
			continue
		}
		give := min(max(w[i]-c.min, 0)*overflow/slack, left)
		w[i] -= give
		left -= give
	}
	// integer division leaves a remainder; take it one column at a time
	for i := 0; left > 0; i = (i + 1) % len(w) {
		if t.cols[i].flex && w[i] > t.cols[i].min {
			w[i]--
			left--
		}
	}
	return w
}

// window returns the [start, end) range of rows to show so that cursor stays
// visible within maxRows lines, reserving lines for scroll hints.
func window(cursor, maxRows, total int) (start, end int) {
	if maxRows <= 0 || total <= maxRows {
		return 0, total
	}
	slots := max(maxRows-2, 1)
	start = max(cursor-slots/2, 0)
	end = min(start+slots, total)
	start = max(end-slots, 0)

	// a hint is not needed at an edge, so use that line for data
	switch {
	case start == 0:
		end = min(slots+1, total)
	case end == total:
		start = max(end-slots-1, 0)
	}
	return start, end
}

func (t *table) cell(s string, width int, right bool) string {
	if ansi.StringWidth(s) > width {
		tail := "..."
		if width <= len(tail) {
			tail = ""
		}
		s = ansi.Truncate(s, width, tail)
	}
	pad := strings.Repeat(" ", max(width-ansi.StringWidth(s), 0))
	if right {
		return pad + s
	}
	return s + pad
}

// render draws the table. The row at cursor is highlighted; pass -1 for no
// highlight. maxRows limits visible data rows (0 = all).
func (t *table) render(cursor, maxRows int) string {
	if len(t.rows) == 0 {
		return mutedStyle.Render("  (empty)")
	}

	w := t.widths()
	var b strings.Builder

	head := make([]string, len(t.cols))
	rule := make([]string, len(t.cols))
	for i, c := range t.cols {
		head[i] = headerText.Render(t.cell(c.header, w[i], c.right))
		rule[i] = separatorStyle.Render(strings.Repeat("─", w[i]))
	}
	b.WriteString(strings.Join(head, colGap) + "\n")
	b.WriteString(strings.Join(rule, colGap) + "\n")

	start, end := window(cursor, maxRows, len(t.rows))
	if start > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ↑ %d more", start)) + "\n")
	}
	line := make([]string, len(t.cols))
	for ri := start; ri < end; ri++ {
		for i, c := range t.rows[ri] {
			line[i] = t.cell(c, w[i], t.cols[i].right)
		}
		s := strings.Join(line, colGap)
		if ri == cursor {
			s = selectedRow.Render(s)
		}
		b.WriteString(s + "\n")
	}
	if end < len(t.rows) {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ↓ %d more", len(t.rows)-end)) + "\n")
	}
	return b.String()
}
