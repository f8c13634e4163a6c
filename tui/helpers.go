package tui

import (
	"fmt"
	"strconv"
	"time"
)

// formatAge formats the time since t, e.g. "3s ago".
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < 0:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// formatCount renders large counters compactly: 999, 1.2k, 3.4M.
func formatCount(n uint64) string {
	switch {
	case n < 10_000:
		return strconv.FormatUint(n, 10)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fk", float64(n)/1e3)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	}
}

// shortID shortens an instance UUID to its first block.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
