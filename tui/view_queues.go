package tui

import (
	"strconv"
	"time"

	"github.com/benedict-erwin/ajq"
)

type queuesView struct {
	queues []Queue
	cursor int
}

func (v *queuesView) render(width, maxRows int, now time.Time) string {
	return queuesTable(v.queues, width, now).render(v.cursor, maxRows)
}

func queuesTable(queues []Queue, width int, now time.Time) *table {
	t := newTable(width,
		column{header: "QUEUE", flex: true, min: 8},
		column{header: "STATE"},
		column{header: "KEYED"},
		column{header: "WORKERS", right: true},
		column{header: "BUSY", right: true},
		column{header: "PENDING", right: true},
		column{header: "RUNNING", right: true},
		column{header: "DONE", right: true},
		column{header: "CANCELLED", right: true},
		column{header: "PANICKED", right: true},
		column{header: "INSTANCE", flex: true, min: 4},
		column{header: "HEARTBEAT"},
	)
	for _, q := range queues {
		keyed := ""
		if q.Keyed {
			keyed = strconv.Itoa(q.KeyCount)
		}
		t.addRow(
			q.Name,
			styleStatus(q.Status, q.Drained),
			keyed,
			strconv.Itoa(q.Workers),
			strconv.Itoa(q.Busy),
			styleCount(q.Pending, pendingStyle),
			styleCount(q.InProgress, runningStyle),
			formatCount(q.Completed),
			styleCount(q.Cancelled, pendingStyle),
			styleCount(q.Panicked, panickedStyle),
			shortID(q.Instance),
			formatAge(q.LastHeartbeat, now),
		)
	}
	return t
}

func (v *queuesView) selected() (Queue, bool) {
	if v.cursor < 0 || v.cursor >= len(v.queues) {
		return Queue{}, false
	}
	return v.queues[v.cursor], true
}

func (v *queuesView) clampCursor() {
	v.cursor = clamp(v.cursor, len(v.queues))
}

// RenderStats renders published stats as a plain table of the given width,
// for non-interactive output.
func RenderStats(stats []ajq.PublishedStats, width int) string {
	queues := make([]Queue, len(stats))
	for i, ps := range stats {
		queues[i] = QueueFromStats(ps)
	}
	return queuesTable(queues, width, time.Now()).render(-1, 0)
}

// clamp keeps a cursor inside [0, n).
func clamp(cursor, n int) int {
	return max(min(cursor, n-1), 0)
}
