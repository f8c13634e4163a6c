package tui

import (
	"fmt"

	"github.com/benedict-erwin/ajq"
)

// keysView lists the per-key counts of one keyed queue. The queue is picked
// with left/right among the keyed queues.
type keysView struct {
	queues   []string
	queueIdx int
	keys     []ajq.KeyStats
	cursor   int
	err      error
}

func (v *keysView) setQueues(queues []Queue) {
	cur := v.selectedQueue()
	v.queues = v.queues[:0]
	for _, q := range queues {
		if q.Keyed {
			v.queues = append(v.queues, q.Name)
		}
	}
	v.queueIdx = 0
	for i, name := range v.queues {
		if name == cur {
			v.queueIdx = i
		}
	}
}

func (v *keysView) selectedQueue() string {
	if v.queueIdx < 0 || v.queueIdx >= len(v.queues) {
		return ""
	}
	return v.queues[v.queueIdx]
}

func (v *keysView) selectQueue(name string) bool {
	for i, q := range v.queues {
		if q == name {
			v.queueIdx = i
			v.cursor = 0
			return true
		}
	}
	return false
}

func (v *keysView) cycle(delta int) {
	if len(v.queues) == 0 {
		return
	}
	v.queueIdx = (v.queueIdx + delta + len(v.queues)) % len(v.queues)
	v.cursor = 0
	v.keys = nil
}

func (v *keysView) header() string {
	if len(v.queues) == 0 {
		return mutedStyle.Render("no keyed queues")
	}
	return fmt.Sprintf("Queue: %s  %s",
		runningStyle.Render(v.selectedQueue()),
		mutedStyle.Render(fmt.Sprintf("(%d/%d)", v.queueIdx+1, len(v.queues))))
}

func (v *keysView) render(width, maxRows int) string {
	t := newTable(width,
		column{header: "KEY", flex: true, min: 6},
		column{header: "PENDING", right: true},
		column{header: "RUNNING", right: true},
	)
	for _, k := range v.keys {
		t.addRow(k.Key, styleCount(k.Pending, pendingStyle), styleCount(k.InProgress, runningStyle))
	}
	return t.render(v.cursor, maxRows)
}

func (v *keysView) clampCursor() {
	v.cursor = clamp(v.cursor, len(v.keys))
}

// RenderKeys renders per-key rows as a plain table of the given width, for
// non-interactive output.
func RenderKeys(keys []ajq.KeyStats, width int) string {
	v := keysView{keys: keys, cursor: -1}
	return v.render(width, 0)
}
