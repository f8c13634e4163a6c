package monitor

import (
	"errors"
	"net/http"
	"time"

	"github.com/benedict-erwin/ajq"
)

// queueInfo is the JSON shape of one queue in list and detail responses.
type queueInfo struct {
	Name          string    `json:"name"`
	Instance      string    `json:"instance"`
	Status        string    `json:"status"`
	Keyed         bool      `json:"keyed"`
	Workers       int       `json:"workers"`
	Busy          int       `json:"busy"`
	Pending       int       `json:"pending"`
	InProgress    int       `json:"in_progress"`
	Submitted     uint64    `json:"submitted"`
	Completed     uint64    `json:"completed"`
	Cancelled     uint64    `json:"cancelled"`
	Panicked      uint64    `json:"panicked"`
	Drained       bool      `json:"drained"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	KeyCount      int       `json:"key_count,omitempty"`
}

func toQueueInfo(ps ajq.PublishedStats) queueInfo {
	return queueInfo{
		Name:          ps.Name,
		Instance:      ps.Instance,
		Status:        ps.Status,
		Keyed:         ps.Keyed,
		Workers:       ps.Workers,
		Busy:          ps.Busy,
		Pending:       ps.Pending,
		InProgress:    ps.InProgress,
		Submitted:     ps.Submitted,
		Completed:     ps.Completed,
		Cancelled:     ps.Cancelled,
		Panicked:      ps.Panicked,
		Drained:       ps.Drained(),
		LastHeartbeat: ps.LastHeartbeat,
		KeyCount:      len(ps.Keys),
	}
}

// handleListQueues returns every queue with a live heartbeat.
func (m *Monitor) handleListQueues(w http.ResponseWriter, r *http.Request) {
	stats, err := ajq.ReadStats(r.Context(), m.rc)
	if err != nil {
		m.logger.Error("listing queues", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list queues", "INTERNAL")
		return
	}

	results := make([]queueInfo, 0, len(stats))
	for _, ps := range stats {
		results = append(results, toQueueInfo(ps))
	}
	writeJSON(w, http.StatusOK, response{Data: results})
}

// handleGetQueue returns the summary of a single queue.
func (m *Monitor) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	ps, ok := m.readQueue(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, response{Data: toQueueInfo(*ps)})
}

// handleListQueueKeys returns the per-key rows of a keyed queue, paginated.
func (m *Monitor) handleListQueueKeys(w http.ResponseWriter, r *http.Request) {
	ps, ok := m.readQueue(w, r)
	if !ok {
		return
	}
	page, limit := pagination(r)

	total := len(ps.Keys)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	writeJSON(w, http.StatusOK, response{
		Data: ps.Keys[start:end:end],
		Meta: &meta{Page: page, Limit: limit, Total: total},
	})
}

// readQueue loads the queue named in the path. On failure it writes the
// error response and returns false.
func (m *Monitor) readQueue(w http.ResponseWriter, r *http.Request) (*ajq.PublishedStats, bool) {
	name := r.PathValue("name")
	if !validatePathParam(w, "queue name", name) {
		return nil, false
	}

	ps, err := ajq.ReadQueueStats(r.Context(), m.rc, name)
	if errors.Is(err, ajq.ErrStatsNotFound) {
		writeError(w, http.StatusNotFound, "queue not found", "NOT_FOUND")
		return nil, false
	}
	if err != nil {
		m.logger.Error("reading queue", "queue", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read queue", "INTERNAL")
		return nil, false
	}
	if ps.Keys == nil {
		ps.Keys = []ajq.KeyStats{}
	}
	return ps, true
}
