package monitor

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// setupRoutes registers all HTTP routes on the monitor's mux.
func (m *Monitor) setupRoutes() {
	// Health: no auth required
	m.mux.HandleFunc("GET /health", m.handleHealth)

	m.mux.HandleFunc("GET /api/v1/queues", m.requireAuth(m.handleListQueues))
	m.mux.HandleFunc("GET /api/v1/queues/{name}", m.requireAuth(m.handleGetQueue))
	m.mux.HandleFunc("GET /api/v1/queues/{name}/keys", m.requireAuth(m.handleListQueueKeys))
}

// response is the standard JSON envelope for successful responses.
type response struct {
	Data any   `json:"data"`
	Meta *meta `json:"meta,omitempty"`
}

// meta holds pagination metadata.
type meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// errorResponse is the standard JSON envelope for errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// pagination extracts page and limit from query parameters with defaults and bounds.
func pagination(r *http.Request) (page, limit int) {
	page = min(max(queryInt(r, "page", 1), 1), 10000)
	limit = min(max(queryInt(r, "limit", 50), 1), 500)
	return
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// validQueueName mirrors the name rule enforced by ajq.New.
var validQueueName = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

// validatePathParam writes a 400 and returns false when value is not a valid
// queue name.
func validatePathParam(w http.ResponseWriter, name, value string) bool {
	if !validQueueName.MatchString(value) {
		writeError(w, http.StatusBadRequest, name+" contains invalid characters", "BAD_REQUEST")
		return false
	}
	return true
}

func (m *Monitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	redisOK := true
	if err := m.rc.Ping(r.Context()); err != nil {
		status = "degraded"
		redisOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"redis":  redisOK,
		"uptime": time.Since(m.startedAt).Truncate(time.Second).String(),
	})
}
