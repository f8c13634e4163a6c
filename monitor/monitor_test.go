package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/benedict-erwin/ajq"
)

// --- Test helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRedisAddr() string {
	if addr := os.Getenv("AJQ_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// offlineMonitor returns a Monitor whose Redis is unreachable. Handlers that
// fail before touching Redis can be tested with it.
func offlineMonitor(t *testing.T, cfg Config) *Monitor {
	t.Helper()
	rc := ajq.NewRedisClient(ajq.WithRedisAddr("127.0.0.1:1"))
	m := New(rc, testLogger(), cfg)
	t.Cleanup(func() {
		m.limiter.close()
		rc.Close()
	})
	return m
}

func testMonitor(t *testing.T, cfg Config) (*Monitor, *ajq.RedisClient) {
	t.Helper()
	prefix := fmt.Sprintf("ajqtest:%s:%d:", t.Name(), time.Now().UnixNano())
	rc := ajq.NewRedisClient(ajq.WithRedisAddr(testRedisAddr()), ajq.WithPrefix(prefix))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr(), err)
	}

	m := New(rc, testLogger(), cfg)
	t.Cleanup(func() {
		ctx := context.Background()
		rdb := rc.Unwrap()
		iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			rdb.Del(ctx, iter.Val())
		}
		m.limiter.close()
		rc.Close()
	})
	return m, rc
}

type fixedStats ajq.Stats

func (f fixedStats) Stats() ajq.Stats { return ajq.Stats(f) }

func publish(t *testing.T, rc *ajq.RedisClient, s ajq.Stats) {
	t.Helper()
	if err := ajq.NewHeartbeat(rc, fixedStats(s)).Publish(context.Background()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func doRequest(m *Monitor, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	return w
}

func doRequestWithAPIKey(m *Monitor, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(apiKeyHeader, apiKey)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) *meta {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
		Meta *meta           `json:"meta"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	return resp.Meta
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return e
}

// --- Offline tests ---

func TestHealth_RedisDown(t *testing.T) {
	m := offlineMonitor(t, Config{})
	w := doRequest(m, "GET", "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "degraded" || body["redis"] != false {
		t.Errorf("body = %v, want degraded/false", body)
	}
}

func TestAuth(t *testing.T) {
	m := offlineMonitor(t, Config{
		AuthEnabled: true,
		APIKeys:     []APIKey{{Name: "ops", Key: "secret-key"}},
	})

	// An invalid queue name fails after auth but before Redis.
	const path = "/api/v1/queues/bad$name"

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"prefix of key", "secret", http.StatusUnauthorized},
		{"valid key", "secret-key", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequestWithAPIKey(m, "GET", path, tt.key)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	w := doRequest(m, "GET", "/api/v1/queues")
	if e := decodeError(t, w); e.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", e.Code)
	}
}

func TestAuth_Disabled(t *testing.T) {
	m := offlineMonitor(t, Config{})
	w := doRequest(m, "GET", "/api/v1/queues/bad$name/keys")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if e := decodeError(t, w); e.Code != "BAD_REQUEST" {
		t.Errorf("code = %q, want BAD_REQUEST", e.Code)
	}
}

func TestMatchAPIKey(t *testing.T) {
	m := &Monitor{cfg: Config{APIKeys: []APIKey{
		{Name: "first", Key: "aaa"},
		{Name: "second", Key: "bbb"},
	}}}
	tests := []struct {
		key  string
		want string
	}{
		{"aaa", "first"},
		{"bbb", "second"},
		{"ccc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := m.matchAPIKey(tt.key); got != tt.want {
			t.Errorf("matchAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	m := offlineMonitor(t, Config{RateLimit: 1}) // burst 2

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = doRequest(m, "GET", "/api/v1/queues/bad$").Code
	}
	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusBadRequest {
		t.Errorf("first two codes = %v, want 400s within burst", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third code = %d, want 429", codes[2])
	}

	// another client has its own bucket
	req := httptest.NewRequest("GET", "/api/v1/queues/bad$", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("other IP status = %d, want 400", w.Code)
	}
}

func TestRateLimit_HealthExempt(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.close()
	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, w.Code)
		}
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:80", "2001:db8::1"},
		{"no-port", "no-port"},
	}
	for _, tt := range tests {
		r := &http.Request{RemoteAddr: tt.remote}
		if got := extractIP(r); got != tt.want {
			t.Errorf("extractIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 50},
		{"?page=3&limit=10", 3, 10},
		{"?page=0&limit=0", 1, 1},
		{"?page=-5&limit=9999", 1, 500},
		{"?page=abc", 1, 50},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/x"+tt.query, nil)
		page, limit := pagination(r)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("pagination(%q) = %d,%d, want %d,%d", tt.query, page, limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := &ajq.Config{}
	cfg.Monitoring.API.Addr = ":9999"
	cfg.Monitoring.API.RateLimit = 7
	cfg.Monitoring.Auth.Enabled = true
	cfg.Monitoring.Auth.APIKeys = []ajq.APIKeyYAML{{Name: "n", Key: "k"}}

	mc := ConfigFrom(cfg)
	if mc.APIAddr != ":9999" || mc.RateLimit != 7 || !mc.AuthEnabled {
		t.Errorf("ConfigFrom = %+v", mc)
	}
	if len(mc.APIKeys) != 1 || mc.APIKeys[0] != (APIKey{Name: "n", Key: "k"}) {
		t.Errorf("APIKeys = %+v", mc.APIKeys)
	}

	m := offlineMonitor(t, Config{})
	if m.Addr() != defaultAddr {
		t.Errorf("Addr() = %q, want %q", m.Addr(), defaultAddr)
	}
}

// --- Redis-backed tests ---

func TestHealth_OK(t *testing.T) {
	m, _ := testMonitor(t, Config{})
	w := doRequest(m, "GET", "/health")
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["redis"] != true {
		t.Errorf("body = %v, want ok/true", body)
	}
}

func TestListQueues(t *testing.T) {
	m, rc := testMonitor(t, Config{})

	w := doRequest(m, "GET", "/api/v1/queues")
	var empty []queueInfo
	decodeData(t, w, &empty)
	if len(empty) != 0 {
		t.Errorf("queues = %+v, want none", empty)
	}

	publish(t, rc, ajq.Stats{Name: "b", Workers: 2, Pending: 4})
	publish(t, rc, ajq.Stats{Name: "a", Keyed: true, Workers: 1, Completed: 9})

	w = doRequest(m, "GET", "/api/v1/queues")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var queues []queueInfo
	decodeData(t, w, &queues)
	if len(queues) != 2 {
		t.Fatalf("len(queues) = %d, want 2", len(queues))
	}
	if queues[0].Name != "a" || !queues[0].Keyed || queues[0].Completed != 9 || !queues[0].Drained {
		t.Errorf("queues[0] = %+v", queues[0])
	}
	if queues[1].Name != "b" || queues[1].Pending != 4 || queues[1].Drained {
		t.Errorf("queues[1] = %+v", queues[1])
	}
	if queues[1].Status != "active" {
		t.Errorf("status = %q, want active", queues[1].Status)
	}
}

func TestGetQueue(t *testing.T) {
	m, rc := testMonitor(t, Config{})
	publish(t, rc, ajq.Stats{
		Name: "uploads", Keyed: true, Workers: 4, InProgress: 1,
		Keys: []ajq.KeyStats{{Key: "7", InProgress: 1}},
	})

	w := doRequest(m, "GET", "/api/v1/queues/uploads")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var qi queueInfo
	decodeData(t, w, &qi)
	if qi.Name != "uploads" || qi.Workers != 4 || qi.KeyCount != 1 {
		t.Errorf("queue = %+v", qi)
	}

	w = doRequest(m, "GET", "/api/v1/queues/missing")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing queue status = %d, want 404", w.Code)
	}
}

func TestListQueueKeys(t *testing.T) {
	m, rc := testMonitor(t, Config{})

	s := ajq.Stats{Name: "k", Keyed: true}
	for i := 0; i < 5; i++ {
		s.Keys = append(s.Keys, ajq.KeyStats{Key: fmt.Sprintf("key-%d", i), Pending: i})
	}
	publish(t, rc, s)

	w := doRequest(m, "GET", "/api/v1/queues/k/keys?page=2&limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var keys []ajq.KeyStats
	mt := decodeData(t, w, &keys)
	if mt == nil || mt.Total != 5 || mt.Page != 2 || mt.Limit != 2 {
		t.Errorf("meta = %+v, want page 2 limit 2 total 5", mt)
	}
	if len(keys) != 2 || keys[0].Key != "key-2" || keys[1].Pending != 3 {
		t.Errorf("keys = %+v", keys)
	}

	w = doRequest(m, "GET", "/api/v1/queues/k/keys?page=9")
	var none []ajq.KeyStats
	decodeData(t, w, &none)
	if len(none) != 0 {
		t.Errorf("page past end returned %d rows", len(none))
	}
}
