package tui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded","redis":false,"uptime":"3s"}`))
	})
	mux.HandleFunc("GET /api/v1/queues", func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("X-API-Key") != apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[{"name":"uploads","status":"active","keyed":true,"workers":4,"pending":2,"completed":10,"key_count":1}]}`))
	})
	mux.HandleFunc("GET /api/v1/queues/{name}/keys", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "uploads" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"queue not found","code":"NOT_FOUND"}`))
			return
		}
		if r.URL.Query().Get("limit") != "500" {
			t.Errorf("limit = %q, want 500", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`{"data":[{"key":"42","pending":2,"in_progress":1}],"meta":{"page":1,"limit":500,"total":1}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListQueues(t *testing.T) {
	srv := testServer(t, "k")
	c := NewClient(srv.URL, "k")

	queues, err := c.ListQueues()
	if err != nil {
		t.Fatalf("ListQueues: %v", err)
	}
	if len(queues) != 1 {
		t.Fatalf("len(queues) = %d, want 1", len(queues))
	}
	q := queues[0]
	if q.Name != "uploads" || !q.Keyed || q.Workers != 4 || q.Pending != 2 || q.Completed != 10 || q.KeyCount != 1 {
		t.Errorf("queue = %+v", q)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	srv := testServer(t, "k")
	c := NewClient(srv.URL, "wrong")
	_, err := c.ListQueues()
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Errorf("error = %v, want unauthorized", err)
	}
}

func TestClient_ListKeys(t *testing.T) {
	srv := testServer(t, "")
	c := NewClient(srv.URL, "")

	keys, err := c.ListKeys("uploads")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 1 || keys[0].Key != "42" || keys[0].Pending != 2 || keys[0].InProgress != 1 {
		t.Errorf("keys = %+v", keys)
	}

	_, err = c.ListKeys("ghost")
	if err == nil || !strings.Contains(err.Error(), "API error 404") {
		t.Errorf("error = %v, want API error 404", err)
	}
}

func TestClient_Health(t *testing.T) {
	srv := testServer(t, "")
	h, err := NewClient(srv.URL, "").Health()
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status() != "degraded" || h.RedisOK() || h.Uptime() != "3s" {
		t.Errorf("health = %v", h)
	}
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	if _, err := c.ListQueues(); err == nil {
		t.Error("ListQueues on closed port returned nil error")
	}
}

func TestHealth_LooseTypes(t *testing.T) {
	h := Health{"status": "ok", "redis": "true", "uptime": 12}
	if !h.RedisOK() {
		t.Error(`RedisOK() = false for "true"`)
	}
	if h.Uptime() != "12" {
		t.Errorf("Uptime() = %q, want 12", h.Uptime())
	}
	if (Health{}).Status() != "" {
		t.Error("empty Health should have empty status")
	}
}
