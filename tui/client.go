// Package tui provides a terminal UI for ajq queue stats served by the
// monitor API.
package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/benedict-erwin/ajq"
	"github.com/spf13/cast"
)

// Client is an HTTP client for the ajq monitoring API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// apiResponse is the standard JSON envelope from the monitor API.
type apiResponse struct {
	Data json.RawMessage `json:"data"`
}

// Queue is one row of GET /api/v1/queues.
type Queue struct {
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
	KeyCount      int       `json:"key_count"`
}

// QueueFromStats converts stats read straight from Redis to a Queue row.
func QueueFromStats(ps ajq.PublishedStats) Queue {
	return Queue{
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

// Health is the loosely typed body of GET /health.
type Health map[string]any

func (h Health) Status() string { return cast.ToString(h["status"]) }
func (h Health) RedisOK() bool  { return cast.ToBool(h["redis"]) }
func (h Health) Uptime() string { return cast.ToString(h["uptime"]) }

// maxKeysPage is the largest page the monitor serves.
const maxKeysPage = 500

// ListQueues fetches all queues.
func (c *Client) ListQueues() ([]Queue, error) {
	var queues []Queue
	if err := c.get("/api/v1/queues", &queues); err != nil {
		return nil, err
	}
	return queues, nil
}

// ListKeys fetches the first page of per-key rows for a queue.
func (c *Client) ListKeys(queue string) ([]ajq.KeyStats, error) {
	path := fmt.Sprintf("/api/v1/queues/%s/keys?limit=%d", url.PathEscape(queue), maxKeysPage)
	var keys []ajq.KeyStats
	if err := c.get(path, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Health checks API connectivity and returns the health body.
func (c *Client) Health() (Health, error) {
	req, err := c.newRequest("/health")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decoding health: %w", err)
	}
	return h, nil
}

func (c *Client) get(path string, result any) error {
	req, err := c.newRequest(path)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// API responses are wrapped in {"data": ...} envelope.
	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

func (c *Client) newRequest(path string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

// do sends req and turns non-200 responses into errors. The caller closes
// the body on success.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("unauthorized (check API key)")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited by monitor")
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return nil, fmt.Errorf("API error %d (failed to read body: %w)", resp.StatusCode, err)
	}
	return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
}
