package ajq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrStatsNotFound is returned when no stats have been published for a queue.
var ErrStatsNotFound = errors.New("ajq: queue stats not found")

// Heartbeat periodically publishes the Stats of a queue to Redis so that
// the monitor API, the TUI and `ajq stats` can show them. Only counters are
// published; queued jobs themselves never leave the process.
//
// Redis layout, relative to the client prefix:
//
//	queues                 set of queue names
//	queue:<name>           hash of summary counters
//	queue:<name>:keys      hash of key -> {"pending":n,"in_progress":n}
type Heartbeat struct {
	rc       *RedisClient
	source   StatsSource
	interval time.Duration
	instance string
	logger   *slog.Logger
}

// HeartbeatOption configures a Heartbeat.
type HeartbeatOption func(*Heartbeat)

// WithHeartbeatInterval sets the publish interval. Defaults to 5s.
func WithHeartbeatInterval(d time.Duration) HeartbeatOption {
	return func(h *Heartbeat) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithHeartbeatLogger sets the logger. Defaults to slog.Default().
func WithHeartbeatLogger(l *slog.Logger) HeartbeatOption {
	return func(h *Heartbeat) { h.logger = l }
}

// NewHeartbeat creates a Heartbeat for source. Each Heartbeat gets a random
// instance ID so that restarts are visible to readers.
func NewHeartbeat(rc *RedisClient, source StatsSource, opts ...HeartbeatOption) *Heartbeat {
	h := &Heartbeat{
		rc:       rc,
		source:   source,
		interval: defaultHeartbeatInterval,
		instance: uuid.NewString(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "heartbeat")
	return h
}

// Instance returns the instance ID written with every heartbeat.
func (h *Heartbeat) Instance() string {
	return h.instance
}

// Run publishes immediately and then every interval until ctx is done. A
// final heartbeat with status "stopped" is written on the way out.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Debug("heartbeat started", "interval", h.interval)
	defer h.logger.Debug("heartbeat stopped")

	h.publishLogged(ctx, statusActive)
	for {
		select {
		case <-ctx.Done():
			// ctx is already done; use a short-lived context for the last write.
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			h.publishLogged(stopCtx, statusStopped)
			cancel()
			return
		case <-ticker.C:
			h.publishLogged(ctx, statusActive)
		}
	}
}

const (
	statusActive  = "active"
	statusStopped = "stopped"
)

func (h *Heartbeat) publishLogged(ctx context.Context, status string) {
	if err := h.publish(ctx, status); err != nil && ctx.Err() == nil {
		h.logger.Error("heartbeat update failed", "error", err)
	}
}

// Publish writes one heartbeat.
func (h *Heartbeat) Publish(ctx context.Context) error {
	return h.publish(ctx, statusActive)
}

func (h *Heartbeat) publish(ctx context.Context, status string) error {
	s := h.source.Stats()
	queueKey := h.rc.Key("queue", s.Name)
	keysKey := h.rc.Key("queue", s.Name, "keys")
	ttl := 3 * h.interval

	pipe := h.rc.rdb.TxPipeline()
	pipe.SAdd(ctx, h.rc.Key("queues"), s.Name)
	pipe.HSet(ctx, queueKey,
		"name", s.Name,
		"instance", h.instance,
		"status", status,
		"keyed", s.Keyed,
		"workers", s.Workers,
		"busy", s.Busy,
		"pending", s.Pending,
		"in_progress", s.InProgress,
		"submitted", s.Submitted,
		"completed", s.Completed,
		"cancelled", s.Cancelled,
		"panicked", s.Panicked,
		"last_heartbeat", time.Now().UnixNano(),
	)
	pipe.Expire(ctx, queueKey, ttl)

	pipe.Del(ctx, keysKey)
	if len(s.Keys) > 0 {
		fields := make([]any, 0, 2*len(s.Keys))
		for _, k := range s.Keys {
			v, err := json.Marshal(keyCounts{Pending: k.Pending, InProgress: k.InProgress})
			if err != nil {
				return fmt.Errorf("encoding key stats: %w", err)
			}
			fields = append(fields, k.Key, string(v))
		}
		pipe.HSet(ctx, keysKey, fields...)
		pipe.Expire(ctx, keysKey, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publishing heartbeat for %q: %w", s.Name, err)
	}
	return nil
}

type keyCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
}

// PublishedStats is a Stats snapshot read back from Redis.
type PublishedStats struct {
	Stats
	Instance      string    `json:"instance"`
	Status        string    `json:"status"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// ListQueueNames returns the names of all queues that ever published stats,
// sorted. Names whose hash has expired are included; ReadQueueStats reports
// them as ErrStatsNotFound.
func ListQueueNames(ctx context.Context, rc *RedisClient) ([]string, error) {
	names, err := rc.rdb.SMembers(ctx, rc.Key("queues")).Result()
	if err != nil {
		return nil, fmt.Errorf("listing queues: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// ReadStats returns the published stats of every live queue, sorted by name.
// Per-key rows are not loaded; use ReadQueueStats for those.
func ReadStats(ctx context.Context, rc *RedisClient) ([]PublishedStats, error) {
	names, err := ListQueueNames(ctx, rc)
	if err != nil {
		return nil, err
	}

	pipe := rc.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, rc.Key("queue", name))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading queue stats: %w", err)
	}

	out := make([]PublishedStats, 0, len(names))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // expired
		}
		out = append(out, statsFromMap(fields))
	}
	return out, nil
}

// ReadQueueStats returns the published stats of one queue including its
// per-key rows.
func ReadQueueStats(ctx context.Context, rc *RedisClient, name string) (*PublishedStats, error) {
	pipe := rc.rdb.Pipeline()
	summary := pipe.HGetAll(ctx, rc.Key("queue", name))
	keys := pipe.HGetAll(ctx, rc.Key("queue", name, "keys"))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading stats for %q: %w", name, err)
	}

	fields := summary.Val()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStatsNotFound, name)
	}
	ps := statsFromMap(fields)

	for key, raw := range keys.Val() {
		var kc keyCounts
		if err := json.Unmarshal([]byte(raw), &kc); err != nil {
			return nil, fmt.Errorf("decoding stats for key %q: %w", key, err)
		}
		ps.Keys = append(ps.Keys, KeyStats{Key: key, Pending: kc.Pending, InProgress: kc.InProgress})
	}
	sort.Slice(ps.Keys, func(i, j int) bool { return ps.Keys[i].Key < ps.Keys[j].Key })
	return &ps, nil
}

// statsFromMap converts a queue hash to PublishedStats. Missing or malformed
// numbers read as zero.
func statsFromMap(m map[string]string) PublishedStats {
	ps := PublishedStats{
		Stats: Stats{
			Name:       m["name"],
			Keyed:      m["keyed"] == "1" || m["keyed"] == "true",
			Workers:    parseInt(m["workers"]),
			Busy:       parseInt(m["busy"]),
			Pending:    parseInt(m["pending"]),
			InProgress: parseInt(m["in_progress"]),
			Submitted:  parseUint64(m["submitted"]),
			Completed:  parseUint64(m["completed"]),
			Cancelled:  parseUint64(m["cancelled"]),
			Panicked:   parseUint64(m["panicked"]),
		},
		Instance: m["instance"],
		Status:   m["status"],
	}
	if ns := parseInt64(m["last_heartbeat"]); ns > 0 {
		ps.LastHeartbeat = time.Unix(0, ns)
	}
	return ps
}
