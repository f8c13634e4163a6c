// Package monitor serves the queue stats published by ajq heartbeats over a
// read-only HTTP JSON API.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/benedict-erwin/ajq"
)

const defaultAddr = ":8080"

// Config holds all configuration needed by the Monitor.
type Config struct {
	APIAddr     string
	RateLimit   int // requests per second per IP, 0 = defaultAPIRateLimit
	AuthEnabled bool
	APIKeys     []APIKey
}

// APIKey is a named API key accepted in the X-API-Key header.
type APIKey struct {
	Name string
	Key  string
}

// ConfigFrom builds a monitor Config from the monitoring section of an ajq
// config file.
func ConfigFrom(cfg *ajq.Config) Config {
	mc := Config{
		APIAddr:     cfg.Monitoring.API.Addr,
		RateLimit:   cfg.Monitoring.API.RateLimit,
		AuthEnabled: cfg.Monitoring.Auth.Enabled,
	}
	for _, k := range cfg.Monitoring.Auth.APIKeys {
		mc.APIKeys = append(mc.APIKeys, APIKey{Name: k.Name, Key: k.Key})
	}
	return mc
}

// Monitor manages the HTTP monitoring server.
type Monitor struct {
	server    *http.Server
	mux       *http.ServeMux
	handler   http.Handler
	limiter   *rateLimiter
	rc        *ajq.RedisClient
	logger    *slog.Logger
	cfg       Config
	startedAt time.Time
}

// New creates a new Monitor reading stats through rc.
func New(rc *ajq.RedisClient, logger *slog.Logger, cfg Config) *Monitor {
	m := &Monitor{
		rc:        rc,
		logger:    logger.With("component", "monitor"),
		cfg:       cfg,
		startedAt: time.Now(),
	}

	m.mux = http.NewServeMux()
	m.setupRoutes()
	m.limiter = newRateLimiter(cfg.RateLimit)
	m.handler = m.limiter.middleware(m.mux)

	addr := cfg.APIAddr
	if addr == "" {
		addr = defaultAddr
	}
	m.server = &http.Server{
		Addr:         addr,
		Handler:      m.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return m
}

// Handler returns the rate-limited HTTP handler. Useful for embedding the
// API in an existing server.
func (m *Monitor) Handler() http.Handler {
	return m.handler
}

// Addr returns the listen address.
func (m *Monitor) Addr() string {
	return m.server.Addr
}

// Start starts the HTTP server. Blocks until the server is stopped or errors.
// Returns nil on graceful shutdown.
func (m *Monitor) Start() error {
	m.startedAt = time.Now()
	m.logger.Info("monitor HTTP server starting", "addr", m.server.Addr, "auth", m.cfg.AuthEnabled)
	err := m.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server.
func (m *Monitor) Stop(ctx context.Context) error {
	m.logger.Info("monitor HTTP server stopping")
	defer m.limiter.close()
	return m.server.Shutdown(ctx)
}
