package ajq

import (
	"log/slog"
	"runtime"
)

const defaultQueueName = "default"

// Option configures a Queue or KeyedQueue.
type Option func(*queueConfig)

type queueConfig struct {
	name         string
	workers      int
	logger       *slog.Logger
	logLevel     string // auto-create logger if no WithLogger (debug/info/warn/error)
	panicHandler func(*PanicError)
	strictJoin   bool
}

func newDefaultQueueConfig() *queueConfig {
	return &queueConfig{
		name:    defaultQueueName,
		workers: defaultWorkers(),
	}
}

// defaultWorkers is twice the number of usable CPUs.
func defaultWorkers() int {
	return runtime.NumCPU() * 2
}

// WithWorkers sets the number of worker goroutines.
// Zero or negative values keep the default of runtime.NumCPU() * 2.
func WithWorkers(n int) Option {
	return func(cfg *queueConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithName sets the queue name used in logs, stats and the Redis heartbeat.
// Defaults to "default".
func WithName(name string) Option {
	return func(cfg *queueConfig) { cfg.name = name }
}

// WithLogger sets a custom slog.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *queueConfig) { cfg.logger = l }
}

// WithLogLevel sets the log level for the auto-created logger.
// Only takes effect if no WithLogger() is provided.
// Valid values: "debug", "info", "warn", "error".
func WithLogLevel(level string) Option {
	return func(cfg *queueConfig) { cfg.logLevel = level }
}

// WithPanicHandler registers fn to be called on the worker goroutine after a
// job or its callback panicked. The panic is always logged; fn is optional.
func WithPanicHandler(fn func(*PanicError)) Option {
	return func(cfg *queueConfig) { cfg.panicHandler = fn }
}

// WithStrictJoin makes key-scoped Join, Wait and Ready on a KeyedQueue also
// require the whole pending queue to be empty, not just the named keys.
func WithStrictJoin() Option {
	return func(cfg *queueConfig) { cfg.strictJoin = true }
}

func buildConfig(opts []Option) (*queueConfig, error) {
	cfg := newDefaultQueueConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validateName(cfg.name); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = newLoggerFromLevel(cfg.logLevel)
	}
	return cfg, nil
}
