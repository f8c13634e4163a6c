package ajq

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultHeartbeatInterval = 5 * time.Second

// Config represents the top-level YAML configuration file.
type Config struct {
	Redis      RedisYAML        `yaml:"redis"`
	App        AppConfig        `yaml:"app"`
	Queues     []QueueYAML      `yaml:"queues"`
	Heartbeat  HeartbeatYAML    `yaml:"heartbeat"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// RedisYAML holds Redis connection settings from YAML.
type RedisYAML struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// AppConfig holds application-level settings from YAML.
type AppConfig struct {
	LogLevel string `yaml:"log_level"`
}

// QueueYAML declares a queue.
type QueueYAML struct {
	Name       string `yaml:"name"`
	Workers    int    `yaml:"workers"` // 0 = runtime.NumCPU() * 2
	StrictJoin bool   `yaml:"strict_join"`
}

// HeartbeatYAML controls publishing of queue stats to Redis.
type HeartbeatYAML struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval"` // seconds
}

// MonitoringConfig holds the monitor HTTP API settings.
type MonitoringConfig struct {
	API  APIConfig  `yaml:"api"`
	Auth AuthConfig `yaml:"auth"`
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	RateLimit int    `yaml:"rate_limit"` // requests per second per IP, 0 = default
}

// AuthConfig holds API key credentials for the monitor.
type AuthConfig struct {
	Enabled bool         `yaml:"enabled"`
	APIKeys []APIKeyYAML `yaml:"api_keys"`
}

// APIKeyYAML is one named API key.
type APIKeyYAML struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

// LoadConfig parses YAML bytes and validates the resulting configuration.
func LoadConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML file and returns a validated Config.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadConfig(data)
}

// validate performs structural validation of the configuration.
func (c *Config) validate() error {
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0")
	}

	if c.App.LogLevel != "" {
		switch strings.ToLower(c.App.LogLevel) {
		case "debug", "info", "warn", "error":
			// ok
		default:
			return fmt.Errorf("app.log_level: must be one of debug, info, warn, error; got %q", c.App.LogLevel)
		}
	}

	names := make(map[string]bool, len(c.Queues))
	for i, q := range c.Queues {
		if q.Name == "" {
			return fmt.Errorf("queues[%d].name must not be empty", i)
		}
		if validateName(q.Name) != nil {
			return fmt.Errorf("queues[%d].name %q: invalid characters or too long (max 128)", i, q.Name)
		}
		if names[q.Name] {
			return fmt.Errorf("queues[%d].name %q: duplicate queue name", i, q.Name)
		}
		names[q.Name] = true

		if q.Workers < 0 {
			return fmt.Errorf("queues[%d] %q: workers must be >= 0", i, q.Name)
		}
	}

	if c.Heartbeat.Interval < 0 {
		return fmt.Errorf("heartbeat.interval must be >= 0")
	}

	if c.Monitoring.API.RateLimit < 0 {
		return fmt.Errorf("monitoring.api.rate_limit must be >= 0")
	}
	if c.Monitoring.Auth.Enabled && len(c.Monitoring.Auth.APIKeys) == 0 {
		return fmt.Errorf("monitoring.auth: at least one api key is required when auth is enabled")
	}
	for i, k := range c.Monitoring.Auth.APIKeys {
		if k.Name == "" || k.Key == "" {
			return fmt.Errorf("monitoring.auth.api_keys[%d]: name and key must not be empty", i)
		}
	}

	return nil
}

// Queue returns the queue definition with the given name.
func (c *Config) Queue(name string) (QueueYAML, bool) {
	for _, q := range c.Queues {
		if q.Name == name {
			return q, true
		}
	}
	return QueueYAML{}, false
}

// HeartbeatInterval returns the configured interval or the default.
func (c *Config) HeartbeatInterval() time.Duration {
	if c.Heartbeat.Interval > 0 {
		return time.Duration(c.Heartbeat.Interval) * time.Second
	}
	return defaultHeartbeatInterval
}

// RedisOptions converts the redis section to RedisOption values.
func (c *Config) RedisOptions() []RedisOption {
	var opts []RedisOption
	if c.Redis.Addr != "" {
		opts = append(opts, WithRedisAddr(c.Redis.Addr))
	}
	if c.Redis.Password != "" {
		opts = append(opts, WithRedisPassword(c.Redis.Password))
	}
	if c.Redis.DB != 0 {
		opts = append(opts, WithRedisDB(c.Redis.DB))
	}
	if c.Redis.Prefix != "" {
		opts = append(opts, WithPrefix(c.Redis.Prefix))
	}
	return opts
}

// options converts a queue definition to Option values. The app log level
// applies when the caller does not pass WithLogger.
func (c *Config) options(q QueueYAML) []Option {
	opts := []Option{WithName(q.Name)}
	if q.Workers > 0 {
		opts = append(opts, WithWorkers(q.Workers))
	}
	if q.StrictJoin {
		opts = append(opts, WithStrictJoin())
	}
	if c.App.LogLevel != "" {
		opts = append(opts, WithLogLevel(c.App.LogLevel))
	}
	return opts
}

// NewFromConfig creates the unkeyed Queue named name from cfg.
// The config serves as the base; opts always win.
func NewFromConfig(cfg *Config, name string, opts ...Option) (*Queue, error) {
	qy, ok := cfg.Queue(name)
	if !ok {
		return nil, fmt.Errorf("queue %q not found in config", name)
	}
	return New(append(cfg.options(qy), opts...)...)
}

// NewKeyedFromConfig creates the KeyedQueue named name from cfg.
// The config serves as the base; opts always win.
func NewKeyedFromConfig[K comparable](cfg *Config, name string, opts ...Option) (*KeyedQueue[K], error) {
	qy, ok := cfg.Queue(name)
	if !ok {
		return nil, fmt.Errorf("queue %q not found in config", name)
	}
	return NewKeyed[K](append(cfg.options(qy), opts...)...)
}
