package ajq

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ajq:"

// RedisConfig holds the connection settings used to publish queue stats.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	TLSConfig *tls.Config

	// client, when set, is used as is and Addr, Password, DB and TLSConfig
	// are ignored.
	client *redis.Client
}

// RedisClient wraps a go-redis client together with the ajq key prefix.
type RedisClient struct {
	rdb    *redis.Client
	prefix string
	owned  bool // we created rdb and must close it
}

// NewRedisClient creates a RedisClient. No connection is made until the
// first command; use Ping to check connectivity.
func NewRedisClient(opts ...RedisOption) *RedisClient {
	cfg := &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.client != nil {
		return &RedisClient{rdb: cfg.client, prefix: cfg.Prefix}
	}
	return &RedisClient{
		rdb: redis.NewClient(&redis.Options{
			Addr:      cfg.Addr,
			Password:  cfg.Password,
			DB:        cfg.DB,
			TLSConfig: cfg.TLSConfig,
		}),
		prefix: cfg.Prefix,
		owned:  true,
	}
}

// Ping checks the Redis connection.
func (rc *RedisClient) Ping(ctx context.Context) error {
	if err := rc.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the connection unless it was injected with WithRedisClient.
func (rc *RedisClient) Close() error {
	if !rc.owned {
		return nil
	}
	return rc.rdb.Close()
}

// Key joins parts with ":" and prepends the prefix.
func (rc *RedisClient) Key(parts ...string) string {
	return rc.prefix + strings.Join(parts, ":")
}

// Unwrap returns the underlying go-redis client.
func (rc *RedisClient) Unwrap() *redis.Client {
	return rc.rdb
}

// Prefix returns the key prefix.
func (rc *RedisClient) Prefix() string {
	return rc.prefix
}

// RedisOption configures a RedisConfig.
type RedisOption func(*RedisConfig)

// WithRedisAddr sets the Redis server address.
func WithRedisAddr(addr string) RedisOption {
	return func(cfg *RedisConfig) { cfg.Addr = addr }
}

// WithRedisPassword sets the Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(cfg *RedisConfig) { cfg.Password = password }
}

// WithRedisDB sets the Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(cfg *RedisConfig) { cfg.DB = db }
}

// WithPrefix sets the key prefix. A trailing ":" is added when missing.
func WithPrefix(prefix string) RedisOption {
	return func(cfg *RedisConfig) {
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		cfg.Prefix = prefix
	}
}

// WithRedisTLS enables TLS. A nil config uses the system CA pool.
func WithRedisTLS(tc *tls.Config) RedisOption {
	return func(cfg *RedisConfig) {
		if tc == nil {
			tc = &tls.Config{} //nolint:gosec // empty = system CA pool
		}
		cfg.TLSConfig = tc
	}
}

// WithRedisClient injects a pre-configured client, e.g. for Sentinel.
// The caller keeps ownership and must close it.
func WithRedisClient(rdb *redis.Client) RedisOption {
	return func(cfg *RedisConfig) { cfg.client = rdb }
}
