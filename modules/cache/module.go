package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// Config holds cache module configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	Prefix        string
	TTL           time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr: "localhost:6379",
		Prefix:    "todo:",
		TTL:       5 * time.Minute,
	}
}

// Module owns the Redis client used for cached task listings.
type Module struct {
	cfg    Config
	client *redis.Client
	cache  *Cache
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the Redis client immediately so Cache() can be handed to
// other modules before Start. No connection is made until first use.
func NewModule(cfg Config, moduleLogger types.Logger) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &Module{
		cfg:    cfg,
		client: client,
		cache:  New(client, cfg.Prefix, cfg.TTL),
		logger: moduleLogger.WithModule("cache"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start verifies Redis is reachable.
func (m *Module) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	m.logger.Info("Connected to Redis", "addr", m.cfg.RedisAddr, "prefix", m.cfg.Prefix, "ttl", m.cfg.TTL.String())
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.cache.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	m.logger.Info("Redis connection closed")
	return nil
}

// Cache returns the cache instance.
func (m *Module) Cache() *Cache {
	return m.cache
}

// Health pings Redis and reports cache statistics.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}

	s := m.cache.GetStats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.cfg.RedisAddr,
			"prefix":     m.cfg.Prefix,
			"ttl":        m.cfg.TTL.String(),
			"hit_rate":   s.HitRate,
		},
	}
}
