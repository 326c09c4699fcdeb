package web

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis/v3"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr        string
	CORSOrigins string
	// RedisAddr enables Redis-backed sessions when set.
	RedisAddr     string
	RedisPassword string
	AccessLog     bool
}

// Module serves the web UI and JSON API over HTTP.
type Module struct {
	cfg      Config
	app      *fiber.App
	tasks    task.TaskPort
	activity activity.ActivityPort
	checks   []HealthChecker
	storage  *redis.Storage
	metrics  *Metrics
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new web module. activityPort may be nil. checks are
// reported by GET /health.
func NewModule(cfg Config, activityPort activity.ActivityPort, moduleLogger types.Logger, checks ...HealthChecker) *Module {
	if cfg.Addr == "" {
		cfg.Addr = ":3000"
	}
	return &Module{
		cfg:      cfg,
		activity: activityPort,
		checks:   checks,
		metrics:  NewMetrics(),
		logger:   moduleLogger.WithModule("web"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "web"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	}
}

// Start builds the fiber app and starts listening.
func (m *Module) Start(_ context.Context) error {
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}

	sessions, err := m.newSessionStore()
	if err != nil {
		return err
	}

	m.app = NewApp(Deps{
		Tasks:       m.tasks,
		Activity:    m.activity,
		Health:      m.checks,
		Sessions:    sessions,
		Metrics:     m.metrics,
		Logger:      m.logger,
		CORSOrigins: m.cfg.CORSOrigins,
		AccessLog:   m.cfg.AccessLog,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			errCh <- err
		}
	}()

	// Catch immediate startup errors such as a port already in use.
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.cfg.Addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	if m.storage != nil {
		if err := m.storage.Close(); err != nil {
			m.logger.Warn("Failed to close session storage", "error", err)
		}
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health reports whether the server is running.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "HTTP server not started",
		}
	}

	sessions := "memory"
	if m.storage != nil {
		sessions = "redis"
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":     m.cfg.Addr,
			"sessions": sessions,
		},
	}
}

func (m *Module) newSessionStore() (*session.Store, error) {
	cfg := session.Config{
		Expiration:     24 * time.Hour,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}

	if m.cfg.RedisAddr != "" {
		storage, err := newRedisStorage(m.cfg.RedisAddr, m.cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		m.storage = storage
		cfg.Storage = storage
		m.logger.Info("Using Redis session storage", "addr", m.cfg.RedisAddr)
	}

	return session.New(cfg), nil
}

// newRedisStorage connects the session storage. The storage package panics
// when Redis is unreachable, so the panic is turned into an error here.
func newRedisStorage(addr, password string) (storage *redis.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to connect session storage at %s: %v", addr, r)
		}
	}()

	host, port := parseRedisAddr(addr)
	storage = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		PoolSize: 10,
	})
	return storage, nil
}

// parseRedisAddr splits addr into host and port, falling back to
// 127.0.0.1:6379 for missing parts.
func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}
	return host, port
}
