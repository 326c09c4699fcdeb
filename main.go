package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/cache"
	"github.com/example/todo-app/modules/task"
	"github.com/example/todo-app/modules/web"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	// Load configuration from environment
	dbPath := getEnv("DB_PATH", "./todo.db")
	dbDebug := getEnvBool("DB_DEBUG", false)
	httpPort := getEnvInt("HTTP_PORT", 3000)
	redisAddr := getEnv("REDIS_ADDR", "")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	cacheDefaults := cache.DefaultConfig()
	cacheTTL := getEnvDuration("CACHE_TTL", cacheDefaults.TTL)
	cachePrefix := getEnv("CACHE_PREFIX", cacheDefaults.Prefix)
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "")
	accessLog := getEnvBool("ACCESS_LOG", true)
	activityCapacity := getEnvInt("ACTIVITY_CAPACITY", activity.DefaultCapacity)
	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	logger := app.Logger()
	logger.Info("Configuration loaded",
		"db_path", dbPath,
		"http_port", httpPort,
		"redis", redisAddr != "",
		"cache_ttl", cacheTTL,
	)

	// Redis is optional; without it lists are read straight from SQLite and
	// flash messages live in process memory.
	var listCache task.ListCache
	var healthChecks []web.HealthChecker
	if redisAddr != "" {
		cacheModule := cache.NewModule(cache.Config{
			RedisAddr:     redisAddr,
			RedisPassword: redisPassword,
			Prefix:        cachePrefix,
			TTL:           cacheTTL,
		}, logger)
		if err := app.Register(cacheModule); err != nil {
			log.Fatalf("Failed to register cache module: %v", err)
		}
		listCache = cacheModule.Cache()
		healthChecks = append(healthChecks, cacheModule)
	}

	activityModule := activity.NewModule(activityCapacity, logger)
	taskModule := task.NewModule(task.Config{
		DBPath:  dbPath,
		DBDebug: dbDebug,
	}, listCache, logger)
	webModule := web.NewModule(web.Config{
		Addr:          fmt.Sprintf(":%d", httpPort),
		CORSOrigins:   corsOrigins,
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		AccessLog:     accessLog,
	}, activityModule, logger, append(healthChecks, taskModule)...)

	for _, m := range []mono.Module{activityModule, taskModule, webModule} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register %s module: %v", m.Name(), err)
		}
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	logger.Info("To-Do started", "url", fmt.Sprintf("http://localhost:%d/tasks", httpPort))
	logger.Info("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Application exited", "code", exitCode)
	os.Exit(exitCode)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
