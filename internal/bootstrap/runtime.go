// Package bootstrap loads configuration and opens the process-wide
// dependencies shared by the executables under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"noticeboard/internal/cache"
	"noticeboard/internal/config"
	"noticeboard/internal/database"
	"noticeboard/internal/observability"
	"noticeboard/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the connections a process runs with.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	Redis  *redis.Client // nil when Redis is unreachable
	Blobs  storage.BlobStore

	shutdownTracing func(context.Context) error
}

// InitRuntime loads configuration, installs the default logger and tracer,
// and connects to the database, Redis and the blob store. service names the
// process in logs and traces.
func InitRuntime(ctx context.Context, service string) (*Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return InitRuntimeWithConfig(ctx, service, cfg)
}

// InitRuntimeWithConfig is InitRuntime over an already-loaded configuration.
func InitRuntimeWithConfig(ctx context.Context, service string, cfg *config.Config) (*Runtime, error) {
	logger := observability.SetupLogger(cfg.Env).With(slog.String("service", service))
	slog.SetDefault(logger)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:  service,
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSampler,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis only backs rate limiting, which fails open without it.
	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, rate limiting disabled", slog.String("error", err.Error()))
		rdb = nil
	}

	blobs, err := storage.New(cfg)
	if err != nil {
		_ = database.Close(db)
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("blob store: %w", err)
	}

	return &Runtime{
		Config:          cfg,
		Logger:          logger,
		DB:              db,
		Redis:           rdb,
		Blobs:           blobs,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Close releases the database, Redis and tracing resources. Servers that
// already closed the database and Redis through Shutdown only need
// ShutdownTracing.
func (r *Runtime) Close(ctx context.Context) {
	if err := database.Close(r.DB); err != nil {
		slog.Error("error closing database", slog.String("error", err.Error()))
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			slog.Error("error closing redis", slog.String("error", err.Error()))
		}
	}
	r.ShutdownTracing(ctx)
}

// ShutdownTracing flushes pending spans.
func (r *Runtime) ShutdownTracing(ctx context.Context) {
	if r.shutdownTracing == nil {
		return
	}
	if err := r.shutdownTracing(ctx); err != nil {
		slog.Error("error shutting down tracer", slog.String("error", err.Error()))
	}
}
