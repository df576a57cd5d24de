// Package app wires configuration, storage, the recorder and the services
// into one HTTP handler. Both the server binary and the serverless entry use it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/adapters/cache"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/config"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/analytics"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/services"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

const redisPingTimeout = 2 * time.Second

type App struct {
	Handler http.Handler

	db       *sql.DB
	redis    *redis.Client
	recorder *services.AccessRecorder
	logger   *slog.Logger
}

// New opens the database and builds the router. Close releases everything New acquired.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := sqlite.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sqlRepo, err := sqlite.NewSQLiteRepository(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{db: db, logger: logger}

	var repo ports.Repository = sqlRepo
	if c := a.newCache(ctx, cfg); c != nil {
		repo = cache.NewStore(sqlRepo, c)
	}

	a.recorder = services.NewAccessRecorder(sqlRepo, services.RecorderConfig{
		QueueSize: cfg.RecorderQueueSize,
		Workers:   cfg.RecorderWorkers,
		Timeout:   cfg.RecorderTimeout,
	}, logger)
	aggregator := analytics.NewAggregator(sqlRepo, cfg.AnalyticsLocation, logger)

	a.Handler = handler.NewRouter(cfg, handler.Services{
		QRCodes: services.NewQRCodeService(repo, aggregator),
		Scans:   services.NewScanService(repo, repo, a.recorder, cfg.BaseURL),
		Users:   services.NewUserService(repo, cfg.DefaultQRLimit),
		Admin:   services.NewAdminService(repo),
	}, logger)
	return a, nil
}

// ForServerless returns a copy of cfg for instances that share no memory.
// Without redis the local LRU is turned off, so a pause or delete takes effect
// on every instance at once.
func ForServerless(cfg *config.Config) *config.Config {
	c := *cfg
	if c.RedisAddr == "" {
		c.CacheSize = 0
	}
	return &c
}

// newCache prefers redis, falls back to the in-process LRU, and returns nil when caching is off.
func (a *App) newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			a.logger.Warn("redis unavailable, falling back to in-process cache",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
			client.Close()
		} else {
			a.redis = client
			a.logger.Info("qr code cache enabled", slog.String("backend", "redis"))
			return cache.NewRedis(client, cfg.CacheTTL, a.logger)
		}
	}

	if cfg.CacheSize > 0 {
		a.logger.Info("qr code cache enabled",
			slog.String("backend", "lru"),
			slog.Int("size", cfg.CacheSize),
		)
		return cache.NewLRU(cfg.CacheSize, cfg.CacheTTL)
	}
	return nil
}

// Close drains pending access events before closing the stores they write to.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.recorder.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
