package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
)

const redisKeyPrefix = "qr:"

// Redis shares cached codes between instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (c *Redis) Get(ctx context.Context, id string) (*domain.QRCode, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("redis get failed", slog.String("qr_id", id), slog.String("error", err.Error()))
		return nil, false
	}

	var qr domain.QRCode
	if err := json.Unmarshal(data, &qr); err != nil {
		c.logger.Warn("discarding unreadable cache entry", slog.String("qr_id", id), slog.String("error", err.Error()))
		return nil, false
	}
	return &qr, true
}

func (c *Redis) Set(ctx context.Context, qr *domain.QRCode) {
	v := *qr
	v.AccessCount = 0
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+qr.ID, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", slog.String("qr_id", qr.ID), slog.String("error", err.Error()))
	}
}

func (c *Redis) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		c.logger.Warn("redis delete failed", slog.String("qr_id", id), slog.String("error", err.Error()))
	}
}
