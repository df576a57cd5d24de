package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
)

// LRU is a per-instance cache with a TTL on every entry.
type LRU struct {
	cache *expirable.LRU[string, domain.QRCode]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{cache: expirable.NewLRU[string, domain.QRCode](size, nil, ttl)}
}

// Get returns a copy, so callers may modify the result freely.
func (c *LRU) Get(_ context.Context, id string) (*domain.QRCode, bool) {
	qr, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	return &qr, true
}

func (c *LRU) Set(_ context.Context, qr *domain.QRCode) {
	v := *qr
	v.AccessCount = 0
	c.cache.Add(qr.ID, v)
}

func (c *LRU) Delete(_ context.Context, id string) {
	c.cache.Remove(id)
}
