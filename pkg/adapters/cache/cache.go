// Package cache keeps recently resolved QR codes close to the scan path.
package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_cache_hits_total",
		Help: "QR code lookups served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_cache_misses_total",
		Help: "QR code lookups that went to the database.",
	})
)

// Cache stores QR codes by id. Backend failures behave like misses.
type Cache interface {
	Get(ctx context.Context, id string) (*domain.QRCode, bool)
	Set(ctx context.Context, qr *domain.QRCode)
	Delete(ctx context.Context, id string)
}

// Store wraps a repository and serves GetQRCode from a cache.
// Writes through Store invalidate the cached entry. Other instances
// see the change once their entry expires.
type Store struct {
	ports.Repository
	cache Cache
}

func NewStore(repo ports.Repository, cache Cache) *Store {
	return &Store{Repository: repo, cache: cache}
}

func (s *Store) GetQRCode(ctx context.Context, id string) (*domain.QRCode, error) {
	if qr, ok := s.cache.Get(ctx, id); ok {
		cacheHitsTotal.Inc()
		return qr, nil
	}
	cacheMissesTotal.Inc()

	qr, err := s.Repository.GetQRCode(ctx, id)
	if err != nil || qr == nil {
		return qr, err
	}
	s.cache.Set(ctx, qr)
	return qr, nil
}

func (s *Store) UpdateQRCode(ctx context.Context, qr *domain.QRCode) error {
	err := s.Repository.UpdateQRCode(ctx, qr)
	s.cache.Delete(ctx, qr.ID)
	return err
}

func (s *Store) UpdateQRCodeStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error {
	err := s.Repository.UpdateQRCodeStatus(ctx, id, status, updatedAt)
	s.cache.Delete(ctx, id)
	return err
}

var _ ports.Repository = (*Store)(nil)
