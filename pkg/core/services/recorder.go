package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

var (
	accessEventsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_access_events_recorded_total",
		Help: "Access events written to the access log.",
	})
	accessEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_access_events_dropped_total",
		Help: "Access events dropped because the recorder queue was full or closed.",
	})
	accessEventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_access_events_failed_total",
		Help: "Access events that could not be written.",
	})
)

type RecorderConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration // per write
}

// AccessRecorder writes access events in the background. Record never blocks
// and never reports failures to the caller.
type AccessRecorder struct {
	repo    ports.AccessRepository
	logger  *slog.Logger
	timeout time.Duration
	queue   chan domain.AccessEvent
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewAccessRecorder(repo ports.AccessRepository, cfg RecorderConfig, logger *slog.Logger) *AccessRecorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	r := &AccessRecorder{
		repo:    repo,
		logger:  logger,
		timeout: cfg.Timeout,
		queue:   make(chan domain.AccessEvent, cfg.QueueSize),
	}
	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.work()
	}
	return r
}

func (r *AccessRecorder) Record(event domain.AccessEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		accessEventsDropped.Inc()
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	select {
	case r.queue <- event:
	default:
		accessEventsDropped.Inc()
		r.logger.Warn("access recorder queue full, dropping event",
			slog.String("qr_id", event.QRCodeID),
		)
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (r *AccessRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *AccessRecorder) work() {
	defer r.wg.Done()
	for event := range r.queue {
		r.write(event)
	}
}

func (r *AccessRecorder) write(event domain.AccessEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			accessEventsFailed.Inc()
			r.logger.Error("panic while recording access event",
				slog.String("qr_id", event.QRCodeID),
				slog.Any("panic", rec),
			)
		}
	}()

	// Detached from the scan request, which has usually finished by now.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.InsertAccessEvent(ctx, &event); err != nil {
		accessEventsFailed.Inc()
		r.logger.Error("failed to record access event",
			slog.String("qr_id", event.QRCodeID),
			slog.String("error", err.Error()),
		)
		return
	}
	accessEventsRecorded.Inc()
}

var _ ports.AccessRecorder = (*AccessRecorder)(nil)
