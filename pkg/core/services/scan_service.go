package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

type ScanService struct {
	qrcodes  ports.QRCodeRepository
	images   ports.HostedImageRepository
	recorder ports.AccessRecorder
	baseURL  string
	now      func() time.Time
}

func NewScanService(qrcodes ports.QRCodeRepository, images ports.HostedImageRepository, recorder ports.AccessRecorder, baseURL string) *ScanService {
	return &ScanService{
		qrcodes:  qrcodes,
		images:   images,
		recorder: recorder,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// Resolve returns the redirect target of an active code and queues an access event.
// Missing, paused, archived and deleted codes all resolve to domain.ErrNotFound.
func (s *ScanService) Resolve(ctx context.Context, id string, meta domain.ScanMeta) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", domain.ErrNotFound
	}

	qr, err := s.qrcodes.GetQRCode(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get qr code: %w", err)
	}
	if qr == nil || !qr.Status.Visible() {
		return "", domain.ErrNotFound
	}

	target, err := s.target(ctx, qr)
	if err != nil {
		return "", err
	}

	s.recorder.Record(domain.AccessEvent{
		ID:        uuid.NewString(),
		QRCodeID:  qr.ID,
		Timestamp: s.now(),
		UserAgent: meta.UserAgent,
		Referer:   meta.Referer,
		IPAddress: meta.IPAddress,
	})

	return target, nil
}

func (s *ScanService) target(ctx context.Context, qr *domain.QRCode) (string, error) {
	switch qr.TargetType {
	case domain.TargetURL:
		if qr.TargetURL == "" {
			return "", domain.ErrNotFound
		}
		return qr.TargetURL, nil
	case domain.TargetImage:
		if qr.HostedImageID == "" {
			return "", domain.ErrNotFound
		}
		img, err := s.images.GetHostedImage(ctx, qr.HostedImageID)
		if err != nil {
			return "", fmt.Errorf("get hosted image: %w", err)
		}
		if img == nil || img.FilePath == "" {
			return "", domain.ErrNotFound
		}
		path := img.FilePath
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return s.baseURL + path, nil
	}
	return "", domain.ErrNotFound
}

var _ ports.ScanService = (*ScanService)(nil)
