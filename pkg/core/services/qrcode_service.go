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

type QRCodeService struct {
	repo       ports.Repository
	aggregator ports.AnalyticsAggregator
	now        func() time.Time
}

func NewQRCodeService(repo ports.Repository, aggregator ports.AnalyticsAggregator) *QRCodeService {
	return &QRCodeService{repo: repo, aggregator: aggregator, now: time.Now}
}

func (s *QRCodeService) Create(ctx context.Context, ownerID string, in ports.CreateQRCodeInput) (*domain.QRCode, error) {
	name, err := domain.NormalizeName(in.CustomName)
	if err != nil {
		return nil, err
	}
	targetType, err := domain.ParseTargetType(in.TargetType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	qr := &domain.QRCode{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		CustomName: name,
		TargetType: targetType,
		Status:     domain.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch targetType {
	case domain.TargetURL:
		qr.TargetURL = strings.TrimSpace(in.TargetURL)
	case domain.TargetImage:
		qr.HostedImageID = strings.TrimSpace(in.HostedImageID)
	}
	if err := qr.CheckTarget(); err != nil {
		return nil, err
	}
	if err := s.checkImage(ctx, ownerID, qr.HostedImageID); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	// Read then write: concurrent creates may overshoot the limit slightly.
	count, err := s.repo.CountActiveQRCodes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count qr codes: %w", err)
	}
	if count >= int64(user.QRCodeLimit) {
		return nil, fmt.Errorf("%w (%d), please delete or archive existing qr codes", domain.ErrQuotaExceeded, user.QRCodeLimit)
	}

	if err := s.repo.CreateQRCode(ctx, qr); err != nil {
		return nil, fmt.Errorf("create qr code: %w", err)
	}
	return qr, nil
}

func (s *QRCodeService) Get(ctx context.Context, ownerID, id string) (*domain.QRCode, error) {
	qr, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if qr.Status == domain.StatusDeleted {
		return nil, domain.ErrNotFound
	}
	return s.withAccessCount(ctx, qr)
}

// List defaults to active codes. "all" returns every status except deleted.
func (s *QRCodeService) List(ctx context.Context, ownerID, status string) ([]domain.QRCode, error) {
	if status == "" {
		status = string(domain.StatusActive)
	}
	statuses, err := domain.ListStatuses(status)
	if err != nil {
		return nil, err
	}

	qrs, err := s.repo.ListQRCodes(ctx, domain.QRCodeFilter{OwnerID: ownerID, Statuses: statuses})
	if err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	if qrs == nil {
		qrs = []domain.QRCode{}
	}
	return qrs, nil
}

// Update applies a partial update. Switching the target type clears the other
// target field. A request that changes nothing performs no write.
func (s *QRCodeService) Update(ctx context.Context, ownerID, id string, in ports.UpdateQRCodeInput) (*domain.QRCode, error) {
	qr, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := mutable(qr); err != nil {
		return nil, err
	}

	next := *qr
	if in.CustomName != nil {
		if next.CustomName, err = domain.NormalizeName(*in.CustomName); err != nil {
			return nil, err
		}
	}
	if in.TargetURL != nil {
		next.TargetURL = strings.TrimSpace(*in.TargetURL)
	}
	if in.HostedImageID != nil {
		next.HostedImageID = strings.TrimSpace(*in.HostedImageID)
	}
	if in.TargetType != nil {
		if next.TargetType, err = domain.ParseTargetType(*in.TargetType); err != nil {
			return nil, err
		}
		if next.TargetType != qr.TargetType {
			switch next.TargetType {
			case domain.TargetURL:
				next.HostedImageID = ""
			case domain.TargetImage:
				next.TargetURL = ""
			}
		}
	}
	if err := next.CheckTarget(); err != nil {
		return nil, err
	}
	if next.HostedImageID != qr.HostedImageID {
		if err := s.checkImage(ctx, ownerID, next.HostedImageID); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		status, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateTransition(qr.Status, status); err != nil {
			return nil, err
		}
		next.Status = status
	}

	if next == *qr {
		return s.withAccessCount(ctx, qr)
	}

	next.UpdatedAt = s.now()
	if err := s.repo.UpdateQRCode(ctx, &next); err != nil {
		return nil, fmt.Errorf("update qr code: %w", err)
	}
	return s.withAccessCount(ctx, &next)
}

// Delete soft-deletes a code. Deleting an already deleted code succeeds without a write.
func (s *QRCodeService) Delete(ctx context.Context, ownerID, id string) error {
	qr, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if qr.Status == domain.StatusDeleted {
		return nil
	}
	if err := s.repo.UpdateQRCodeStatus(ctx, qr.ID, domain.StatusDeleted, s.now()); err != nil {
		return fmt.Errorf("delete qr code: %w", err)
	}
	return nil
}

func (s *QRCodeService) Pause(ctx context.Context, ownerID, id string) (*domain.QRCode, error) {
	return s.moveFromActive(ctx, ownerID, id, domain.StatusPaused)
}

func (s *QRCodeService) Archive(ctx context.Context, ownerID, id string) (*domain.QRCode, error) {
	return s.moveFromActive(ctx, ownerID, id, domain.StatusArchived)
}

// Analytics aggregates the current bucket, or [start, end] when both are given.
func (s *QRCodeService) Analytics(ctx context.Context, ownerID, id string, period domain.Period, start, end *time.Time) (*domain.AnalyticsSummary, error) {
	if (start == nil) != (end == nil) {
		return nil, domain.NewValidationError("from", "from and to must be given together")
	}

	qr, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if qr.Status == domain.StatusDeleted {
		return nil, domain.ErrNotFound
	}

	if start == nil {
		return s.aggregator.Aggregate(ctx, qr.ID, period)
	}
	return s.aggregator.AggregateRange(ctx, qr.ID, period, *start, *end)
}

func (s *QRCodeService) moveFromActive(ctx context.Context, ownerID, id string, target domain.Status) (*domain.QRCode, error) {
	qr, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := mutable(qr); err != nil {
		return nil, err
	}
	if qr.Status == target {
		return s.withAccessCount(ctx, qr)
	}
	if qr.Status != domain.StatusActive {
		return nil, domain.NewValidationError("status", fmt.Sprintf("only active qr codes can be %s", target))
	}

	qr.Status = target
	qr.UpdatedAt = s.now()
	if err := s.repo.UpdateQRCodeStatus(ctx, qr.ID, target, qr.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update qr code status: %w", err)
	}
	return s.withAccessCount(ctx, qr)
}

// owned loads a code of any status. Codes of other owners are reported as missing.
func (s *QRCodeService) owned(ctx context.Context, ownerID, id string) (*domain.QRCode, error) {
	qr, err := s.repo.GetQRCode(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get qr code: %w", err)
	}
	if qr == nil || qr.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return qr, nil
}

func (s *QRCodeService) withAccessCount(ctx context.Context, qr *domain.QRCode) (*domain.QRCode, error) {
	count, err := s.repo.CountAccessEvents(ctx, qr.ID)
	if err != nil {
		return nil, fmt.Errorf("count access events: %w", err)
	}
	qr.AccessCount = count
	return qr, nil
}

func (s *QRCodeService) checkImage(ctx context.Context, ownerID, imageID string) error {
	if imageID == "" {
		return nil
	}
	img, err := s.repo.GetHostedImage(ctx, imageID)
	if err != nil {
		return fmt.Errorf("get hosted image: %w", err)
	}
	if img == nil || img.OwnerID != ownerID {
		return domain.NewValidationError("hostedImageId", "image not found")
	}
	return nil
}

func mutable(qr *domain.QRCode) error {
	if qr.Status == domain.StatusDeleted {
		return domain.NewValidationError("status", "deleted qr codes cannot be modified")
	}
	return nil
}

var _ ports.QRCodeService = (*QRCodeService)(nil)
