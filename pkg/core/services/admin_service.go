package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

// AdminService works across owners. Callers must have checked the admin role.
type AdminService struct {
	repo ports.Repository
	now  func() time.Time
}

func NewAdminService(repo ports.Repository) *AdminService {
	return &AdminService{repo: repo, now: time.Now}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *AdminService) UpdateUserLimit(ctx context.Context, id string, limit int) (*domain.User, error) {
	if limit < 1 {
		return nil, domain.NewValidationError("qrCodeLimit", "must be at least 1")
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	if user.QRCodeLimit == limit {
		return user, nil
	}

	user.QRCodeLimit = limit
	user.UpdatedAt = s.now()
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ListQRCodes lists codes of every owner. An empty status means every status except deleted.
func (s *AdminService) ListQRCodes(ctx context.Context, status string) ([]domain.QRCodeWithOwner, error) {
	statuses, err := domain.ListStatuses(status)
	if err != nil {
		return nil, err
	}

	qrs, err := s.repo.ListQRCodesWithOwner(ctx, domain.QRCodeFilter{Statuses: statuses})
	if err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	if qrs == nil {
		qrs = []domain.QRCodeWithOwner{}
	}
	return qrs, nil
}

var _ ports.AdminService = (*AdminService)(nil)
