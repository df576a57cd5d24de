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

type UserService struct {
	repo         ports.UserRepository
	defaultLimit int
	now          func() time.Time
}

func NewUserService(repo ports.UserRepository, defaultLimit int) *UserService {
	if defaultLimit < 1 {
		defaultLimit = domain.DefaultQRCodeLimit
	}
	return &UserService{repo: repo, defaultLimit: defaultLimit, now: time.Now}
}

// EnsureUser returns the account for email, creating a regular user on first login.
func (s *UserService) EnsureUser(ctx context.Context, email, name string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user != nil {
		return user, nil
	}

	now := s.now()
	user = &domain.User{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Email:       email,
		Role:        domain.RoleUser,
		QRCodeLimit: s.defaultLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreateAdmin promotes an existing account or creates a new admin.
func (s *UserService) CreateAdmin(ctx context.Context, name, email string, limit int) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	if limit < 1 {
		return nil, domain.NewValidationError("qrCodeLimit", "must be at least 1")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	now := s.now()
	if user != nil {
		user.Role = domain.RoleAdmin
		user.QRCodeLimit = limit
		if name = strings.TrimSpace(name); name != "" {
			user.Name = name
		}
		user.UpdatedAt = now
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return user, nil
	}

	user = &domain.User{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Email:       email,
		Role:        domain.RoleAdmin,
		QRCodeLimit: limit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ ports.UserService = (*UserService)(nil)
