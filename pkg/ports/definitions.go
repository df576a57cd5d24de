package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
)

// QRCodeRepository defines storage operations for QR codes.
// Getters return (nil, nil) when the record does not exist.
type QRCodeRepository interface {
	CreateQRCode(ctx context.Context, qr *domain.QRCode) error
	GetQRCode(ctx context.Context, id string) (*domain.QRCode, error) // AccessCount is left at zero
	UpdateQRCode(ctx context.Context, qr *domain.QRCode) error
	UpdateQRCodeStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error
	ListQRCodes(ctx context.Context, filter domain.QRCodeFilter) ([]domain.QRCode, error)
	ListQRCodesWithOwner(ctx context.Context, filter domain.QRCodeFilter) ([]domain.QRCodeWithOwner, error)
	CountActiveQRCodes(ctx context.Context, ownerID string) (int64, error) // every status except deleted
	Dump(ctx context.Context) ([]domain.QRCode, error)                     // For migration
}

// AccessRepository is the append-only scan log.
type AccessRepository interface {
	InsertAccessEvent(ctx context.Context, event *domain.AccessEvent) error
	ListAccessEventsInRange(ctx context.Context, qrID string, start, end time.Time) ([]domain.AccessEvent, error)
	CountAccessEvents(ctx context.Context, qrID string) (int64, error)
	CountAccessEventsInRange(ctx context.Context, qrID string, start, end time.Time) (int64, error)
}

// UserRepository defines storage operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// HostedImageRepository stores image metadata only.
type HostedImageRepository interface {
	CreateHostedImage(ctx context.Context, img *domain.HostedImage) error
	GetHostedImage(ctx context.Context, id string) (*domain.HostedImage, error)
	DumpHostedImages(ctx context.Context) ([]domain.HostedImage, error) // For migration
}

// Repository is the full persistence surface implemented by the SQL adapter.
type Repository interface {
	QRCodeRepository
	AccessRepository
	UserRepository
	HostedImageRepository
}

// CreateQRCodeInput is the payload of a create request.
type CreateQRCodeInput struct {
	CustomName    string `json:"customName"`
	TargetType    string `json:"targetType"`
	TargetURL     string `json:"targetUrl"`
	HostedImageID string `json:"hostedImageId"`
}

// UpdateQRCodeInput is a partial update. Nil fields are left untouched.
type UpdateQRCodeInput struct {
	CustomName    *string `json:"customName"`
	TargetType    *string `json:"targetType"`
	TargetURL     *string `json:"targetUrl"`
	HostedImageID *string `json:"hostedImageId"`
	Status        *string `json:"status"`
}

// AccessRecorder accepts scan events without blocking the caller.
type AccessRecorder interface {
	Record(event domain.AccessEvent)
}

// AnalyticsAggregator builds dense scan series from the access log.
type AnalyticsAggregator interface {
	Aggregate(ctx context.Context, qrID string, period domain.Period) (*domain.AnalyticsSummary, error)
	AggregateRange(ctx context.Context, qrID string, period domain.Period, start, end time.Time) (*domain.AnalyticsSummary, error)
}

// ScanService resolves a scanned code to its redirect target.
type ScanService interface {
	Resolve(ctx context.Context, id string, meta domain.ScanMeta) (string, error)
}

// QRCodeService defines the owner-facing QR code operations.
type QRCodeService interface {
	Create(ctx context.Context, ownerID string, in CreateQRCodeInput) (*domain.QRCode, error)
	Get(ctx context.Context, ownerID, id string) (*domain.QRCode, error)
	List(ctx context.Context, ownerID, status string) ([]domain.QRCode, error)
	Update(ctx context.Context, ownerID, id string, in UpdateQRCodeInput) (*domain.QRCode, error)
	Delete(ctx context.Context, ownerID, id string) error
	Pause(ctx context.Context, ownerID, id string) (*domain.QRCode, error)
	Archive(ctx context.Context, ownerID, id string) (*domain.QRCode, error)
	Analytics(ctx context.Context, ownerID, id string, period domain.Period, start, end *time.Time) (*domain.AnalyticsSummary, error)
}

// UserService manages accounts created through login or the CLI.
type UserService interface {
	EnsureUser(ctx context.Context, email, name string) (*domain.User, error)
	CreateAdmin(ctx context.Context, name, email string, limit int) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// AdminService exposes cross-owner views and quota management.
type AdminService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUserLimit(ctx context.Context, id string, limit int) (*domain.User, error)
	ListQRCodes(ctx context.Context, status string) ([]domain.QRCodeWithOwner, error)
}
