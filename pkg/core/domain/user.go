package domain

import "time"

const DefaultQRCodeLimit = 20

// Role of a platform user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the account owning QR codes.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	QRCodeLimit int       `json:"qrCodeLimit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserSummary is the owner block embedded in admin listings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity is the authenticated caller as established by the auth middleware.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
