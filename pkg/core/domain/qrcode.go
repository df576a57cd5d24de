package domain

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultQRCodeName   = "Untitled QR Code"
	MaxQRCodeNameLength = 100
)

// TargetType selects which target field of a QRCode is authoritative.
type TargetType string

const (
	TargetURL   TargetType = "url"
	TargetImage TargetType = "image"
)

// ParseTargetType validates a target type coming from user input.
func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(s); t {
	case TargetURL, TargetImage:
		return t, nil
	}
	return "", NewValidationError("targetType", `must be "url" or "image"`)
}

// QRCode is a dynamic code owned by a single user.
type QRCode struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"userId"`
	CustomName    string     `json:"customName"`
	TargetType    TargetType `json:"targetType"`
	TargetURL     string     `json:"targetUrl,omitempty"`
	HostedImageID string     `json:"hostedImageId,omitempty"`
	Status        Status     `json:"status"`
	AccessCount   int64      `json:"accessCount"` // derived from the access log, never stored
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// QRCodeWithOwner is the admin view of a code.
type QRCodeWithOwner struct {
	QRCode
	Owner *UserSummary `json:"user"`
}

// QRCodeFilter narrows a QR code listing. Empty OwnerID lists every owner.
// Empty Statuses means every non-deleted status.
type QRCodeFilter struct {
	OwnerID  string
	Statuses []Status
}

// ListStatuses converts the "status" query value used by listings.
// "all" selects every non-deleted status.
func ListStatuses(s string) ([]Status, error) {
	if s == "" || s == "all" {
		return nil, nil
	}
	st, err := ParseStatus(s)
	if err != nil {
		return nil, err
	}
	if st == StatusDeleted {
		return nil, NewValidationError("status", "deleted qr codes cannot be listed")
	}
	return []Status{st}, nil
}

// NormalizeName trims a custom name and applies the default.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultQRCodeName, nil
	}
	if utf8.RuneCountInString(name) > MaxQRCodeNameLength {
		return "", NewValidationError("customName", "must not exceed 100 characters")
	}
	return name, nil
}

// ValidateTargetURL accepts absolute URLs with a scheme and a host.
func ValidateTargetURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewValidationError("targetUrl", `is required when targetType is "url"`)
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return NewValidationError("targetUrl", "must be a valid absolute URL")
	}
	return nil
}

// CheckTarget verifies that exactly one target field is set and that it matches the type.
func (q *QRCode) CheckTarget() error {
	switch q.TargetType {
	case TargetURL:
		if q.HostedImageID != "" {
			return NewValidationError("hostedImageId", `must be empty when targetType is "url"`)
		}
		return ValidateTargetURL(q.TargetURL)
	case TargetImage:
		if q.TargetURL != "" {
			return NewValidationError("targetUrl", `must be empty when targetType is "image"`)
		}
		if q.HostedImageID == "" {
			return NewValidationError("hostedImageId", `is required when targetType is "image"`)
		}
		return nil
	}
	return NewValidationError("targetType", `must be "url" or "image"`)
}
