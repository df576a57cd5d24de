package domain

import "time"

// AccessEvent is one resolved scan. Events are append-only.
type AccessEvent struct {
	ID        string    `json:"id"`
	QRCodeID  string    `json:"qrCodeId"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"userAgent,omitempty"`
	Referer   string    `json:"referer,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
}

// ScanMeta is the request metadata captured alongside a scan.
type ScanMeta struct {
	UserAgent string
	Referer   string
	IPAddress string
}
