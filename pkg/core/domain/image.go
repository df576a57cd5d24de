package domain

import "time"

// HostedImage is the metadata of an uploaded image. The bytes live outside this service.
type HostedImage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"userId"`
	Filename  string    `json:"filename"`
	FilePath  string    `json:"filePath"`
	MimeType  string    `json:"mimeType"`
	FileSize  int64     `json:"fileSize"`
	CreatedAt time.Time `json:"createdAt"`
}
