package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored draw document.
type UploadResult struct {
	Key      string
	Location string // публичный URL документа
	ETag     string
}

// FileUploader is the object store behind DrawExporter. Exported draws are
// addressed by DrawKey and served from GetPublicURL.
type FileUploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (*UploadResult, error)
	// Delete is idempotent: removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
