package repositories

import (
	"context"
	"io"

	"testtaker/internal/domain/models"
)

// FileStore stores uploaded attachments in an object store bucket.
type FileStore interface {
	// Upload writes body to bucket/path acting as the given caller
	Upload(ctx context.Context, cred models.Credentials, bucket, path, contentType string, body io.Reader) error
}
