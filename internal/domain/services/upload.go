package services

import (
	"context"
	"io"

	"testtaker/internal/domain/models"
)

// UploadService imports quiz files and stores attachments
type UploadService interface {
	// Upload processes each file independently and reports one result per file.
	// A failing file never aborts the batch.
	Upload(ctx context.Context, cred models.Credentials, folderID *string, files []UploadFile) (*models.UploadResponse, error)
}

// UploadFile is one file of a multipart upload
type UploadFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
