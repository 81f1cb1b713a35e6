package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
	"testtaker/internal/domain/services"
)

const pdfContentType = "application/pdf"

type uploadService struct {
	testRepo   repositories.TestRepository
	folderRepo repositories.FolderRepository
	files      repositories.FileStore
	pdfBucket  string
	logger     *slog.Logger
}

// NewUploadService creates a new upload service. PDFs are stored in pdfBucket.
func NewUploadService(
	testRepo repositories.TestRepository,
	folderRepo repositories.FolderRepository,
	files repositories.FileStore,
	pdfBucket string,
	logger *slog.Logger,
) services.UploadService {
	return &uploadService{
		testRepo:   testRepo,
		folderRepo: folderRepo,
		files:      files,
		pdfBucket:  pdfBucket,
		logger:     logger,
	}
}

// Upload imports quiz JSON files as tests and stores PDFs. Each file gets its
// own result; only an unknown target folder fails the whole request.
func (s *uploadService) Upload(ctx context.Context, cred models.Credentials, folderID *string, files []services.UploadFile) (*models.UploadResponse, error) {
	folderID = normalizeID(folderID)
	if folderID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *folderID, cred.UserID); err != nil {
			return nil, err
		}
	}

	resp := &models.UploadResponse{Results: make([]models.UploadResult, 0, len(files))}
	for _, f := range files {
		// Clients may send paths; only the base name is used
		name := path.Base(strings.ReplaceAll(f.Filename, "\\", "/"))

		var result models.UploadResult
		switch {
		case strings.HasSuffix(name, ".json"):
			result = s.importQuiz(ctx, cred.UserID, folderID, name, f.Body)
		case strings.HasSuffix(name, ".pdf"):
			result = s.storePDF(ctx, cred, name, f.Body)
		default:
			result = uploadError(name, "Unsupported file type")
		}

		if result.Status == models.UploadStatusError {
			s.logger.Warn("upload file failed", "filename", name, "detail", result.Detail, "user_id", cred.UserID)
		}
		resp.Results = append(resp.Results, result)
	}

	return resp, nil
}

// importQuiz creates a test from quiz JSON, or replaces the content of the
// user's existing test when the quiz carries its ID. A re-uploaded test stays
// in its folder.
func (s *uploadService) importQuiz(ctx context.Context, userID string, folderID *string, filename string, body io.Reader) models.UploadResult {
	raw, err := io.ReadAll(body)
	if err != nil {
		return uploadError(filename, err.Error())
	}

	outline, err := models.ParseQuizOutline(raw)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || len(bytes.TrimSpace(raw)) == 0 {
			return uploadError(filename, "Invalid JSON")
		}
		return uploadError(filename, err.Error())
	}

	test := &models.Test{
		UserID:        userID,
		FolderID:      folderID,
		Title:         strings.TrimSuffix(filename, ".json"),
		Content:       json.RawMessage(raw),
		QuestionCount: outline.QuestionCount(),
		SetCount:      len(outline.Sets),
		QuestionRange: outline.QuestionRange(),
	}

	// An embedded ID that is not a UUID is ignored
	if id, err := uuid.Parse(outline.ID); err == nil {
		test.ID = id.String()

		exists, err := s.testRepo.Exists(ctx, test.ID, userID)
		if err != nil {
			return uploadError(filename, err.Error())
		}
		if exists {
			if err := s.testRepo.ReplaceContent(ctx, test); err != nil {
				return uploadError(filename, err.Error())
			}
			s.logger.Info("test re-uploaded", "id", test.ID, "title", test.Title)
			return models.UploadResult{Filename: filename, Status: models.UploadStatusUpdated, ID: test.ID}
		}
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return uploadError(filename, fmt.Sprintf("test id %s is already in use", test.ID))
		}
		return uploadError(filename, err.Error())
	}

	s.logger.Info("test uploaded",
		"id", test.ID,
		"title", test.Title,
		"folder_id", test.FolderID,
		"sets", test.SetCount,
		"questions", test.QuestionCount,
	)
	return models.UploadResult{Filename: filename, Status: models.UploadStatusCreated, ID: test.ID}
}

// storePDF stores a PDF under the user's directory with the caller's credential
func (s *uploadService) storePDF(ctx context.Context, cred models.Credentials, filename string, body io.Reader) models.UploadResult {
	objectPath := cred.UserID + "/" + filename
	if err := s.files.Upload(ctx, cred, s.pdfBucket, objectPath, pdfContentType, body); err != nil {
		return uploadError(filename, err.Error())
	}

	s.logger.Info("pdf stored", "path", objectPath, "bucket", s.pdfBucket)
	return models.UploadResult{Filename: filename, Status: models.UploadStatusSuccess, Path: objectPath}
}

func uploadError(filename, detail string) models.UploadResult {
	return models.UploadResult{Filename: filename, Status: models.UploadStatusError, Detail: detail}
}
