package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"testtaker/internal/config"
	"testtaker/internal/domain/services"
	"testtaker/internal/httputil"
)

// UploadHandler handles multi-file uploads of quizzes and PDFs
type UploadHandler struct {
	uploadService services.UploadService
	maxBytes      int64
	logger        *slog.Logger
}

// NewUploadHandler creates a new upload handler. Request bodies are limited to maxBytes.
func NewUploadHandler(uploadService services.UploadService, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// Upload imports the files of a multipart form
// POST /upload
//
// Form fields:
//   - files: one or more .json quizzes or .pdf documents
//   - folder_id: optional target folder for new tests ("" or "null" = root)
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	cred, ok := httputil.GetCredentials(r)
	if !ok || cred.UserID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "missing credentials")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "No files provided")
		return
	}
	if len(headers) > config.MaxUploadFiles {
		httputil.RespondError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d files per upload", config.MaxUploadFiles))
		return
	}

	// Files are processed before this function returns, so deferred closes are safe.
	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("failed to open uploaded file", "filename", fh.Filename, "error", err)
			httputil.RespondError(w, http.StatusBadRequest, "Failed to read uploaded file "+fh.Filename)
			return
		}
		defer f.Close()

		files = append(files, services.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	var folderID *string
	if v, ok := r.MultipartForm.Value["folder_id"]; ok && len(v) > 0 {
		folderID = &v[0]
	}

	h.logger.Info("upload started", "user_id", cred.UserID, "file_count", len(files), "folder_id", folderID)

	resp, err := h.uploadService.Upload(r.Context(), cred, folderID, files)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
