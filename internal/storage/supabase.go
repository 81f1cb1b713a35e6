// Package storage uploads attachments to Supabase Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
)

// SupabaseStore implements FileStore against the Supabase Storage REST API.
//
// The store itself holds no caller identity: every upload carries the
// caller's access token, so bucket policies are evaluated for that user.
type SupabaseStore struct {
	supabaseURL string
	anonKey     string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewSupabaseStore creates a storage client. anonKey is sent as the apikey
// header; authorization comes from the per-request credentials.
func NewSupabaseStore(supabaseURL, anonKey string, logger *slog.Logger) repositories.FileStore {
	return &SupabaseStore{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// objectURL builds {supabase}/storage/v1/object/{bucket}/{path} with each path segment escaped
func (s *SupabaseStore) objectURL(bucket, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.supabaseURL, url.PathEscape(bucket), strings.Join(segments, "/"))
}

// Upload writes body to bucket/path acting as the given caller
func (s *SupabaseStore) Upload(ctx context.Context, cred models.Credentials, bucket, objectPath, contentType string, body io.Reader) error {
	if cred.AccessToken == "" {
		return fmt.Errorf("storage upload: %w", domain.ErrUnauthorized)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(bucket, objectPath), body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		s.logger.Warn("storage upload rejected",
			"bucket", bucket,
			"path", objectPath,
			"status", resp.StatusCode,
			"user_id", cred.UserID,
		)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	s.logger.Debug("object uploaded", "bucket", bucket, "path", objectPath, "user_id", cred.UserID)
	return nil
}
