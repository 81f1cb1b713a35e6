package services

import (
	"context"
	"time"

	"testtaker/internal/domain/models"
)

// TestService handles test business logic
type TestService interface {
	// ListTests returns every test with score stats and set titles, without content
	ListTests(ctx context.Context, userID string) ([]models.TestSummary, error)

	// GetTest returns a test with content and score stats and records the access
	GetTest(ctx context.Context, userID, id string) (*models.Test, error)

	// UpdateTest applies a partial update
	UpdateTest(ctx context.Context, userID, id string, req *UpdateTestRequest) (*models.Test, error)

	// DeleteTest deletes a test and its attempts
	DeleteTest(ctx context.Context, userID, id string) error

	// ResetStats soft-resets every attempt of a test
	ResetStats(ctx context.Context, userID, id string) error
}

// UpdateTestRequest represents a test update request
type UpdateTestRequest struct {
	Title        *string    `json:"title"`
	FolderID     OptionalID `json:"folder_id"`
	IsStarred    *bool      `json:"is_starred"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// Empty reports whether the request changes nothing
func (r *UpdateTestRequest) Empty() bool {
	return r.Title == nil && !r.FolderID.Present && r.IsStarred == nil && r.LastAccessed == nil
}
