package services

import (
	"context"
	"time"

	"testtaker/internal/domain/models"
)

// AttemptService handles recording and reviewing test attempts
type AttemptService interface {
	// RecordAttempt stores a finished attempt
	RecordAttempt(ctx context.Context, userID string, req *CreateAttemptRequest) (*models.Attempt, error)

	// ListAttempts returns attempts most recent first, optionally for one test
	ListAttempts(ctx context.Context, userID string, testID *string) ([]models.Attempt, error)

	// GetAttempt returns a single attempt
	GetAttempt(ctx context.Context, userID, id string) (*models.Attempt, error)
}

// CreateAttemptRequest represents a finished attempt submitted by the client
type CreateAttemptRequest struct {
	TestID         string                  `json:"test_id"`
	Score          int                     `json:"score"`
	TotalQuestions int                     `json:"total_questions"`
	TimeTaken      int                     `json:"time_taken"`
	SetName        *string                 `json:"set_name,omitempty"`
	Details        []models.QuestionDetail `json:"details,omitempty"`
	AwayClicks     *int                    `json:"away_clicks,omitempty"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"` // defaults to now
}
