package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"testtaker/internal/config"
	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
	"testtaker/internal/domain/services"
)

type attemptService struct {
	attemptRepo repositories.AttemptRepository
	testRepo    repositories.TestRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewAttemptService creates a new attempt service
func NewAttemptService(
	attemptRepo repositories.AttemptRepository,
	testRepo repositories.TestRepository,
	logger *slog.Logger,
) services.AttemptService {
	return &attemptService{
		attemptRepo: attemptRepo,
		testRepo:    testRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RecordAttempt stores a finished attempt for one of the user's tests
func (s *attemptService) RecordAttempt(ctx context.Context, userID string, req *services.CreateAttemptRequest) (*models.Attempt, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	exists, err := s.testRepo.Exists(ctx, req.TestID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("test %s: %w", req.TestID, domain.ErrNotFound)
	}

	completedAt := s.now()
	if req.CompletedAt != nil {
		completedAt = req.CompletedAt.UTC()
	}

	attempt := &models.Attempt{
		UserID:         userID,
		TestID:         req.TestID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		TimeTaken:      req.TimeTaken,
		SetName:        req.SetName,
		Details:        req.Details,
		AwayClicks:     req.AwayClicks,
		CompletedAt:    completedAt,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}

	s.logger.Info("attempt recorded",
		"id", attempt.ID,
		"test_id", attempt.TestID,
		"score", attempt.Score,
		"total_questions", attempt.TotalQuestions,
	)

	return attempt, nil
}

// ListAttempts returns the user's attempts, most recent first
func (s *attemptService) ListAttempts(ctx context.Context, userID string, testID *string) ([]models.Attempt, error) {
	return s.attemptRepo.List(ctx, userID, normalizeID(testID))
}

// GetAttempt returns a single attempt
func (s *attemptService) GetAttempt(ctx context.Context, userID, id string) (*models.Attempt, error) {
	return s.attemptRepo.GetByID(ctx, id, userID)
}

// validateCreateRequest validates an attempt submission
func (s *attemptService) validateCreateRequest(req *services.CreateAttemptRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.TestID, validation.Required, is.UUID),
		validation.Field(&req.TotalQuestions, validation.Min(0)),
		validation.Field(&req.Score,
			validation.Min(0),
			validation.Max(req.TotalQuestions).Error(fmt.Sprintf("must be no greater than total_questions (%d)", req.TotalQuestions)),
		),
		validation.Field(&req.TimeTaken, validation.Min(0)),
		validation.Field(&req.SetName, validation.RuneLength(0, config.MaxSetNameLength)),
		validation.Field(&req.AwayClicks, validation.Min(0)),
	)
}
