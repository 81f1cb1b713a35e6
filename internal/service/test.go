package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"testtaker/internal/config"
	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
	"testtaker/internal/domain/services"
	"testtaker/internal/stats"
)

type testService struct {
	testRepo    repositories.TestRepository
	folderRepo  repositories.FolderRepository
	attemptRepo repositories.AttemptRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
	now         func() time.Time
}

// NewTestService creates a new test service
func NewTestService(
	testRepo repositories.TestRepository,
	folderRepo repositories.FolderRepository,
	attemptRepo repositories.AttemptRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.TestService {
	return &testService{
		testRepo:    testRepo,
		folderRepo:  folderRepo,
		attemptRepo: attemptRepo,
		txManager:   txManager,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListTests returns every test of the user with score stats and set titles
func (s *testService) ListTests(ctx context.Context, userID string) ([]models.TestSummary, error) {
	var (
		tests    []models.Test
		attempts []models.Attempt
	)

	err := s.txManager.ExecSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if tests, err = s.testRepo.ListByUser(ctx, userID); err != nil {
			return err
		}
		attempts, err = s.attemptRepo.ListScores(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load tests: %w", err)
	}

	stats.AnnotateTests(tests, attempts)

	summaries := make([]models.TestSummary, 0, len(tests))
	for _, t := range tests {
		summary := models.TestSummary{Test: t, Sets: []models.SetSummary{}}
		if outline, err := models.ParseQuizOutline(t.Content); err == nil {
			summary.Sets = outline.SetTitles()
		} else {
			s.logger.Warn("stored quiz content unreadable", "test_id", t.ID, "error", err)
		}
		summary.Content = nil
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetTest returns a test with content and records the access
func (s *testService) GetTest(ctx context.Context, userID, id string) (*models.Test, error) {
	test, err := s.testRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	accessed := s.now()
	if err := s.testRepo.TouchLastAccessed(ctx, id, userID, accessed); err != nil {
		// Reading the test still succeeds
		s.logger.Warn("failed to record test access", "test_id", id, "error", err)
	} else {
		test.LastAccessed = &accessed
	}

	if err := s.annotate(ctx, userID, test); err != nil {
		return nil, err
	}

	return test, nil
}

// UpdateTest applies a partial update to a test
func (s *testService) UpdateTest(ctx context.Context, userID, id string, req *services.UpdateTestRequest) (*models.Test, error) {
	if req.Empty() {
		return nil, domain.NewValidationError("no fields to update")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	test, err := s.testRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.FolderID.Present {
		folderID := normalizeID(req.FolderID.Value)
		if folderID != nil {
			if _, err := s.folderRepo.GetByID(ctx, *folderID, userID); err != nil {
				return nil, err
			}
		}
		test.FolderID = folderID
	}
	if req.IsStarred != nil {
		test.IsStarred = *req.IsStarred
	}
	if req.LastAccessed != nil {
		accessed := req.LastAccessed.UTC()
		test.LastAccessed = &accessed
	}

	if err := s.testRepo.Update(ctx, test); err != nil {
		return nil, err
	}

	s.logger.Info("test updated",
		"id", test.ID,
		"title", test.Title,
		"folder_id", test.FolderID,
		"is_starred", test.IsStarred,
	)

	if err := s.annotate(ctx, userID, test); err != nil {
		return nil, err
	}
	return test, nil
}

// DeleteTest deletes a test and, by cascade, its attempts
func (s *testService) DeleteTest(ctx context.Context, userID, id string) error {
	if err := s.testRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("test deleted", "id", id)
	return nil
}

// ResetStats marks every attempt of a test as reset
func (s *testService) ResetStats(ctx context.Context, userID, id string) error {
	exists, err := s.testRepo.Exists(ctx, id, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
	}

	n, err := s.attemptRepo.ResetByTest(ctx, userID, id)
	if err != nil {
		return err
	}

	s.logger.Info("test stats reset", "test_id", id, "attempts", n)
	return nil
}

// annotate fills the score summary of a single test from its attempts
func (s *testService) annotate(ctx context.Context, userID string, test *models.Test) error {
	attempts, err := s.attemptRepo.List(ctx, userID, &test.ID)
	if err != nil {
		return fmt.Errorf("load attempts: %w", err)
	}
	test.ScoreSummary = stats.DeriveTestScores(attempts).ScoreSummary
	return nil
}

// validateUpdateRequest validates a test update request
func (s *testService) validateUpdateRequest(req *services.UpdateTestRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.NilOrNotEmpty.Error("title cannot be empty"),
			validation.RuneLength(1, config.MaxTestTitleLength),
		),
	)
}
