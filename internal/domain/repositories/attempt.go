package repositories

import (
	"context"

	"testtaker/internal/domain/models"
)

// AttemptRepository defines data access operations for test attempts.
// Every method is scoped to the owning user.
type AttemptRepository interface {
	// Create records an attempt
	Create(ctx context.Context, attempt *models.Attempt) error

	// GetByID retrieves a single attempt
	GetByID(ctx context.Context, id, userID string) (*models.Attempt, error)

	// List retrieves attempts, most recent first; testID narrows to one test
	List(ctx context.Context, userID string, testID *string) ([]models.Attempt, error)

	// ListScores retrieves the score columns of every attempt (no details), most recent first
	ListScores(ctx context.Context, userID string) ([]models.Attempt, error)

	// ResetByTest soft-resets every attempt of a test and clears review details.
	// Returns the number of attempts affected.
	ResetByTest(ctx context.Context, userID, testID string) (int64, error)
}
