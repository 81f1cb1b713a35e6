package repositories

import (
	"context"
	"time"

	"testtaker/internal/domain/models"
)

// TestRepository defines data access operations for tests.
// Every method is scoped to the owning user.
type TestRepository interface {
	// Create inserts a test. A preset ID is kept, otherwise one is generated.
	Create(ctx context.Context, test *models.Test) error

	// GetByID retrieves a test including its content
	GetByID(ctx context.Context, id, userID string) (*models.Test, error)

	// Exists reports whether the user owns a test with this ID
	Exists(ctx context.Context, id, userID string) (bool, error)

	// ListByUser retrieves all tests including content
	ListByUser(ctx context.Context, userID string) ([]models.Test, error)

	// ListPlacements retrieves only ID and folder ID of every test
	ListPlacements(ctx context.Context, userID string) ([]models.Test, error)

	// Update saves title, folder, starred flag and last access time
	Update(ctx context.Context, test *models.Test) error

	// ReplaceContent saves title, content and question counts, leaving placement untouched
	ReplaceContent(ctx context.Context, test *models.Test) error

	// TouchLastAccessed sets last_accessed for a test
	TouchLastAccessed(ctx context.Context, id, userID string, at time.Time) error

	// Delete deletes a test; the database cascades to its attempts
	Delete(ctx context.Context, id, userID string) error

	// MoveFolderContents moves every test in fromFolderID to toFolderID (nil = root)
	MoveFolderContents(ctx context.Context, userID, fromFolderID string, toFolderID *string) error

	// GetTitles returns test titles keyed by ID for the given IDs
	GetTitles(ctx context.Context, userID string, ids []string) (map[string]string, error)
}
