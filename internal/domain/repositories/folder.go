package repositories

import (
	"context"

	"testtaker/internal/domain/models"
)

// FolderRepository defines data access operations for folders.
// Every method is scoped to the owning user.
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id, userID string) (*models.Folder, error)

	// Update saves the folder's name and parent
	Update(ctx context.Context, folder *models.Folder) error

	// Delete deletes a folder; the database cascades to subfolders and tests
	Delete(ctx context.Context, id, userID string) error

	// ListByUser retrieves all of a user's folders (flat list, ordered by name)
	ListByUser(ctx context.Context, userID string) ([]models.Folder, error)

	// Reparent moves the immediate subfolders of fromID under toID (nil = root)
	Reparent(ctx context.Context, userID, fromID string, toID *string) error
}
