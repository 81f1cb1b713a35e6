package services

import (
	"context"

	"testtaker/internal/domain/models"
)

// FolderService handles folder business logic
type FolderService interface {
	// ListFolders returns every folder of the user annotated with recursive
	// test count, subfolder count and average score, ordered by name.
	ListFolders(ctx context.Context, userID string) ([]models.Folder, error)

	// CreateFolder creates a new folder
	CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*models.Folder, error)

	// UpdateFolder renames or moves a folder
	UpdateFolder(ctx context.Context, userID, id string, req *UpdateFolderRequest) (*models.Folder, error)

	// DeleteFolder deletes a folder. With moveContents its subfolders and tests
	// move to the deleted folder's parent, otherwise they are deleted with it.
	DeleteFolder(ctx context.Context, userID, id string, moveContents bool) error
}

// OptionalID tracks tri-state semantics for nullable references in PATCH requests.
// Transport-agnostic (no JSON tags) - handlers map from httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: move to root
//   - Present=true, Value=&"id": move under id
type OptionalID struct {
	Present bool
	Value   *string
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // null for root folders
}

// UpdateFolderRequest represents a folder update request
type UpdateFolderRequest struct {
	Name     *string    // rename
	ParentID OptionalID // move
}
