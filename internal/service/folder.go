package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"testtaker/internal/config"
	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
	"testtaker/internal/domain/services"
	"testtaker/internal/stats"
)

type folderService struct {
	folderRepo  repositories.FolderRepository
	testRepo    repositories.TestRepository
	attemptRepo repositories.AttemptRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo repositories.FolderRepository,
	testRepo repositories.TestRepository,
	attemptRepo repositories.AttemptRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.FolderService {
	return &folderService{
		folderRepo:  folderRepo,
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// ListFolders reads folders, test placements and attempt scores from one
// snapshot and annotates every folder with its subtree statistics.
func (s *folderService) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	var (
		folders  []models.Folder
		tests    []models.Test
		attempts []models.Attempt
	)

	err := s.txManager.ExecSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if folders, err = s.folderRepo.ListByUser(ctx, userID); err != nil {
			return err
		}
		if tests, err = s.testRepo.ListPlacements(ctx, userID); err != nil {
			return err
		}
		attempts, err = s.attemptRepo.ListScores(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load folder stats: %w", err)
	}

	stats.AggregateFolders(folders, tests, attempts)

	s.logger.Debug("folders listed",
		"user_id", userID,
		"folders", len(folders),
		"tests", len(tests),
		"attempts", len(attempts),
	)

	return folders, nil
}

// CreateFolder creates a new folder
func (s *folderService) CreateFolder(ctx context.Context, userID string, req *services.CreateFolderRequest) (*models.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ParentID = normalizeID(req.ParentID)

	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if req.ParentID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *req.ParentID, userID); err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
	}

	folder := &models.Folder{
		UserID:   userID,
		ParentID: req.ParentID,
		Name:     req.Name,
	}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
		"user_id", userID,
	)

	return folder, nil
}

// UpdateFolder renames or moves a folder
func (s *folderService) UpdateFolder(ctx context.Context, userID, id string, req *services.UpdateFolderRequest) (*models.Folder, error) {
	if req.Name == nil && !req.ParentID.Present {
		return nil, domain.NewValidationError("no fields to update")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
		if err := validateFolderName(name); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
	}

	folder, err := s.folderRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		folder.Name = *req.Name
	}

	// Tri-state: only move when the field was present
	if req.ParentID.Present {
		parentID := normalizeID(req.ParentID.Value)
		if parentID != nil {
			if err := s.validateNoCircularReference(ctx, userID, id, *parentID); err != nil {
				return nil, err
			}
			s.logger.Debug("moving folder", "folder_id", id, "new_parent_id", *parentID)
		} else {
			s.logger.Debug("moving folder to root", "folder_id", id)
		}
		folder.ParentID = parentID
	}

	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder updated",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// DeleteFolder deletes a folder, optionally moving its contents up one level first
func (s *folderService) DeleteFolder(ctx context.Context, userID, id string, moveContents bool) error {
	folder, err := s.folderRepo.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if !moveContents {
		// Subfolders, tests and their attempts cascade in the database
		if err := s.folderRepo.Delete(ctx, id, userID); err != nil {
			return err
		}
		s.logger.Info("folder deleted with contents", "id", id, "name", folder.Name)
		return nil
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.folderRepo.Reparent(ctx, userID, id, folder.ParentID); err != nil {
			return err
		}
		if err := s.testRepo.MoveFolderContents(ctx, userID, id, folder.ParentID); err != nil {
			return err
		}
		return s.folderRepo.Delete(ctx, id, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder deleted, contents moved",
		"id", id,
		"name", folder.Name,
		"moved_to", folder.ParentID,
	)

	return nil
}

// validateCreateRequest validates a folder creation request
func (s *folderService) validateCreateRequest(req *services.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxFolderNameLength),
		),
	)
}

func validateFolderName(name string) error {
	return validation.Errors{
		"name": validation.Validate(name,
			validation.Required,
			validation.RuneLength(1, config.MaxFolderNameLength),
		),
	}.Filter()
}

// validateNoCircularReference ensures moving folderID under newParentID keeps the tree acyclic.
// The parent must exist and belong to the user.
func (s *folderService) validateNoCircularReference(ctx context.Context, userID, folderID, newParentID string) error {
	if folderID == newParentID {
		return fmt.Errorf("%w: cannot move folder to be its own parent", domain.ErrValidation)
	}

	visited := map[string]bool{}
	currentID := newParentID
	for {
		parent, err := s.folderRepo.GetByID(ctx, currentID, userID)
		if err != nil {
			if currentID == newParentID {
				return fmt.Errorf("parent folder: %w", err)
			}
			return err
		}

		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == folderID {
			return fmt.Errorf("%w: cannot move folder into its own descendant", domain.ErrValidation)
		}

		// Existing data already cyclic above the target: stop walking
		if visited[*parent.ParentID] {
			return nil
		}
		visited[currentID] = true
		currentID = *parent.ParentID
	}
}

// normalizeID maps empty strings and the literal "null" sent by some clients to nil
func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" || v == "null" {
		return nil
	}
	return &v
}
