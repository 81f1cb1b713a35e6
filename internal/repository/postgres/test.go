package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
)

const testColumns = `id, user_id, folder_id, title, content, is_starred, last_accessed,
	question_count, set_count, question_range, created_at`

// PostgresTestRepository implements the TestRepository interface
type PostgresTestRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTestRepository creates a new test repository
func NewTestRepository(config *RepositoryConfig) repositories.TestRepository {
	return &PostgresTestRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanTest(row pgx.Row) (*models.Test, error) {
	var test models.Test
	err := row.Scan(
		&test.ID,
		&test.UserID,
		&test.FolderID,
		&test.Title,
		&test.Content,
		&test.IsStarred,
		&test.LastAccessed,
		&test.QuestionCount,
		&test.SetCount,
		&test.QuestionRange,
		&test.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// Create inserts a test
func (r *PostgresTestRepository) Create(ctx context.Context, test *models.Test) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, folder_id, title, content, question_count, set_count, question_range)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		test.ID,
		test.UserID,
		test.FolderID,
		test.Title,
		test.Content,
		test.QuestionCount,
		test.SetCount,
		test.QuestionRange,
	).Scan(&test.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("test %s already exists", test.ID),
				ResourceType: "test",
				ResourceID:   test.ID,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create test: %w", err)
	}

	return nil
}

// GetByID retrieves a test including its content
func (r *PostgresTestRepository) GetByID(ctx context.Context, id, userID string) (*models.Test, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, testColumns, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	test, err := scanTest(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	return test, nil
}

// Exists reports whether the user owns a test with this ID
func (r *PostgresTestRepository) Exists(ctx context.Context, id, userID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1 AND user_id = $2)
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	var exists bool
	if err := executor.QueryRow(ctx, query, id, userID).Scan(&exists); err != nil {
		if IsPgInvalidInputError(err) {
			return false, nil
		}
		return false, fmt.Errorf("check test exists: %w", err)
	}

	return exists, nil
}

// ListByUser retrieves all tests including content
func (r *PostgresTestRepository) ListByUser(ctx context.Context, userID string) ([]models.Test, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
	`, testColumns, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	tests := []models.Test{}
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		tests = append(tests, *test)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tests: %w", err)
	}

	return tests, nil
}

// ListPlacements retrieves only ID and folder ID of every test
func (r *PostgresTestRepository) ListPlacements(ctx context.Context, userID string) ([]models.Test, error) {
	query := fmt.Sprintf(`
		SELECT id, folder_id
		FROM %s
		WHERE user_id = $1
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list test placements: %w", err)
	}
	defer rows.Close()

	tests := []models.Test{}
	for rows.Next() {
		test := models.Test{UserID: userID}
		if err := rows.Scan(&test.ID, &test.FolderID); err != nil {
			return nil, fmt.Errorf("scan test placement: %w", err)
		}
		tests = append(tests, test)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test placements: %w", err)
	}

	return tests, nil
}

// Update saves title, folder, starred flag and last access time
func (r *PostgresTestRepository) Update(ctx context.Context, test *models.Test) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, folder_id = $2, is_starred = $3, last_accessed = $4
		WHERE id = $5 AND user_id = $6
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		test.Title,
		test.FolderID,
		test.IsStarred,
		test.LastAccessed,
		test.ID,
		test.UserID,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("update test: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("test %s: %w", test.ID, domain.ErrNotFound)
	}

	return nil
}

// ReplaceContent saves title, content and question counts
func (r *PostgresTestRepository) ReplaceContent(ctx context.Context, test *models.Test) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, content = $2, question_count = $3, set_count = $4, question_range = $5
		WHERE id = $6 AND user_id = $7
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		test.Title,
		test.Content,
		test.QuestionCount,
		test.SetCount,
		test.QuestionRange,
		test.ID,
		test.UserID,
	)
	if err != nil {
		return fmt.Errorf("replace test content: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("test %s: %w", test.ID, domain.ErrNotFound)
	}

	return nil
}

// TouchLastAccessed sets last_accessed for a test
func (r *PostgresTestRepository) TouchLastAccessed(ctx context.Context, id, userID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET last_accessed = $1
		WHERE id = $2 AND user_id = $3
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, at, id, userID); err != nil {
		return fmt.Errorf("touch test %s: %w", id, err)
	}

	return nil
}

// Delete deletes a test
func (r *PostgresTestRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete test: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// MoveFolderContents moves every test in fromFolderID to toFolderID
func (r *PostgresTestRepository) MoveFolderContents(ctx context.Context, userID, fromFolderID string, toFolderID *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1
		WHERE folder_id = $2 AND user_id = $3
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, toFolderID, fromFolderID, userID); err != nil {
		return fmt.Errorf("move tests out of folder %s: %w", fromFolderID, err)
	}

	return nil
}

// GetTitles returns test titles keyed by ID for the given IDs
func (r *PostgresTestRepository) GetTitles(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	query := fmt.Sprintf(`
		SELECT id, title
		FROM %s
		WHERE user_id = $1 AND id = ANY($2::uuid[])
	`, r.tables.Tests)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("get test titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("scan test title: %w", err)
		}
		titles[id] = title
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test titles: %w", err)
	}

	return titles, nil
}
