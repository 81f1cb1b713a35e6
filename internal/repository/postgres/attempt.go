package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
)

// PostgresAttemptRepository implements the AttemptRepository interface
type PostgresAttemptRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(config *RepositoryConfig) repositories.AttemptRepository {
	return &PostgresAttemptRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// attemptSelect joins the test title in; a.* columns are listed explicitly
func (r *PostgresAttemptRepository) attemptSelect() string {
	return fmt.Sprintf(`
		SELECT a.id, a.user_id, a.test_id, a.score, a.total_questions, a.time_taken,
			a.set_name, a.details, a.away_clicks, a.is_reset, a.completed_at, t.title
		FROM %s a
		LEFT JOIN %s t ON t.id = a.test_id
	`, r.tables.Attempts, r.tables.Tests)
}

func scanAttempt(row pgx.Row) (*models.Attempt, error) {
	var attempt models.Attempt
	var details []byte
	err := row.Scan(
		&attempt.ID,
		&attempt.UserID,
		&attempt.TestID,
		&attempt.Score,
		&attempt.TotalQuestions,
		&attempt.TimeTaken,
		&attempt.SetName,
		&details,
		&attempt.AwayClicks,
		&attempt.IsReset,
		&attempt.CompletedAt,
		&attempt.TestTitle,
	)
	if err != nil {
		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &attempt.Details); err != nil {
			return nil, fmt.Errorf("decode details of attempt %s: %w", attempt.ID, err)
		}
	}

	return &attempt, nil
}

// Create records an attempt
func (r *PostgresAttemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	var details []byte
	if attempt.Details != nil {
		var err error
		if details, err = json.Marshal(attempt.Details); err != nil {
			return fmt.Errorf("encode attempt details: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, test_id, score, total_questions, time_taken, set_name, details, away_clicks, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, r.tables.Attempts)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		attempt.UserID,
		attempt.TestID,
		attempt.Score,
		attempt.TotalQuestions,
		attempt.TimeTaken,
		attempt.SetName,
		details,
		attempt.AwayClicks,
		attempt.CompletedAt,
	).Scan(&attempt.ID)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("test %s: %w", attempt.TestID, domain.ErrNotFound)
		}
		return fmt.Errorf("create attempt: %w", err)
	}

	return nil
}

// GetByID retrieves a single attempt
func (r *PostgresAttemptRepository) GetByID(ctx context.Context, id, userID string) (*models.Attempt, error) {
	query := r.attemptSelect() + `WHERE a.id = $1 AND a.user_id = $2`

	executor := GetExecutor(ctx, r.pool)
	attempt, err := scanAttempt(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("attempt %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	return attempt, nil
}

// List retrieves attempts, most recent first
func (r *PostgresAttemptRepository) List(ctx context.Context, userID string, testID *string) ([]models.Attempt, error) {
	query := r.attemptSelect() + `WHERE a.user_id = $1`
	args := []interface{}{userID}
	if testID != nil {
		query += ` AND a.test_id = $2`
		args = append(args, *testID)
	}
	query += ` ORDER BY a.completed_at DESC, a.id ASC`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return []models.Attempt{}, nil
		}
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.Attempt{}
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, *attempt)
	}

	if err := rows.Err(); err != nil {
		if IsPgInvalidInputError(err) {
			return []models.Attempt{}, nil
		}
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	return attempts, nil
}

// ListScores retrieves the score columns of every attempt
func (r *PostgresAttemptRepository) ListScores(ctx context.Context, userID string) ([]models.Attempt, error) {
	query := fmt.Sprintf(`
		SELECT id, test_id, score, total_questions, is_reset, completed_at
		FROM %s
		WHERE user_id = $1
		ORDER BY completed_at DESC, id ASC
	`, r.tables.Attempts)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempt scores: %w", err)
	}
	defer rows.Close()

	attempts := []models.Attempt{}
	for rows.Next() {
		attempt := models.Attempt{UserID: userID}
		err := rows.Scan(
			&attempt.ID,
			&attempt.TestID,
			&attempt.Score,
			&attempt.TotalQuestions,
			&attempt.IsReset,
			&attempt.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt score: %w", err)
		}
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt scores: %w", err)
	}

	return attempts, nil
}

// ResetByTest soft-resets every attempt of a test and clears review details
func (r *PostgresAttemptRepository) ResetByTest(ctx context.Context, userID, testID string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_reset = true, details = NULL
		WHERE test_id = $1 AND user_id = $2
	`, r.tables.Attempts)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, testID, userID)
	if err != nil {
		return 0, fmt.Errorf("reset attempts of test %s: %w", testID, err)
	}

	return result.RowsAffected(), nil
}
