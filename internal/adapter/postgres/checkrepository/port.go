// Package checkrepository stores checks and their verdicts in PostgreSQL
package checkrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/domain"
)

var _ secondary.CheckRepository = &CheckRepository{}

// CheckRepository implements the CheckRepository interface with PostgreSQL
type CheckRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewCheckRepository creates a new PostgreSQL check repository
func NewCheckRepository(db *sqlx.DB, logger primary.Logger) *CheckRepository {
	return &CheckRepository{
		db:     db,
		logger: logger,
	}
}

// CreateCheck saves a new check
func (r *CheckRepository) CreateCheck(ctx context.Context, check *domain.Check) error {
	query := `
		INSERT INTO checks (
			id, user_id, task_id, code, language, status, stdout, stderr, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		check.ID,
		check.UserID,
		check.TaskID,
		check.Code,
		check.Language,
		check.Status,
		check.Stdout,
		check.Stderr,
		check.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create check", "checkId", check.ID, "error", err)
		return fmt.Errorf("failed to create check: %w", err)
	}

	return nil
}

// GetCheck retrieves a check by ID, nil when it does not exist
func (r *CheckRepository) GetCheck(ctx context.Context, checkID uuid.UUID) (*domain.Check, error) {
	query := `
		SELECT id, user_id, task_id, code, language, status, stdout, stderr,
			   error_context, created_at, started_at, completed_at
		FROM checks
		WHERE id = $1
	`

	var check domain.Check
	var errorContext []byte
	var startedAt, completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, checkID).Scan(
		&check.ID,
		&check.UserID,
		&check.TaskID,
		&check.Code,
		&check.Language,
		&check.Status,
		&check.Stdout,
		&check.Stderr,
		&errorContext,
		&check.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get check", "checkId", checkID, "error", err)
		return nil, fmt.Errorf("failed to get check: %w", err)
	}

	if startedAt.Valid {
		check.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		check.CompletedAt = &completedAt.Time
	}
	if len(errorContext) > 0 {
		var ec domain.ErrorContext
		if err := json.Unmarshal(errorContext, &ec); err != nil {
			r.logger.Error("Failed to unmarshal error context", "checkId", checkID, "error", err)
			return nil, fmt.Errorf("failed to unmarshal error context: %w", err)
		}
		check.ErrorContext = &ec
	}

	return &check, nil
}

// MarkRunning moves a pending check into the running state
func (r *CheckRepository) MarkRunning(ctx context.Context, checkID uuid.UUID, startedAt time.Time) error {
	query := `
		UPDATE checks
		SET status = $1, started_at = $2
		WHERE id = $3 AND status IN ($4, $1)
	`

	res, err := r.db.ExecContext(ctx, query, domain.CheckStatusRunning, startedAt, checkID, domain.CheckStatusPending)
	if err != nil {
		r.logger.Error("Failed to mark check running", "checkId", checkID, "error", err)
		return fmt.Errorf("failed to mark check running: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("check %s is not pending", checkID)
	}

	return nil
}

// SaveResult persists the final status, outputs and error context of a check
func (r *CheckRepository) SaveResult(ctx context.Context, check *domain.Check) error {
	var errorContext []byte
	if check.ErrorContext != nil {
		var err error
		errorContext, err = json.Marshal(check.ErrorContext)
		if err != nil {
			return fmt.Errorf("failed to marshal error context: %w", err)
		}
	}

	query := `
		UPDATE checks
		SET status = $1, stdout = $2, stderr = $3, error_context = $4,
			started_at = COALESCE(started_at, $5), completed_at = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		check.Status,
		check.Stdout,
		check.Stderr,
		errorContext,
		check.StartedAt,
		check.CompletedAt,
		check.ID,
	)
	if err != nil {
		r.logger.Error("Failed to save check result", "checkId", check.ID, "error", err)
		return fmt.Errorf("failed to save check result: %w", err)
	}

	return nil
}

// EnsureTableExists creates the checks table when missing
func (r *CheckRepository) EnsureTableExists(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS checks (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			task_id BIGINT NOT NULL,
			code TEXT NOT NULL,
			language VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			stdout TEXT NOT NULL DEFAULT '',
			stderr TEXT NOT NULL DEFAULT '',
			error_context JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			started_at TIMESTAMP WITH TIME ZONE,
			completed_at TIMESTAMP WITH TIME ZONE
		);
		CREATE INDEX IF NOT EXISTS checks_user_task_idx ON checks (user_id, task_id);
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		r.logger.Error("Failed to create checks table", "error", err)
		return fmt.Errorf("failed to create checks table: %w", err)
	}
	return nil
}
