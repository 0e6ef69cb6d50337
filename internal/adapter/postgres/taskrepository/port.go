// Package taskrepository reads tasks and records learner progress in PostgreSQL
package taskrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/domain"
)

var _ secondary.TaskRepository = &TaskRepository{}

// TaskRepository implements the TaskRepository interface with PostgreSQL
type TaskRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// taskRow is the database shape of a task; tests hold a JSON test suite
type taskRow struct {
	ID       int64          `db:"id"`
	Title    string         `db:"title"`
	Language sql.NullString `db:"language"`
	Tests    []byte         `db:"tests"`
}

// NewTaskRepository creates a new PostgreSQL task repository
func NewTaskRepository(db *sqlx.DB, logger primary.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// GetTask retrieves a task with its test cases, nil when it does not exist
func (r *TaskRepository) GetTask(ctx context.Context, taskID int64) (*domain.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, `SELECT id, title, language, tests FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get task", "taskId", taskID, "error", err)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	task := &domain.Task{
		ID:       row.ID,
		Title:    row.Title,
		Language: domain.Language(row.Language.String),
	}
	if len(row.Tests) > 0 {
		var suite domain.TestSuite
		if err := json.Unmarshal(row.Tests, &suite); err != nil {
			r.logger.Error("Failed to unmarshal task tests", "taskId", taskID, "error", err)
			return nil, fmt.Errorf("task %d: %w", taskID, err)
		}
		task.Tests = suite.Tests
	}

	return task, nil
}

// MarkSolved records that the user solved the task
func (r *TaskRepository) MarkSolved(ctx context.Context, userID, taskID int64, solvedAt time.Time) error {
	query := `
		INSERT INTO user_task_status (user_id, task_id, status, solved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, task_id) DO UPDATE SET
			status = EXCLUDED.status,
			solved_at = EXCLUDED.solved_at
	`

	if _, err := r.db.ExecContext(ctx, query, userID, taskID, domain.TaskProgressSolved, solvedAt); err != nil {
		r.logger.Error("Failed to mark task solved", "userId", userID, "taskId", taskID, "error", err)
		return fmt.Errorf("failed to mark task solved: %w", err)
	}
	return nil
}

// IncrementCheckCounters bumps the user's check statistics
func (r *TaskRepository) IncrementCheckCounters(ctx context.Context, userID int64, success bool, at time.Time) error {
	successful, failed := 0, 1
	if success {
		successful, failed = 1, 0
	}

	query := `
		INSERT INTO user_check_stats (user_id, checks_count, successful_checks_count, failed_checks_count, last_activity_at)
		VALUES ($1, 1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			checks_count = user_check_stats.checks_count + 1,
			successful_checks_count = user_check_stats.successful_checks_count + EXCLUDED.successful_checks_count,
			failed_checks_count = user_check_stats.failed_checks_count + EXCLUDED.failed_checks_count,
			last_activity_at = EXCLUDED.last_activity_at
	`

	if _, err := r.db.ExecContext(ctx, query, userID, successful, failed, at); err != nil {
		r.logger.Error("Failed to update check counters", "userId", userID, "error", err)
		return fmt.Errorf("failed to update check counters: %w", err)
	}
	return nil
}

// EnsureTableExists creates the task and progress tables when missing
func (r *TaskRepository) EnsureTableExists(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			language VARCHAR(32),
			tests JSONB NOT NULL DEFAULT '{"tests": []}'
		);
		CREATE TABLE IF NOT EXISTS user_task_status (
			user_id BIGINT NOT NULL,
			task_id BIGINT NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
			status VARCHAR(16) NOT NULL,
			solved_at TIMESTAMP WITH TIME ZONE,
			PRIMARY KEY (user_id, task_id)
		);
		CREATE TABLE IF NOT EXISTS user_check_stats (
			user_id BIGINT PRIMARY KEY,
			checks_count INTEGER NOT NULL DEFAULT 0,
			successful_checks_count INTEGER NOT NULL DEFAULT 0,
			failed_checks_count INTEGER NOT NULL DEFAULT 0,
			last_activity_at TIMESTAMP WITH TIME ZONE
		);
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		r.logger.Error("Failed to create task tables", "error", err)
		return fmt.Errorf("failed to create task tables: %w", err)
	}
	return nil
}
