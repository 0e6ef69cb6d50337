package secondary

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/domain"
)

type CheckRepository interface {
	// CreateCheck saves a new check
	CreateCheck(ctx context.Context, check *domain.Check) error

	// GetCheck retrieves a check by ID, nil when it does not exist
	GetCheck(ctx context.Context, checkID uuid.UUID) (*domain.Check, error)

	// MarkRunning moves a check into the running state
	MarkRunning(ctx context.Context, checkID uuid.UUID, startedAt time.Time) error

	// SaveResult persists the final status, outputs and error context of a check
	SaveResult(ctx context.Context, check *domain.Check) error
}

type TaskRepository interface {
	// GetTask retrieves a task with its test cases, nil when it does not exist
	GetTask(ctx context.Context, taskID int64) (*domain.Task, error)

	// MarkSolved records that the user solved the task
	MarkSolved(ctx context.Context, userID, taskID int64, solvedAt time.Time) error

	// IncrementCheckCounters bumps the user's check statistics
	IncrementCheckCounters(ctx context.Context, userID int64, success bool, at time.Time) error
}
