package secondary

import (
	"context"
	"time"

	"github.com/miderror/dev-mentor/internal/domain"
)

type WorkerRepository interface {
	// SaveWorker saves worker information
	SaveWorker(ctx context.Context, worker *domain.WorkerInfo) error

	// GetWorker retrieves worker information by ID
	GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error)

	// RemoveWorker deletes a worker that shut down
	RemoveWorker(ctx context.Context, workerID string) error

	// RemoveInactiveWorkers removes workers that haven't sent a heartbeat recently
	RemoveInactiveWorkers(ctx context.Context, cutoffTime time.Time) error

	GetWorkersByType(ctx context.Context, workerType string) ([]*domain.WorkerInfo, error)

	GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error)

	GetWorkerTypes(ctx context.Context) ([]string, error)
}
