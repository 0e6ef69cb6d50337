package worker

import (
	"context"

	"github.com/miderror/dev-mentor/internal/domain"
)

// IWorkerRegistrationService tracks the grading workers that consume the check queue
type IWorkerRegistrationService interface {
	// RegisterWorker announces a worker and its capacity
	RegisterWorker(ctx context.Context, workerInfo *domain.WorkerInfo) error

	// Heartbeat refreshes the worker's liveness and current load
	Heartbeat(ctx context.Context, workerID string, load int) error

	// DeregisterWorker removes a worker that is shutting down
	DeregisterWorker(ctx context.Context, workerID string) error

	// GetAvailableWorkers gets live workers of a given type with spare capacity
	GetAvailableWorkers(ctx context.Context, workerType string) ([]*domain.WorkerInfo, error)

	// GetAllWorkers gets all registered workers
	GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error)

	// GetWorkerTypes gets all registered worker types
	GetWorkerTypes(ctx context.Context) ([]string, error)

	// CleanupInactiveWorkers removes workers that haven't sent a heartbeat recently
	CleanupInactiveWorkers(ctx context.Context) error
}
