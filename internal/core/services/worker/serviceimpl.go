package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/domain"
)

var _ IWorkerRegistrationService = &WorkerRegistrationService{}

// WorkerRegistrationService implements the IWorkerRegistrationService interface
type WorkerRegistrationService struct {
	workerRepo secondary.WorkerRepository
	logger     primary.Logger

	// liveness windows, both multiples of the heartbeat interval
	activeWindow  time.Duration
	cleanupWindow time.Duration
}

// NewWorkerRegistrationService creates a new worker registration service
func NewWorkerRegistrationService(workerRepo secondary.WorkerRepository, heartbeatInterval time.Duration, logger primary.Logger) *WorkerRegistrationService {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &WorkerRegistrationService{
		workerRepo:    workerRepo,
		logger:        logger,
		activeWindow:  4 * heartbeatInterval,
		cleanupWindow: 10 * heartbeatInterval,
	}
}

// RegisterWorker announces a worker and its capacity
func (s *WorkerRegistrationService) RegisterWorker(ctx context.Context, workerInfo *domain.WorkerInfo) error {
	s.logger.Info("Registering worker", "workerId", workerInfo.ID, "type", workerInfo.Type, "capacity", workerInfo.Capacity)

	workerInfo.LastHeartbeat = time.Now()
	workerInfo.IsActive = true

	if err := s.workerRepo.SaveWorker(ctx, workerInfo); err != nil {
		s.logger.Error("Failed to save worker", "workerId", workerInfo.ID, "error", err)
		return fmt.Errorf("failed to register worker: %w", err)
	}

	return nil
}

// Heartbeat refreshes the worker's liveness and current load
func (s *WorkerRegistrationService) Heartbeat(ctx context.Context, workerID string, load int) error {
	s.logger.Debug("Worker heartbeat", "workerId", workerID, "load", load)

	worker, err := s.workerRepo.GetWorker(ctx, workerID)
	if err != nil {
		s.logger.Error("Failed to get worker for heartbeat", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to get worker: %w", err)
	}
	if worker == nil {
		return fmt.Errorf("worker not found: %s", workerID)
	}

	worker.LastHeartbeat = time.Now()
	worker.CurrentLoad = load
	worker.IsActive = true

	if err := s.workerRepo.SaveWorker(ctx, worker); err != nil {
		s.logger.Error("Failed to update worker heartbeat", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to update worker heartbeat: %w", err)
	}

	return nil
}

// DeregisterWorker removes a worker that is shutting down
func (s *WorkerRegistrationService) DeregisterWorker(ctx context.Context, workerID string) error {
	s.logger.Info("Deregistering worker", "workerId", workerID)

	if err := s.workerRepo.RemoveWorker(ctx, workerID); err != nil {
		s.logger.Error("Failed to remove worker", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to deregister worker: %w", err)
	}
	return nil
}

// GetAvailableWorkers gets live workers of a given type with spare capacity
func (s *WorkerRegistrationService) GetAvailableWorkers(ctx context.Context, workerType string) ([]*domain.WorkerInfo, error) {
	s.logger.Debug("Getting available workers", "type", workerType)

	workers, err := s.workerRepo.GetWorkersByType(ctx, workerType)
	if err != nil {
		s.logger.Error("Failed to get workers by type", "type", workerType, "error", err)
		return nil, fmt.Errorf("failed to get workers by type: %w", err)
	}

	available := make([]*domain.WorkerInfo, 0, len(workers))
	threshold := time.Now().Add(-s.activeWindow)
	for _, w := range workers {
		w.IsActive = w.LastHeartbeat.After(threshold)
		if w.IsActive && w.CurrentLoad < w.Capacity {
			available = append(available, w)
		}
	}

	return available, nil
}

// GetAllWorkers gets all registered workers, annotated with their liveness
func (s *WorkerRegistrationService) GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error) {
	s.logger.Debug("Getting all workers")

	workers, err := s.workerRepo.GetAllWorkers(ctx)
	if err != nil {
		s.logger.Error("Failed to get all workers", "error", err)
		return nil, fmt.Errorf("failed to get all workers: %w", err)
	}

	threshold := time.Now().Add(-s.activeWindow)
	for _, w := range workers {
		w.IsActive = w.LastHeartbeat.After(threshold)
	}

	return workers, nil
}

// GetWorkerTypes gets all registered worker types
func (s *WorkerRegistrationService) GetWorkerTypes(ctx context.Context) ([]string, error) {
	types, err := s.workerRepo.GetWorkerTypes(ctx)
	if err != nil {
		s.logger.Error("Failed to get worker types", "error", err)
		return nil, fmt.Errorf("failed to get worker types: %w", err)
	}
	return types, nil
}

// CleanupInactiveWorkers removes workers that haven't sent a heartbeat recently
func (s *WorkerRegistrationService) CleanupInactiveWorkers(ctx context.Context) error {
	s.logger.Debug("Cleaning up inactive workers")

	if err := s.workerRepo.RemoveInactiveWorkers(ctx, time.Now().Add(-s.cleanupWindow)); err != nil {
		s.logger.Error("Failed to remove inactive workers", "error", err)
		return fmt.Errorf("failed to clean up inactive workers: %w", err)
	}

	return nil
}
