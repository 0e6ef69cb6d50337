package workerport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/domain"
)

const (
	workerKeyPrefix  = "grader:worker:"
	workerTypePrefix = "grader:type:"
)

var _ secondary.WorkerRepository = &WorkerRepository{}

// WorkerRepository implements the WorkerRepository interface with Redis.
// Each worker is a JSON blob with a TTL plus a member of its type's index set.
type WorkerRepository struct {
	redisClient *redis.Client
	expiration  time.Duration
	logger      primary.Logger
}

// NewWorkerRepository creates a new Redis worker repository; worker records expire after expiration
func NewWorkerRepository(redisClient *redis.Client, expiration time.Duration, logger primary.Logger) *WorkerRepository {
	return &WorkerRepository{
		redisClient: redisClient,
		expiration:  expiration,
		logger:      logger,
	}
}

func workerKey(workerID string) string {
	return workerKeyPrefix + workerID
}

func typeKey(workerType string) string {
	return workerTypePrefix + workerType
}

// SaveWorker saves worker information to Redis
func (r *WorkerRepository) SaveWorker(ctx context.Context, worker *domain.WorkerInfo) error {
	workerJSON, err := json.Marshal(worker)
	if err != nil {
		r.logger.Error("Failed to marshal worker info", "error", err)
		return fmt.Errorf("failed to marshal worker info: %w", err)
	}

	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, workerKey(worker.ID), workerJSON, r.expiration)
		pipe.SAdd(ctx, typeKey(worker.Type), worker.ID)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save worker info", "workerId", worker.ID, "error", err)
		return fmt.Errorf("failed to save worker info: %w", err)
	}

	return nil
}

// GetWorker retrieves worker information from Redis by ID
func (r *WorkerRepository) GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error) {
	workerJSON, err := r.redisClient.Get(ctx, workerKey(workerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to get worker info", "workerId", workerID, "error", err)
		return nil, fmt.Errorf("failed to get worker info: %w", err)
	}

	var worker domain.WorkerInfo
	if err := json.Unmarshal(workerJSON, &worker); err != nil {
		r.logger.Error("Failed to unmarshal worker info", "workerId", workerID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal worker info: %w", err)
	}

	return &worker, nil
}

// RemoveWorker deletes the worker record and drops it from its type index
func (r *WorkerRepository) RemoveWorker(ctx context.Context, workerID string) error {
	worker, err := r.GetWorker(ctx, workerID)
	if err != nil {
		return err
	}

	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, workerKey(workerID))
		if worker != nil {
			pipe.SRem(ctx, typeKey(worker.Type), workerID)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to remove worker", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to remove worker: %w", err)
	}
	return nil
}

// GetWorkersByType returns the live workers registered under workerType
func (r *WorkerRepository) GetWorkersByType(ctx context.Context, workerType string) ([]*domain.WorkerInfo, error) {
	workerIDs, err := r.redisClient.SMembers(ctx, typeKey(workerType)).Result()
	if err != nil {
		r.logger.Error("Failed to get worker IDs", "workerType", workerType, "error", err)
		return nil, fmt.Errorf("failed to get worker IDs: %w", err)
	}
	sort.Strings(workerIDs)

	workers := make([]*domain.WorkerInfo, 0, len(workerIDs))
	for _, workerID := range workerIDs {
		worker, err := r.GetWorker(ctx, workerID)
		if err != nil {
			r.logger.Error("Failed to get worker", "workerId", workerID, "error", err)
			continue
		}
		if worker != nil {
			workers = append(workers, worker)
		}
	}

	return workers, nil
}

// GetAllWorkers retrieves all worker information from Redis
func (r *WorkerRepository) GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error) {
	workerKeys, err := r.scan(ctx, workerKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	workers := make([]*domain.WorkerInfo, 0, len(workerKeys))
	if len(workerKeys) == 0 {
		return workers, nil
	}

	workerData, err := r.redisClient.MGet(ctx, workerKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve worker data: %w", err)
	}

	for _, data := range workerData {
		raw, ok := data.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		var worker domain.WorkerInfo
		if err := json.Unmarshal([]byte(raw), &worker); err != nil {
			return nil, fmt.Errorf("failed to unmarshal worker data: %w", err)
		}
		workers = append(workers, &worker)
	}

	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
	return workers, nil
}

// GetWorkerTypes lists the worker types that have an index set
func (r *WorkerRepository) GetWorkerTypes(ctx context.Context) ([]string, error) {
	keys, err := r.scan(ctx, workerTypePrefix+"*")
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(keys))
	for _, key := range keys {
		types = append(types, strings.TrimPrefix(key, workerTypePrefix))
	}
	sort.Strings(types)
	return types, nil
}

// RemoveInactiveWorkers drops workers whose heartbeat is older than cutoffTime and
// prunes index entries of workers whose record already expired
func (r *WorkerRepository) RemoveInactiveWorkers(ctx context.Context, cutoffTime time.Time) error {
	typeKeys, err := r.scan(ctx, workerTypePrefix+"*")
	if err != nil {
		return err
	}

	for _, key := range typeKeys {
		workerIDs, err := r.redisClient.SMembers(ctx, key).Result()
		if err != nil {
			r.logger.Error("Failed to get worker IDs", "typeKey", key, "error", err)
			continue
		}

		for _, workerID := range workerIDs {
			worker, err := r.GetWorker(ctx, workerID)
			if err != nil {
				continue
			}
			if worker != nil && !worker.LastHeartbeat.Before(cutoffTime) {
				continue
			}

			r.logger.Info("Removing inactive worker", "workerId", workerID)
			if err := r.redisClient.Del(ctx, workerKey(workerID)).Err(); err != nil {
				r.logger.Error("Failed to delete worker", "workerId", workerID, "error", err)
				continue
			}
			if err := r.redisClient.SRem(ctx, key, workerID).Err(); err != nil {
				r.logger.Error("Failed to remove worker from type index", "workerId", workerID, "error", err)
			}
		}
	}

	return nil
}

func (r *WorkerRepository) scan(ctx context.Context, pattern string) ([]string, error) {
	var cursor uint64
	var found []string
	for {
		keys, next, err := r.redisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys %q: %w", pattern, err)
		}
		found = append(found, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return found, nil
}
