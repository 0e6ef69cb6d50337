// Package queueport is the Redis list that carries checks from the API to the grading workers
package queueport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

// DefaultQueueKey is the list checks are pushed to
const DefaultQueueKey = "grader:checks"

var _ secondary.CheckQueue = &CheckQueue{}

// CheckQueue implements the CheckQueue interface with a Redis list (RPUSH / BLPOP)
type CheckQueue struct {
	redisClient *redis.Client
	key         string
	logger      primary.Logger
}

// NewCheckQueue creates a queue on the given list key
func NewCheckQueue(redisClient *redis.Client, key string, logger primary.Logger) *CheckQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &CheckQueue{
		redisClient: redisClient,
		key:         key,
		logger:      logger,
	}
}

// Enqueue appends a message to the tail of the list
func (q *CheckQueue) Enqueue(ctx context.Context, msg *domain.QueueMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	if err := q.redisClient.RPush(ctx, q.key, payload).Err(); err != nil {
		q.logger.Error("Failed to enqueue check", "checkId", msg.CheckID, "error", err)
		return fmt.Errorf("failed to enqueue check: %w", err)
	}
	return nil
}

// Dequeue pops the head of the list, blocking up to timeout
func (q *CheckQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.QueueMessage, error) {
	res, err := q.redisClient.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.ErrQueueEmpty
		}
		if errors.Is(err, redis.ErrClosed) {
			return nil, errs.ErrQueueClosed
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to dequeue check: %w", err)
	}

	// BLPOP replies with [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply of %d elements", len(res))
	}

	var msg domain.QueueMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		q.logger.Error("Dropping malformed queue message", "payload", res[1], "error", err)
		return nil, fmt.Errorf("failed to unmarshal queue message: %w", err)
	}
	return &msg, nil
}

// Len returns the number of waiting messages
func (q *CheckQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.redisClient.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}
