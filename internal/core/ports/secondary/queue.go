package secondary

import (
	"context"
	"time"

	"github.com/miderror/dev-mentor/internal/domain"
)

// CheckQueue carries grading requests from the API to the workers
type CheckQueue interface {
	// Enqueue appends a message to the queue
	Enqueue(ctx context.Context, msg *domain.QueueMessage) error

	// Dequeue blocks up to timeout for the next message; it returns errs.ErrQueueEmpty on timeout
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.QueueMessage, error)

	// Len returns the number of waiting messages
	Len(ctx context.Context) (int64, error)
}
