package sandbox

import (
	"context"

	"github.com/miderror/dev-mentor/internal/domain"
)

// IRunner executes one program once inside an isolated, resource-bounded environment
type IRunner interface {
	// Execute runs the request and reports how it ended.
	// Learner misbehavior (crash, non-zero exit, hang) is encoded in the outcome, never returned as an error.
	// Errors are returned only for unsupported languages and for caller cancellation.
	Execute(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionOutcome, error)
}
