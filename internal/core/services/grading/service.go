package grading

import (
	"context"

	"github.com/miderror/dev-mentor/internal/domain"
)

// IGradingEngine grades one submission against its ordered test cases
type IGradingEngine interface {
	// Grade runs the tests in order and stops at the first failure.
	// A task without tests is rejected with errs.ErrNoTestCases.
	// Sandbox faults are returned as *domain.InfrastructureError, never as a verdict.
	Grade(ctx context.Context, req *domain.GradeRequest) (*domain.GradingVerdict, error)
}
