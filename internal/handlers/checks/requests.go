package checks

import (
	"time"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/domain"
)

// CreateCheckRequest represents a request to check code against a task
type CreateCheckRequest struct {
	TaskID   int64  `json:"taskId"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// CreateCheckResponse represents a response to a create check request
type CreateCheckResponse struct {
	CheckID uuid.UUID `json:"checkId"`
}

// CheckResponse is the public view of a check; the submitted code is not echoed back
type CheckResponse struct {
	ID           uuid.UUID            `json:"id"`
	TaskID       int64                `json:"taskId"`
	Language     domain.Language      `json:"language"`
	Status       domain.CheckStatus   `json:"status"`
	Stdout       string               `json:"stdout"`
	Stderr       string               `json:"stderr"`
	ErrorContext *domain.ErrorContext `json:"errorContext,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	StartedAt    *time.Time           `json:"startedAt,omitempty"`
	CompletedAt  *time.Time           `json:"completedAt,omitempty"`
}

func newCheckResponse(c *domain.Check) CheckResponse {
	return CheckResponse{
		ID:           c.ID,
		TaskID:       c.TaskID,
		Language:     c.Language,
		Status:       c.Status,
		Stdout:       c.Stdout,
		Stderr:       c.Stderr,
		ErrorContext: c.ErrorContext,
		CreatedAt:    c.CreatedAt,
		StartedAt:    c.StartedAt,
		CompletedAt:  c.CompletedAt,
	}
}
