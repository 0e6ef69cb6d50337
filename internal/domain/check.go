package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CheckStatus is the persisted status of a check
type CheckStatus string

const (
	CheckStatusPending CheckStatus = "PENDING"
	CheckStatusRunning CheckStatus = "RUNNING"
	CheckStatusSuccess CheckStatus = "SUCCESS"
	CheckStatusError   CheckStatus = "ERROR"
	CheckStatusTimeout CheckStatus = "TIMEOUT"
)

// Final reports whether the check has reached an end state.
func (s CheckStatus) Final() bool {
	return s == CheckStatusSuccess || s == CheckStatusError || s == CheckStatusTimeout
}

// ErrorContext keeps what a learner needs to understand a failed check.
type ErrorContext struct {
	Kind      FailureKind `json:"kind"`
	TestIndex int         `json:"testIndex"`
	Input     string      `json:"input,omitempty"`
	Expected  string      `json:"expected,omitempty"`
	TimedOut  bool        `json:"timedOut,omitempty"`
}

// Check is the durable record of one submission and its verdict
type Check struct {
	ID           uuid.UUID     `json:"id"`
	UserID       int64         `json:"userId"`
	TaskID       int64         `json:"taskId"`
	Code         string        `json:"code"`
	Language     Language      `json:"language"`
	Status       CheckStatus   `json:"status"`
	Stdout       string        `json:"stdout"`
	Stderr       string        `json:"stderr"`
	ErrorContext *ErrorContext `json:"errorContext,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// NewCheck creates a pending check for a submission
func NewCheck(sub *Submission) *Check {
	return &Check{
		ID:        uuid.New(),
		UserID:    sub.UserID,
		TaskID:    sub.TaskID,
		Code:      sub.Code,
		Language:  sub.Language,
		Status:    CheckStatusPending,
		CreatedAt: time.Now(),
	}
}

// ApplyVerdict records a verdict on the check.
func (c *Check) ApplyVerdict(v *GradingVerdict, at time.Time) {
	c.CompletedAt = &at
	c.Stdout = storable(v.Stdout)
	c.Stderr = ""
	c.ErrorContext = nil

	if v.Failure == nil {
		c.Status = CheckStatusSuccess
		return
	}

	f := v.Failure
	c.Status = CheckStatusError
	if f.Kind == FailureTimeout {
		c.Status = CheckStatusTimeout
	}
	c.ErrorContext = &ErrorContext{
		Kind:      f.Kind,
		TestIndex: f.TestIndex,
		TimedOut:  f.TimedOut,
	}
	switch f.Kind {
	case FailureWrongAnswer:
		c.Stdout = storable(f.Actual)
		c.ErrorContext.Input = storable(f.Input)
		c.ErrorContext.Expected = storable(f.Expected)
	default:
		c.Stderr = storable(f.Stderr)
	}
}

// storable drops NUL bytes, which postgres text and jsonb values reject.
func storable(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// MarkInternalError closes the check when grading could not complete.
func (c *Check) MarkInternalError(message string, at time.Time) {
	c.Status = CheckStatusError
	c.Stderr = message
	c.ErrorContext = nil
	c.CompletedAt = &at
}
