package check

import (
	"context"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/domain"
)

// ICheckService defines the interface for managing checks of learner submissions
type ICheckService interface {
	// Submit validates a submission, stores a pending check and queues it for grading
	Submit(ctx context.Context, sub *domain.Submission) (uuid.UUID, error)

	// GetCheck retrieves a check by ID
	GetCheck(ctx context.Context, checkID uuid.UUID) (*domain.Check, error)

	// Process grades a queued check and records its verdict
	Process(ctx context.Context, checkID uuid.UUID) error

	// FailCheck closes a check that could not be graded
	FailCheck(ctx context.Context, checkID uuid.UUID, reason string) error
}

// LanguageCatalog resolves language tags to run profiles
type LanguageCatalog interface {
	Lookup(lang domain.Language) (domain.LanguageProfile, error)
}
