package check

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/core/services/grading"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

const internalErrorPrefix = "internal system error: "

var _ ICheckService = (*CheckService)(nil)

// CheckService implements the ICheckService interface
type CheckService struct {
	checkRepo secondary.CheckRepository
	taskRepo  secondary.TaskRepository
	queue     secondary.CheckQueue
	engine    grading.IGradingEngine
	languages LanguageCatalog
	logger    primary.Logger
}

// NewCheckService creates a new check service
func NewCheckService(
	checkRepo secondary.CheckRepository,
	taskRepo secondary.TaskRepository,
	queue secondary.CheckQueue,
	engine grading.IGradingEngine,
	languages LanguageCatalog,
	logger primary.Logger,
) *CheckService {
	return &CheckService{
		checkRepo: checkRepo,
		taskRepo:  taskRepo,
		queue:     queue,
		engine:    engine,
		languages: languages,
		logger:    logger,
	}
}

// Submit validates a submission, stores a pending check and queues it for grading
func (s *CheckService) Submit(ctx context.Context, sub *domain.Submission) (uuid.UUID, error) {
	if _, err := s.languages.Lookup(sub.Language); err != nil {
		return uuid.Nil, err
	}
	if sub.IsBlank() {
		return uuid.Nil, errs.ErrEmptyCode
	}
	if len(sub.Code) > domain.MaxCodeBytes {
		return uuid.Nil, errs.ErrCodeTooLarge
	}

	task, err := s.taskRepo.GetTask(ctx, sub.TaskID)
	if err != nil {
		s.logger.Error("Failed to get task", "taskId", sub.TaskID, "error", err)
		return uuid.Nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return uuid.Nil, errs.ErrTaskNotFound
	}
	if task.Language != "" && task.Language != sub.Language {
		return uuid.Nil, fmt.Errorf("%w: task %d expects %q", errs.ErrLanguageMismatch, task.ID, task.Language)
	}

	check := domain.NewCheck(sub)
	if err := s.checkRepo.CreateCheck(ctx, check); err != nil {
		s.logger.Error("Failed to save check", "checkId", check.ID, "error", err)
		return uuid.Nil, fmt.Errorf("failed to save check: %w", err)
	}

	msg := &domain.QueueMessage{CheckID: check.ID, EnqueuedAt: time.Now()}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to enqueue check", "checkId", check.ID, "error", err)
		return uuid.Nil, fmt.Errorf("failed to enqueue check: %w", err)
	}

	s.logger.Info("Check submitted",
		"checkId", check.ID,
		"userId", sub.UserID,
		"taskId", sub.TaskID,
		"language", sub.Language)

	return check.ID, nil
}

// GetCheck retrieves a check by ID
func (s *CheckService) GetCheck(ctx context.Context, checkID uuid.UUID) (*domain.Check, error) {
	s.logger.Debug("Getting check", "checkId", checkID)

	check, err := s.checkRepo.GetCheck(ctx, checkID)
	if err != nil {
		s.logger.Error("Failed to get check", "checkId", checkID, "error", err)
		return nil, fmt.Errorf("failed to get check: %w", err)
	}
	if check == nil {
		return nil, errs.ErrCheckNotFound
	}
	return check, nil
}

// Process grades a queued check and records its verdict.
// Grading errors are returned untouched so the caller can tell sandbox faults from bad task data.
func (s *CheckService) Process(ctx context.Context, checkID uuid.UUID) error {
	log := s.logger.With("checkId", checkID)

	check, err := s.GetCheck(ctx, checkID)
	if err != nil {
		return err
	}
	if check.Status.Final() {
		log.Info("Check already graded, skipping", "status", check.Status)
		return nil
	}

	task, err := s.taskRepo.GetTask(ctx, check.TaskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task %d: %w", check.TaskID, errs.ErrTaskNotFound)
	}

	startedAt := time.Now()
	if err := s.checkRepo.MarkRunning(ctx, checkID, startedAt); err != nil {
		log.Error("Failed to mark check running", "error", err)
		return fmt.Errorf("failed to mark check running: %w", err)
	}
	check.Status = domain.CheckStatusRunning
	check.StartedAt = &startedAt

	verdict, err := s.engine.Grade(ctx, &domain.GradeRequest{
		Code:      check.Code,
		Language:  check.Language,
		TestCases: task.Tests,
	})
	if err != nil {
		return fmt.Errorf("failed to grade check: %w", err)
	}

	now := time.Now()
	check.ApplyVerdict(verdict, now)
	if err := s.checkRepo.SaveResult(ctx, check); err != nil {
		log.Error("Failed to save check result", "error", err)
		return fmt.Errorf("failed to save check result: %w", err)
	}

	success := verdict.Status == domain.VerdictSuccess
	if success {
		if err := s.taskRepo.MarkSolved(ctx, check.UserID, check.TaskID, now); err != nil {
			log.Error("Failed to mark task solved", "taskId", check.TaskID, "error", err)
			return fmt.Errorf("failed to mark task solved: %w", err)
		}
	}
	if err := s.taskRepo.IncrementCheckCounters(ctx, check.UserID, success, now); err != nil {
		// the verdict is already stored
		log.Warn("Failed to update check counters", "userId", check.UserID, "error", err)
	}

	log.Info("Check graded", "status", check.Status, "testsRun", verdict.TestsRun)
	return nil
}

// FailCheck closes a check that could not be graded
func (s *CheckService) FailCheck(ctx context.Context, checkID uuid.UUID, reason string) error {
	check, err := s.GetCheck(ctx, checkID)
	if err != nil {
		return err
	}
	if check.Status.Final() {
		return nil
	}

	check.MarkInternalError(internalErrorPrefix+reason, time.Now())
	if err := s.checkRepo.SaveResult(ctx, check); err != nil {
		s.logger.Error("Failed to save failed check", "checkId", checkID, "error", err)
		return fmt.Errorf("failed to save check result: %w", err)
	}

	s.logger.Warn("Check closed with internal error", "checkId", checkID, "reason", reason)
	return nil
}
