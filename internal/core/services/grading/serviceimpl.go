package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/core/services/sandbox"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

var _ IGradingEngine = &Engine{}

// Engine compares sandboxed runs of a submission with expected outputs
type Engine struct {
	runner  sandbox.IRunner
	cfg     *config.GradingCfg
	metrics secondary.MetricsRecorder
	logger  primary.Logger
}

// NewEngine creates a new grading engine
func NewEngine(runner sandbox.IRunner, cfg *config.GradingCfg, metrics secondary.MetricsRecorder, logger primary.Logger) *Engine {
	return &Engine{
		runner:  runner,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

func (e *Engine) Grade(ctx context.Context, req *domain.GradeRequest) (*domain.GradingVerdict, error) {
	if len(req.TestCases) == 0 {
		return nil, errs.ErrNoTestCases
	}

	log := e.logger.With("language", req.Language, "tests", len(req.TestCases))
	log.Debug("Grading run state", "state", domain.StateRunning)

	var stdout string
	for i, tc := range req.TestCases {
		index := i + 1
		stdin := tc.Stdin()

		outcome, err := e.runner.Execute(ctx, &domain.ExecutionRequest{
			Code:     req.Code,
			Language: req.Language,
			Stdin:    stdin,
			Limits:   req.Limits,
		})
		if err != nil {
			return nil, fmt.Errorf("test %d: %w", index, err)
		}
		if outcome.Fault != nil {
			log.Error("Sandbox fault while grading", "test", index, "runId", outcome.RunID, "fault", outcome.Fault.Message)
			return nil, &domain.InfrastructureError{
				Op:    fmt.Sprintf("execute test %d", index),
				RunID: outcome.RunID,
				Err:   errors.New(outcome.Fault.Message),
			}
		}

		stdout = e.truncate(outcome.Stdout)

		if outcome.TimedOut || outcome.ExitCode == nil || *outcome.ExitCode != 0 || outcome.Stderr != "" {
			kind := domain.FailureRuntimeError
			if outcome.TimedOut {
				kind = domain.FailureTimeout
			}
			return e.finish(log, req, &domain.GradingVerdict{
				Status: domain.VerdictError,
				Failure: &domain.FailureRecord{
					Kind:      kind,
					TestIndex: index,
					Stderr:    e.truncate(outcome.Stderr),
					TimedOut:  outcome.TimedOut,
				},
				Stdout:   stdout,
				TestsRun: index,
			}), nil
		}

		actual := strings.TrimSpace(outcome.Stdout)
		expected := tc.Expected.Normalized()
		if actual != expected {
			return e.finish(log, req, &domain.GradingVerdict{
				Status: domain.VerdictError,
				Failure: &domain.FailureRecord{
					Kind:      domain.FailureWrongAnswer,
					TestIndex: index,
					Input:     stdin,
					Expected:  expected,
					Actual:    e.truncate(actual),
				},
				Stdout:   stdout,
				TestsRun: index,
			}), nil
		}
	}

	return e.finish(log, req, &domain.GradingVerdict{
		Status:   domain.VerdictSuccess,
		Stdout:   stdout,
		TestsRun: len(req.TestCases),
	}), nil
}

func (e *Engine) finish(log primary.Logger, req *domain.GradeRequest, v *domain.GradingVerdict) *domain.GradingVerdict {
	state := v.State()
	e.metrics.ObserveVerdict(string(req.Language), string(state))
	if v.Failure != nil {
		log.Info("Submission failed", "state", state, "test", v.Failure.TestIndex)
	} else {
		log.Info("Submission passed", "state", state)
	}
	return v
}

// truncate keeps at most OutputCap characters.
func (e *Engine) truncate(s string) string {
	limit := e.cfg.OutputCap
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
