package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/domain"
)

const (
	labelRunID    = "dev-mentor.run-id"
	labelLanguage = "dev-mentor.language"

	defaultProvisionTimeout = 30 * time.Second
	defaultTeardownTimeout  = 10 * time.Second
)

var _ IRunner = &Runner{}

// Runner executes learner code in throwaway containers.
// It keeps no state between runs, so one Runner serves any number of concurrent callers.
type Runner struct {
	cfg       *config.SandboxCfg
	profiles  *ProfileTable
	substrate secondary.IsolationSubstrate
	metrics   secondary.MetricsRecorder
	logger    primary.Logger
}

// NewRunner creates a new sandbox runner
func NewRunner(
	cfg *config.SandboxCfg,
	profiles *ProfileTable,
	substrate secondary.IsolationSubstrate,
	metrics secondary.MetricsRecorder,
	logger primary.Logger,
) *Runner {
	return &Runner{
		cfg:       cfg,
		profiles:  profiles,
		substrate: substrate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Profiles returns the language table the runner was built with
func (r *Runner) Profiles() *ProfileTable {
	return r.profiles
}

// EnsureImages pulls every profile image that is not present locally
func (r *Runner) EnsureImages(ctx context.Context) error {
	for _, image := range r.profiles.Images() {
		r.logger.Info("Ensuring sandbox image", "image", image)
		if err := r.substrate.EnsureImage(ctx, image); err != nil {
			r.logger.Error("Failed to ensure sandbox image", "image", image, "error", err)
			return fmt.Errorf("failed to ensure image %s: %w", image, err)
		}
	}
	return nil
}

// Execute runs the request once and reports how it ended
func (r *Runner) Execute(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionOutcome, error) {
	profile, err := r.profiles.Lookup(req.Language)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limits := req.Limits.Merge(profile.Limits)
	runID := uuid.NewString()
	log := r.logger.With("runId", runID, "language", profile.Language)

	started := time.Now()
	outcome, err := r.run(ctx, log, runID, profile, limits, req)
	if err != nil {
		log.Warn("Sandbox run cancelled", "error", err)
		return nil, err
	}
	outcome.Duration = time.Since(started)

	kind := outcome.Kind()
	r.metrics.ObserveExecution(string(profile.Language), string(kind), outcome.Duration)
	log.Debug("Sandbox run finished", "outcome", kind, "duration", outcome.Duration)
	return outcome, nil
}

func (r *Runner) run(
	ctx context.Context,
	log primary.Logger,
	runID string,
	profile domain.LanguageProfile,
	limits domain.Limits,
	req *domain.ExecutionRequest,
) (*domain.ExecutionOutcome, error) {
	if err := limits.Validate(); err != nil {
		return r.fault(log, runID, "check limits", err), nil
	}

	ws, err := newWorkspace(r.cfg.WorkspaceDir, runID)
	if err != nil {
		return r.fault(log, runID, "create workspace", err), nil
	}

	var containerID string
	defer func() {
		r.teardown(log, containerID, ws)
	}()

	if err := ws.writeSource(profile.EntryFile, req.Code); err != nil {
		return r.fault(log, runID, "write source", err), nil
	}

	// a stuck daemon must end the run as a fault instead of blocking it
	provCtx, cancelProv := context.WithTimeout(ctx, r.provisionTimeout())
	defer cancelProv()

	spec := r.containerSpec(runID, ws, profile, limits, req)
	containerID, err = r.substrate.Create(provCtx, spec)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.fault(log, runID, "create container", err), nil
	}

	var stdin io.WriteCloser
	if spec.OpenStdin {
		stdin, err = r.substrate.AttachStdin(provCtx, containerID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return r.fault(log, runID, "attach stdin", err), nil
		}
	}

	if err := r.substrate.Start(provCtx, containerID); err != nil {
		if stdin != nil {
			_ = stdin.Close()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.fault(log, runID, "start container", err), nil
	}

	if stdin != nil {
		go func() {
			defer stdin.Close()
			if _, err := io.WriteString(stdin, req.Stdin); err != nil {
				log.Debug("Stdin delivery interrupted", "error", err)
			}
		}()
	}

	waitCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	exitCode, waitErr := r.substrate.Wait(waitCtx, containerID)
	if waitErr != nil {
		switch {
		case ctx.Err() != nil:
			r.kill(log, containerID)
			return nil, ctx.Err()
		case errors.Is(waitCtx.Err(), context.DeadlineExceeded):
			r.kill(log, containerID)
			log.Info("Sandbox run exceeded time limit", "timeout", limits.Timeout)
			return &domain.ExecutionOutcome{
				RunID:    runID,
				TimedOut: true,
				Stderr:   timeoutMessage(limits.Timeout),
			}, nil
		default:
			return r.fault(log, runID, "wait container", waitErr), nil
		}
	}

	stdout := newBoundedBuffer(r.cfg.OutputLimitBytes)
	stderr := newBoundedBuffer(r.cfg.OutputLimitBytes)
	logsCtx, cancelLogs := context.WithTimeout(ctx, r.provisionTimeout())
	defer cancelLogs()
	if err := r.substrate.Logs(logsCtx, containerID, stdout, stderr); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.fault(log, runID, "read logs", err), nil
	}

	return &domain.ExecutionOutcome{
		RunID:           runID,
		ExitCode:        &exitCode,
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		StdoutTruncated: stdout.truncated,
		StderrTruncated: stderr.truncated,
	}, nil
}

func (r *Runner) containerSpec(
	runID string,
	ws *workspace,
	profile domain.LanguageProfile,
	limits domain.Limits,
	req *domain.ExecutionRequest,
) *secondary.ContainerSpec {
	spec := &secondary.ContainerSpec{
		Name:           "sandbox-" + runID,
		Image:          profile.Image,
		Cmd:            profile.Cmd(),
		User:           r.cfg.User,
		Limits:         limits,
		NetworkEnabled: req.NetworkEnabled,
		OpenStdin:      req.Stdin != "",
		ScratchMB:      r.cfg.ScratchMB,
		Labels: map[string]string{
			labelRunID:    runID,
			labelLanguage: string(profile.Language),
		},
	}

	// The worker itself may run in a container; its workspace then lives on a
	// named volume and each sandbox sees only its own run directory of it.
	if r.cfg.VolumeName != "" {
		spec.Workspace = secondary.WorkspaceMount{
			VolumeName: r.cfg.VolumeName,
			Subpath:    runID,
			Target:     r.cfg.MountPoint,
		}
	} else {
		spec.Workspace = secondary.WorkspaceMount{HostPath: ws.dir, Target: r.cfg.MountPoint}
	}
	spec.WorkingDir = r.cfg.MountPoint
	return spec
}

func (r *Runner) fault(log primary.Logger, runID, op string, err error) *domain.ExecutionOutcome {
	log.Error("Sandbox provisioning failed", "op", op, "error", err)
	return &domain.ExecutionOutcome{
		RunID: runID,
		Fault: &domain.Fault{
			Kind:    domain.FaultProvisioning,
			Message: fmt.Sprintf("%s: %v", op, err),
		},
	}
}

// kill uses a fresh context: the run's own context is usually already done.
func (r *Runner) kill(log primary.Logger, containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.teardownTimeout())
	defer cancel()
	if err := r.substrate.Kill(ctx, containerID); err != nil {
		log.Warn("Failed to kill sandbox container", "containerId", containerID, "error", err)
		r.metrics.IncTeardownFailure("kill")
	}
}

func (r *Runner) teardown(log primary.Logger, containerID string, ws *workspace) {
	ctx, cancel := context.WithTimeout(context.Background(), r.teardownTimeout())
	defer cancel()

	if containerID != "" {
		if err := r.substrate.Remove(ctx, containerID); err != nil {
			log.Warn("Failed to remove sandbox container", "containerId", containerID, "error", err)
			r.metrics.IncTeardownFailure("container")
		}
	}
	if err := ws.remove(); err != nil {
		log.Warn("Failed to remove sandbox workspace", "dir", ws.dir, "error", err)
		r.metrics.IncTeardownFailure("workspace")
	}
}

func (r *Runner) teardownTimeout() time.Duration {
	if r.cfg.TeardownTimeout > 0 {
		return r.cfg.TeardownTimeout
	}
	return defaultTeardownTimeout
}

func (r *Runner) provisionTimeout() time.Duration {
	if r.cfg.ProvisionTimeout > 0 {
		return r.cfg.ProvisionTimeout
	}
	return defaultProvisionTimeout
}

func timeoutMessage(timeout time.Duration) string {
	return fmt.Sprintf("time limit exceeded (%s)", timeout)
}
