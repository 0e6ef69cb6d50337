package domain

import (
	"fmt"
	"time"
)

// Limits are the resource ceilings applied to one sandboxed execution
type Limits struct {
	MemoryBytes int64         `json:"memoryBytes"`
	CPUShares   int64         `json:"cpuShares"`
	PidsLimit   int64         `json:"pidsLimit"`
	Timeout     time.Duration `json:"timeout"`
}

// Merge returns l with every zero field taken from defaults.
func (l Limits) Merge(defaults Limits) Limits {
	if l.MemoryBytes <= 0 {
		l.MemoryBytes = defaults.MemoryBytes
	}
	if l.CPUShares <= 0 {
		l.CPUShares = defaults.CPUShares
	}
	if l.PidsLimit <= 0 {
		l.PidsLimit = defaults.PidsLimit
	}
	if l.Timeout <= 0 {
		l.Timeout = defaults.Timeout
	}
	return l
}

// Validate rejects limits the container runtime would read as unlimited.
func (l Limits) Validate() error {
	switch {
	case l.MemoryBytes <= 0:
		return fmt.Errorf("memory limit must be positive, got %d", l.MemoryBytes)
	case l.PidsLimit <= 0:
		return fmt.Errorf("pids limit must be positive, got %d", l.PidsLimit)
	case l.Timeout <= 0:
		return fmt.Errorf("time limit must be positive, got %s", l.Timeout)
	}
	return nil
}

// ExecutionRequest is one attempt to run learner code once.
// It is built fresh per attempt and never shared between runs.
type ExecutionRequest struct {
	Code           string
	Language       Language
	Stdin          string
	Limits         Limits
	NetworkEnabled bool
}

// FaultKind classifies failures of the sandbox itself
type FaultKind string

const (
	FaultProvisioning FaultKind = "PROVISIONING"
)

// Fault describes why the isolated environment could not run the program.
type Fault struct {
	Kind    FaultKind `json:"kind"`
	Message string    `json:"message"`
}

// OutcomeKind is the runner-level classification of one execution
type OutcomeKind string

const (
	OutcomeClean             OutcomeKind = "CLEAN"
	OutcomeNonZeroExit       OutcomeKind = "NON_ZERO_EXIT"
	OutcomeStderrPresent     OutcomeKind = "STDERR_PRESENT"
	OutcomeExecutionTimeout  OutcomeKind = "EXECUTION_TIMEOUT"
	OutcomeProvisioningFault OutcomeKind = "PROVISIONING_FAULT"
)

// ExecutionOutcome is the immutable result of one runner invocation.
// Exactly one of clean exit (ExitCode set), TimedOut, or Fault holds.
type ExecutionOutcome struct {
	RunID           string
	ExitCode        *int
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	TimedOut        bool
	Fault           *Fault
	Duration        time.Duration
}

// Kind classifies the outcome.
func (o *ExecutionOutcome) Kind() OutcomeKind {
	switch {
	case o.Fault != nil:
		return OutcomeProvisioningFault
	case o.TimedOut:
		return OutcomeExecutionTimeout
	case o.ExitCode == nil || *o.ExitCode != 0:
		return OutcomeNonZeroExit
	case o.Stderr != "":
		return OutcomeStderrPresent
	default:
		return OutcomeClean
	}
}

// InfrastructureError reports a sandbox failure that is not attributable to the learner.
// Callers should retry or alert instead of presenting it as a verdict.
type InfrastructureError struct {
	Op    string
	RunID string
	Err   error
}

func (e *InfrastructureError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("sandbox infrastructure fault (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sandbox infrastructure fault (%s, run %s): %v", e.Op, e.RunID, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}
