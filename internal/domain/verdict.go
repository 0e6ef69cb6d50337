package domain

// VerdictStatus is the overall status of a graded submission
type VerdictStatus string

const (
	VerdictSuccess VerdictStatus = "SUCCESS"
	VerdictError   VerdictStatus = "ERROR"
)

// FailureKind tells why a test failed
type FailureKind string

const (
	FailureRuntimeError FailureKind = "RUNTIME_ERROR"
	FailureWrongAnswer  FailureKind = "WRONG_ANSWER"
	FailureTimeout      FailureKind = "TIMEOUT"
)

// RunState is the lifecycle state of one submission's grading run
type RunState string

const (
	StatePending      RunState = "PENDING"
	StateRunning      RunState = "RUNNING"
	StateSuccess      RunState = "SUCCESS"
	StateRuntimeError RunState = "RUNTIME_ERROR"
	StateWrongAnswer  RunState = "WRONG_ANSWER"
	StateTimeout      RunState = "TIMEOUT"
)

// Terminal reports whether no further transition can happen.
func (s RunState) Terminal() bool {
	switch s {
	case StateSuccess, StateRuntimeError, StateWrongAnswer, StateTimeout:
		return true
	}
	return false
}

// FailureRecord describes the first failing test.
// Stderr is set for runtime errors and timeouts, Input/Expected/Actual for wrong answers.
type FailureRecord struct {
	Kind      FailureKind `json:"kind"`
	TestIndex int         `json:"testIndex"`
	Stderr    string      `json:"stderr,omitempty"`
	TimedOut  bool        `json:"timedOut,omitempty"`
	Input     string      `json:"input,omitempty"`
	Expected  string      `json:"expected,omitempty"`
	Actual    string      `json:"actual,omitempty"`
}

// GradingVerdict is the aggregate result of one submission. Never mutated after Grade returns.
type GradingVerdict struct {
	Status   VerdictStatus  `json:"status"`
	Failure  *FailureRecord `json:"failure,omitempty"`
	Stdout   string         `json:"stdout"`
	TestsRun int            `json:"testsRun"`
}

// State maps the verdict onto its terminal run state.
func (v *GradingVerdict) State() RunState {
	if v.Failure == nil {
		return StateSuccess
	}
	switch v.Failure.Kind {
	case FailureTimeout:
		return StateTimeout
	case FailureWrongAnswer:
		return StateWrongAnswer
	default:
		return StateRuntimeError
	}
}

// GradeRequest is the inbound call of the grading engine: one submission, its tests, its limits.
type GradeRequest struct {
	Code      string
	Language  Language
	TestCases []TestCase
	Limits    Limits
}
