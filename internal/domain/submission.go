package domain

import "strings"

// MaxCodeBytes bounds the size of accepted source code.
const MaxCodeBytes = 1 << 20

// Submission is learner code sent for checking against a task
type Submission struct {
	UserID   int64
	TaskID   int64
	Code     string
	Language Language
}

// IsBlank reports whether the submission has no code to run.
func (s *Submission) IsBlank() bool {
	return strings.TrimSpace(s.Code) == ""
}
