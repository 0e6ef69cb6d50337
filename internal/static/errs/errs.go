package errs

import "errors"

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoTestCases         = errors.New("task has no test cases")
	ErrInvalidTestCase     = errors.New("invalid test case")
)

var (
	ErrCheckNotFound = errors.New("check not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrEmptyCode     = errors.New("submitted code is empty")
	ErrCodeTooLarge  = errors.New("submitted code is too large")

	ErrLanguageMismatch = errors.New("language does not match the task")
)

var (
	ErrQueueClosed = errors.New("queue closed")
	ErrQueueEmpty  = errors.New("queue empty")
)
