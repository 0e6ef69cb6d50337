package domain

// Task is the exercise a submission is checked against
type Task struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Language Language   `json:"language"`
	Tests    []TestCase `json:"tests"`
}

// TaskProgressStatus is a learner's standing on a task
type TaskProgressStatus string

const (
	TaskProgressSolved TaskProgressStatus = "SOLVED"
)
