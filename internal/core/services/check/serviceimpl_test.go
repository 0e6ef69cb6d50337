package check

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/adapter/logging"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

type fixture struct {
	checks *memCheckRepo
	tasks  *memTaskRepo
	queue  *memQueue
	engine *stubEngine
	svc    *CheckService
}

func newFixture() *fixture {
	f := &fixture{
		checks: newMemCheckRepo(),
		tasks: newMemTaskRepo(&domain.Task{
			ID:    7,
			Title: "Reverse a string",
			Tests: []domain.TestCase{{Input: []string{"python"}, Expected: domain.ExpectText("nohtyp")}},
		}),
		queue:  &memQueue{},
		engine: &stubEngine{verdict: &domain.GradingVerdict{Status: domain.VerdictSuccess, Stdout: "nohtyp", TestsRun: 1}},
	}
	f.svc = NewCheckService(f.checks, f.tasks, f.queue, f.engine, pythonOnly{}, logging.NewNopLogger())
	return f
}

func (f *fixture) submit(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := f.svc.Submit(context.Background(), &domain.Submission{
		UserID:   42,
		TaskID:   7,
		Code:     "print(input()[::-1])",
		Language: domain.LanguagePython,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return id
}

func TestSubmitStoresPendingCheckAndEnqueues(t *testing.T) {
	f := newFixture()
	id := f.submit(t)

	c, err := f.svc.GetCheck(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCheck: %v", err)
	}
	if c.Status != domain.CheckStatusPending || c.UserID != 42 || c.TaskID != 7 {
		t.Fatalf("check = %+v", c)
	}
	if len(f.queue.msgs) != 1 || f.queue.msgs[0].CheckID != id || f.queue.msgs[0].Attempt != 0 {
		t.Fatalf("queue = %+v", f.queue.msgs)
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name string
		sub  domain.Submission
		want error
	}{
		{"unsupported language", domain.Submission{TaskID: 7, Code: "puts 1", Language: "ruby"}, errs.ErrUnsupportedLanguage},
		{"blank code", domain.Submission{TaskID: 7, Code: " \n\t", Language: domain.LanguagePython}, errs.ErrEmptyCode},
		{"code too large", domain.Submission{TaskID: 7, Code: strings.Repeat("#", domain.MaxCodeBytes+1), Language: domain.LanguagePython}, errs.ErrCodeTooLarge},
		{"unknown task", domain.Submission{TaskID: 99, Code: "print(1)", Language: domain.LanguagePython}, errs.ErrTaskNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			sub := tc.sub
			if _, err := f.svc.Submit(context.Background(), &sub); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(f.checks.checks) != 0 || len(f.queue.msgs) != 0 {
				t.Fatal("rejected submission must not be stored or queued")
			}
		})
	}
}

func TestSubmitRejectsLanguageOtherThanTasks(t *testing.T) {
	f := newFixture()
	f.tasks.tasks[8] = &domain.Task{ID: 8, Title: "Sum", Language: domain.LanguageJavaScript}

	_, err := f.svc.Submit(context.Background(), &domain.Submission{
		UserID:   42,
		TaskID:   8,
		Code:     "print(1)",
		Language: domain.LanguagePython,
	})
	if !errors.Is(err, errs.ErrLanguageMismatch) {
		t.Fatalf("err = %v, want ErrLanguageMismatch", err)
	}
	if len(f.checks.checks) != 0 || len(f.queue.msgs) != 0 {
		t.Fatal("rejected submission must not be stored or queued")
	}

	f.tasks.tasks[9] = &domain.Task{ID: 9, Title: "Echo", Language: domain.LanguagePython}
	if _, err := f.svc.Submit(context.Background(), &domain.Submission{
		UserID:   42,
		TaskID:   9,
		Code:     "print(1)",
		Language: domain.LanguagePython,
	}); err != nil {
		t.Fatalf("matching language rejected: %v", err)
	}
}

func TestGetCheckNotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.GetCheck(context.Background(), uuid.New()); !errors.Is(err, errs.ErrCheckNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestProcessSuccessMarksSolved(t *testing.T) {
	f := newFixture()
	id := f.submit(t)

	if err := f.svc.Process(context.Background(), id); err != nil {
		t.Fatalf("Process: %v", err)
	}
	c, _ := f.svc.GetCheck(context.Background(), id)
	if c.Status != domain.CheckStatusSuccess || c.CompletedAt == nil || c.StartedAt == nil {
		t.Fatalf("check = %+v", c)
	}
	if _, ok := f.tasks.solved[[2]int64{42, 7}]; !ok {
		t.Fatal("task not marked solved")
	}
	if got := f.tasks.counters[42]; got == nil || got.success != 1 || got.failed != 0 {
		t.Fatalf("counters = %+v", got)
	}
	if len(f.engine.calls) != 1 || len(f.engine.calls[0].TestCases) != 1 {
		t.Fatalf("engine calls = %+v", f.engine.calls)
	}
}

func TestProcessWrongAnswerKeepsContext(t *testing.T) {
	f := newFixture()
	f.engine.verdict = &domain.GradingVerdict{
		Status: domain.VerdictError,
		Failure: &domain.FailureRecord{
			Kind:      domain.FailureWrongAnswer,
			TestIndex: 1,
			Input:     "python",
			Expected:  "nohtyp",
			Actual:    "python",
		},
		Stdout:   "python",
		TestsRun: 1,
	}
	id := f.submit(t)

	if err := f.svc.Process(context.Background(), id); err != nil {
		t.Fatalf("Process: %v", err)
	}
	c, _ := f.svc.GetCheck(context.Background(), id)
	if c.Status != domain.CheckStatusError || c.Stdout != "python" {
		t.Fatalf("check = %+v", c)
	}
	ec := c.ErrorContext
	if ec == nil || ec.Input != "python" || ec.Expected != "nohtyp" || ec.TestIndex != 1 {
		t.Fatalf("error context = %+v", ec)
	}
	if len(f.tasks.solved) != 0 {
		t.Fatal("failed check marked task solved")
	}
	if got := f.tasks.counters[42]; got == nil || got.failed != 1 {
		t.Fatalf("counters = %+v", got)
	}
}

func TestProcessTimeoutStatus(t *testing.T) {
	f := newFixture()
	f.engine.verdict = &domain.GradingVerdict{
		Status:  domain.VerdictError,
		Failure: &domain.FailureRecord{Kind: domain.FailureTimeout, TestIndex: 1, TimedOut: true, Stderr: "time limit exceeded (20s)"},
	}
	id := f.submit(t)

	if err := f.svc.Process(context.Background(), id); err != nil {
		t.Fatalf("Process: %v", err)
	}
	c, _ := f.svc.GetCheck(context.Background(), id)
	if c.Status != domain.CheckStatusTimeout || c.Stderr != "time limit exceeded (20s)" || !c.ErrorContext.TimedOut {
		t.Fatalf("check = %+v", c)
	}
}

func TestProcessInfrastructureErrorLeavesCheckOpen(t *testing.T) {
	f := newFixture()
	f.engine.verdict = nil
	f.engine.err = &domain.InfrastructureError{Op: "execute test 1", Err: errors.New("daemon down")}
	id := f.submit(t)

	err := f.svc.Process(context.Background(), id)
	var infra *domain.InfrastructureError
	if !errors.As(err, &infra) {
		t.Fatalf("err = %v, want infrastructure error", err)
	}
	c, _ := f.svc.GetCheck(context.Background(), id)
	if c.Status.Final() {
		t.Fatalf("check closed on a retryable fault: %s", c.Status)
	}
	if len(f.tasks.counters) != 0 {
		t.Fatal("counters updated without a verdict")
	}
}

func TestProcessSkipsGradedCheck(t *testing.T) {
	f := newFixture()
	id := f.submit(t)
	if err := f.svc.Process(context.Background(), id); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := f.svc.Process(context.Background(), id); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if len(f.engine.calls) != 1 {
		t.Fatalf("graded %d times, want 1", len(f.engine.calls))
	}
}

func TestFailCheck(t *testing.T) {
	f := newFixture()
	id := f.submit(t)

	if err := f.svc.FailCheck(context.Background(), id, "sandbox unavailable"); err != nil {
		t.Fatalf("FailCheck: %v", err)
	}
	c, _ := f.svc.GetCheck(context.Background(), id)
	if c.Status != domain.CheckStatusError || !strings.Contains(c.Stderr, "sandbox unavailable") {
		t.Fatalf("check = %+v", c)
	}

	// already final: nothing changes
	f.checks.saveErr = errors.New("must not be called")
	if err := f.svc.FailCheck(context.Background(), id, "again"); err != nil {
		t.Fatalf("FailCheck on final check: %v", err)
	}
}
