package check

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

type memCheckRepo struct {
	mu      sync.Mutex
	checks  map[uuid.UUID]*domain.Check
	saveErr error
}

func newMemCheckRepo() *memCheckRepo {
	return &memCheckRepo{checks: make(map[uuid.UUID]*domain.Check)}
}

func (r *memCheckRepo) CreateCheck(_ context.Context, c *domain.Check) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.checks[c.ID] = &cp
	return nil
}

func (r *memCheckRepo) GetCheck(_ context.Context, id uuid.UUID) (*domain.Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checks[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCheckRepo) MarkRunning(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checks[id]
	if !ok {
		return errors.New("no such check")
	}
	c.Status = domain.CheckStatusRunning
	c.StartedAt = &at
	return nil
}

func (r *memCheckRepo) SaveResult(_ context.Context, c *domain.Check) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *c
	r.checks[c.ID] = &cp
	return nil
}

type counters struct {
	success, failed int
}

type memTaskRepo struct {
	mu       sync.Mutex
	tasks    map[int64]*domain.Task
	solved   map[[2]int64]time.Time
	counters map[int64]*counters
}

func newMemTaskRepo(tasks ...*domain.Task) *memTaskRepo {
	r := &memTaskRepo{
		tasks:    make(map[int64]*domain.Task),
		solved:   make(map[[2]int64]time.Time),
		counters: make(map[int64]*counters),
	}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *memTaskRepo) GetTask(_ context.Context, id int64) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[id], nil
}

func (r *memTaskRepo) MarkSolved(_ context.Context, userID, taskID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solved[[2]int64{userID, taskID}] = at
	return nil
}

func (r *memTaskRepo) IncrementCheckCounters(_ context.Context, userID int64, success bool, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.counters[userID]
	if c == nil {
		c = &counters{}
		r.counters[userID] = c
	}
	if success {
		c.success++
	} else {
		c.failed++
	}
	return nil
}

type memQueue struct {
	mu   sync.Mutex
	msgs []*domain.QueueMessage
	err  error
}

func (q *memQueue) Enqueue(_ context.Context, msg *domain.QueueMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *memQueue) Dequeue(_ context.Context, _ time.Duration) (*domain.QueueMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) == 0 {
		return nil, errs.ErrQueueEmpty
	}
	msg := q.msgs[0]
	q.msgs = q.msgs[1:]
	return msg, nil
}

func (q *memQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.msgs)), nil
}

type stubEngine struct {
	verdict *domain.GradingVerdict
	err     error
	calls   []*domain.GradeRequest
}

func (e *stubEngine) Grade(_ context.Context, req *domain.GradeRequest) (*domain.GradingVerdict, error) {
	e.calls = append(e.calls, req)
	return e.verdict, e.err
}

type pythonOnly struct{}

func (pythonOnly) Lookup(lang domain.Language) (domain.LanguageProfile, error) {
	if lang != domain.LanguagePython {
		return domain.LanguageProfile{}, errs.ErrUnsupportedLanguage
	}
	return domain.LanguageProfile{Language: lang, EntryFile: "main.py"}, nil
}
