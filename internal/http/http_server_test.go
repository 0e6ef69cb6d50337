package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/adapter/logging"
	"github.com/miderror/dev-mentor/internal/adapter/metrics"
	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/services/sandbox"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/handlers"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

type stubWorkers struct {
	workers []*domain.WorkerInfo
}

func (s *stubWorkers) RegisterWorker(context.Context, *domain.WorkerInfo) error { return nil }
func (s *stubWorkers) Heartbeat(context.Context, string, int) error             { return nil }
func (s *stubWorkers) DeregisterWorker(context.Context, string) error           { return nil }
func (s *stubWorkers) CleanupInactiveWorkers(context.Context) error             { return nil }

func (s *stubWorkers) GetAvailableWorkers(_ context.Context, workerType string) ([]*domain.WorkerInfo, error) {
	var out []*domain.WorkerInfo
	for _, w := range s.workers {
		if w.Type == workerType && w.CurrentLoad < w.Capacity {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *stubWorkers) GetAllWorkers(context.Context) ([]*domain.WorkerInfo, error) {
	return s.workers, nil
}

func (s *stubWorkers) GetWorkerTypes(context.Context) ([]string, error) {
	return []string{"python"}, nil
}

type stubChecks struct{}

func (stubChecks) Submit(context.Context, *domain.Submission) (uuid.UUID, error) {
	return uuid.New(), nil
}
func (stubChecks) GetCheck(context.Context, uuid.UUID) (*domain.Check, error) {
	return nil, errs.ErrCheckNotFound
}
func (stubChecks) Process(context.Context, uuid.UUID) error           { return nil }
func (stubChecks) FailCheck(context.Context, uuid.UUID, string) error { return nil }

func newTestServer(t *testing.T) (*Server, *metrics.PrometheusRecorder) {
	t.Helper()
	recorder := metrics.NewPrometheusRecorder()
	catalog := sandbox.NewProfileTableFrom(domain.LanguageProfile{
		Language:  domain.LanguagePython,
		Image:     "python:3.12-slim",
		EntryFile: "main.py",
		Command:   []string{"python", "{file}"},
		Limits:    domain.Limits{MemoryBytes: 64 << 20, Timeout: 20 * time.Second},
	})
	workers := &stubWorkers{workers: []*domain.WorkerInfo{
		{ID: "w1", Type: "python", Capacity: 2, CurrentLoad: 2},
		{ID: "w2", Type: "python", Capacity: 2, CurrentLoad: 0},
	}}
	logger := logging.NewNopLogger()

	srv := NewServer(
		&config.HTTPCfg{Port: 0, ServiceName: "checker-test"},
		*NewServiceProvider(workers, stubChecks{}, catalog),
		handlers.New(&config.JwtConfig{Secret: "s"}, logger),
		handlers.NewRateLimiter(1, 1, recorder),
		recorder.Handler(),
		logger,
	)
	if err := srv.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return srv, recorder
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv.Handler(), "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "checker-test") {
		t.Fatalf("health: %d %s", rec.Code, rec.Body)
	}
}

func TestLanguages(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv.Handler(), "/api/languages")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Languages []struct {
			Language  string `json:"language"`
			EntryFile string `json:"entryFile"`
			TimeoutMs int64  `json:"timeoutMs"`
			MemoryMB  int64  `json:"memoryMb"`
		} `json:"languages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Languages) != 1 {
		t.Fatalf("languages = %+v", body.Languages)
	}
	l := body.Languages[0]
	if l.Language != "python" || l.EntryFile != "main.py" || l.TimeoutMs != 20000 || l.MemoryMB != 64 {
		t.Fatalf("unexpected profile: %+v", l)
	}
}

func TestWorkers(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Workers []domain.WorkerInfo `json:"workers"`
	}
	rec := get(t, srv.Handler(), "/api/workers")
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Workers) != 2 {
		t.Fatalf("all workers = %d", len(body.Workers))
	}

	rec = get(t, srv.Handler(), "/api/workers?type=python")
	body.Workers = nil
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Workers) != 1 || body.Workers[0].ID != "w2" {
		t.Fatalf("available workers = %+v", body.Workers)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, recorder := newTestServer(t)
	recorder.ObserveVerdict("python", "SUCCESS")

	rec := get(t, srv.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "devmentor_grading_verdicts_total") {
		t.Fatal("verdict counter missing from exposition")
	}
}

func TestChecksRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checks", strings.NewReader(`{}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStartRequiresInit(t *testing.T) {
	srv := NewServer(&config.HTTPCfg{}, ServiceProvider{}, nil, nil, nil, logging.NewNopLogger())
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("expected an error before Init")
	}
}
