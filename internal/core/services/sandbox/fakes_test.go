package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
)

type fakeSubstrate struct {
	mu sync.Mutex

	exitCode int
	stdout   string
	stderr   string
	hang     bool

	// createHang blocks Create until its context is done, like an unresponsive daemon
	createHang bool

	ensureErr error
	createErr error
	startErr  error
	waitErr   error
	logsErr   error
	removeErr error

	seq     int
	specs   []*secondary.ContainerSpec
	sources map[string]string
	stdin   map[string]*fakeStdin
	ensured []string
	started []string
	killed  []string
	removed []string
}

func newFakeSubstrate() *fakeSubstrate {
	return &fakeSubstrate{
		sources: make(map[string]string),
		stdin:   make(map[string]*fakeStdin),
	}
}

type fakeStdin struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	once   sync.Once
	closed chan struct{}
}

func (s *fakeStdin) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *fakeStdin) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStdin) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (f *fakeSubstrate) EnsureImage(_ context.Context, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, image)
	return f.ensureErr
}

func (f *fakeSubstrate) Create(ctx context.Context, spec *secondary.ContainerSpec) (string, error) {
	f.mu.Lock()
	f.specs = append(f.specs, spec)
	hang := f.createHang
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.seq++
	id := fmt.Sprintf("container-%d", f.seq)
	if spec.Workspace.HostPath != "" {
		entries, _ := os.ReadDir(spec.Workspace.HostPath)
		for _, e := range entries {
			data, _ := os.ReadFile(filepath.Join(spec.Workspace.HostPath, e.Name()))
			f.sources[id] = e.Name() + ":" + string(data)
		}
	}
	return id, nil
}

func (f *fakeSubstrate) AttachStdin(_ context.Context, id string) (io.WriteCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeStdin{closed: make(chan struct{})}
	f.stdin[id] = s
	return s, nil
}

func (f *fakeSubstrate) Start(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
	return f.startErr
}

func (f *fakeSubstrate) Wait(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	hang, waitErr, code := f.hang, f.waitErr, f.exitCode
	stdin := f.stdin[id]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return -1, ctx.Err()
	}
	if waitErr != nil {
		return -1, waitErr
	}
	// a program reading its input exits only after EOF
	if stdin != nil {
		select {
		case <-stdin.closed:
		case <-ctx.Done():
			return -1, ctx.Err()
		}
	}
	return code, nil
}

func (f *fakeSubstrate) Logs(_ context.Context, _ string, stdout, stderr io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logsErr != nil {
		return f.logsErr
	}
	if _, err := io.WriteString(stdout, f.stdout); err != nil {
		return err
	}
	_, err := io.WriteString(stderr, f.stderr)
	return err
}

func (f *fakeSubstrate) Kill(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, id)
	return nil
}

func (f *fakeSubstrate) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return f.removeErr
}

func (f *fakeSubstrate) snapshot() (specs []*secondary.ContainerSpec, killed, removed []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(specs, f.specs...), append(killed, f.killed...), append(removed, f.removed...)
}

var errDaemon = errors.New("docker daemon unreachable")

type countingMetrics struct {
	mu        sync.Mutex
	outcomes  map[string]int
	teardowns map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: make(map[string]int), teardowns: make(map[string]int)}
}

func (m *countingMetrics) ObserveExecution(_, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *countingMetrics) IncTeardownFailure(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns[stage]++
}

func (m *countingMetrics) ObserveVerdict(string, string) {}
func (m *countingMetrics) SetQueueDepth(int64)           {}
func (m *countingMetrics) IncBusyWorkers()               {}
func (m *countingMetrics) DecBusyWorkers()               {}
func (m *countingMetrics) IncRateLimited()               {}
