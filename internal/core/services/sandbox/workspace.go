package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
)

// workspace is the disposable directory holding one run's source file
type workspace struct {
	runID string
	dir   string
}

// newWorkspace creates a run-unique directory under baseDir.
// It fails rather than reuse a directory that already exists.
func newWorkspace(baseDir, runID string) (*workspace, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace base %s: %w", baseDir, err)
	}
	dir := filepath.Join(baseDir, runID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	return &workspace{runID: runID, dir: dir}, nil
}

func (w *workspace) writeSource(filename, code string) error {
	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write source file %s: %w", path, err)
	}
	return nil
}

func (w *workspace) remove() error {
	return os.RemoveAll(w.dir)
}
