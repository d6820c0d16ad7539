package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a request-scoped scratch directory. Every request gets a
// fresh one and removes it on every exit path.
type Workspace struct {
	dir string
}

func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "clipscan-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string { return w.dir }

// Path resolves a file name inside the workspace.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

// Close removes the workspace. Best-effort: a failed removal never turns a
// finished request into an error.
func (w *Workspace) Close() {
	_ = os.RemoveAll(w.dir)
}
