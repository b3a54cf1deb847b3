// Package workspace manages isolated per-job working directories.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	appErr "termchat/pkg/errors"
	"termchat/pkg/utils/fsutil"
)

// Manager creates and destroys job workspaces under a configured root.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at dir. The root is created lazily on
// the first workspace.
func NewManager(root string) (*Manager, error) {
	if strings.TrimSpace(root) == "" {
		return nil, appErr.ValidationError("work_root", "required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.ExecSystemError, "resolve work root failed")
	}
	return &Manager{root: abs}, nil
}

// Workspace is a job-exclusive directory holding staged source and artifacts.
type Workspace struct {
	dir        string
	sourcePath string

	destroyOnce sync.Once
	destroyErr  error
}

// Create allocates a fresh directory named after jobID and writes the source
// bytes under the validated filename. Both the job ID and the filename must
// be bare names with no path components; anything else is rejected before
// any write happens.
func (m *Manager) Create(jobID, filename string, source []byte) (*Workspace, error) {
	if jobID == "" {
		return nil, appErr.ValidationError("job_id", "required")
	}
	if fsutil.ValidateFilename(jobID) != nil {
		return nil, appErr.ValidationError("job_id", "must not contain path separators or parent references")
	}
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	dir := filepath.Join(m.root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, appErr.Wrapf(err, appErr.ExecSystemError, "create workspace failed")
	}

	sourcePath := filepath.Join(dir, filename)
	if err := os.WriteFile(sourcePath, source, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, appErr.Wrapf(err, appErr.ExecSystemError, "stage source file failed")
	}

	return &Workspace{dir: dir, sourcePath: sourcePath}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// SourcePath returns the staged source file path.
func (w *Workspace) SourcePath() string {
	return w.sourcePath
}

// BinaryPath returns the path a compile phase should write its output to.
func (w *Workspace) BinaryPath(name string) string {
	return filepath.Join(w.dir, name)
}

// Destroy removes the workspace and everything in it. Safe to call more than
// once; only the first call does work.
func (w *Workspace) Destroy() error {
	w.destroyOnce.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.destroyErr = appErr.Wrapf(err, appErr.ExecSystemError, "destroy workspace failed")
		}
	})
	return w.destroyErr
}

// ValidateFilename rejects names that could escape the workspace.
func ValidateFilename(name string) error {
	return fsutil.ValidateFilename(name)
}
