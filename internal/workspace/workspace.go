// Package workspace manages the data directory where postbot keeps its
// queue snapshot and PID file.
//
// Example usage:
//
//	ws := workspace.New(config.WorkspaceConfig{Path: "~/.postbot"}, afero.NewOsFs())
//	if err := ws.EnsureDir(); err != nil {
//	    log.Fatal(err)
//	}
//	path, err := ws.ResolvePath("queue.json")
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/spf13/afero"
)

// Workspace represents the data directory.
type Workspace struct {
	fs       afero.Fs
	path     string // Expanded workspace path
	basePath string // Original path from config (may contain ~)
}

// New creates a new Workspace from the given configuration. An empty path
// falls back to the default data directory.
func New(cfg config.WorkspaceConfig, fs afero.Fs) *Workspace {
	base := cfg.Path
	if base == "" {
		base = constants.DefaultDataDir
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Workspace{
		fs:       fs,
		path:     expandHome(base),
		basePath: base,
	}
}

// Path returns the expanded workspace path.
func (w *Workspace) Path() string {
	return w.path
}

// BasePath returns the original path from config (may contain ~).
func (w *Workspace) BasePath() string {
	return w.basePath
}

// Fs returns the filesystem the workspace lives on.
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// EnsureDir creates the workspace directory if it doesn't exist.
func (w *Workspace) EnsureDir() error {
	info, err := w.fs.Stat(w.path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("workspace path exists but is not a directory: %s", w.path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access workspace path %s: %w", w.path, err)
	}

	if err := w.fs.MkdirAll(w.path, 0o700); err != nil {
		return fmt.Errorf("failed to create workspace directory %s: %w", w.path, err)
	}
	return nil
}

// ResolvePath resolves a path against the workspace. Absolute paths are
// returned cleaned; relative ones must stay inside the workspace.
func (w *Workspace) ResolvePath(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("path is empty")
	}
	relPath = expandHome(relPath)
	if filepath.IsAbs(relPath) {
		return filepath.Clean(relPath), nil
	}

	joined := filepath.Join(w.path, relPath)
	rel, err := filepath.Rel(w.path, joined)
	if err != nil {
		return "", fmt.Errorf("failed to check path relationship: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path attempts to escape workspace: %s", relPath)
	}
	return joined, nil
}

// Subpath returns a path inside the workspace.
func (w *Workspace) Subpath(name string) string {
	return filepath.Join(w.path, name)
}

// expandHome expands ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
