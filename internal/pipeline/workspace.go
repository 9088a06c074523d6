// SPDX-License-Identifier: MIT

// Package pipeline sequences extraction, transcoding, and publishing
// under one run-scoped workspace.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Workspace is a temporary directory exclusively owned by one pipeline
// run. It holds every file the run creates and is destroyed
// unconditionally when the run ends.
type Workspace struct {
	path   string
	logger zerolog.Logger
}

// NewWorkspace creates a uniquely named run directory under root.
// An empty root falls back to the system temp directory.
func NewWorkspace(root string, logger zerolog.Logger) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "run_"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	logger.Debug().Str("workspace", dir).Msg("created workspace")
	return &Workspace{path: dir, logger: logger}, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string {
	return w.path
}

// Destroy removes the workspace. If bulk removal fails it falls back
// to a per-entry deletion sweep so a single locked file cannot leak
// the whole directory.
func (w *Workspace) Destroy() {
	err := os.RemoveAll(w.path)
	if err == nil {
		w.logger.Debug().Str("workspace", w.path).Msg("workspace removed")
		return
	}
	w.logger.Warn().Err(err).Str("workspace", w.path).Msg("bulk workspace removal failed, sweeping entries")

	_ = filepath.Walk(w.path, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
	// Directories bottom-up after the files are gone.
	var dirs []string
	_ = filepath.Walk(w.path, func(p string, info os.FileInfo, err error) error {
		if err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}

	if _, err := os.Stat(w.path); err == nil {
		w.logger.Error().Str("workspace", w.path).Msg("workspace could not be fully removed")
	}
}
