package store

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/model"
)

// Checkpointer persists a full snapshot after each pipeline phase so a run
// can be resumed from any phase.
type Checkpointer struct {
	dir   string
	runID string
}

// NewCheckpointer writes snapshots under dir.
func NewCheckpointer(dir, runID string) *Checkpointer {
	return &Checkpointer{dir: dir, runID: runID}
}

// Dir returns the output directory.
func (c *Checkpointer) Dir() string { return c.dir }

// Path returns the absolute-or-relative path for a snapshot file name.
func (c *Checkpointer) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// Save writes leads to <dir>/<name> and returns the path.
func (c *Checkpointer) Save(name string, leads []model.Lead) (string, error) {
	path := c.Path(name)
	if err := WriteCSV(path, leads); err != nil {
		return "", err
	}
	zap.L().Info("checkpoint saved",
		zap.String("run_id", c.runID),
		zap.String("path", path),
		zap.Int("leads", len(leads)),
	)
	return path, nil
}
