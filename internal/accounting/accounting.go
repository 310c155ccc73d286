package accounting

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/layout"
	"tally/internal/metadata"
)

// Runner executes the per-modality discovery passes for one study tree. Each
// pass loads its ledger, checks the identifying key against already-recorded
// rows before touching the filesystem for a unit, and appends rows for units
// observed for the first time.
type Runner struct {
	tree   layout.Tree
	logger *slog.Logger
	asOf   string
}

// NewRunner builds a Runner anchored on asOf, the date stamped into every
// accounting_date and date_detected column this run.
func NewRunner(tree layout.Tree, logger *slog.Logger, asOf time.Time) *Runner {
	return &Runner{
		tree:   tree,
		logger: logger.With("component", "accounting"),
		asOf:   asOf.Format(metadata.DateLayout),
	}
}

// mtimeDate returns the modification date of path in ledger date form.
func mtimeDate(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return info.ModTime().Format(metadata.DateLayout), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// globCount counts entries under dir matching pattern.
func globCount(dir, pattern string) int {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}
	return len(matches)
}
