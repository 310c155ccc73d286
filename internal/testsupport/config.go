package testsupport

import (
	"path/filepath"
	"testing"

	"tally/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataRoot = filepath.Join(base, "PHOENIX")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Study.Name = "PronetLA"
	cfg.Reports.WarningEmailPath = filepath.Join(base, "reports", "interview_warnings.txt")
	cfg.Reports.SummaryEmailPath = filepath.Join(base, "reports", "interview_summary.txt")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithStudy overrides the study name on the test config.
func WithStudy(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Study.Name = name
	}
}

// WithInterviewTypes overrides the interview types on the test config.
func WithInterviewTypes(types ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Study.InterviewTypes = types
	}
}
