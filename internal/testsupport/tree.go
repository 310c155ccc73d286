package testsupport

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/layout"
)

// Logger returns a logger that discards everything, for wiring components
// under test.
func Logger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTree builds a layout.Tree over a fresh temp root with a study metadata
// file mapping each participant to the given consent date.
func NewTree(t testing.TB, study string, consents map[string]string) layout.Tree {
	t.Helper()

	tree := layout.NewTree(t.TempDir(), study)
	content := "Active,Consent,Subject ID\n"
	for participant, consent := range consents {
		content += "1," + consent + "," + participant + "\n"
	}
	WriteFile(t, tree.MetadataPath(), content)
	return tree
}

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MkDir creates path and any missing parents.
func MkDir(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// Touch writes an empty file at path with the given modification time, so
// tests can control the dates derived from file metadata.
func Touch(t testing.TB, path string, mtime time.Time) {
	t.Helper()

	WriteFile(t, path, "")
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// SetMtime adjusts an existing file's modification time.
func SetMtime(t testing.TB, path string, mtime time.Time) {
	t.Helper()

	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
