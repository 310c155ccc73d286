package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// readRecords loads a ledger CSV, returning nil when the file does not exist
// yet. The header row is validated against the expected column set so a stale
// or foreign file fails loudly instead of misparsing.
func readRecords(path string, header []string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	if err := checkHeader(all[0], header); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}

	records := all[1:]
	for i, record := range records {
		if len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			records[i] = padded
		}
	}
	return records, nil
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("unexpected header width %d (want %d)", len(got), len(want))
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return fmt.Errorf("unexpected column %q at position %d (want %q)", got[i], i, want[i])
		}
	}
	return nil
}

// writeRecords rewrites a ledger CSV in full, using a temp-and-rename so a
// crash mid-write never truncates the previous ledger state.
func writeRecords(path string, header []string, records [][]string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		_ = file.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			_ = file.Close()
			return fmt.Errorf("write ledger record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ledger temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace ledger %s: %w", path, err)
	}
	return nil
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func atoi(field, column string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return v, nil
}

func bool01(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func parseBool01(field, column string) (bool, error) {
	switch strings.TrimSpace(field) {
	case "1":
		return true, nil
	case "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("column %s: invalid boolean %q", column, field)
	}
}

func optIntString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseOptInt(field, column string) (*int, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", column, err)
	}
	return &v, nil
}

func optBool01String(v *bool) string {
	if v == nil {
		return ""
	}
	return bool01(*v)
}

func parseOptBool01(field, column string) (*bool, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, nil
	}
	v, err := parseBool01(field, column)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteTable rewrites an arbitrary derived table with the same temp-and-rename
// discipline as the ledgers. Used for snapshots that are overwritten in full
// each run rather than appended to.
func WriteTable(path string, header []string, records [][]string) error {
	return writeRecords(path, header, records)
}

// IntPtr returns a pointer to v; a convenience for optional count columns.
func IntPtr(v int) *int { return &v }

// BoolPtr returns a pointer to v; a convenience for optional flag columns.
func BoolPtr(v bool) *bool { return &v }
