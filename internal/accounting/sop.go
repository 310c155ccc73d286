package accounting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tally/internal/ident"
	"tally/internal/ledger"
)

// CheckSOP audits the raw interview directory for units violating the upload
// conventions and records each violator once, keyed by its raw name. Valid
// units are never recorded; recorded violations are never removed, even after
// remediation on source. Returns the number of rows appended.
func (r *Runner) CheckSOP(participant, interviewType string) (int, error) {
	path := r.tree.SOPPath(participant, interviewType)
	rows, err := ledger.LoadSOP(path)
	if err != nil {
		return 0, err
	}
	known := ledger.SOPNames(rows)

	rawDir := r.tree.RawDir(participant, interviewType)
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("list raw interviews: %w", err)
	}

	var fresh []ledger.SOPRow
	for _, entry := range entries {
		name := entry.Name()
		if _, ok := known[name]; ok {
			continue
		}

		if !entry.IsDir() {
			// Standalone files are only permitted as correctly named WAVs for
			// the psychs interview type; name alone decides, no counts apply.
			if ident.ValidRawName(name, interviewType, false) {
				continue
			}
			fresh = append(fresh, ledger.SOPRow{
				RawName:      name,
				DateDetected: r.asOf,
			})
			continue
		}

		folder := filepath.Join(rawDir, name)
		validName := ident.ValidRawName(name, interviewType, true)
		audioCount := globCount(folder, "audio*.m4a")
		videoCount := globCount(folder, "video*.mp4") + globCount(folder, "zoom*.mp4")
		totalFiles := globCount(folder, "*")

		if validName && audioCount == 1 && videoCount == 1 {
			continue
		}
		fresh = append(fresh, ledger.SOPRow{
			RawName:      name,
			IsFolder:     true,
			ValidName:    ledger.BoolPtr(validName),
			AudioCount:   ledger.IntPtr(audioCount),
			VideoCount:   ledger.IntPtr(videoCount),
			TotalFiles:   ledger.IntPtr(totalFiles),
			DateDetected: r.asOf,
		})
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	if err := ledger.SaveSOP(path, append(rows, fresh...)); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
