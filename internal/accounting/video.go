package accounting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tally/internal/ident"
	"tally/internal/ledger"
)

// AuditVideo discovers newly processed video for one participant and interview
// type. Each processed video leaves a frames subdirectory named by the raw
// timestamp, holding a marker file with the renamed filename; discovery is
// keyed on that renamed filename. Returns the number of rows appended.
func (r *Runner) AuditVideo(participant, interviewType string) (int, error) {
	path := r.tree.VideoAccountingPath(participant, interviewType)
	rows, err := ledger.LoadVideo(path)
	if err != nil {
		return 0, err
	}
	known := ledger.VideoProcessedNames(rows)

	framesDir := r.tree.VideoFramesDir(participant, interviewType)
	entries, err := os.ReadDir(framesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("list video frames: %w", err)
	}

	var fresh []ledger.VideoRow
	for _, entry := range entries {
		name := entry.Name()
		marker := filepath.Join(framesDir, name, name+".txt")
		rename, err := readMarker(marker)
		if err != nil {
			r.logger.Warn("missing video marker file, ignoring",
				"participant", participant, "interview_type", interviewType, "name", name, "error", err)
			continue
		}
		if _, ok := known[rename]; ok {
			continue
		}

		interviewDate, interviewTime, err := ident.SplitMapName(name)
		if err != nil {
			r.logger.Warn("malformed video frames folder name, skipping",
				"participant", participant, "interview_type", interviewType, "name", name, "error", err)
			continue
		}
		day, session, err := ident.ParseProcessedName(rename)
		if err != nil {
			r.logger.Warn("malformed renamed video filename, skipping",
				"participant", participant, "interview_type", interviewType, "name", rename, "error", err)
			continue
		}
		processDate, err := mtimeDate(marker)
		if err != nil {
			continue
		}

		fresh = append(fresh, ledger.VideoRow{
			InterviewDate:     interviewDate,
			InterviewTime:     interviewTime,
			ProcessedFilename: rename,
			Day:               day,
			Session:           session,
			ProcessDate:       processDate,
		})
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	if err := ledger.SaveVideo(path, append(rows, fresh...)); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// readMarker reads the single-line renamed filename from a frames marker file.
func readMarker(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	rename := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	if rename == "" {
		return "", fmt.Errorf("marker %s is empty", path)
	}
	return rename, nil
}
