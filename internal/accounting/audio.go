package accounting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tally/internal/ident"
	"tally/internal/ledger"
	"tally/internal/metadata"
)

// AuditAudio discovers newly processed audio for one participant and interview
// type and appends a ledger row per new recording. Discovery is keyed on the
// raw path recorded in each filename map, so a re-run over an unchanged folder
// appends nothing. Returns the number of rows appended.
func (r *Runner) AuditAudio(participant, interviewType string, consentDate time.Time) (int, error) {
	path := r.tree.AudioAccountingPath(participant, interviewType)
	rows, err := ledger.LoadAudio(path)
	if err != nil {
		return 0, err
	}
	known := ledger.AudioRawPaths(rows)

	mapsDir := r.tree.AudioFilenameMapsDir(participant, interviewType)
	entries, err := os.ReadDir(mapsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("list audio filename maps: %w", err)
	}

	processedDir := filepath.Dir(mapsDir)
	consentStr := consentDate.Format(metadata.DateLayout)

	var fresh []ledger.AudioRow
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			r.logger.Warn("unexpected entry in audio filename maps, ignoring",
				"participant", participant, "interview_type", interviewType, "name", name)
			continue
		}

		rawPath, rename, err := readFilenameMap(filepath.Join(mapsDir, name))
		if err != nil {
			r.logger.Warn("unreadable audio filename map, skipping",
				"participant", participant, "interview_type", interviewType, "name", name, "error", err)
			continue
		}
		if _, ok := known[rawPath]; ok {
			continue
		}

		interviewDate, interviewTime, err := ident.SplitMapName(name)
		if err != nil {
			r.logger.Warn("malformed audio filename map name, skipping",
				"participant", participant, "interview_type", interviewType, "name", name, "error", err)
			continue
		}
		day, session, err := ident.ParseProcessedName(rename)
		if err != nil {
			r.logger.Warn("malformed renamed audio filename, skipping",
				"participant", participant, "interview_type", interviewType, "name", rename, "error", err)
			continue
		}

		// The sliding QC output's modification time stands in for the actual
		// processing date, which may predate this accounting run.
		qcPath := filepath.Join(r.tree.SlidingQCDir(participant, interviewType),
			strings.TrimSuffix(name, ".txt")+".csv")
		processDate, err := mtimeDate(qcPath)
		if err != nil {
			r.logger.Warn("missing sliding QC output for processed audio, skipping",
				"participant", participant, "interview_type", interviewType, "name", rename, "error", err)
			continue
		}

		row := ledger.AudioRow{
			Day:                     day,
			Session:                 session,
			InterviewDate:           interviewDate,
			InterviewTime:           interviewTime,
			RawPath:                 rawPath,
			ProcessedFilename:       rename,
			ProcessDate:             processDate,
			AccountingDate:          r.asOf,
			ConsentDateAtAccounting: consentStr,
			Success: fileExists(filepath.Join(processedDir, "pending_audio", rename)) ||
				fileExists(filepath.Join(processedDir, "completed_audio", rename)),
			Rejected:     fileExists(filepath.Join(processedDir, "rejected_audio", rename)),
			UploadFailed: fileExists(filepath.Join(processedDir, "audio_to_send", rename)),
		}

		folderName := filepath.Base(filepath.Dir(rawPath))
		if folderName == interviewType {
			// Standalone recording directly under the raw interview type
			// directory, so there is no companion folder to inspect.
			row.SingleFile = true
		} else {
			r.inspectRawFolder(&row, participant, interviewType, folderName)
		}
		fresh = append(fresh, row)
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	if err := ledger.SaveAudio(path, append(rows, fresh...)); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// readFilenameMap parses a two-line audio filename map: the raw source path
// followed by the renamed filename.
func readFilenameMap(path string) (rawPath, rename string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return "", "", fmt.Errorf("filename map %s has %d lines, want 2", path, len(lines))
	}
	rawPath = strings.TrimSpace(lines[0])
	rename = strings.TrimSpace(lines[1])
	if rawPath == "" || rename == "" {
		return "", "", fmt.Errorf("filename map %s has an empty line", path)
	}
	return rawPath, rename, nil
}

// inspectRawFolder fills the companion-file diagnostics for a raw interview
// folder: the expected single video, top-level media counts, and the speaker
// specific audio inventory. Counts are diagnostics only; anomaly detection
// decides whether low counts matter.
func (r *Runner) inspectRawFolder(row *ledger.AudioRow, participant, interviewType, folderName string) {
	rawFolder := filepath.Join(r.tree.RawDir(participant, interviewType), folderName)

	oldVideo, _ := filepath.Glob(filepath.Join(rawFolder, "zoom*.mp4"))
	newVideo, _ := filepath.Glob(filepath.Join(rawFolder, "video*.mp4"))
	if len(oldVideo)+len(newVideo) == 1 {
		if len(newVideo) == 1 {
			row.VideoRawPath = newVideo[0]
		} else {
			row.VideoRawPath = oldVideo[0]
		}
	}

	row.TopLevelAudioCount = ledger.IntPtr(globCount(rawFolder, "*.m4a"))
	row.TopLevelVideoCount = ledger.IntPtr(globCount(rawFolder, "*.mp4"))

	recordDir := filepath.Join(rawFolder, "Audio Record")
	row.SpeakerFileCount = ledger.IntPtr(globCount(recordDir, "*"))
	row.SpeakerValidCount = ledger.IntPtr(globCount(recordDir, "audio*.m4a"))
	row.SpeakerUniqueIDCount = ledger.IntPtr(uniqueSpeakerIDs(recordDir))
}

// uniqueSpeakerIDs counts distinct speaker identities among the speaker
// specific audio files. Two naming eras exist: the legacy form embeds the
// speaker name after a numeric meeting ID ("audio_only_..._<id>_<name>.m4a"),
// the newer form appends a sequence number to the display name
// ("audio<name><n>.m4a"). A folder uses one era consistently; the legacy
// prefix decides which applies.
func uniqueSpeakerIDs(recordDir string) int {
	ids := make(map[string]struct{})
	legacy, _ := filepath.Glob(filepath.Join(recordDir, "audio_only*.m4a"))
	if len(legacy) > 0 {
		for _, match := range legacy {
			ids[legacySpeakerID(filepath.Base(match))] = struct{}{}
		}
		return len(ids)
	}
	current, _ := filepath.Glob(filepath.Join(recordDir, "audio*.m4a"))
	for _, match := range current {
		ids[speakerID(filepath.Base(match))] = struct{}{}
	}
	return len(ids)
}

// legacySpeakerID extracts the speaker identity from a legacy-era filename:
// everything after the first long numeric component.
func legacySpeakerID(name string) string {
	name = strings.TrimSuffix(name, ".m4a")
	comps := strings.Split(name, "_")
	for i, comp := range comps {
		if len(comp) > 4 && isDigits(comp) {
			return strings.Join(comps[i+1:], "_")
		}
	}
	return ""
}

// speakerID extracts the speaker identity from a current-era filename: the
// text between the "audio" prefix and the trailing sequence digits.
func speakerID(name string) string {
	name = strings.TrimSuffix(name, ".m4a")
	if idx := strings.LastIndex(name, "audio"); idx >= 0 {
		name = name[idx+len("audio"):]
	}
	return strings.TrimRight(name, "0123456789")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
