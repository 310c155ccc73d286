package qc

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"tally/internal/layout"
)

// Unit identifies a recording by its day and session numbers.
type Unit struct {
	Day     int
	Session int
}

// Table holds one DPDash-style QC export with records addressable by column
// name. The export tooling keeps one file per modality, deleting older day
// ranges; when cleanup lags and a stray older export survives, the newest
// file wins.
type Table struct {
	Columns []string
	Records []map[string]string
}

// Tables bundles the three per-modality QC exports for one participant and
// interview type. A nil table means no export exists yet.
type Tables struct {
	Audio      *Table
	Video      *Table
	Transcript *Table
}

// Load reads whichever QC exports exist for the participant.
func Load(tree layout.Tree, participant, interviewType string) (Tables, error) {
	audio, err := loadTable(tree.AudioQCGlob(participant, interviewType))
	if err != nil {
		return Tables{}, err
	}
	video, err := loadTable(tree.VideoQCGlob(participant, interviewType))
	if err != nil {
		return Tables{}, err
	}
	transcript, err := loadTable(tree.TranscriptQCGlob(participant, interviewType))
	if err != nil {
		return Tables{}, err
	}
	return Tables{Audio: audio, Video: video, Transcript: transcript}, nil
}

func loadTable(pattern string) (*Table, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob QC tables: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	path := newestFile(matches)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open QC table %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read QC table %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	columns := make([]string, len(all[0]))
	for i, name := range all[0] {
		columns[i] = strings.TrimSpace(name)
	}
	table := &Table{Columns: columns}
	for _, record := range all[1:] {
		row := make(map[string]string, len(columns))
		for i, name := range columns {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		table.Records = append(table.Records, row)
	}
	return table, nil
}

// newestFile picks the most recently modified path; ties and unstattable
// entries fall back to lexicographic order.
func newestFile(paths []string) string {
	sort.Strings(paths)
	newest := paths[0]
	var newestTime time.Time
	if info, err := os.Stat(newest); err == nil {
		newestTime = info.ModTime()
	}
	for _, path := range paths[1:] {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestTime) {
			newest = path
			newestTime = info.ModTime()
		}
	}
	return newest
}

// unitsWhere collects the (day, interview_number) pairs of records satisfying
// pred. Records with unparseable identity are ignored.
func (t *Table) unitsWhere(pred func(map[string]string) bool) map[Unit]struct{} {
	if t == nil {
		return nil
	}
	units := make(map[Unit]struct{})
	for _, record := range t.Records {
		day, err := strconv.Atoi(record["day"])
		if err != nil {
			continue
		}
		session, err := strconv.Atoi(record["interview_number"])
		if err != nil {
			continue
		}
		if pred(record) {
			units[Unit{Day: day, Session: session}] = struct{}{}
		}
	}
	return units
}

// ShortInterviews returns the units whose recorded audio length falls under
// minMinutes.
func (t Tables) ShortInterviews(minMinutes float64) map[Unit]struct{} {
	return t.Audio.unitsWhere(func(record map[string]string) bool {
		minutes, err := strconv.ParseFloat(record["length_minutes"], 64)
		return err == nil && minutes < minMinutes
	})
}

// NoFaceInterviews returns the units whose extracted video frames contained no
// detectable faces at all.
func (t Tables) NoFaceInterviews() map[Unit]struct{} {
	return t.Video.unitsWhere(func(record map[string]string) bool {
		faces, err := strconv.ParseFloat(record["mean_faces_detected_in_frame"], 64)
		return err == nil && faces == 0
	})
}

// NoRedactionTranscripts returns the units whose redacted transcript contains
// zero redaction markers.
func (t Tables) NoRedactionTranscripts() map[Unit]struct{} {
	return t.Transcript.unitsWhere(func(record map[string]string) bool {
		redactions, err := strconv.Atoi(record["num_redacted"])
		return err == nil && redactions == 0
	})
}
