package accounting

import (
	"os"
	"path/filepath"
	"strings"

	"tally/internal/ident"
	"tally/internal/ledger"
)

// AuditTranscript discovers transcript progress for one participant and
// interview type. A transcript row is created when the returned transcript is
// first observed, either in the prescreening folder (sent for site review) or
// directly in the approved folder (skipped review). Later stages mutate the
// existing row's forward columns, keyed on the returned filename assigned at
// creation. Returns the number of rows appended.
func (r *Runner) AuditTranscript(participant, interviewType, language string) (int, error) {
	path := r.tree.TranscriptAccountingPath(participant, interviewType)
	rows, err := ledger.LoadTranscript(path)
	if err != nil {
		return 0, err
	}
	returned, redactedKeys, processedKeys := ledger.TranscriptKeys(rows)

	prescreenDir := r.tree.PrescreeningTranscriptsDir(participant, interviewType)
	approvedDir := r.tree.ApprovedTranscriptsDir(participant, interviewType)
	redactedDir := r.tree.RedactedTranscriptsDir(participant, interviewType)
	csvDir := r.tree.TranscriptCSVDir(participant, interviewType)

	changed := false
	var fresh []ledger.TranscriptRow
	newReturned := make(map[string]struct{})

	// Stage 1: transcripts pulled into prescreening for manual site review.
	for _, fname := range listNames(prescreenDir, "*.txt") {
		if _, ok := returned[fname]; ok {
			continue
		}
		row, err := r.newTranscriptRow(fname, filepath.Join(prescreenDir, fname), language)
		if err != nil {
			r.logger.Warn("malformed prescreening transcript, skipping",
				"participant", participant, "interview_type", interviewType, "name", fname, "error", err)
			continue
		}
		row.ManualReview = true
		// A reviewed copy back in the approved folder means the site returned it.
		row.ManualReturn = ledger.BoolPtr(fileExists(filepath.Join(approvedDir, fname)))
		r.fillForwardStages(&row, fname, redactedDir, csvDir, true)
		fresh = append(fresh, row)
		newReturned[fname] = struct{}{}
	}

	// Stage 2: transcripts in the approved folder. New names here skipped
	// review entirely; known names that were under review are now returned.
	for _, fname := range listNames(approvedDir, "*.txt") {
		if _, ok := returned[fname]; ok {
			if idx := indexByReturned(rows, fname); idx >= 0 && rows[idx].ManualReview {
				if rows[idx].ManualReturn == nil || !*rows[idx].ManualReturn {
					rows[idx].ManualReturn = ledger.BoolPtr(true)
					changed = true
				}
			}
			continue
		}
		if _, ok := newReturned[fname]; ok {
			continue
		}
		row, err := r.newTranscriptRow(fname, filepath.Join(approvedDir, fname), language)
		if err != nil {
			r.logger.Warn("malformed approved transcript, skipping",
				"participant", participant, "interview_type", interviewType, "name", fname, "error", err)
			continue
		}
		r.fillForwardStages(&row, fname, redactedDir, csvDir, false)
		fresh = append(fresh, row)
		newReturned[fname] = struct{}{}
	}

	newRedacted := make(map[string]struct{})
	newProcessed := make(map[string]struct{})
	for _, row := range fresh {
		if row.RedactedFilename != "" {
			newRedacted[row.RedactedFilename] = struct{}{}
		}
		if row.ProcessedCSVFilename != "" {
			newProcessed[row.ProcessedCSVFilename] = struct{}{}
		}
	}

	// Stage 3: redacted transcripts updating previously recorded rows.
	for _, fname := range listNames(redactedDir, "*.txt") {
		if _, ok := redactedKeys[fname]; ok {
			continue
		}
		if _, ok := newRedacted[fname]; ok {
			continue
		}
		stem, _, found := strings.Cut(fname, "_REDACTED")
		if !found {
			r.logger.Warn("unexpected name in redacted transcripts, ignoring",
				"participant", participant, "interview_type", interviewType, "name", fname)
			continue
		}
		idx := indexByReturned(rows, stem+".txt")
		if idx < 0 {
			r.logger.Warn("redacted transcript has no accounting row, ignoring",
				"participant", participant, "interview_type", interviewType, "name", fname)
			continue
		}
		rows[idx].RedactedFilename = fname
		if rows[idx].ManualReview {
			if approvedDate, err := mtimeDate(filepath.Join(redactedDir, fname)); err == nil {
				rows[idx].ApprovedDate = approvedDate
				rows[idx].ApprovedAccountingDate = r.asOf
			}
		}
		changed = true
	}

	// Stage 4: per-transcript CSV conversions updating previously recorded rows.
	for _, fname := range listNames(csvDir, "*.csv") {
		if _, ok := processedKeys[fname]; ok {
			continue
		}
		if _, ok := newProcessed[fname]; ok {
			continue
		}
		redactedName := strings.TrimSuffix(fname, ".csv") + ".txt"
		idx := indexByRedacted(rows, redactedName)
		if idx < 0 {
			r.logger.Warn("transcript CSV has no accounting row, ignoring",
				"participant", participant, "interview_type", interviewType, "name", fname)
			continue
		}
		rows[idx].ProcessedCSVFilename = fname
		if processedDate, err := mtimeDate(filepath.Join(csvDir, fname)); err == nil {
			rows[idx].ProcessedDate = processedDate
			rows[idx].ProcessedAccountingDate = r.asOf
		}
		if data, err := os.ReadFile(filepath.Join(redactedDir, redactedName)); err == nil {
			if ledger.DetectEncoding(data) == ledger.EncodingASCII {
				rows[idx].EncodingFinal = ledger.EncodingASCII
			} else {
				rows[idx].EncodingFinal = ledger.EncodingUTF8
			}
		}
		changed = true
	}

	if !changed && len(fresh) == 0 {
		return 0, nil
	}
	if err := ledger.SaveTranscript(path, append(rows, fresh...)); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// newTranscriptRow builds the creation-stage fields shared by both discovery
// paths: identity from the returned filename, initial encoding from content,
// and the pull date from the file's modification time.
func (r *Runner) newTranscriptRow(fname, fullPath, language string) (ledger.TranscriptRow, error) {
	day, session, err := ident.ParseProcessedName(fname)
	if err != nil {
		return ledger.TranscriptRow{}, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return ledger.TranscriptRow{}, err
	}
	pulledDate, err := mtimeDate(fullPath)
	if err != nil {
		return ledger.TranscriptRow{}, err
	}
	return ledger.TranscriptRow{
		Day:                  day,
		Session:              session,
		ReturnedFilename:     fname,
		Language:             language,
		EncodingInitial:      ledger.DetectEncoding(data),
		PulledDate:           pulledDate,
		PulledAccountingDate: r.asOf,
	}, nil
}

// fillForwardStages checks whether redaction and CSV conversion already
// happened for a newly discovered transcript and fills those columns in the
// same row. approvedDates controls whether finding the redacted copy also
// stamps the approval dates (only meaningful for reviewed transcripts).
func (r *Runner) fillForwardStages(row *ledger.TranscriptRow, fname, redactedDir, csvDir string, approvedDates bool) {
	stem, _, _ := strings.Cut(fname, ".")
	ascii := row.EncodingInitial == ledger.EncodingASCII

	redactedName := stem + "_REDACTED.txt"
	redactedPath := filepath.Join(redactedDir, redactedName)
	if fileExists(redactedPath) {
		row.RedactedFilename = redactedName
		if approvedDates {
			if approvedDate, err := mtimeDate(redactedPath); err == nil {
				row.ApprovedDate = approvedDate
				row.ApprovedAccountingDate = r.asOf
			}
		}
		// The final encoding is judged on the redacted copy when present.
		if data, err := os.ReadFile(redactedPath); err == nil {
			ascii = ledger.DetectEncoding(data) == ledger.EncodingASCII
		}
	}

	csvName := stem + "_REDACTED.csv"
	csvPath := filepath.Join(csvDir, csvName)
	if fileExists(csvPath) {
		row.ProcessedCSVFilename = csvName
		if processedDate, err := mtimeDate(csvPath); err == nil {
			row.ProcessedDate = processedDate
			row.ProcessedAccountingDate = r.asOf
		}
		if ascii {
			row.EncodingFinal = ledger.EncodingASCII
		} else {
			row.EncodingFinal = ledger.EncodingUTF8
		}
	}
}

// listNames returns the sorted base names matching pattern directly under dir.
func listNames(dir, pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, filepath.Base(match))
	}
	return names
}

func indexByReturned(rows []ledger.TranscriptRow, fname string) int {
	for i := range rows {
		if rows[i].ReturnedFilename == fname {
			return i
		}
	}
	return -1
}

func indexByRedacted(rows []ledger.TranscriptRow, fname string) int {
	for i := range rows {
		if rows[i].RedactedFilename == fname {
			return i
		}
	}
	return -1
}
