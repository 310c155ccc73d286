package ledger

import "fmt"

// videoColumns is the stable column order of the video accounting ledger.
// Video day and session are derived independently from the renamed filename,
// so reconciliation can cross-check them against the audio-assigned pair.
var videoColumns = []string{
	"interview_date", "interview_time", "processed_filename",
	"day", "session", "process_date",
}

// VideoRow is one video accounting record.
type VideoRow struct {
	InterviewDate     string
	InterviewTime     string
	ProcessedFilename string
	Day               int
	Session           int
	ProcessDate       string
}

func (r VideoRow) record() []string {
	return []string{
		r.InterviewDate, r.InterviewTime, r.ProcessedFilename,
		itoa(r.Day), itoa(r.Session), r.ProcessDate,
	}
}

func videoRowFromRecord(record []string) (VideoRow, error) {
	var row VideoRow
	var err error
	row.InterviewDate = record[0]
	row.InterviewTime = record[1]
	row.ProcessedFilename = record[2]
	if row.Day, err = atoi(record[3], "day"); err != nil {
		return row, err
	}
	if row.Session, err = atoi(record[4], "session"); err != nil {
		return row, err
	}
	row.ProcessDate = record[5]
	return row, nil
}

// LoadVideo reads the video ledger, returning no rows when it does not exist.
func LoadVideo(path string) ([]VideoRow, error) {
	records, err := readRecords(path, videoColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]VideoRow, 0, len(records))
	for i, record := range records {
		row, err := videoRowFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("video ledger %s row %d: %w", path, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SaveVideo rewrites the video ledger in full.
func SaveVideo(path string, rows []VideoRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return writeRecords(path, videoColumns, records)
}

// VideoProcessedNames returns the set of processed filenames already
// accounted for, the identifying key for idempotent video discovery.
func VideoProcessedNames(rows []VideoRow) map[string]struct{} {
	set := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		set[row.ProcessedFilename] = struct{}{}
	}
	return set
}
