package ledger

// warningColumns is the stable column order of the process warnings ledger.
var warningColumns = []string{
	"day", "session", "interview_date", "interview_time",
	"warning_text", "warning_date",
}

// WarningRow is one detected anomaly. Warnings are append-only and never
// deduplicated across runs; a condition that re-triggers on a later run is
// recorded again with the later detection date.
type WarningRow struct {
	Day           *int // nil when the flagged row has no audio-assigned day
	Session       *int
	InterviewDate string
	InterviewTime string
	WarningText   string
	WarningDate   string
}

func (r WarningRow) record() []string {
	return []string{
		optIntString(r.Day), optIntString(r.Session),
		r.InterviewDate, r.InterviewTime,
		r.WarningText, r.WarningDate,
	}
}

func warningRowFromRecord(record []string) (WarningRow, error) {
	var row WarningRow
	var err error
	if row.Day, err = parseOptInt(record[0], "day"); err != nil {
		return row, err
	}
	if row.Session, err = parseOptInt(record[1], "session"); err != nil {
		return row, err
	}
	row.InterviewDate = record[2]
	row.InterviewTime = record[3]
	row.WarningText = record[4]
	row.WarningDate = record[5]
	return row, nil
}

// LoadWarnings reads the warnings ledger, returning no rows when it does not
// exist.
func LoadWarnings(path string) ([]WarningRow, error) {
	records, err := readRecords(path, warningColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]WarningRow, 0, len(records))
	for _, record := range records {
		row, err := warningRowFromRecord(record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendWarnings loads the existing warnings ledger, appends the new rows, and
// rewrites the file.
func AppendWarnings(path string, rows []WarningRow) error {
	if len(rows) == 0 {
		return nil
	}
	existing, err := LoadWarnings(path)
	if err != nil {
		return err
	}
	all := append(existing, rows...)
	records := make([][]string, 0, len(all))
	for _, row := range all {
		records = append(records, row.record())
	}
	return writeRecords(path, warningColumns, records)
}
