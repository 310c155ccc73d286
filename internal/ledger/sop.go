package ledger

// sopColumns is the stable column order of the raw interview SOP ledger.
var sopColumns = []string{
	"raw_name", "is_folder", "valid_name",
	"audio_count", "video_count", "total_files",
	"date_detected",
}

// SOPRow records one raw folder or file violating the naming or content
// convention. Once recorded, a raw name is never re-checked; remediated
// violations stay in the ledger as history.
type SOPRow struct {
	RawName      string
	IsFolder     bool
	ValidName    *bool // nil for standalone files, where only the name matters
	AudioCount   *int
	VideoCount   *int
	TotalFiles   *int
	DateDetected string
}

func (r SOPRow) record() []string {
	return []string{
		r.RawName, bool01(r.IsFolder), optBool01String(r.ValidName),
		optIntString(r.AudioCount), optIntString(r.VideoCount), optIntString(r.TotalFiles),
		r.DateDetected,
	}
}

func sopRowFromRecord(record []string) (SOPRow, error) {
	var row SOPRow
	var err error
	row.RawName = record[0]
	if row.IsFolder, err = parseBool01(record[1], "is_folder"); err != nil {
		return row, err
	}
	if row.ValidName, err = parseOptBool01(record[2], "valid_name"); err != nil {
		return row, err
	}
	if row.AudioCount, err = parseOptInt(record[3], "audio_count"); err != nil {
		return row, err
	}
	if row.VideoCount, err = parseOptInt(record[4], "video_count"); err != nil {
		return row, err
	}
	if row.TotalFiles, err = parseOptInt(record[5], "total_files"); err != nil {
		return row, err
	}
	row.DateDetected = record[6]
	return row, nil
}

// LoadSOP reads the SOP ledger, returning no rows when it does not exist.
func LoadSOP(path string) ([]SOPRow, error) {
	records, err := readRecords(path, sopColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]SOPRow, 0, len(records))
	for _, record := range records {
		row, err := sopRowFromRecord(record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SaveSOP rewrites the SOP ledger in full.
func SaveSOP(path string, rows []SOPRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return writeRecords(path, sopColumns, records)
}

// SOPNames returns the set of raw names already recorded as violations.
func SOPNames(rows []SOPRow) map[string]struct{} {
	set := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		set[row.RawName] = struct{}{}
	}
	return set
}
