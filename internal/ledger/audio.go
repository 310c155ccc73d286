package ledger

import "fmt"

// audioColumns is the stable column order of the audio accounting ledger.
var audioColumns = []string{
	"day", "session", "interview_date", "interview_time",
	"raw_path", "processed_filename", "process_date", "accounting_date",
	"consent_date_at_accounting",
	"success_bool", "rejected_bool", "upload_failed_bool", "single_file_bool",
	"video_raw_path", "top_level_audio_count", "top_level_video_count",
	"speaker_file_count", "speaker_valid_count", "speaker_unique_id_count",
}

// AudioRow is one audio accounting record. A row is created exactly once when
// a renamed audio's filename map is first observed; it is never deleted.
type AudioRow struct {
	Day                     int
	Session                 int
	InterviewDate           string
	InterviewTime           string
	RawPath                 string
	ProcessedFilename       string
	ProcessDate             string
	AccountingDate          string
	ConsentDateAtAccounting string
	Success                 bool
	Rejected                bool
	UploadFailed            bool
	SingleFile              bool

	// Raw-folder companion diagnostics; nil for single-file recordings.
	VideoRawPath         string
	TopLevelAudioCount   *int
	TopLevelVideoCount   *int
	SpeakerFileCount     *int
	SpeakerValidCount    *int
	SpeakerUniqueIDCount *int
}

func (r AudioRow) record() []string {
	return []string{
		itoa(r.Day), itoa(r.Session), r.InterviewDate, r.InterviewTime,
		r.RawPath, r.ProcessedFilename, r.ProcessDate, r.AccountingDate,
		r.ConsentDateAtAccounting,
		bool01(r.Success), bool01(r.Rejected), bool01(r.UploadFailed), bool01(r.SingleFile),
		r.VideoRawPath, optIntString(r.TopLevelAudioCount), optIntString(r.TopLevelVideoCount),
		optIntString(r.SpeakerFileCount), optIntString(r.SpeakerValidCount), optIntString(r.SpeakerUniqueIDCount),
	}
}

func audioRowFromRecord(record []string) (AudioRow, error) {
	var row AudioRow
	var err error
	if row.Day, err = atoi(record[0], "day"); err != nil {
		return row, err
	}
	if row.Session, err = atoi(record[1], "session"); err != nil {
		return row, err
	}
	row.InterviewDate = record[2]
	row.InterviewTime = record[3]
	row.RawPath = record[4]
	row.ProcessedFilename = record[5]
	row.ProcessDate = record[6]
	row.AccountingDate = record[7]
	row.ConsentDateAtAccounting = record[8]
	if row.Success, err = parseBool01(record[9], "success_bool"); err != nil {
		return row, err
	}
	if row.Rejected, err = parseBool01(record[10], "rejected_bool"); err != nil {
		return row, err
	}
	if row.UploadFailed, err = parseBool01(record[11], "upload_failed_bool"); err != nil {
		return row, err
	}
	if row.SingleFile, err = parseBool01(record[12], "single_file_bool"); err != nil {
		return row, err
	}
	row.VideoRawPath = record[13]
	if row.TopLevelAudioCount, err = parseOptInt(record[14], "top_level_audio_count"); err != nil {
		return row, err
	}
	if row.TopLevelVideoCount, err = parseOptInt(record[15], "top_level_video_count"); err != nil {
		return row, err
	}
	if row.SpeakerFileCount, err = parseOptInt(record[16], "speaker_file_count"); err != nil {
		return row, err
	}
	if row.SpeakerValidCount, err = parseOptInt(record[17], "speaker_valid_count"); err != nil {
		return row, err
	}
	if row.SpeakerUniqueIDCount, err = parseOptInt(record[18], "speaker_unique_id_count"); err != nil {
		return row, err
	}
	return row, nil
}

// LoadAudio reads the audio ledger, returning no rows when it does not exist.
func LoadAudio(path string) ([]AudioRow, error) {
	records, err := readRecords(path, audioColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]AudioRow, 0, len(records))
	for i, record := range records {
		row, err := audioRowFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("audio ledger %s row %d: %w", path, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SaveAudio rewrites the audio ledger in full with a stable column order.
func SaveAudio(path string, rows []AudioRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return writeRecords(path, audioColumns, records)
}

// AudioRawPaths returns the set of raw paths already accounted for, the
// identifying key used to keep audio discovery idempotent.
func AudioRawPaths(rows []AudioRow) map[string]struct{} {
	set := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		set[row.RawPath] = struct{}{}
	}
	return set
}
