package ledger

import (
	"fmt"
	"unicode/utf8"
)

// Encoding classifies transcript file content.
type Encoding string

const (
	EncodingASCII   Encoding = "ASCII"
	EncodingUTF8    Encoding = "UTF-8"
	EncodingInvalid Encoding = "INVALID"
)

// DetectEncoding classifies raw transcript bytes. ASCII is the expected final
// state for English transcripts; anything that is not even valid UTF-8 cannot
// be processed downstream.
func DetectEncoding(data []byte) Encoding {
	ascii := true
	for _, b := range data {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return EncodingASCII
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingInvalid
}

// transcriptColumns is the stable column order of the transcript ledger.
var transcriptColumns = []string{
	"day", "session",
	"returned_filename", "redacted_filename", "processed_csv_filename",
	"language", "encoding_initial", "encoding_final",
	"manual_review_bool", "manual_return_bool",
	"pulled_date", "approved_date", "processed_date",
	"pulled_accounting_date", "approved_accounting_date", "processed_accounting_date",
}

// TranscriptRow is one transcript accounting record. Unlike the audio and
// video ledgers, later stages update forward-stage columns on an existing row,
// keyed by ReturnedFilename, which is assigned at row creation and never
// changes.
type TranscriptRow struct {
	Day                     int
	Session                 int
	ReturnedFilename        string
	RedactedFilename        string
	ProcessedCSVFilename    string
	Language                string
	EncodingInitial         Encoding
	EncodingFinal           Encoding
	ManualReview            bool
	ManualReturn            *bool // nil when the transcript skipped review
	PulledDate              string
	ApprovedDate            string
	ProcessedDate           string
	PulledAccountingDate    string
	ApprovedAccountingDate  string
	ProcessedAccountingDate string
}

func (r TranscriptRow) record() []string {
	return []string{
		itoa(r.Day), itoa(r.Session),
		r.ReturnedFilename, r.RedactedFilename, r.ProcessedCSVFilename,
		r.Language, string(r.EncodingInitial), string(r.EncodingFinal),
		bool01(r.ManualReview), optBool01String(r.ManualReturn),
		r.PulledDate, r.ApprovedDate, r.ProcessedDate,
		r.PulledAccountingDate, r.ApprovedAccountingDate, r.ProcessedAccountingDate,
	}
}

func transcriptRowFromRecord(record []string) (TranscriptRow, error) {
	var row TranscriptRow
	var err error
	if row.Day, err = atoi(record[0], "day"); err != nil {
		return row, err
	}
	if row.Session, err = atoi(record[1], "session"); err != nil {
		return row, err
	}
	row.ReturnedFilename = record[2]
	row.RedactedFilename = record[3]
	row.ProcessedCSVFilename = record[4]
	row.Language = record[5]
	row.EncodingInitial = Encoding(record[6])
	row.EncodingFinal = Encoding(record[7])
	if row.ManualReview, err = parseBool01(record[8], "manual_review_bool"); err != nil {
		return row, err
	}
	if row.ManualReturn, err = parseOptBool01(record[9], "manual_return_bool"); err != nil {
		return row, err
	}
	row.PulledDate = record[10]
	row.ApprovedDate = record[11]
	row.ProcessedDate = record[12]
	row.PulledAccountingDate = record[13]
	row.ApprovedAccountingDate = record[14]
	row.ProcessedAccountingDate = record[15]
	return row, nil
}

// LoadTranscript reads the transcript ledger, returning no rows when it does
// not exist.
func LoadTranscript(path string) ([]TranscriptRow, error) {
	records, err := readRecords(path, transcriptColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]TranscriptRow, 0, len(records))
	for i, record := range records {
		row, err := transcriptRowFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("transcript ledger %s row %d: %w", path, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SaveTranscript rewrites the transcript ledger in full.
func SaveTranscript(path string, rows []TranscriptRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return writeRecords(path, transcriptColumns, records)
}

// TranscriptKeys returns the identifying filename sets used for idempotent
// discovery across the three transcript stages.
func TranscriptKeys(rows []TranscriptRow) (returned, redacted, processed map[string]struct{}) {
	returned = make(map[string]struct{}, len(rows))
	redacted = make(map[string]struct{}, len(rows))
	processed = make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.ReturnedFilename != "" {
			returned[row.ReturnedFilename] = struct{}{}
		}
		if row.RedactedFilename != "" {
			redacted[row.RedactedFilename] = struct{}{}
		}
		if row.ProcessedCSVFilename != "" {
			processed[row.ProcessedCSVFilename] = struct{}{}
		}
	}
	return returned, redacted, processed
}
