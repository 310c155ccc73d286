package reconcile

import (
	"strconv"

	"tally/internal/ledger"
)

// allModalityColumns is the stable column order of the reconciled snapshot:
// the audio ledger columns, the video columns prefixed to keep the
// independently derived identity distinguishable, the transcript columns, and
// the computed per-modality states.
var allModalityColumns = []string{
	"day", "session", "interview_date", "interview_time",
	"raw_path", "processed_filename", "process_date", "accounting_date",
	"consent_date_at_accounting",
	"success_bool", "rejected_bool", "upload_failed_bool", "single_file_bool",
	"video_raw_path", "top_level_audio_count", "top_level_video_count",
	"speaker_file_count", "speaker_valid_count", "speaker_unique_id_count",
	"video_processed_filename", "video_day", "video_session", "video_process_date",
	"returned_filename", "redacted_filename", "processed_csv_filename",
	"language", "encoding_initial", "encoding_final",
	"manual_review_bool", "manual_return_bool",
	"pulled_date", "approved_date", "processed_date",
	"pulled_accounting_date", "approved_accounting_date", "processed_accounting_date",
	"audio_state", "video_state", "transcript_state",
}

// WriteSnapshot overwrites the AllModality snapshot with the full reconciled
// view. The snapshot is a derived artifact for downstream consumers and is
// replaced wholesale every run, never appended to.
func WriteSnapshot(path string, view View) error {
	records := make([][]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		records = append(records, snapshotRecord(row))
	}
	return ledger.WriteTable(path, allModalityColumns, records)
}

func snapshotRecord(row Row) []string {
	record := make([]string, 0, len(allModalityColumns))
	record = append(record, optInt(row.Day()), optInt(row.Session()),
		row.InterviewDate(), row.InterviewTime())

	if a := row.Audio; a != nil {
		record = append(record,
			a.RawPath, a.ProcessedFilename, a.ProcessDate, a.AccountingDate,
			a.ConsentDateAtAccounting,
			flag(a.Success), flag(a.Rejected), flag(a.UploadFailed), flag(a.SingleFile),
			a.VideoRawPath, optInt(a.TopLevelAudioCount), optInt(a.TopLevelVideoCount),
			optInt(a.SpeakerFileCount), optInt(a.SpeakerValidCount), optInt(a.SpeakerUniqueIDCount))
	} else {
		record = append(record, blanks(15)...)
	}

	if v := row.Video; v != nil {
		record = append(record, v.ProcessedFilename,
			strconv.Itoa(v.Day), strconv.Itoa(v.Session), v.ProcessDate)
	} else {
		record = append(record, blanks(4)...)
	}

	if t := row.Transcript; t != nil {
		record = append(record,
			t.ReturnedFilename, t.RedactedFilename, t.ProcessedCSVFilename,
			t.Language, string(t.EncodingInitial), string(t.EncodingFinal),
			flag(t.ManualReview), optBoolPtr(t.ManualReturn),
			t.PulledDate, t.ApprovedDate, t.ProcessedDate,
			t.PulledAccountingDate, t.ApprovedAccountingDate, t.ProcessedAccountingDate)
	} else {
		record = append(record, blanks(14)...)
	}

	record = append(record, string(row.AudioState()), string(row.VideoState()), string(row.TranscriptState()))
	return record
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optBoolPtr(v *bool) string {
	if v == nil {
		return ""
	}
	return flag(*v)
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func blanks(n int) []string {
	return make([]string, n)
}
