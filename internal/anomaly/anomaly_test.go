package anomaly_test

import (
	"testing"
	"time"

	"tally/internal/anomaly"
	"tally/internal/ledger"
	"tally/internal/qc"
	"tally/internal/reconcile"
)

var asOf = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func options() anomaly.Options {
	return anomaly.Options{
		AsOf:                asOf,
		MinInterviewMinutes: 4.0,
		MinSpeakerIDs:       2,
	}
}

// freshAudio builds an audio row whose accounting stamp matches the run date,
// so it lands in the detector's evaluation subset.
func freshAudio(day, session int, date, clock string) ledger.AudioRow {
	return ledger.AudioRow{
		Day: day, Session: session,
		InterviewDate: date, InterviewTime: clock,
		AccountingDate:          "2024-03-10",
		ConsentDateAtAccounting: "2024-01-01",
		Success:                 true,
	}
}

func staleAudio(day, session int, date, clock string) ledger.AudioRow {
	row := freshAudio(day, session, date, clock)
	row.AccountingDate = "2024-02-01"
	return row
}

func texts(warnings []ledger.WarningRow) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.WarningText
	}
	return out
}

func countText(warnings []ledger.WarningRow, text string) int {
	n := 0
	for _, w := range warnings {
		if w.WarningText == text {
			n++
		}
	}
	return n
}

func TestStaleRowsNeverFire(t *testing.T) {
	audio := staleAudio(5, 1, "2024-03-05", "10.30.00")
	audio.Rejected = true
	view := reconcile.Reconcile([]ledger.AudioRow{audio}, nil, nil)

	warnings := anomaly.Detect(view, qc.Tables{}, options())
	if len(warnings) != 0 {
		t.Fatalf("stale row fired warnings: %v", texts(warnings))
	}
}

func TestStageFailureRules(t *testing.T) {
	rejected := freshAudio(5, 1, "2024-03-05", "10.30.00")
	rejected.Rejected = true
	uploadFailed := freshAudio(9, 2, "2024-03-09", "14.00.00")
	uploadFailed.UploadFailed = true
	uploadFailed.SpeakerUniqueIDCount = ledger.IntPtr(1)
	singleFile := freshAudio(12, 3, "2024-03-12", "09.00.00")
	singleFile.SingleFile = true

	view := reconcile.Reconcile([]ledger.AudioRow{rejected, uploadFailed, singleFile}, nil, nil)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	if countText(warnings, anomaly.WarnAudioRejected) != 1 {
		t.Fatalf("expected one rejection warning: %v", texts(warnings))
	}
	if countText(warnings, anomaly.WarnUploadFailed) != 1 {
		t.Fatalf("expected one upload warning: %v", texts(warnings))
	}
	// Only the row with a countable speaker inventory below 2 fires; the
	// single-file row has no inventory at all.
	if countText(warnings, anomaly.WarnMissingSpeakers) != 1 {
		t.Fatalf("expected one speaker warning: %v", texts(warnings))
	}
	if len(warnings) != 3 {
		t.Fatalf("unexpected extra warnings: %v", texts(warnings))
	}
}

func TestVideoIdentityMismatch(t *testing.T) {
	audio := freshAudio(5, 1, "2024-03-05", "10.30.00")
	video := []ledger.VideoRow{{
		InterviewDate: "2024-03-05", InterviewTime: "10.30.00",
		ProcessedFilename: "v.mp4", Day: 6, Session: 1, ProcessDate: "2024-03-10",
	}}
	view := reconcile.Reconcile([]ledger.AudioRow{audio}, video, nil)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	if countText(warnings, anomaly.WarnVideoDayMismatch) != 1 {
		t.Fatalf("expected a day mismatch warning: %v", texts(warnings))
	}
	if countText(warnings, anomaly.WarnVideoSessMismatch) != 0 {
		t.Fatalf("sessions agree, got: %v", texts(warnings))
	}
}

func TestEncodingRules(t *testing.T) {
	audio := freshAudio(5, 1, "2024-03-05", "10.30.00")
	transcripts := []ledger.TranscriptRow{
		{
			Day: 5, Session: 1, ReturnedFilename: "t1.txt", Language: "ENGLISH",
			EncodingInitial: ledger.EncodingInvalid,
			PulledDate:      "2024-03-10",
		},
		{
			Day: 9, Session: 2, ReturnedFilename: "t2.txt", Language: "ENGLISH",
			EncodingInitial: ledger.EncodingUTF8, EncodingFinal: ledger.EncodingUTF8,
			ProcessedAccountingDate: "2024-03-10",
		},
		{
			Day: 12, Session: 3, ReturnedFilename: "t3.txt", Language: "SPANISH",
			EncodingInitial: ledger.EncodingUTF8, EncodingFinal: ledger.EncodingUTF8,
			ProcessedAccountingDate: "2024-03-10",
		},
	}
	view := reconcile.Reconcile([]ledger.AudioRow{audio}, nil, transcripts)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	if countText(warnings, anomaly.WarnBadInitialEncoding) != 1 {
		t.Fatalf("expected one invalid-encoding warning: %v", texts(warnings))
	}
	// Only the English non-ASCII transcript fires the final-encoding rule.
	if countText(warnings, anomaly.WarnNonASCIIEnglish) != 1 {
		t.Fatalf("expected one non-ASCII warning: %v", texts(warnings))
	}
}

func TestConsentShiftFiresConsentAndInversionRules(t *testing.T) {
	old := staleAudio(10, 1, "2024-01-10", "10.00.00")
	corrected := freshAudio(3, 2, "2024-01-11", "10.00.00")
	corrected.ConsentDateAtAccounting = "2024-01-08"

	view := reconcile.Reconcile([]ledger.AudioRow{old, corrected}, nil, nil)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	if countText(warnings, anomaly.WarnConsentChanged) != 1 {
		t.Fatalf("expected a consent change warning: %v", texts(warnings))
	}
	// Day dropped from 10 to 3 between sessions 1 and 2; only the fresh
	// endpoint of the inverted pair is eligible to fire.
	if countText(warnings, anomaly.WarnDayInversion) != 1 {
		t.Fatalf("expected a day inversion warning: %v", texts(warnings))
	}
}

func TestDayMonotonicityFiresOnlyForDecreasingPair(t *testing.T) {
	rows := []ledger.AudioRow{
		freshAudio(5, 1, "2024-03-05", "10.00.00"),
		freshAudio(5, 2, "2024-03-05", "14.00.00"),
		freshAudio(3, 3, "2024-03-03", "09.00.00"),
	}
	view := reconcile.Reconcile(rows, nil, nil)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	// Sessions [1,2,3] with days [5,5,3]: only the 2 to 3 transition inverts,
	// flagging both endpoints and nothing else.
	if got := countText(warnings, anomaly.WarnDayInversion); got != 2 {
		t.Fatalf("expected 2 inversion warnings, got %d: %v", got, texts(warnings))
	}
	for _, w := range warnings {
		if w.WarningText == anomaly.WarnDayInversion && *w.Session == 1 {
			t.Fatal("session 1 is not part of the decreasing pair")
		}
	}
}

func TestRepeatedSessionNumbers(t *testing.T) {
	rows := []ledger.AudioRow{
		freshAudio(5, 4, "2024-03-05", "10.00.00"),
		freshAudio(9, 4, "2024-03-09", "14.00.00"),
		freshAudio(12, 5, "2024-03-12", "09.00.00"),
	}
	view := reconcile.Reconcile(rows, nil, nil)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	if got := countText(warnings, anomaly.WarnSessionRepeated); got != 2 {
		t.Fatalf("both session=4 rows should fire exactly once each, got %d: %v", got, texts(warnings))
	}
}

func TestRepeatedSessionAcrossModalities(t *testing.T) {
	// An orphan transcript carries its own session number; sharing it with an
	// audio row is a duplicate even though the two never joined.
	audio := freshAudio(5, 2, "2024-03-05", "10.00.00")
	transcripts := []ledger.TranscriptRow{{
		Day: 7, Session: 2, ReturnedFilename: "t.txt", Language: "ENGLISH",
		EncodingInitial:         ledger.EncodingUTF8,
		ProcessedAccountingDate: "2024-03-10",
	}}
	view := reconcile.Reconcile([]ledger.AudioRow{audio}, nil, transcripts)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	if got := countText(warnings, anomaly.WarnSessionRepeated); got != 2 {
		t.Fatalf("audio and orphan transcript sharing session 2 should both fire, got %d: %v",
			got, texts(warnings))
	}
}

func TestDayInversionWithOrphanTranscript(t *testing.T) {
	// Session 1 (audio, day 10) followed by session 2 (orphan transcript,
	// day 3) is a decreasing pair; both endpoints flag.
	audio := freshAudio(10, 1, "2024-01-10", "10.00.00")
	transcripts := []ledger.TranscriptRow{{
		Day: 3, Session: 2, ReturnedFilename: "t.txt", Language: "ENGLISH",
		EncodingInitial:         ledger.EncodingUTF8,
		ProcessedAccountingDate: "2024-03-10",
	}}
	view := reconcile.Reconcile([]ledger.AudioRow{audio}, nil, transcripts)
	warnings := anomaly.Detect(view, qc.Tables{}, options())

	if got := countText(warnings, anomaly.WarnDayInversion); got != 2 {
		t.Fatalf("expected both endpoints of the inverted pair to fire, got %d: %v",
			got, texts(warnings))
	}
}

func TestQCRulesFireIndependently(t *testing.T) {
	audio := freshAudio(5, 1, "2024-03-05", "10.30.00")
	video := []ledger.VideoRow{{
		InterviewDate: "2024-03-05", InterviewTime: "10.30.00",
		ProcessedFilename: "v.mp4", Day: 5, Session: 1, ProcessDate: "2024-03-10",
	}}
	tables := qc.Tables{
		Audio: &qc.Table{Records: []map[string]string{
			{"day": "5", "interview_number": "1", "length_minutes": "3.2"},
		}},
		Video: &qc.Table{Records: []map[string]string{
			{"day": "5", "interview_number": "1", "mean_faces_detected_in_frame": "0"},
		}},
	}
	view := reconcile.Reconcile([]ledger.AudioRow{audio}, video, nil)
	warnings := anomaly.Detect(view, tables, options())

	// A short interview with no faces yields two independent warning rows.
	if countText(warnings, anomaly.WarnShortInterview) != 1 ||
		countText(warnings, anomaly.WarnNoFaces) != 1 {
		t.Fatalf("expected both QC rules to fire: %v", texts(warnings))
	}
}

func TestPullFreshRowsSkipQCRules(t *testing.T) {
	// A transcript pulled today without fresh processing joins the wider
	// evaluation set for rules like encoding, but not the QC-backed set.
	audio := staleAudio(5, 1, "2024-03-05", "10.30.00")
	transcripts := []ledger.TranscriptRow{{
		Day: 5, Session: 1, ReturnedFilename: "t.txt", Language: "ENGLISH",
		EncodingInitial: ledger.EncodingInvalid,
		PulledDate:      "2024-03-10",
	}}
	tables := qc.Tables{
		Audio: &qc.Table{Records: []map[string]string{
			{"day": "5", "interview_number": "1", "length_minutes": "2.0"},
		}},
	}
	view := reconcile.Reconcile([]ledger.AudioRow{audio}, nil, transcripts)
	warnings := anomaly.Detect(view, tables, options())

	if countText(warnings, anomaly.WarnBadInitialEncoding) != 1 {
		t.Fatalf("pull-fresh row should fire encoding rule: %v", texts(warnings))
	}
	if countText(warnings, anomaly.WarnShortInterview) != 0 {
		t.Fatalf("pull-fresh row must not fire QC rules: %v", texts(warnings))
	}
}
