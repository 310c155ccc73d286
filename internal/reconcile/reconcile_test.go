package reconcile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tally/internal/ledger"
	"tally/internal/reconcile"
)

func audioRow(day, session int, date, clock string) ledger.AudioRow {
	return ledger.AudioRow{
		Day: day, Session: session,
		InterviewDate: date, InterviewTime: clock,
		RawPath: "/raw/" + date + " " + clock,
		Success: true,
	}
}

func TestReconcileJoinsOnTimestampThenUnit(t *testing.T) {
	audio := []ledger.AudioRow{
		audioRow(5, 1, "2024-03-05", "10.30.00"),
		audioRow(9, 2, "2024-03-09", "14.00.00"),
	}
	video := []ledger.VideoRow{
		{InterviewDate: "2024-03-05", InterviewTime: "10.30.00", ProcessedFilename: "v1.mp4", Day: 5, Session: 1},
	}
	transcript := []ledger.TranscriptRow{
		{Day: 9, Session: 2, ReturnedFilename: "t2.txt"},
	}

	view := reconcile.Reconcile(audio, video, transcript)
	if len(view.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(view.Rows))
	}

	first := view.Rows[0]
	if first.Audio == nil || first.Video == nil || first.Transcript != nil {
		t.Fatalf("session 1 should pair audio and video only: %+v", first)
	}
	second := view.Rows[1]
	if second.Audio == nil || second.Video != nil || second.Transcript == nil {
		t.Fatalf("session 2 should pair audio and transcript only: %+v", second)
	}
	if second.Transcript.ReturnedFilename != "t2.txt" {
		t.Fatalf("wrong transcript attached: %+v", second.Transcript)
	}
}

func TestReconcileKeepsUnmatchedRows(t *testing.T) {
	audio := []ledger.AudioRow{audioRow(5, 1, "2024-03-05", "10.30.00")}
	video := []ledger.VideoRow{
		{InterviewDate: "2024-03-07", InterviewTime: "09.00.00", ProcessedFilename: "v9.mp4", Day: 7, Session: 2},
	}
	transcript := []ledger.TranscriptRow{
		{Day: 40, Session: 9, ReturnedFilename: "orphan.txt"},
	}

	view := reconcile.Reconcile(audio, video, transcript)
	if len(view.Rows) != 3 {
		t.Fatalf("unmatched rows must be retained, got %d rows", len(view.Rows))
	}

	var sawAudioOnly, sawVideoOnly, sawOrphan bool
	for _, row := range view.Rows {
		switch {
		case row.Audio != nil && row.Video == nil && row.Transcript == nil:
			sawAudioOnly = true
		case row.Audio == nil && row.Video != nil:
			sawVideoOnly = true
			if row.Day() != nil {
				t.Fatal("video-only row must not claim an audio-assigned day")
			}
		case row.Audio == nil && row.Transcript != nil:
			sawOrphan = true
			if row.Day() == nil || *row.Day() != 40 {
				t.Fatalf("orphan transcript should fall back to its own day: %+v", row)
			}
		}
	}
	if !sawAudioOnly || !sawVideoOnly || !sawOrphan {
		t.Fatalf("missing expected row shapes: audio=%v video=%v orphan=%v",
			sawAudioOnly, sawVideoOnly, sawOrphan)
	}
}

func TestReconcileEmptyLedgers(t *testing.T) {
	audio := []ledger.AudioRow{audioRow(5, 1, "2024-03-05", "10.30.00")}

	view := reconcile.Reconcile(audio, nil, nil)
	if len(view.Rows) != 1 {
		t.Fatalf("empty ledgers must pass the populated one through, got %d rows", len(view.Rows))
	}
	if view.Rows[0].Audio == nil {
		t.Fatal("audio row lost in join against empty ledgers")
	}

	empty := reconcile.Reconcile(nil, nil, nil)
	if len(empty.Rows) != 0 {
		t.Fatalf("all-empty reconciliation should yield no rows, got %d", len(empty.Rows))
	}
}

func TestModalityStates(t *testing.T) {
	rejected := ledger.AudioRow{Rejected: true}
	stalled := ledger.AudioRow{}
	underReview := ledger.TranscriptRow{ManualReview: true}
	finalized := ledger.TranscriptRow{ProcessedCSVFilename: "t_REDACTED.csv"}

	cases := []struct {
		name string
		row  reconcile.Row
		want []reconcile.ModalityState
	}{
		{"empty modalities", reconcile.Row{Audio: &stalled},
			[]reconcile.ModalityState{reconcile.StateStalled, reconcile.StateAbsent, reconcile.StateAbsent}},
		{"rejected audio", reconcile.Row{Audio: &rejected},
			[]reconcile.ModalityState{reconcile.StateRejected, reconcile.StateAbsent, reconcile.StateAbsent}},
		{"transcript under review", reconcile.Row{Transcript: &underReview},
			[]reconcile.ModalityState{reconcile.StateAbsent, reconcile.StateAbsent, reconcile.StateAwaitingReview}},
		{"finalized transcript", reconcile.Row{Transcript: &finalized},
			[]reconcile.ModalityState{reconcile.StateAbsent, reconcile.StateAbsent, reconcile.StateFinalized}},
	}
	for _, tc := range cases {
		got := []reconcile.ModalityState{tc.row.AudioState(), tc.row.VideoState(), tc.row.TranscriptState()}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: states = %v, want %v", tc.name, got, tc.want)
			}
		}
	}
}

func TestWriteSnapshotOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.csv")
	view := reconcile.Reconcile(
		[]ledger.AudioRow{audioRow(5, 1, "2024-03-05", "10.30.00")}, nil, nil)
	if err := reconcile.WriteSnapshot(path, view); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "audio_state") {
		t.Fatalf("snapshot header missing state columns: %s", lines[0])
	}
	if !strings.Contains(lines[1], string(reconcile.StateProcessed)) {
		t.Fatalf("snapshot row missing computed state: %s", lines[1])
	}

	// A later, smaller view replaces the snapshot wholesale.
	if err := reconcile.WriteSnapshot(path, reconcile.View{}); err != nil {
		t.Fatalf("second WriteSnapshot failed: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 1 {
		t.Fatalf("snapshot should be overwritten in full, got %d lines", len(lines))
	}
}
