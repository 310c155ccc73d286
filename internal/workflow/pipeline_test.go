package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tally/internal/anomaly"
	"tally/internal/config"
	"tally/internal/journal"
	"tally/internal/layout"
	"tally/internal/ledger"
	"tally/internal/metadata"
	"tally/internal/testsupport"
	"tally/internal/workflow"
)

var asOf = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func newPipeline(t *testing.T, cfg *config.Config) (*workflow.Pipeline, *journal.Store) {
	t.Helper()
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return workflow.NewAt(cfg, store, testsupport.Logger(t), asOf), store
}

func writeMetadata(t *testing.T, tree layout.Tree, consents map[string]string) {
	t.Helper()
	content := "Active,Consent,Subject ID\n"
	for participant, consent := range consents {
		content += "1," + consent + "," + participant + "\n"
	}
	testsupport.WriteFile(t, tree.MetadataPath(), content)
}

func TestPipelineRunEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInterviewTypes("open"))
	tree := layout.NewTree(cfg.Paths.DataRoot, cfg.Study.Name)
	writeMetadata(t, tree, map[string]string{"AB12345": "2024-03-01"})

	// A convention-valid raw interview plus a stray document that violates
	// the upload conventions.
	rawFolder := filepath.Join(tree.RawDir("AB12345", "open"), "2024-03-05 10.30.00")
	testsupport.WriteFile(t, filepath.Join(rawFolder, "audio1234.m4a"), "")
	testsupport.WriteFile(t, filepath.Join(rawFolder, "video1234.mp4"), "")
	testsupport.WriteFile(t, filepath.Join(tree.RawDir("AB12345", "open"), "notes.docx"), "")

	// The interview's audio was processed but rejected by QC.
	rename := cfg.Study.Name + "_AB12345_interviewMonoAudio_open_day0005_session001.wav"
	testsupport.WriteFile(t,
		filepath.Join(tree.AudioFilenameMapsDir("AB12345", "open"), "2024-03-05+10.30.00.txt"),
		filepath.Join(rawFolder, "audio1234.m4a")+"\n"+rename+"\n")
	qcPath := filepath.Join(tree.SlidingQCDir("AB12345", "open"), "2024-03-05+10.30.00.csv")
	testsupport.WriteFile(t, qcPath, "qc\n")
	testsupport.SetMtime(t, qcPath, time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC))
	testsupport.WriteFile(t, filepath.Join(tree.RejectedAudioDir("AB12345", "open"), rename), "")

	pipeline, store := newPipeline(t, cfg)
	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.UnitsProcessed != 1 || summary.UnitsFailed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.WarningsEmitted == 0 {
		t.Fatal("rejected audio should have emitted a warning")
	}

	rows, err := ledger.LoadAudio(tree.AudioAccountingPath("AB12345", "open"))
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one audio ledger row, got %d (err %v)", len(rows), err)
	}
	if !rows[0].Rejected {
		t.Fatalf("audio row should be marked rejected: %+v", rows[0])
	}

	warnings, err := ledger.LoadWarnings(tree.WarningsPath("AB12345", "open"))
	if err != nil {
		t.Fatalf("load warnings: %v", err)
	}
	found := false
	for _, w := range warnings {
		if w.WarningText == anomaly.WarnAudioRejected {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing rejection warning in ledger: %+v", warnings)
	}

	sopRows, err := ledger.LoadSOP(tree.SOPPath("AB12345", "open"))
	if err != nil || len(sopRows) != 1 {
		t.Fatalf("expected one SOP row, got %d (err %v)", len(sopRows), err)
	}
	if sopRows[0].RawName != "notes.docx" {
		t.Fatalf("unexpected SOP violator: %+v", sopRows[0])
	}

	if _, err := os.Stat(tree.AllModalityPath("AB12345", "open")); err != nil {
		t.Fatalf("missing reconciled snapshot: %v", err)
	}

	report, err := os.ReadFile(cfg.Reports.WarningEmailPath)
	if err != nil {
		t.Fatalf("read warning report: %v", err)
	}
	if !strings.Contains(string(report), "notes.docx") ||
		!strings.Contains(string(report), anomaly.WarnAudioRejected) {
		t.Fatalf("report fragment incomplete:\n%s", report)
	}
	summaryReport, err := os.ReadFile(cfg.Reports.SummaryEmailPath)
	if err != nil {
		t.Fatalf("read summary report: %v", err)
	}
	if !strings.Contains(string(summaryReport), "AB12345 (open)") {
		t.Fatalf("summary fragment missing participant:\n%s", summaryReport)
	}

	runs, err := store.Recent(context.Background(), 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one journalled run, got %d (err %v)", len(runs), err)
	}
	if runs[0].Status != journal.StatusCompleted {
		t.Fatalf("run should be completed, got %s", runs[0].Status)
	}
	if runs[0].WarningCount != summary.WarningsEmitted {
		t.Fatalf("journalled warning count %d != emitted %d",
			runs[0].WarningCount, summary.WarningsEmitted)
	}
}

func TestPipelineMissingConsentFailsUnitOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInterviewTypes("open"))
	tree := layout.NewTree(cfg.Paths.DataRoot, cfg.Study.Name)
	writeMetadata(t, tree, map[string]string{"AB12345": "2024-03-01"})
	testsupport.MkDir(t, tree.RawDir("AB12345", "open"))
	testsupport.MkDir(t, tree.RawDir("ZZ99999", "open"))

	pipeline, store := newPipeline(t, cfg)

	_, err := pipeline.RunUnit(context.Background(), "ZZ99999", "open")
	if !errors.Is(err, metadata.ErrMissingConsent) {
		t.Fatalf("expected missing consent error, got %v", err)
	}

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.UnitsProcessed != 1 || summary.UnitsFailed != 1 {
		t.Fatalf("unconsented unit should fail without stopping the run: %+v", summary)
	}

	runs, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	var failed *journal.Run
	for _, run := range runs {
		if run.Participant == "ZZ99999" && run.Status == journal.StatusFailed {
			failed = run
		}
	}
	if failed == nil {
		t.Fatalf("missing failed journal entry: %+v", runs)
	}
	if !strings.Contains(failed.ErrorMessage, "consent") {
		t.Fatalf("failure message should mention consent: %q", failed.ErrorMessage)
	}
}

func TestPipelineQuietUnitWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInterviewTypes("open"))
	tree := layout.NewTree(cfg.Paths.DataRoot, cfg.Study.Name)
	writeMetadata(t, tree, map[string]string{"AB12345": "2024-03-01"})
	testsupport.MkDir(t, tree.RawDir("AB12345", "open"))

	pipeline, _ := newPipeline(t, cfg)
	result, err := pipeline.RunUnit(context.Background(), "AB12345", "open")
	if err != nil {
		t.Fatalf("RunUnit failed: %v", err)
	}
	if result.Updated || result.Warnings != 0 {
		t.Fatalf("empty unit should be quiet: %+v", result)
	}

	for _, path := range []string{
		tree.AllModalityPath("AB12345", "open"),
		cfg.Reports.WarningEmailPath,
		cfg.Reports.SummaryEmailPath,
	} {
		if _, err := os.Stat(path); err == nil {
			t.Fatalf("quiet unit should not create %s", path)
		}
	}
}
