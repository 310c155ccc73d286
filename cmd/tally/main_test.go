package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tally/internal/layout"
	"tally/internal/ledger"
	"tally/internal/testsupport"
)

func writeConfigFile(t *testing.T) (string, layout.Tree) {
	t.Helper()
	base := t.TempDir()
	dataRoot := filepath.Join(base, "PHOENIX")
	content := fmt.Sprintf(`[paths]
data_root = %q
log_dir = %q

[study]
name = "PronetLA"
interview_types = ["open", "psychs"]
transcript_language = "ENGLISH"

[reports]
warning_email_path = %q
summary_email_path = %q
lock_timeout_seconds = 5

[thresholds]
min_interview_minutes = 4.0
min_speaker_ids = 2

[logging]
format = "console"
level = "info"
`,
		dataRoot,
		filepath.Join(base, "logs"),
		filepath.Join(base, "reports", "warnings.txt"),
		filepath.Join(base, "reports", "summary.txt"))

	path := filepath.Join(base, "config.toml")
	testsupport.WriteFile(t, path, content)
	return path, layout.NewTree(dataRoot, "PronetLA")
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitCreatesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output should name the written file:\n%s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := executeCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite failed: %v", err)
	}
}

func TestWarningsCommandRendersLedger(t *testing.T) {
	configPath, tree := writeConfigFile(t)
	err := ledger.AppendWarnings(tree.WarningsPath("AB12345", "open"), []ledger.WarningRow{{
		Day: ledger.IntPtr(5), Session: ledger.IntPtr(1),
		WarningText: "Audio Rejected by QC", WarningDate: "2024-03-10",
	}})
	if err != nil {
		t.Fatalf("seed warnings ledger: %v", err)
	}

	out, err := executeCommand(t, "--config", configPath, "warnings", "AB12345", "open")
	if err != nil {
		t.Fatalf("warnings command failed: %v", err)
	}
	if !strings.Contains(out, "Audio Rejected by QC") || !strings.Contains(out, "2024-03-10") {
		t.Fatalf("table missing ledger content:\n%s", out)
	}
}

func TestWarningsCommandEmptyLedger(t *testing.T) {
	configPath, _ := writeConfigFile(t)
	out, err := executeCommand(t, "--config", configPath, "warnings", "AB12345", "open")
	if err != nil {
		t.Fatalf("warnings command failed: %v", err)
	}
	if !strings.Contains(out, "No warnings recorded") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSOPCommandRendersLedger(t *testing.T) {
	configPath, tree := writeConfigFile(t)
	err := ledger.SaveSOP(tree.SOPPath("AB12345", "open"), []ledger.SOPRow{{
		RawName: "2024-03-05 10.30.00", IsFolder: true,
		ValidName: ledger.BoolPtr(true), AudioCount: ledger.IntPtr(2),
		VideoCount: ledger.IntPtr(1), TotalFiles: ledger.IntPtr(4),
		DateDetected: "2024-03-10",
	}})
	if err != nil {
		t.Fatalf("seed SOP ledger: %v", err)
	}

	out, err := executeCommand(t, "--config", configPath, "sop", "AB12345", "open")
	if err != nil {
		t.Fatalf("sop command failed: %v", err)
	}
	if !strings.Contains(out, "2024-03-05 10.30.00") || !strings.Contains(out, "folder") {
		t.Fatalf("table missing SOP content:\n%s", out)
	}
}

func TestSOPCommandRendersFilePlaceholders(t *testing.T) {
	configPath, tree := writeConfigFile(t)
	err := ledger.SaveSOP(tree.SOPPath("AB12345", "open"), []ledger.SOPRow{{
		RawName: "notes.docx", DateDetected: "2024-03-10",
	}})
	if err != nil {
		t.Fatalf("seed SOP ledger: %v", err)
	}

	out, err := executeCommand(t, "--config", configPath, "sop", "AB12345", "open")
	if err != nil {
		t.Fatalf("sop command failed: %v", err)
	}
	// A standalone file has no folder diagnostics; the counts render as "-".
	if !strings.Contains(out, "notes.docx") || !strings.Contains(out, "file") {
		t.Fatalf("missing file row:\n%s", out)
	}
	if strings.Count(out, " - ") < 4 {
		t.Fatalf("null diagnostics should render placeholders:\n%s", out)
	}
}

func TestStatusCommandEmptyJournal(t *testing.T) {
	configPath, _ := writeConfigFile(t)
	out, err := executeCommand(t, "--config", configPath, "status")
	if err != nil {
		t.Fatalf("status command failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestProcessTypeRequiresParticipant(t *testing.T) {
	configPath, _ := writeConfigFile(t)
	if _, err := executeCommand(t, "--config", configPath, "process", "--type", "open"); err == nil {
		t.Fatal("--type without --participant should fail")
	}
}

func TestProcessCommandRunsUnit(t *testing.T) {
	configPath, tree := writeConfigFile(t)
	testsupport.WriteFile(t, tree.MetadataPath(), "Active,Consent,Subject ID\n1,2024-03-01,AB12345\n")
	testsupport.MkDir(t, tree.RawDir("AB12345", "open"))

	out, err := executeCommand(t, "--config", configPath,
		"process", "--participant", "AB12345", "--type", "open")
	if err != nil {
		t.Fatalf("process command failed: %v", err)
	}
	if !strings.Contains(out, "Processed AB12345") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	statusOut, err := executeCommand(t, "--config", configPath, "status")
	if err != nil {
		t.Fatalf("status command failed: %v", err)
	}
	if !strings.Contains(statusOut, "AB12345") || !strings.Contains(statusOut, "completed") {
		t.Fatalf("journal should record the completed unit:\n%s", statusOut)
	}
}
