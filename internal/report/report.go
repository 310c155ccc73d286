package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"tally/internal/config"
	"tally/internal/ledger"
)

// Notifier appends plain-text fragments to the shared per-site report files.
// Participants are processed as independent units, so the site-wide header
// must be coordinated through the file's existence rather than in-memory
// state, and every append runs under a file lock in case units are ever
// processed in parallel.
type Notifier struct {
	warningPath string
	summaryPath string
	lockTimeout time.Duration
	logger      *slog.Logger
}

// NewNotifier builds a Notifier from the report configuration. Empty paths
// disable the corresponding fragment.
func NewNotifier(cfg config.Reports, logger *slog.Logger) *Notifier {
	return &Notifier{
		warningPath: cfg.WarningEmailPath,
		summaryPath: cfg.SummaryEmailPath,
		lockTimeout: time.Duration(cfg.LockTimeoutSeconds) * time.Second,
		logger:      logger.With("component", "report"),
	}
}

const warningHeader = `Potential issues found with newly uploaded and/or newly processed interviews for this site! Each interview with new violations is listed below, grouped by patient and interview type. Note that these alerts only appear when a recently updated file is flagged - not receiving a warning later is no indication the issue was resolved.

For any detected file organization problems, the raw interview folder name is listed. Review the name and contents of that folder on source before the interview can be processed. The SOP check covers raw interviews already pulled to the data aggregation server; upload-time violations are alerted separately.

Processed file warnings cover renaming inconsistencies (typically a changed consent date or older interviews uploaded after newer ones), unexpected transcript encodings, severe quality problems such as zero detected faces or zero redactions, and failed transcription uploads. Each warning lists the flagged interview's day and session number. Flagged files continue to be processed where possible; decide case by case whether manual intervention is needed.

These warnings are not an exhaustive list of possible problems. Continue to monitor the QC dashboards and the modality-specific summaries.

`

// AppendWarnings writes the per-participant warning fragment: newly detected
// SOP violations first, then the processing warnings, each under its own
// section banner. The header is written exactly once per run, decided by
// whether the report file already exists.
func (n *Notifier) AppendWarnings(participant, interviewType string, warnings []ledger.WarningRow, sopViolations []string) error {
	if n.warningPath == "" || (len(warnings) == 0 && len(sopViolations) == 0) {
		return nil
	}
	return n.withLock(n.warningPath, func() error {
		var fragment strings.Builder
		if len(sopViolations) > 0 {
			fmt.Fprintf(&fragment, "--- Newly Detected SOP Violations for %s %s ---\n", participant, interviewType)
			for _, name := range sopViolations {
				fragment.WriteString(name)
				fragment.WriteByte('\n')
			}
			fragment.WriteByte('\n')
		}
		if len(warnings) > 0 {
			fmt.Fprintf(&fragment, "--- Newly Detected Processing Warnings for %s %s ---\n", participant, interviewType)
			for _, warning := range warnings {
				fragment.WriteString(Line(interviewType, warning))
				fragment.WriteByte('\n')
			}
			fragment.WriteByte('\n')
		}
		return n.appendFragment(n.warningPath, warningHeader, fragment.String())
	})
}

const summaryHeader = `Today's pipeline run has resulted in interview file processing updates. This email provides the latest version of the complete site-wide QC summary stats, as well as the following list of those patient interview types with updates:
`

// AppendSummary registers a participant and interview type in the summary
// fragment's update list. The first writer also lays down the header.
func (n *Notifier) AppendSummary(participant, interviewType string) error {
	if n.summaryPath == "" {
		return nil
	}
	return n.withLock(n.summaryPath, func() error {
		entry := participant + " (" + interviewType + ")"
		if _, err := os.Stat(n.summaryPath); err == nil {
			return appendText(n.summaryPath, ", "+entry)
		}
		return appendText(n.summaryPath, summaryHeader+entry)
	})
}

// Line renders one warning in the report format.
func Line(interviewType string, w ledger.WarningRow) string {
	return fmt.Sprintf("%s session %s (day %s): %s",
		interviewType, optNum(w.Session), optNum(w.Day), w.WarningText)
}

func optNum(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}

// withLock serializes access to a shared report file across processes.
func (n *Notifier) withLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), n.lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire report lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("report file %s locked by another writer", path)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			n.logger.Warn("failed to release report lock", "path", path, "error", unlockErr)
		}
	}()
	return fn()
}

// appendFragment appends body to path, prefixing the header when the file
// does not exist yet.
func (n *Notifier) appendFragment(path, header, body string) error {
	if _, err := os.Stat(path); err != nil {
		body = header + body
	}
	return appendText(path, body)
}

func appendText(path, text string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(text); err != nil {
		return fmt.Errorf("append report fragment: %w", err)
	}
	return nil
}
