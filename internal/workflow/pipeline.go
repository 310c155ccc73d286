package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/accounting"
	"tally/internal/anomaly"
	"tally/internal/config"
	"tally/internal/journal"
	"tally/internal/layout"
	"tally/internal/ledger"
	"tally/internal/metadata"
	"tally/internal/qc"
	"tally/internal/reconcile"
	"tally/internal/report"
)

// Pipeline runs the accounting and reconciliation passes over a PHOENIX tree.
type Pipeline struct {
	cfg    *config.Config
	tree   layout.Tree
	store  *journal.Store
	notify *report.Notifier
	logger *slog.Logger
	asOf   time.Time
}

// New builds a Pipeline anchored on the current date.
func New(cfg *config.Config, store *journal.Store, logger *slog.Logger) *Pipeline {
	return NewAt(cfg, store, logger, time.Now())
}

// NewAt builds a Pipeline anchored on an explicit run date.
func NewAt(cfg *config.Config, store *journal.Store, logger *slog.Logger, asOf time.Time) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		tree:   layout.NewTree(cfg.Paths.DataRoot, cfg.Study.Name),
		store:  store,
		notify: report.NewNotifier(cfg.Reports, logger),
		logger: logger.With("component", "workflow"),
		asOf:   asOf,
	}
}

// Summary aggregates one full pipeline run.
type Summary struct {
	UnitsProcessed  int
	UnitsFailed     int
	WarningsEmitted int
}

// UnitResult describes what one participant and interview type unit produced.
type UnitResult struct {
	RawUnits       int
	SOPViolations  int
	AudioRows      int
	VideoRows      int
	TranscriptRows int
	Warnings       int
	Updated        bool
}

// Run processes every participant and interview type under the study. Unit
// failures are journalled and logged, then the run moves on.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	participants, err := p.tree.Participants()
	if err != nil {
		return Summary{}, fmt.Errorf("list participants: %w", err)
	}

	var summary Summary
	for _, participant := range participants {
		for _, interviewType := range p.cfg.Study.InterviewTypes {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			result, err := p.RunUnit(ctx, participant, interviewType)
			if err != nil {
				summary.UnitsFailed++
				p.logger.Error("unit failed",
					"participant", participant, "interview_type", interviewType, "error", err)
				continue
			}
			summary.UnitsProcessed++
			summary.WarningsEmitted += result.Warnings
		}
	}
	p.logger.Info("pipeline run finished",
		"units", summary.UnitsProcessed, "failed", summary.UnitsFailed,
		"warnings", summary.WarningsEmitted)
	return summary, nil
}

// RunUnit processes a single participant and interview type end to end.
func (p *Pipeline) RunUnit(ctx context.Context, participant, interviewType string) (UnitResult, error) {
	run, err := p.store.Begin(ctx, participant, interviewType)
	if err != nil {
		return UnitResult{}, fmt.Errorf("journal unit: %w", err)
	}

	result, err := p.runUnit(ctx, run, participant, interviewType)
	if err != nil {
		if failErr := p.store.MarkFailed(ctx, run.ID, err.Error()); failErr != nil {
			p.logger.Error("failed to journal unit failure", "run", run.ID, "error", failErr)
		}
		return UnitResult{}, err
	}
	if err := p.store.MarkCompleted(ctx, run.ID, result.Warnings); err != nil {
		p.logger.Error("failed to journal unit completion", "run", run.ID, "error", err)
	}
	return result, nil
}

func (p *Pipeline) runUnit(ctx context.Context, run *journal.Run, participant, interviewType string) (UnitResult, error) {
	logger := p.logger.With("participant", participant, "interview_type", interviewType)

	consent, err := metadata.ConsentDate(p.tree.MetadataPath(), participant)
	if err != nil {
		if errors.Is(err, metadata.ErrMissingConsent) {
			return UnitResult{}, fmt.Errorf("participant %s: %w", participant, err)
		}
		return UnitResult{}, fmt.Errorf("read study metadata: %w", err)
	}

	if err := p.store.SetStatus(ctx, run.ID, journal.StatusAccounting); err != nil {
		return UnitResult{}, err
	}
	runner := accounting.NewRunner(p.tree, p.logger, p.asOf)

	var result UnitResult
	identities, err := runner.ResolveRawIdentities(participant, interviewType, consent)
	if err != nil {
		return UnitResult{}, err
	}
	result.RawUnits = len(identities)

	if result.SOPViolations, err = runner.CheckSOP(participant, interviewType); err != nil {
		return UnitResult{}, err
	}
	if result.AudioRows, err = runner.AuditAudio(participant, interviewType, consent); err != nil {
		return UnitResult{}, err
	}
	if result.VideoRows, err = runner.AuditVideo(participant, interviewType); err != nil {
		return UnitResult{}, err
	}
	if result.TranscriptRows, err = runner.AuditTranscript(participant, interviewType, p.cfg.Study.TranscriptLanguage); err != nil {
		return UnitResult{}, err
	}
	result.Updated = result.AudioRows+result.VideoRows+result.TranscriptRows > 0

	if err := p.store.SetStatus(ctx, run.ID, journal.StatusReconciling); err != nil {
		return UnitResult{}, err
	}
	view, err := p.reconcileUnit(participant, interviewType)
	if err != nil {
		return UnitResult{}, err
	}
	if _, err := qc.Combine(p.tree, participant, interviewType); err != nil {
		return UnitResult{}, err
	}

	if err := p.store.SetStatus(ctx, run.ID, journal.StatusDetecting); err != nil {
		return UnitResult{}, err
	}
	warnings, err := p.detectUnit(participant, interviewType, view)
	if err != nil {
		return UnitResult{}, err
	}
	result.Warnings = len(warnings)

	if err := p.store.SetStatus(ctx, run.ID, journal.StatusReporting); err != nil {
		return UnitResult{}, err
	}
	if err := p.reportUnit(participant, interviewType, warnings, result.Updated); err != nil {
		return UnitResult{}, err
	}

	logger.Info("unit processed",
		"raw_units", result.RawUnits,
		"sop_violations", result.SOPViolations,
		"audio_rows", result.AudioRows,
		"video_rows", result.VideoRows,
		"transcript_rows", result.TranscriptRows,
		"warnings", result.Warnings)
	return result, nil
}

// reconcileUnit rebuilds the cross-modality snapshot from the three ledgers.
func (p *Pipeline) reconcileUnit(participant, interviewType string) (reconcile.View, error) {
	audio, err := ledger.LoadAudio(p.tree.AudioAccountingPath(participant, interviewType))
	if err != nil {
		return reconcile.View{}, err
	}
	video, err := ledger.LoadVideo(p.tree.VideoAccountingPath(participant, interviewType))
	if err != nil {
		return reconcile.View{}, err
	}
	transcript, err := ledger.LoadTranscript(p.tree.TranscriptAccountingPath(participant, interviewType))
	if err != nil {
		return reconcile.View{}, err
	}

	view := reconcile.Reconcile(audio, video, transcript)
	if len(view.Rows) == 0 {
		return view, nil
	}
	if err := reconcile.WriteSnapshot(p.tree.AllModalityPath(participant, interviewType), view); err != nil {
		return reconcile.View{}, err
	}
	return view, nil
}

// detectUnit evaluates the warning catalogue and appends any findings to the
// unit's warnings ledger.
func (p *Pipeline) detectUnit(participant, interviewType string, view reconcile.View) ([]ledger.WarningRow, error) {
	tables, err := qc.Load(p.tree, participant, interviewType)
	if err != nil {
		return nil, err
	}
	warnings := anomaly.Detect(view, tables, anomaly.Options{
		AsOf:                p.asOf,
		MinInterviewMinutes: p.cfg.Thresholds.MinInterviewMinutes,
		MinSpeakerIDs:       p.cfg.Thresholds.MinSpeakerIDs,
	})
	if len(warnings) == 0 {
		return nil, nil
	}
	if err := ledger.AppendWarnings(p.tree.WarningsPath(participant, interviewType), warnings); err != nil {
		return nil, err
	}
	return warnings, nil
}

// reportUnit appends the unit's fragments to the shared site report files.
func (p *Pipeline) reportUnit(participant, interviewType string, warnings []ledger.WarningRow, updated bool) error {
	sopNames, err := p.freshSOPViolations(participant, interviewType)
	if err != nil {
		return err
	}
	if err := p.notify.AppendWarnings(participant, interviewType, warnings, sopNames); err != nil {
		return err
	}
	if updated {
		return p.notify.AppendSummary(participant, interviewType)
	}
	return nil
}

// freshSOPViolations returns the raw names of SOP rows first detected on the
// run date. Older rows were already reported by an earlier run.
func (p *Pipeline) freshSOPViolations(participant, interviewType string) ([]string, error) {
	rows, err := ledger.LoadSOP(p.tree.SOPPath(participant, interviewType))
	if err != nil {
		return nil, err
	}
	today := p.asOf.Format(metadata.DateLayout)
	var names []string
	for _, row := range rows {
		if row.DateDetected == today {
			names = append(names, row.RawName)
		}
	}
	return names, nil
}
