package anomaly

import (
	"time"

	"tally/internal/ledger"
	"tally/internal/metadata"
	"tally/internal/qc"
	"tally/internal/reconcile"
)

// Warning kinds, in catalogue order. The order is stable so the rendered
// notification lists are deterministic run to run.
const (
	WarnAudioRejected      = "Audio Rejected by QC"
	WarnUploadFailed       = "Audio Failed SFTP Upload"
	WarnMissingSpeakers    = "Missing Expected Speaker Specific Audios"
	WarnVideoDayMismatch   = "Video Day Inconsistent with Audio Day"
	WarnVideoSessMismatch  = "Video Number Inconsistent with Audio Number"
	WarnBadInitialEncoding = "Transcript Encoding Not UTF-8"
	WarnNonASCIIEnglish    = "English Transcript Encoding Not ASCII"
	WarnConsentChanged     = "Consent Date Changed with New Files"
	WarnDayInversion       = "Session and Day Numbers Inconsistent"
	WarnSessionRepeated    = "Session Number Repeated"
	WarnShortInterview     = "Interview Under 4 Minutes"
	WarnNoFaces            = "No Faces Detected"
	WarnNoRedactions       = "No Redactions Detected"
)

// Options anchor one detection pass. AsOf is the run's freshness date: only
// rows carrying a stamp equal to it are evaluated, which is what keeps the
// detector incremental instead of re-flagging the whole ledger every run.
type Options struct {
	AsOf                time.Time
	MinInterviewMinutes float64
	MinSpeakerIDs       int
}

// Detect runs the full rule catalogue over the reconciled view and returns
// the warnings to append, stamped with the AsOf date. Rules are independent;
// one rule matching nothing never suppresses the others.
func Detect(view reconcile.View, tables qc.Tables, opts Options) []ledger.WarningRow {
	d := &detector{
		view:   view,
		tables: tables,
		opts:   opts,
		asOf:   opts.AsOf.Format(metadata.DateLayout),
	}
	d.classify()

	d.flagStageFailures()
	d.flagVideoMismatches()
	d.flagEncodings()
	d.flagConsentChanges()
	d.flagDayInversions()
	d.flagRepeatedSessions()
	d.flagQCFailures()
	return d.found
}

type detector struct {
	view   reconcile.View
	tables qc.Tables
	opts   Options
	asOf   string

	// updateFresh marks rows with fresh processing or accounting stamps;
	// newFresh additionally includes fresh transcript pull and approval
	// stamps. QC-backed rules use the narrower set because the QC exports
	// only change when processing ran.
	updateFresh []bool
	newFresh    []bool

	found []ledger.WarningRow
}

func (d *detector) classify() {
	d.updateFresh = make([]bool, len(d.view.Rows))
	d.newFresh = make([]bool, len(d.view.Rows))
	for i, row := range d.view.Rows {
		update := false
		if a := row.Audio; a != nil && (a.ProcessDate == d.asOf || a.AccountingDate == d.asOf) {
			update = true
		}
		if v := row.Video; v != nil && v.ProcessDate == d.asOf {
			update = true
		}
		if t := row.Transcript; t != nil && (t.ProcessedDate == d.asOf || t.ProcessedAccountingDate == d.asOf) {
			update = true
		}
		d.updateFresh[i] = update

		pull := false
		if t := row.Transcript; t != nil &&
			(t.PulledDate == d.asOf || t.PulledAccountingDate == d.asOf ||
				t.ApprovedDate == d.asOf || t.ApprovedAccountingDate == d.asOf) {
			pull = true
		}
		d.newFresh[i] = update || pull
	}
}

func (d *detector) emit(row reconcile.Row, text string) {
	warning := ledger.WarningRow{
		InterviewDate: row.InterviewDate(),
		InterviewTime: row.InterviewTime(),
		WarningText:   text,
		WarningDate:   d.asOf,
	}
	if day := row.Day(); day != nil {
		warning.Day = ledger.IntPtr(*day)
	}
	if session := row.Session(); session != nil {
		warning.Session = ledger.IntPtr(*session)
	}
	d.found = append(d.found, warning)
}
