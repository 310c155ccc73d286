package anomaly

import (
	"sort"

	"tally/internal/ledger"
	"tally/internal/qc"
)

// flagStageFailures covers the audio stage outcomes: QC rejection, failed
// vendor upload, and a speaker-specific audio inventory below the expected
// minimum. Rows without folder diagnostics (single-file recordings) carry no
// speaker counts and are exempt from the speaker rule.
func (d *detector) flagStageFailures() {
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Audio == nil {
			continue
		}
		if row.Audio.Rejected {
			d.emit(row, WarnAudioRejected)
		}
	}
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Audio == nil {
			continue
		}
		if row.Audio.UploadFailed {
			d.emit(row, WarnUploadFailed)
		}
	}
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Audio == nil {
			continue
		}
		if count := row.Audio.SpeakerUniqueIDCount; count != nil && *count < d.opts.MinSpeakerIDs {
			d.emit(row, WarnMissingSpeakers)
		}
	}
}

// flagVideoMismatches cross-checks the video-derived identity against the
// audio-assigned one. Both modalities must be present; a missing video is a
// join gap, not an inconsistency.
func (d *detector) flagVideoMismatches() {
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Audio == nil || row.Video == nil {
			continue
		}
		if row.Video.Day != row.Audio.Day {
			d.emit(row, WarnVideoDayMismatch)
		}
	}
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Audio == nil || row.Video == nil {
			continue
		}
		if row.Video.Session != row.Audio.Session {
			d.emit(row, WarnVideoSessMismatch)
		}
	}
}

// flagEncodings covers the transcript encoding contract: the returned
// transcript must at least be UTF-8, and an English transcript should come
// out of redaction as plain ASCII.
func (d *detector) flagEncodings() {
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Transcript == nil {
			continue
		}
		if row.Transcript.EncodingInitial == ledger.EncodingInvalid {
			d.emit(row, WarnBadInitialEncoding)
		}
	}
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Transcript == nil {
			continue
		}
		if row.Transcript.EncodingFinal == ledger.EncodingUTF8 && row.Transcript.Language == "ENGLISH" {
			d.emit(row, WarnNonASCIIEnglish)
		}
	}
}

// flagConsentChanges fires when fresh rows carry a consent date never seen on
// older rows, which retroactively shifts every day number derived before the
// correction.
func (d *detector) flagConsentChanges() {
	all := make(map[string]struct{})
	old := make(map[string]struct{})
	for i, row := range d.view.Rows {
		if row.Audio == nil || row.Audio.ConsentDateAtAccounting == "" {
			continue
		}
		all[row.Audio.ConsentDateAtAccounting] = struct{}{}
		if !d.newFresh[i] {
			old[row.Audio.ConsentDateAtAccounting] = struct{}{}
		}
	}
	if len(all) < 2 {
		return
	}
	for i, row := range d.view.Rows {
		if !d.newFresh[i] || row.Audio == nil || row.Audio.ConsentDateAtAccounting == "" {
			continue
		}
		if _, seen := old[row.Audio.ConsentDateAtAccounting]; !seen {
			d.emit(row, WarnConsentChanged)
		}
	}
}

// flagDayInversions sorts the session-bearing rows by session and flags both
// endpoints of every adjacent pair whose day number decreases. Day must be
// non-decreasing with session; an inversion means a consent correction or a
// late-arriving older recording. Orphan transcript rows carry a session of
// their own and participate; video-only rows carry none and do not. A
// single-row ledger has no pairs and can never fire.
func (d *detector) flagDayInversions() {
	ordered := d.sessionOrdered()
	inverted := make(map[int]bool)
	for k := 0; k+1 < len(ordered); k++ {
		a := d.view.Rows[ordered[k]].Day()
		b := d.view.Rows[ordered[k+1]].Day()
		if *b < *a {
			inverted[ordered[k]] = true
			inverted[ordered[k+1]] = true
		}
	}
	for i, row := range d.view.Rows {
		if d.newFresh[i] && inverted[i] {
			d.emit(row, WarnDayInversion)
		}
	}
}

// flagRepeatedSessions fires for every fresh row sharing its session number
// with another row, whichever modality the session comes from. The scan is
// gated on a duplicate actually existing so the common case stays cheap.
func (d *detector) flagRepeatedSessions() {
	counts := make(map[int]int)
	for _, row := range d.view.Rows {
		if session := row.Session(); session != nil {
			counts[*session]++
		}
	}
	duplicated := false
	for _, n := range counts {
		if n > 1 {
			duplicated = true
			break
		}
	}
	if !duplicated {
		return
	}
	for i, row := range d.view.Rows {
		if !d.newFresh[i] {
			continue
		}
		session := row.Session()
		if session != nil && counts[*session] > 1 {
			d.emit(row, WarnSessionRepeated)
		}
	}
}

// flagQCFailures consults the QC exports for interviews under the length
// threshold, videos with no detectable faces, and transcripts with zero
// redactions. These use the narrower freshness set since the exports only
// move when processing ran.
func (d *detector) flagQCFailures() {
	short := d.tables.ShortInterviews(d.opts.MinInterviewMinutes)
	for i, row := range d.view.Rows {
		if !d.updateFresh[i] || row.Day() == nil {
			continue
		}
		if _, ok := short[qc.Unit{Day: *row.Day(), Session: *row.Session()}]; ok {
			d.emit(row, WarnShortInterview)
		}
	}

	noFaces := d.tables.NoFaceInterviews()
	for i, row := range d.view.Rows {
		if !d.updateFresh[i] || row.Video == nil {
			continue
		}
		if _, ok := noFaces[qc.Unit{Day: row.Video.Day, Session: row.Video.Session}]; ok {
			d.emit(row, WarnNoFaces)
		}
	}

	noRedactions := d.tables.NoRedactionTranscripts()
	for i, row := range d.view.Rows {
		if !d.updateFresh[i] || row.Day() == nil {
			continue
		}
		if _, ok := noRedactions[qc.Unit{Day: *row.Day(), Session: *row.Session()}]; ok {
			d.emit(row, WarnNoRedactions)
		}
	}
}

// sessionOrdered returns the indexes of session-bearing rows (audio or
// orphan transcript identity) sorted by session.
func (d *detector) sessionOrdered() []int {
	var ordered []int
	for i, row := range d.view.Rows {
		if row.Session() != nil && row.Day() != nil {
			ordered = append(ordered, i)
		}
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return *d.view.Rows[ordered[a]].Session() < *d.view.Rows[ordered[b]].Session()
	})
	return ordered
}
