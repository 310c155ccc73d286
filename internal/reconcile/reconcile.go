package reconcile

import (
	"sort"

	"tally/internal/ledger"
)

// Row is the cross-modality state of one recording unit. Any modality may be
// absent, but at least one is always populated; absence means that modality
// has not been processed for the unit yet, or never will be.
type Row struct {
	Audio      *ledger.AudioRow
	Video      *ledger.VideoRow
	Transcript *ledger.TranscriptRow
}

// Day returns the audio-assigned day number, falling back to the transcript's
// embedded day for orphan transcripts. Nil for video-only rows, whose
// independently derived day is deliberately kept separate for cross-checking.
func (r Row) Day() *int {
	if r.Audio != nil {
		return &r.Audio.Day
	}
	if r.Transcript != nil {
		return &r.Transcript.Day
	}
	return nil
}

// Session returns the audio-assigned session number, with the same fallback
// rules as Day.
func (r Row) Session() *int {
	if r.Audio != nil {
		return &r.Audio.Session
	}
	if r.Transcript != nil {
		return &r.Transcript.Session
	}
	return nil
}

// InterviewDate returns the raw-timestamp date shared by audio and video.
func (r Row) InterviewDate() string {
	if r.Audio != nil {
		return r.Audio.InterviewDate
	}
	if r.Video != nil {
		return r.Video.InterviewDate
	}
	return ""
}

// InterviewTime returns the raw-timestamp time shared by audio and video.
func (r Row) InterviewTime() string {
	if r.Audio != nil {
		return r.Audio.InterviewTime
	}
	if r.Video != nil {
		return r.Video.InterviewTime
	}
	return ""
}

// View is the reconciled cross-modality table for one participant and
// interview type. It is derived fresh each run, never persisted directly; the
// AllModality snapshot is its serialized form.
type View struct {
	Rows []Row
}

type timestamp struct {
	date  string
	clock string
}

type unitKey struct {
	day     int
	session int
}

// Reconcile outer-joins the three modality ledgers. Audio and video join on
// the raw timestamp, since video carries no authoritative day or session.
// Transcripts then join on (day, session) against audio-bearing rows only;
// a transcript with no audio match is an orphan and is retained as a
// partially-null row so anomaly detection can see it. An empty ledger
// contributes nothing to the join and is not an error.
func Reconcile(audio []ledger.AudioRow, video []ledger.VideoRow, transcript []ledger.TranscriptRow) View {
	videoByStamp := make(map[timestamp][]*ledger.VideoRow, len(video))
	for i := range video {
		key := timestamp{video[i].InterviewDate, video[i].InterviewTime}
		videoByStamp[key] = append(videoByStamp[key], &video[i])
	}

	var rows []Row
	claimed := make(map[*ledger.VideoRow]bool)
	for i := range audio {
		row := Row{Audio: &audio[i]}
		key := timestamp{audio[i].InterviewDate, audio[i].InterviewTime}
		for _, v := range videoByStamp[key] {
			if !claimed[v] {
				claimed[v] = true
				row.Video = v
				break
			}
		}
		rows = append(rows, row)
	}
	for i := range video {
		if !claimed[&video[i]] {
			rows = append(rows, Row{Video: &video[i]})
		}
	}

	byUnit := make(map[unitKey][]int)
	for i, row := range rows {
		if row.Audio != nil {
			byUnit[unitKey{row.Audio.Day, row.Audio.Session}] = append(byUnit[unitKey{row.Audio.Day, row.Audio.Session}], i)
		}
	}
	for i := range transcript {
		key := unitKey{transcript[i].Day, transcript[i].Session}
		attached := false
		for _, idx := range byUnit[key] {
			if rows[idx].Transcript == nil {
				rows[idx].Transcript = &transcript[i]
				attached = true
				break
			}
		}
		if !attached {
			rows = append(rows, Row{Transcript: &transcript[i]})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := rows[i].Session(), rows[j].Session()
		switch {
		case si == nil && sj == nil:
			return rows[i].InterviewDate() < rows[j].InterviewDate()
		case si == nil:
			return false
		case sj == nil:
			return true
		case *si != *sj:
			return *si < *sj
		}
		return rows[i].InterviewDate() < rows[j].InterviewDate()
	})
	return View{Rows: rows}
}
