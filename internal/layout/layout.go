package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Side selects the PROTECTED or GENERAL half of the data root.
type Side string

const (
	Protected Side = "PROTECTED"
	General   Side = "GENERAL"
)

// Tree resolves paths inside a PHOENIX-style data root for one study.
type Tree struct {
	Root  string
	Study string
}

// NewTree builds a Tree for the given data root and study.
func NewTree(root, study string) Tree {
	return Tree{Root: root, Study: study}
}

// MetadataPath returns the study metadata CSV holding consent dates.
func (t Tree) MetadataPath() string {
	return filepath.Join(t.Root, string(General), t.Study, t.Study+"_metadata.csv")
}

// RawDir returns the raw interview directory for a participant and interview type.
func (t Tree) RawDir(participant, interviewType string) string {
	return filepath.Join(t.Root, string(Protected), t.Study, "raw", participant, "interviews", interviewType)
}

// ProcessedDir returns the processed interview directory on the requested side.
func (t Tree) ProcessedDir(side Side, participant, interviewType string) string {
	return filepath.Join(t.Root, string(side), t.Study, "processed", participant, "interviews", interviewType)
}

// Participants lists participant directories present under the study's raw tree.
func (t Tree) Participants() ([]string, error) {
	rawRoot := filepath.Join(t.Root, string(Protected), t.Study, "raw")
	entries, err := os.ReadDir(rawRoot)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t Tree) accountingName(participant, interviewType, table string) string {
	return t.Study + "_" + participant + "_" + interviewType + table + ".csv"
}

// AudioAccountingPath returns the audio ledger CSV path.
func (t Tree) AudioAccountingPath(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType),
		t.accountingName(participant, interviewType, "InterviewAudioProcessAccountingTable"))
}

// VideoAccountingPath returns the video ledger CSV path.
func (t Tree) VideoAccountingPath(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType),
		t.accountingName(participant, interviewType, "InterviewVideoProcessAccountingTable"))
}

// TranscriptAccountingPath returns the transcript ledger CSV path.
func (t Tree) TranscriptAccountingPath(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType),
		t.accountingName(participant, interviewType, "InterviewTranscriptProcessAccountingTable"))
}

// AllModalityPath returns the reconciled snapshot CSV path, overwritten each run.
func (t Tree) AllModalityPath(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType),
		t.accountingName(participant, interviewType, "InterviewAllModalityProcessAccountingTable"))
}

// WarningsPath returns the process warnings ledger CSV path.
func (t Tree) WarningsPath(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType),
		t.accountingName(participant, interviewType, "InterviewProcessWarningsTable"))
}

// SOPPath returns the raw interview SOP violations ledger CSV path.
func (t Tree) SOPPath(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType),
		t.accountingName(participant, interviewType, "RawInterviewSOPAccountingTable"))
}

// AudioFilenameMapsDir holds one map file per renamed audio.
func (t Tree) AudioFilenameMapsDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "audio_filename_maps")
}

// SlidingQCDir holds per-audio sliding window QC outputs; their modification
// time stands in for the audio processing date.
func (t Tree) SlidingQCDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "sliding_window_audio_qc")
}

// PendingAudioDir holds renamed audio awaiting transcription upload.
func (t Tree) PendingAudioDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "pending_audio")
}

// CompletedAudioDir holds renamed audio whose transcription round trip finished.
func (t Tree) CompletedAudioDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "completed_audio")
}

// RejectedAudioDir holds audio rejected by QC.
func (t Tree) RejectedAudioDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "rejected_audio")
}

// AudioToSendDir holds audio whose upload failed and is queued for retry.
func (t Tree) AudioToSendDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "audio_to_send")
}

// VideoFramesDir holds one subdirectory per processed video.
func (t Tree) VideoFramesDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "video_frames")
}

// PrescreeningTranscriptsDir holds transcripts pulled for site review.
func (t Tree) PrescreeningTranscriptsDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "transcripts", "prescreening")
}

// ApprovedTranscriptsDir holds transcripts past review on the PROTECTED side.
func (t Tree) ApprovedTranscriptsDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(Protected, participant, interviewType), "transcripts")
}

// RedactedTranscriptsDir holds redacted transcripts on the GENERAL side.
func (t Tree) RedactedTranscriptsDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(General, participant, interviewType), "transcripts")
}

// TranscriptCSVDir holds per-transcript CSV conversions on the GENERAL side.
func (t Tree) TranscriptCSVDir(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(General, participant, interviewType), "transcripts", "csv")
}

// CombinedQCPath returns the per-participant combined QC records CSV.
func (t Tree) CombinedQCPath(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(General, participant, interviewType),
		participant+"_"+interviewType+"_combinedQCRecords.csv")
}

// QC table globs. The DPDash export step keeps at most one per modality.

// AudioQCGlob matches the audio QC table for a participant and interview type.
func (t Tree) AudioQCGlob(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(General, participant, interviewType),
		"avlqc-"+participant+"-interviewMonoAudioQC_"+interviewType+"-day*.csv")
}

// VideoQCGlob matches the video QC table.
func (t Tree) VideoQCGlob(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(General, participant, interviewType),
		"avlqc-"+participant+"-interviewVideoQC_"+interviewType+"-day*.csv")
}

// TranscriptQCGlob matches the redacted transcript QC table.
func (t Tree) TranscriptQCGlob(participant, interviewType string) string {
	return filepath.Join(t.ProcessedDir(General, participant, interviewType),
		"avlqc-"+participant+"-interviewRedactedTranscriptQC_"+interviewType+"-day*.csv")
}
