package reconcile

// ModalityState names how far one modality has progressed for a recording
// unit. It is computed once per reconciliation pass from the ledger row so
// downstream consumers never infer state from scattered null checks.
type ModalityState string

const (
	// StateAbsent means no ledger row exists for the modality.
	StateAbsent ModalityState = "absent"
	// StateRejected means the audio was rejected by QC before upload.
	StateRejected ModalityState = "rejected"
	// StateUploadFailed means the audio upload to the transcription vendor failed.
	StateUploadFailed ModalityState = "upload_failed"
	// StateProcessed means the modality finished its pipeline stage.
	StateProcessed ModalityState = "processed"
	// StateStalled means an audio row exists but reached no terminal folder.
	StateStalled ModalityState = "stalled"
	// StateAwaitingReview means a transcript is with the site for manual review.
	StateAwaitingReview ModalityState = "awaiting_review"
	// StateReturned means a transcript is back from review but not yet redacted.
	StateReturned ModalityState = "returned"
	// StateRedacted means a redacted transcript exists but no CSV conversion yet.
	StateRedacted ModalityState = "redacted"
	// StateFinalized means the transcript completed redaction and conversion.
	StateFinalized ModalityState = "finalized"
)

// AudioState classifies the audio modality of the row.
func (r Row) AudioState() ModalityState {
	switch {
	case r.Audio == nil:
		return StateAbsent
	case r.Audio.Rejected:
		return StateRejected
	case r.Audio.UploadFailed:
		return StateUploadFailed
	case r.Audio.Success:
		return StateProcessed
	default:
		return StateStalled
	}
}

// VideoState classifies the video modality of the row.
func (r Row) VideoState() ModalityState {
	if r.Video == nil {
		return StateAbsent
	}
	return StateProcessed
}

// TranscriptState classifies the transcript modality of the row.
func (r Row) TranscriptState() ModalityState {
	t := r.Transcript
	switch {
	case t == nil:
		return StateAbsent
	case t.ProcessedCSVFilename != "":
		return StateFinalized
	case t.RedactedFilename != "":
		return StateRedacted
	case t.ManualReview && (t.ManualReturn == nil || !*t.ManualReturn):
		return StateAwaitingReview
	default:
		return StateReturned
	}
}
