// Package reconcile joins the three modality ledgers into the unified
// cross-modality view of a participant's recordings. Audio and video share
// the raw timestamp; transcripts key on the audio-assigned (day, session).
// The view is recomputed from the ledgers every pass and serialized to the
// AllModality snapshot for downstream consumers.
package reconcile
