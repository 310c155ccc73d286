// Package accounting implements the per-modality discovery passes that keep
// the interview ledgers current: audio renames via their filename maps, video
// processing via frame-extraction markers, the three-stage transcript round
// trip, and the raw-folder SOP check.
//
// Every pass is idempotent against an unchanged filesystem. The identifying
// key of each candidate unit is checked against the loaded ledger before any
// per-unit stat or read, since those are the expensive calls on a network
// mount. A malformed unit is logged and skipped without aborting its siblings.
package accounting
