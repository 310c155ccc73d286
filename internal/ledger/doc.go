// Package ledger defines the append-only accounting tables persisted as CSVs
// alongside each participant's processed interviews.
//
// Five tables exist per participant and interview type: audio, video, and
// transcript stage accounting, process warnings, and raw SOP violations. Each
// table has a fixed column order that downstream tooling depends on; loading
// validates the header so schema drift fails loudly. Rows are never deleted.
// Writers rewrite the whole file through a temp-and-rename, so a crashed run
// leaves the previous ledger state intact and is safe to simply re-run.
package ledger
