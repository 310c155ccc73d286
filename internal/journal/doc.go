// Package journal persists a per-run record for every participant and
// interview type unit the pipeline touches, backed by SQLite. The journal is
// an operational audit trail: the status command reads it to show what the
// last runs did and where a unit failed.
package journal
