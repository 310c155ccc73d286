// Package anomaly evaluates the fixed warning rule catalogue over a
// reconciled cross-modality view. Detection is incremental: only rows with a
// date stamp equal to the run's anchor date are eligible to fire, so historic
// ledger rows are never re-flagged. Warnings are data, not errors; nothing
// here ever halts processing.
package anomaly
