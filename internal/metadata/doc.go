// Package metadata reads the per-study metadata table mapping subject IDs to
// consent dates. Day numbers across every ledger are anchored on the consent
// date, so a missing entry aborts the participant's run rather than producing
// silently shifted identifiers.
package metadata
