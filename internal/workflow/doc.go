// Package workflow orchestrates one pipeline run: for every participant and
// interview type unit it runs the SOP check, the three modality accountings,
// cross-modality reconciliation, QC combination, warning detection, and the
// report fragments, journalling each unit's progress along the way. Units are
// independent; a failure in one never stops the others.
package workflow
