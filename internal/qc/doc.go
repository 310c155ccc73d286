// Package qc reads the per-modality DPDash QC exports that live on the
// GENERAL side of the study tree. Anomaly detection consumes the unit sets
// failing quality thresholds; the combined per-participant QC record merges
// the three exports into one table for cross-site aggregation.
package qc
