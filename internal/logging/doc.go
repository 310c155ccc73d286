// Package logging constructs the slog loggers used across tally.
//
// Two output formats are supported: a compact single-line console format for
// interactive use and structured JSON for ingestion. NewFromConfig tees output
// to a rolling log file under the configured log directory in addition to
// stderr.
package logging
