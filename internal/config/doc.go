// Package config loads, normalizes, and validates tally configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and pipeline need: the PHOENIX data root, study identity, report file
// locations, and anomaly thresholds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical transcript language name, and clear validation
// errors.
package config
