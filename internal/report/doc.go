// Package report renders warning and summary fragments into the shared
// per-site report files that later get mailed out by external tooling.
package report
