// Package ident derives canonical (day, session) identifiers for raw interview
// recordings.
//
// Two raw naming conventions are supported: Zoom-style folders named
// "YYYY-MM-DD HH.MM.SS" and, for psychs interviews only, standalone
// fixed-length "YYYYMMDDHHMMSS.WAV" recorder files. Session numbers are the
// 1-based chronological rank among convention-matching siblings; day numbers
// count from the participant's consent date, which is day 1.
package ident
