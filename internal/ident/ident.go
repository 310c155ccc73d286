package ident

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tally/internal/metadata"
)

// Sentinel errors for identifier resolution. Both classify as skip-and-continue
// for the unit they name; only a missing consent date aborts a whole run.
var (
	// ErrBadName indicates a raw folder or file name matching neither
	// supported naming convention.
	ErrBadName = errors.New("raw name does not match a naming convention")
	// ErrDuplicateTimestamp indicates two raw units encoding the identical
	// date and time, which would silently collide on one session number.
	ErrDuplicateTimestamp = errors.New("duplicate raw timestamp")
)

// Identity is the canonical (day, session) pair for one recording, along with
// the encoded calendar date and time it was derived from.
type Identity struct {
	Day     int
	Session int
	Date    string // YYYY-MM-DD
	Time    string // HH.MM.SS
}

// WAV interview type uses a fixed-length standalone filename convention.
const wavNameLength = 18

// ValidRawName reports whether a raw leaf name matches a supported convention
// for the interview type. isDir distinguishes the folder convention from the
// standalone WAV convention (the latter is honored only for psychs interviews).
func ValidRawName(name, interviewType string, isDir bool) bool {
	if isDir {
		return validFolderName(name)
	}
	return interviewType == "psychs" && validWAVName(name)
}

// validFolderName checks the space-delimited "YYYY-MM-DD HH.MM.SS" convention.
func validFolderName(name string) bool {
	parts := strings.SplitN(name, " ", 2)
	if len(parts) < 2 || len(parts[0]) != 10 || len(parts[1]) != 8 {
		return false
	}
	if _, err := time.Parse(metadata.DateLayout, parts[0]); err != nil {
		return false
	}
	if _, err := time.Parse("15.04.05", parts[1]); err != nil {
		return false
	}
	return true
}

// validWAVName checks the fixed-length "YYYYMMDDHHMMSS.WAV" convention.
func validWAVName(name string) bool {
	if len(name) != wavNameLength || !strings.HasSuffix(name, ".WAV") {
		return false
	}
	stamp := strings.TrimSuffix(name, ".WAV")
	if _, err := time.Parse("20060102150405", stamp); err != nil {
		return false
	}
	return true
}

// Normalize maps a raw name in either convention onto the folder convention's
// "YYYY-MM-DD HH.MM.SS" form. Normalized names zero-pad and ISO-order, so a
// plain lexicographic sort is chronological.
func Normalize(name string) (string, error) {
	if validFolderName(name) {
		return name, nil
	}
	if validWAVName(name) {
		return name[0:4] + "-" + name[4:6] + "-" + name[6:8] + " " +
			name[8:10] + "." + name[10:12] + "." + name[12:14], nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadName, name)
}

// Timestamp splits a normalized raw name into its date and time components.
func Timestamp(normalized string) (date, clock string) {
	parts := strings.SplitN(normalized, " ", 2)
	if len(parts) < 2 {
		return normalized, ""
	}
	return parts[0], parts[1]
}

// DayNumber computes the 1-based study day for a recording date. The day of
// consent is day 1.
func DayNumber(recordingDate, consentDate time.Time) int {
	return int(recordingDate.Sub(consentDate).Hours()/24) + 1
}

// Resolve derives the canonical identity of target among its raw siblings.
// Session number is the 1-based chronological rank of target among siblings
// matching a naming convention; day number is anchored on the consent date.
// Siblings not matching a convention are ignored here (the SOP check accounts
// for them separately).
func Resolve(target string, siblings []string, interviewType string, isDir func(string) bool, consentDate time.Time) (Identity, error) {
	normalizedTarget, err := Normalize(target)
	if err != nil {
		return Identity{}, err
	}

	type entry struct {
		raw        string
		normalized string
	}
	var valid []entry
	for _, name := range siblings {
		if !ValidRawName(name, interviewType, isDir(name)) {
			continue
		}
		normalized, err := Normalize(name)
		if err != nil {
			continue
		}
		valid = append(valid, entry{raw: name, normalized: normalized})
	}

	sort.Slice(valid, func(i, j int) bool {
		if valid[i].normalized != valid[j].normalized {
			return valid[i].normalized < valid[j].normalized
		}
		return valid[i].raw < valid[j].raw
	})

	session := 0
	for i, e := range valid {
		if e.normalized != normalizedTarget {
			continue
		}
		if e.raw != target {
			// Another raw unit encodes the identical timestamp and holds the
			// rank; assigning the same session twice would collide silently.
			return Identity{}, fmt.Errorf("%w: %q collides with %q", ErrDuplicateTimestamp, target, e.raw)
		}
		session = i + 1
		break
	}
	if session == 0 {
		return Identity{}, fmt.Errorf("%w: %q not found among raw siblings", ErrBadName, target)
	}

	dateStr, timeStr := Timestamp(normalizedTarget)
	recordingDate, err := time.Parse(metadata.DateLayout, dateStr)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %q has unparseable date", ErrBadName, target)
	}

	return Identity{
		Day:     DayNumber(recordingDate, consentDate),
		Session: session,
		Date:    dateStr,
		Time:    timeStr,
	}, nil
}

// ParseProcessedName extracts the day and session numbers embedded in a
// processed filename of the form ..._dayNNNN_sessionNNN.ext.
func ParseProcessedName(name string) (day, session int, err error) {
	_, after, found := strings.Cut(name, "_day")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q has no day component", ErrBadName, name)
	}
	dayStr, _, _ := strings.Cut(after, "_")
	day, err = strconv.Atoi(dayStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q has unparseable day", ErrBadName, name)
	}

	_, after, found = strings.Cut(name, "_session")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q has no session component", ErrBadName, name)
	}
	sessStr, _, _ := strings.Cut(after, ".")
	session, err = strconv.Atoi(sessStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q has unparseable session", ErrBadName, name)
	}
	return day, session, nil
}

// SplitMapName splits an artifact name of the form "<date>+<time>[.ext]" as
// used by audio filename maps and video frame folders.
func SplitMapName(name string) (date, clock string, err error) {
	base := name
	if idx := strings.Index(base, ".txt"); idx >= 0 {
		base = base[:idx]
	}
	date, clock, found := strings.Cut(base, "+")
	if !found {
		return "", "", fmt.Errorf("%w: %q has no date+time separator", ErrBadName, name)
	}
	return date, clock, nil
}
