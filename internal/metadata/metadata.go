package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrMissingConsent indicates that no usable consent date is on file for a
// participant. Every identifier downstream depends on the consent date, so
// callers must treat this as fatal for the participant's run.
var ErrMissingConsent = errors.New("missing consent date")

// DateLayout is the calendar date format used throughout the ledgers.
const DateLayout = "2006-01-02"

// ConsentDate looks up a participant's consent date in the study metadata CSV.
func ConsentDate(metadataPath, subjectID string) (time.Time, error) {
	file, err := os.Open(metadataPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("open study metadata: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return time.Time{}, fmt.Errorf("read study metadata header: %w", err)
	}

	subjectCol := -1
	consentCol := -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Subject ID":
			subjectCol = i
		case "Consent":
			consentCol = i
		}
	}
	if subjectCol < 0 || consentCol < 0 {
		return time.Time{}, fmt.Errorf("study metadata %s missing Subject ID or Consent column", metadataPath)
	}

	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		if subjectCol >= len(record) || strings.TrimSpace(record[subjectCol]) != subjectID {
			continue
		}
		if consentCol >= len(record) {
			return time.Time{}, fmt.Errorf("%w: subject %s has no consent column value", ErrMissingConsent, subjectID)
		}
		raw := strings.TrimSpace(record[consentCol])
		if raw == "" {
			return time.Time{}, fmt.Errorf("%w: subject %s has empty consent date", ErrMissingConsent, subjectID)
		}
		parsed, err := time.Parse(DateLayout, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: subject %s consent date %q unparseable", ErrMissingConsent, subjectID, raw)
		}
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("%w: subject %s not present in study metadata", ErrMissingConsent, subjectID)
}
