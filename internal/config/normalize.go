package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataRoot, err = expandPath(c.Paths.DataRoot); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Reports.WarningEmailPath != "" {
		if c.Reports.WarningEmailPath, err = expandPath(c.Reports.WarningEmailPath); err != nil {
			return err
		}
	}
	if c.Reports.SummaryEmailPath != "" {
		if c.Reports.SummaryEmailPath, err = expandPath(c.Reports.SummaryEmailPath); err != nil {
			return err
		}
	}

	c.Study.Name = strings.TrimSpace(c.Study.Name)
	types := make([]string, 0, len(c.Study.InterviewTypes))
	for _, t := range c.Study.InterviewTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			types = append(types, t)
		}
	}
	c.Study.InterviewTypes = types

	lang, err := canonicalLanguage(c.Study.TranscriptLanguage)
	if err != nil {
		return err
	}
	c.Study.TranscriptLanguage = lang

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Reports.LockTimeoutSeconds <= 0 {
		c.Reports.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
	if c.Thresholds.MinInterviewMinutes <= 0 {
		c.Thresholds.MinInterviewMinutes = defaultMinInterviewMinutes
	}
	if c.Thresholds.MinSpeakerIDs <= 0 {
		c.Thresholds.MinSpeakerIDs = defaultMinSpeakerIDs
	}

	return nil
}

// canonicalLanguage maps a configured language value (BCP 47 tag or plain
// English name) to the uppercase English display name recorded in transcript
// ledger rows, e.g. "en" and "English" both become "ENGLISH".
func canonicalLanguage(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultTranscriptLanguage, nil
	}

	if tag, err := language.Parse(value); err == nil {
		name := display.English.Languages().Name(tag)
		if name != "" {
			return strings.ToUpper(name), nil
		}
	}

	// Accept a plain language name as written, e.g. "Cantonese".
	for _, r := range value {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') && r != ' ' {
			return "", fmt.Errorf("study.transcript_language: unrecognized value %q", value)
		}
	}
	return strings.ToUpper(value), nil
}
