package config

const (
	defaultDataRoot            = "~/PHOENIX"
	defaultLogDir              = "~/.local/share/tally/logs"
	defaultTranscriptLanguage  = "ENGLISH"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLockTimeoutSeconds  = 30
	defaultMinInterviewMinutes = 4.0
	defaultMinSpeakerIDs       = 2
)

var defaultInterviewTypes = []string{"open", "psychs"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataRoot: defaultDataRoot,
			LogDir:   defaultLogDir,
		},
		Study: Study{
			InterviewTypes:     append([]string{}, defaultInterviewTypes...),
			TranscriptLanguage: defaultTranscriptLanguage,
		},
		Reports: Reports{
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Thresholds: Thresholds{
			MinInterviewMinutes: defaultMinInterviewMinutes,
			MinSpeakerIDs:       defaultMinSpeakerIDs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
