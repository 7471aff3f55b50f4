package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	EnvMasterScheduleID  = "MASTER_SCHEDULE_ID"
	EnvRangeName         = "RANGE_NAME"
	EnvGoogleCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvTranslationFile   = "TRANSLATION_FILE"
	EnvOutputFilePrefix  = "OUTPUT_FILE_PREFIX"
	EnvLogLevel          = "LOG_LEVEL"

	DefaultTranslationFile  = "files/translations.json"
	DefaultOutputFilePrefix = "schedule"
)

// ErrMissingEnv is returned when a required environment variable is unset.
var ErrMissingEnv = errors.New("required environment variable is not set")

// ScheduleEnv holds the settings the schedule command reads from the
// environment (or a .env file in the working directory).
type ScheduleEnv struct {
	SpreadsheetID    string
	RangeName        string
	Credentials      string
	TranslationFile  string
	OutputFilePrefix string
	LogLevel         string
}

// LoadScheduleEnv reads the schedule command's environment. Every missing
// required variable is logged before ErrMissingEnv is returned.
func LoadScheduleEnv(ctx context.Context) (ScheduleEnv, error) {
	env := ScheduleEnv{
		SpreadsheetID:    strings.TrimSpace(os.Getenv(EnvMasterScheduleID)),
		RangeName:        strings.TrimSpace(os.Getenv(EnvRangeName)),
		Credentials:      strings.TrimSpace(os.Getenv(EnvGoogleCredentials)),
		TranslationFile:  strings.TrimSpace(os.Getenv(EnvTranslationFile)),
		OutputFilePrefix: strings.TrimSpace(os.Getenv(EnvOutputFilePrefix)),
		LogLevel:         strings.TrimSpace(os.Getenv(EnvLogLevel)),
	}

	missing := false
	for name, value := range map[string]string{
		EnvMasterScheduleID:  env.SpreadsheetID,
		EnvRangeName:         env.RangeName,
		EnvGoogleCredentials: env.Credentials,
	} {
		if value == "" {
			log.Ctx(ctx).Error().Str("variable", name).Msg("Environment variable not set")
			missing = true
		}
	}

	if env.TranslationFile == "" {
		log.Ctx(ctx).Warn().
			Str("variable", EnvTranslationFile).
			Str("default", DefaultTranslationFile).
			Msg("Environment variable not set, using default")
		env.TranslationFile = DefaultTranslationFile
	}
	if env.OutputFilePrefix == "" {
		log.Ctx(ctx).Warn().
			Str("variable", EnvOutputFilePrefix).
			Str("default", DefaultOutputFilePrefix).
			Msg("Environment variable not set, using default")
		env.OutputFilePrefix = DefaultOutputFilePrefix
	}

	if missing {
		return env, ErrMissingEnv
	}
	return env, nil
}
