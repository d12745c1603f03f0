package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. lookup is os.LookupEnv
// in production.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADDRESS":          &cfg.HTTPAddr,
		"DATABASE_DSN":     &cfg.DatabaseDSN,
		"SECRET_KEY":       &cfg.SecretKey,
		"DATA_DIR":         &cfg.DataDir,
		"TUTORIAL_DIR":     &cfg.TutorialDir,
		"FILE_EXTENSION":   &cfg.FileExtension,
		"STORAGE_BACKEND":  &cfg.StorageBackend,
		"S3_ROOT_USER":     &cfg.S3RootUser,
		"S3_ROOT_PASSWORD": &cfg.S3RootPassword,
		"S3_BUCKET":        &cfg.S3Bucket,
		"S3_REGION":        &cfg.S3Region,
		"S3_BASE_ENDPOINT": &cfg.S3BaseEndpoint,
		"S3_PREFIX":        &cfg.S3Prefix,
		"LOG_BACKEND":      &cfg.LogBackend,
		"LOG_FORMAT":       &cfg.LogFormat,
		"LOG_LEVEL":        &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"NR_USERS":       &cfg.NrUsers,
		"MAX_FILE_ID":    &cfg.MaxFileID,
		"TUTORIAL_FILES": &cfg.TutorialFiles,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"SESSION_TOKEN_TTL":      &cfg.SessionTokenTTL,
		"CONTINUATION_TOKEN_TTL": &cfg.ContinuationTokenTTL,
		"SHUTDOWN_TIMEOUT":       &cfg.ShutdownTimeout,
	}
	for name, dst := range durations {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		*dst = d
	}

	if v, ok := lookup("SECURE_COOKIES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env SECURE_COOKIES: %w", err)
		}
		cfg.SecureCookies = b
	}

	return nil
}
