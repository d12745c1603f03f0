package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/transitwatch/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-s", "-n", "-m", "-data", "-tutorial", "-storage", "-b", "-log-level", "-t"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-n int             number of users per cohort
//	-m int             highest file id in the pool
//	-data string       data file directory
//	-tutorial string   tutorial file directory
//	-storage string    storage backend (local|s3)
//	-b string          S3 bucket name
//	-log-level string  log level
//	-t duration        continuation token lifetime
//
// args excludes the program name. Unknown flags are dropped with flagx.FilterArgs so the admin tool can share
// the same args.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("transitwatch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.IntVar(&cfg.NrUsers, "n", cfg.NrUsers, "number of users per cohort")
	fs.IntVar(&cfg.MaxFileID, "m", cfg.MaxFileID, "highest file id in the pool")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data file directory")
	fs.StringVar(&cfg.TutorialDir, "tutorial", cfg.TutorialDir, "tutorial file directory")
	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "storage backend (local|s3)")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.DurationVar(&cfg.ContinuationTokenTTL, "t", cfg.ContinuationTokenTTL, "continuation token lifetime")

	return fs.Parse(args)
}
