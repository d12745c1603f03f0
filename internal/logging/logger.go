// Package logging defines the structured-logging interface used across the
// project and the two backends behind it: log/slog and zerolog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "file delivered", "user_id", userID, "file_id", fileID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Options selects and tunes a backend.
type Options struct {
	Backend string // "slog" or "zerolog"
	Format  string // "json" or "text"
	Level   string // "debug", "info", "warn", "error"
	Output  io.Writer
}

// New builds a Logger from opts. Unknown levels fall back to info.
func New(opts Options) (Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	switch strings.ToLower(opts.Backend) {
	case "", "slog":
		hopts := &slog.HandlerOptions{Level: slogLevel(opts.Level)}
		var h slog.Handler
		if strings.EqualFold(opts.Format, "text") {
			h = slog.NewTextHandler(out, hopts)
		} else {
			h = slog.NewJSONHandler(out, hopts)
		}
		return NewSlogLogger(slog.New(h)), nil

	case "zerolog":
		w := out
		if strings.EqualFold(opts.Format, "text") {
			w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		zl := zerolog.New(w).Level(zerologLevel(opts.Level)).With().Timestamp().Logger()
		return NewZerologLogger(zl), nil

	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
