// Package logging builds the process-wide slog logger: JSON in production,
// text otherwise, optionally tee'd to a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Env is "production" for JSON at Info; anything else is text at Debug.
	Env string
	// File, when set, receives a copy of every record and is rotated at
	// 10 MB with 3 compressed backups kept for 7 days.
	File string
}

// New returns the logger and a close function for the file sink.
func New(opts Options) (*slog.Logger, func() error) {
	var out io.Writer = os.Stdout
	closer := func() error { return nil }

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closer = rotator.Close
	}

	return slog.New(newHandler(out, opts.Env)), closer
}

func newHandler(w io.Writer, env string) slog.Handler {
	if env == "production" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
