// Package logging sets up the process-wide slog logger. Output goes through
// a tint handler; every record carries the session id of this run.
//
//	closer, err := logging.Init(logging.Options{Level: slog.LevelInfo, File: "smartsos.log"})
//	log := logging.Component("ingest")
//	log.Info("tick", "readings", 42)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Session identifies this process run in log records.
var Session = uuid.NewString()

// Options configures Init.
type Options struct {
	Level slog.Level
	// File, if set, receives the log instead of Writer. The live monitor
	// owns the terminal, so interactive runs log to a file.
	File   string
	Writer io.Writer
	// NoColor disables ANSI colors; always on for files.
	NoColor bool
}

// Init installs the global logger and returns a closer for the log file.
func Init(opts Options) (io.Closer, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	noColor := opts.NoColor

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer, noColor = f, f, true
	}

	InitWithHandler(NewHandler(w, opts.Level, noColor))
	return closer, nil
}

// NewHandler returns the tint handler used by Init.
func NewHandler(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  level == slog.LevelDebug,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	})
}

// InitWithHandler installs a logger over a custom handler.
func InitWithHandler(h slog.Handler) {
	Logger = slog.New(h).With("session", Session)
	slog.SetDefault(Logger)
}

// Component returns a logger for a specific component.
func Component(name string) *slog.Logger {
	if Logger == nil {
		InitWithHandler(NewHandler(os.Stderr, slog.LevelInfo, false))
	}
	return Logger.With("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
