package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default logging configuration constants
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the daemon log destination. An empty Path logs to
// stderr through the color handler; a file path switches to rotating
// text output. Rotation parameters follow lumberjack semantics.
type Config struct {
	Level      string // debug, info, warn, error (default info)
	Path       string // log file path; empty means stderr
	MaxSizeMB  int    // megabytes before rotation (default 10)
	MaxBackups int    // number of backups to keep (default 3)
	MaxAgeDays int    // days to keep (default 7)
	Compress   bool   // gzip rotated files
}

// New builds a slog.Logger from c. The returned closer owns the
// rotating file writer when one is configured and is a no-op otherwise.
func (c Config) New() (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Level)}
	if c.Path == "" {
		return slog.New(NewColorTextHandler(os.Stderr, opts)), nopCloser{}
	}
	w := &lj.Logger{
		Filename:   c.Path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
	return slog.New(slog.NewTextHandler(w, opts)), w
}

// Writers returns rotating stdout and stderr write-closers for a named
// entry directory. Runner-side collaborators point the spawned process
// at these and store the matching paths in its record.
func (c Config) Writers(dir, name string) (io.WriteCloser, io.WriteCloser) {
	mk := func(path string) io.WriteCloser {
		return &lj.Logger{
			Filename:   path,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
	}
	return mk(StdoutPath(dir, name)), mk(StderrPath(dir, name))
}

// StdoutPath returns the conventional stdout capture location inside an
// entry directory.
func StdoutPath(dir, name string) string { return filepath.Join(dir, fmt.Sprintf("%s.out", name)) }

// StderrPath returns the conventional stderr capture location inside an
// entry directory.
func StderrPath(dir, name string) string { return filepath.Join(dir, fmt.Sprintf("%s.err", name)) }

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
