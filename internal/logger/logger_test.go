package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// helper to close non-nil closers and ignore errors
func closeIf(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func TestWritersCreateFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{}
	outW, errW := cfg.Writers(dir, "demo")
	if outW == nil || errW == nil {
		t.Fatalf("expected both writers non-nil")
	}
	// Write a bit and close to ensure files are created
	_, _ = outW.Write([]byte("hello-out\n"))
	_, _ = errW.Write([]byte("hello-err\n"))
	closeIf(outW)
	closeIf(errW)

	if _, err := os.Stat(StdoutPath(dir, "demo")); err != nil {
		t.Fatalf("stdout capture not created: %v", err)
	}
	if _, err := os.Stat(StderrPath(dir, "demo")); err != nil {
		t.Fatalf("stderr capture not created: %v", err)
	}
}

func TestWritersDefaults(t *testing.T) {
	cfg := Config{}
	outW, errW := cfg.Writers(t.TempDir(), "n")
	ol, ok1 := outW.(*lj.Logger)
	el, ok2 := errW.(*lj.Logger)
	if !ok1 || !ok2 {
		t.Fatalf("writers are not lumberjack.Logger")
	}
	if ol.MaxSize != 10 || ol.MaxBackups != 3 || ol.MaxAge != 7 {
		t.Fatalf("unexpected defaults: size=%d backups=%d age=%d", ol.MaxSize, ol.MaxBackups, ol.MaxAge)
	}
	if el.MaxSize != 10 || el.MaxBackups != 3 || el.MaxAge != 7 {
		t.Fatalf("unexpected defaults (stderr): size=%d backups=%d age=%d", el.MaxSize, el.MaxBackups, el.MaxAge)
	}
	closeIf(outW)
	closeIf(errW)
}

func TestWritersOverrides(t *testing.T) {
	cfg := Config{MaxSizeMB: 1, MaxBackups: 9, MaxAgeDays: 11, Compress: true}
	outW, errW := cfg.Writers(t.TempDir(), "n")
	ol := outW.(*lj.Logger)
	el := errW.(*lj.Logger)
	if ol.MaxSize != 1 || ol.MaxBackups != 9 || ol.MaxAge != 11 || !ol.Compress {
		t.Fatalf("unexpected overrides: size=%d backups=%d age=%d compress=%t", ol.MaxSize, ol.MaxBackups, ol.MaxAge, ol.Compress)
	}
	if el.MaxSize != 1 || el.MaxBackups != 9 || el.MaxAge != 11 || !el.Compress {
		t.Fatalf("unexpected overrides (stderr): size=%d backups=%d age=%d compress=%t", el.MaxSize, el.MaxBackups, el.MaxAge, el.Compress)
	}
	closeIf(outW)
	closeIf(errW)
}

func TestStdioPaths(t *testing.T) {
	if got := StdoutPath("/work/j", "j"); got != filepath.Join("/work/j", "j.out") {
		t.Errorf("unexpected stdout path: %s", got)
	}
	if got := StderrPath("/work/j", "j"); got != filepath.Join("/work/j", "j.err") {
		t.Errorf("unexpected stderr path: %s", got)
	}
}

func TestNewStderrLogger(t *testing.T) {
	log, closer := Config{}.New()
	if log == nil {
		t.Fatal("expected a logger")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("nop closer must not fail: %v", err)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proctor.log")
	log, closer := Config{Path: path, Level: "debug"}.New()
	log.Debug("hello from test", "k", "v")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"Info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorTextHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Warn("careful now")
	out := buf.String()
	if !strings.Contains(out, "\033[33m") {
		t.Errorf("warn output missing yellow color code: %q", out)
	}
	if !strings.Contains(out, "careful now") {
		t.Errorf("warn output missing message: %q", out)
	}
}
