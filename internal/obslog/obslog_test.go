package obslog

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_BuildsStdoutLogger(t *testing.T) {
	logger, level, err := New(Options{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Sync()

	if level.Level() != zapcore.InfoLevel {
		t.Errorf("level = %v, want info", level.Level())
	}
	logger.Info("smoke test")
}

func TestNew_BuildsRotatedFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.log")
	logger, level, err := New(Options{Level: "debug", Format: "console", File: path, MaxSizeMB: 1, MaxAgeDays: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Sync()

	if level.Level() != zapcore.DebugLevel {
		t.Errorf("level = %v, want debug", level.Level())
	}
	logger.Info("smoke test")
}

func TestNew_AtomicLevelCanBeRaisedLive(t *testing.T) {
	logger, level, err := New(Options{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Sync()

	level.SetLevel(zapcore.ErrorLevel)
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("expected error level to remain enabled")
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info level to be disabled after raising to error")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":      zapcore.DebugLevel,
		"warn":       zapcore.WarnLevel,
		"error":      zapcore.ErrorLevel,
		"info":       zapcore.InfoLevel,
		"unexpected": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
