package config

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelWatcher_AppliesLogLevelChange(t *testing.T) {
	path := writeConfig(t, `{"log_level":"info"}`)

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	w, err := WatchLevel(path, level, zap.NewNop())
	if err != nil {
		t.Fatalf("WatchLevel: %v", err)
	}
	defer w.Close()
	w.debounce = 10 * time.Millisecond

	stop := make(chan struct{})
	defer close(stop)
	go w.Watch(stop)

	if err := os.WriteFile(path, []byte(`{"log_level":"debug"}`), 0o600); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if level.Level() == zapcore.DebugLevel {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for level change, still %v", level.Level())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"info":  zapcore.InfoLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Errorf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}
