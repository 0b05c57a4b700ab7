package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelWatcher watches the config file for changes and re-applies its
// log_level field to a live zap.AtomicLevel. Secrets and the database DSN are
// not safe to swap under a running process, so this only ever touches the
// log level; everything else in Config requires a restart.
type LevelWatcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	level     zap.AtomicLevel
	logger    *zap.Logger
	debounce  time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// WatchLevel opens an fsnotify watch on the directory containing path and
// returns a LevelWatcher ready for Watch. Level edits are applied to level in
// place; the caller's logger (built with zap.Config.Level set to the same
// AtomicLevel) picks them up immediately.
func WatchLevel(path string, level zap.AtomicLevel, logger *zap.Logger) (*LevelWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}
	return &LevelWatcher{fsWatcher: fw, path: path, level: level, logger: logger, debounce: 500 * time.Millisecond}, nil
}

func (w *LevelWatcher) Watch(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *LevelWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *LevelWatcher) reload() {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("config: re-reading config for log level", zap.Error(err))
		return
	}
	var partial struct {
		LogLevel string `json:"log_level"`
	}
	if err := json.Unmarshal(raw, &partial); err != nil {
		w.logger.Warn("config: re-parsing config for log level", zap.Error(err))
		return
	}
	if partial.LogLevel == "" {
		return
	}

	newLevel := levelFromString(partial.LogLevel)
	if newLevel == w.level.Level() {
		return
	}
	w.level.SetLevel(newLevel)
	w.logger.Info("log level changed", zap.String("level", partial.LogLevel))
}

// Close releases the underlying fsnotify watch.
func (w *LevelWatcher) Close() error {
	return w.fsWatcher.Close()
}

func levelFromString(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
