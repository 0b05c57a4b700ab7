package seed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Moortu/authorization-registry-sub000/internal/store"
)

// Watcher debounces filesystem events on the seed folder and re-runs Apply,
// so an operator dropping a new seed file into a running registry doesn't
// need a restart to pick it up. Policy sets whose ID is already stored are
// skipped by Apply's existence check; a policy set without an ID is inserted
// again on every re-run.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	folder    string
	store     store.Store
	logger    *zap.Logger
	debounce  time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher opens an fsnotify watch on folder. Call Watch to start
// processing events and Close to release the underlying OS handle.
func NewWatcher(folder string, s store.Store, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("seed: creating fsnotify watcher: %w", err)
	}
	if err := fw.Add(folder); err != nil {
		fw.Close()
		return nil, fmt.Errorf("seed: watching %s: %w", folder, err)
	}
	return &Watcher{fsWatcher: fw, folder: folder, store: s, logger: logger, debounce: 500 * time.Millisecond}, nil
}

// Watch blocks, applying the seed folder on every debounced change until ctx
// is cancelled.
func (w *Watcher) Watch(ctx context.Context) {
	w.logger.Info("watching seed folder", zap.String("folder", w.folder))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.scheduleReload(ctx, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("seed watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) scheduleReload(ctx context.Context, event fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("reloading seed folder", zap.String("file", event.Name), zap.String("op", event.Op.String()))
		if err := Apply(ctx, w.store, w.folder, w.logger); err != nil {
			w.logger.Error("seed reload failed", zap.Error(err))
		}
	})
}

// Close releases the underlying fsnotify watch.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
