package manifest

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc receives the freshly parsed manifest after the watched file
// settles. It runs on the watcher goroutine.
type ReloadFunc func(*Manifest)

// Watcher reloads a manifest file whenever it changes on disk. Editors save
// in bursts, so events are debounced before reparsing.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	path        string
	onReload    ReloadFunc
	log         *zap.Logger
	debounceDur time.Duration
	pending     time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	Events        int
	LastEvent     time.Time
	Reloads       int
	ParseFailures int
	LastError     error
}

// NewWatcher creates a watcher for one manifest file. The file's directory
// is watched so atomic rename-style saves are caught too.
func NewWatcher(path string, onReload ReloadFunc, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		watcher:     fsw,
		path:        filepath.Clean(path),
		onReload:    onReload,
		log:         log,
		debounceDur: 250 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs on its own
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		// Roll back so a later Stop is a no-op instead of waiting on an
		// event loop that never started.
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		if cerr := w.watcher.Close(); cerr != nil {
			w.log.Warn("error closing watcher", zap.Error(cerr))
		}
		return err
	}
	w.log.Debug("watching manifest", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Warn("error closing watcher", zap.Error(err))
	}
}

// SetDebounce overrides the default debounce window. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.mu.Lock()
		w.debounceDur = d
		w.mu.Unlock()
	}
}

// Stats returns a snapshot of the watcher's activity counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.stats.Events++
			w.stats.LastEvent = w.pending
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			w.maybeReload()
		}
	}
}

// maybeReload reparses the manifest once the last event has settled past the
// debounce window.
func (w *Watcher) maybeReload() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	m, err := Load(w.path)
	if err != nil {
		w.log.Warn("manifest reload failed", zap.String("path", w.path), zap.Error(err))
		w.mu.Lock()
		w.stats.ParseFailures++
		w.stats.LastError = err
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()

	w.log.Info("manifest reloaded", zap.String("path", w.path))
	if w.onReload != nil {
		w.onReload(m)
	}
}
