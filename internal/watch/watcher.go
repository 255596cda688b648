// Package watch re-runs a callback when a project file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long the watcher waits for writes to settle.
const DefaultDelay = 300 * time.Millisecond

// FileWatcher watches a single file. The parent directory is watched so
// editors that save through a rename are still seen.
type FileWatcher struct {
	path     string
	onChange func(ctx context.Context)
	delay    time.Duration
	logger   *slog.Logger
}

// New creates a watcher for path. onChange runs once per settled burst of writes.
func New(path string, onChange func(ctx context.Context), logger *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{path: abs, onChange: onChange, delay: DefaultDelay, logger: logger}, nil
}

// Run blocks until ctx is cancelled or the watcher fails.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	d := newDebouncer(w.delay, func() { w.onChange(ctx) })
	defer d.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("project file changed", "path", event.Name, "op", event.Op.String())
			d.Trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// debouncer collapses rapid triggers into one call after delay. Calls never
// overlap, and Stop waits for a call already running.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	fn      func()
	stopped bool

	run      sync.Mutex
	inflight sync.WaitGroup
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

// Trigger restarts the delay.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.inflight.Add(1)
	d.mu.Unlock()
	defer d.inflight.Done()

	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return
	}
	d.fn()
}

// Stop cancels a pending call and waits for a running one to return.
func (d *debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.inflight.Wait()
}
