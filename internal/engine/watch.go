package engine

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/svpgen/internal/template"
)

// WatchDebounce is how long a template must be quiet before it is expanded.
var WatchDebounce = 100 * time.Millisecond

// WatchFunc receives the outcome of every expansion triggered by Watch.
type WatchFunc func(path string, res *template.Result, err error)

// Watch expands templates under dir whenever they are written or created,
// until ctx is cancelled. Calls to onResult are serialized.
func (e *Engine) Watch(ctx context.Context, dir string, onResult WatchFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	e.logger.Info("watching for changes", "dir", dir)

	d := newDebouncer(WatchDebounce, func(path string) {
		if ctx.Err() != nil {
			return
		}
		e.logger.Debug("file changed, expanding", "file", path)
		res, err := e.ExpandFile(path, "")
		onResult(path, res, err)
	})
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// New subdirectories are watched too; Add fails harmlessly on files.
				_ = watcher.Add(event.Name)
			}
			if !strings.HasSuffix(event.Name, e.inputExt) {
				continue
			}

			d.schedule(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}

// debouncer runs fn for a path once no new event for it has arrived within
// delay. Calls to fn are serialized.
type debouncer struct {
	mu      sync.Mutex // guards pending and serializes fn
	delay   time.Duration
	pending map[string]*debounceEntry
	fn      func(path string)
}

type debounceEntry struct {
	timer *time.Timer
}

func newDebouncer(delay time.Duration, fn func(path string)) *debouncer {
	return &debouncer{delay: delay, pending: make(map[string]*debounceEntry), fn: fn}
}

// schedule (re)starts the timer for path.
func (d *debouncer) schedule(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.pending[path]; ok {
		prev.timer.Stop()
	}
	entry := &debounceEntry{}
	entry.timer = time.AfterFunc(d.delay, func() { d.fire(path, entry) })
	d.pending[path] = entry
}

// fire runs fn for path unless entry was superseded while it waited for the
// lock; the newer entry fires on its own.
func (d *debouncer) fire(path string, entry *debounceEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[path] != entry {
		return
	}
	delete(d.pending, path)
	d.fn(path)
}

// stop cancels every pending timer.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, path)
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
