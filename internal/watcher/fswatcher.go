package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FSWatcher watches a directory tree with fsnotify and emits debounced
// batches of events. Directories reached through symbolic links are not
// followed.
type FSWatcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	opts      Options
	events    chan []FileEvent
	errors    chan error
	stopCh    chan struct{}

	mu      sync.Mutex
	root    string
	stopped bool
	dropped atomic.Uint64
}

// NewFSWatcher creates a watcher. Call Start to begin watching.
func NewFSWatcher(opts Options) (*FSWatcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &FSWatcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.Debounce),
		opts:      opts,
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
	go w.forward()
	return w, nil
}

// Start watches root until ctx is cancelled or Stop is called. It blocks;
// run it in its own goroutine and read Events.
func (w *FSWatcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.mu.Lock()
	w.root = abs
	w.mu.Unlock()

	if err := w.addRecursive(abs); err != nil {
		_ = w.Stop()
		return fmt.Errorf("add directories to watcher: %w", err)
	}
	slog.Debug("watching", slog.String("root", abs))

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *FSWatcher) handle(event fsnotify.Event) {
	if w.opts.Ignore != nil && w.opts.Ignore(event.Name) {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
		if isDir {
			if err := w.addRecursive(event.Name); err != nil {
				w.emitError(err)
			}
		}
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		// Chmod does not change content.
		return
	}

	rel, err := filepath.Rel(w.Root(), event.Name)
	if err != nil {
		rel = event.Name
	}
	w.debouncer.Add(FileEvent{
		Path:      rel,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// addRecursive adds dir and every directory below it. Unreadable
// subdirectories are logged and skipped; failing to watch dir itself is an
// error.
func (w *FSWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			slog.Warn("not watching directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.opts.Ignore != nil && w.opts.Ignore(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if path == dir {
				return err
			}
			slog.Warn("not watching directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})
}

// forward moves debounced batches to the events channel and closes it when
// the debouncer stops.
func (w *FSWatcher) forward() {
	defer close(w.events)
	for batch := range w.debouncer.Output() {
		select {
		case w.events <- batch:
		default:
			n := w.dropped.Add(1)
			slog.Warn("event buffer full, dropping batch",
				slog.Int("batch_size", len(batch)),
				slog.Uint64("total_dropped_batches", n))
		}
	}
}

func (w *FSWatcher) emitError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops watching and closes Events. Safe to call multiple times.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	return w.fsw.Close()
}

// Events returns the channel of debounced batches. It is closed by Stop.
func (w *FSWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watcher errors. It is never closed.
func (w *FSWatcher) Errors() <-chan error {
	return w.errors
}

// DroppedBatches returns the number of batches dropped for a slow consumer.
func (w *FSWatcher) DroppedBatches() uint64 {
	return w.dropped.Load()
}

// Root returns the absolute path being watched.
func (w *FSWatcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}
