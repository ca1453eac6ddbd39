package prisons

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultWatchDebounce is how long file events are collected before a reload
const DefaultWatchDebounce = 500 * time.Millisecond

// configMapDataLink is the symlink Kubernetes swaps atomically when a mounted
// ConfigMap changes. The file itself links through it and sees no event.
const configMapDataLink = "..data"

// ReloadFunc reloads the prison list
type ReloadFunc func(ctx context.Context) error

// FileWatcher reloads the prison list when its file changes. The parent
// directory is watched so files replaced by rename are picked up too, as are
// symlink swaps such as a ConfigMap volume update.
type FileWatcher struct {
	log      logrus.FieldLogger
	path     string
	dataLink string
	debounce time.Duration
	reload   ReloadFunc

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu      sync.Mutex
	started bool
	pending bool
	target  string
}

// NewFileWatcher creates a watcher for path
func NewFileWatcher(log logrus.FieldLogger, path string, debounce time.Duration, reload ReloadFunc) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileWatcher{
		log:      log.WithField("component", "prisons.watcher"),
		path:     absPath,
		dataLink: filepath.Join(filepath.Dir(absPath), configMapDataLink),
		debounce: debounce,
		reload:   reload,
		watcher:  fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching until ctx is cancelled or Stop is called
func (w *FileWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.mu.Lock()
	w.started = true
	w.target = w.resolve()
	w.mu.Unlock()

	go w.processEvents(ctx)

	w.log.WithFields(logrus.Fields{
		"path":     w.path,
		"debounce": w.debounce,
	}).Info("Watching prison list file")

	return nil
}

// Stop stops the watcher and waits for the event loop to exit. A watcher that
// never started is only closed.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}

	return err
}

func (w *FileWatcher) processEvents(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("File watcher error")

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *FileWatcher) handleEvent(event fsnotify.Event) {
	if name := filepath.Clean(event.Name); name != w.path && name != w.dataLink {
		return
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	w.pending = true
	w.mu.Unlock()

	w.log.WithField("op", event.Op.String()).Debug("Prison list file changed")
}

// resolve returns the file the watched path currently points at, or an empty
// string while it cannot be resolved
func (w *FileWatcher) resolve() string {
	target, err := filepath.EvalSymlinks(w.path)
	if err != nil {
		return ""
	}

	return target
}

func (w *FileWatcher) flush(ctx context.Context) {
	target := w.resolve()

	w.mu.Lock()
	if target != w.target {
		w.log.WithFields(logrus.Fields{
			"from": w.target,
			"to":   target,
		}).Debug("Prison list file target changed")
		w.target = target
		w.pending = true
	}
	pending := w.pending
	w.pending = false
	w.mu.Unlock()

	if !pending {
		return
	}

	if err := w.reload(ctx); err != nil {
		w.log.WithError(err).Warn("Failed to reload prison list after file change")
	}
}
