// Package watcher watches the PDF download directory with fsnotify and
// reports papers whose local PDF appeared or disappeared.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/arxivid"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a single directory, non-recursively. File names must follow
// the download layout (<arxiv-id>.pdf, with slashes in old-style ids replaced
// by underscores); anything else is ignored, which keeps partial downloads and
// stray files out of the callbacks.
type Watcher struct {
	dir      string
	onAttach func(arxivID, path string)
	onDetach func(arxivID string)
	debounce time.Duration

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger // optional; when set, logs debug events
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output (file events, sync progress).
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher over dir. onAttach is called with the id and
// path of a PDF that appeared (debounced, so a file still being written is
// reported once); onDetach with the id of one that disappeared.
func NewWatcher(dir string, onAttach func(arxivID, path string), onDetach func(arxivID string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:         dir,
		onAttach:    onAttach,
		onDetach:    onDetach,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
// A missing directory is created.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting", zap.String("dir", w.dir))
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	// Hold our own reference: Stop nils w.watcher concurrently.
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	arxivID, ok := arxivid.FromLocalName(filepath.Base(path))
	if !ok {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		w.debounceAttach(arxivID, path)
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		// Rename fires for the old name when a file is moved away.
		w.cancelDebounce(path)
		if w.onDetach != nil {
			w.onDetach(arxivID)
		}
	}
}

func (w *Watcher) debounceAttach(arxivID, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher attaching pdf (debounced)",
				zap.String("arxiv_id", arxivID), zap.String("path", path))
		}
		if w.onAttach != nil {
			w.onAttach(arxivID, path)
		}
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// SyncExisting reports every PDF already present in the directory. Call this
// after Start to attach files that arrived while the watcher was down.
func (w *Watcher) SyncExisting() {
	w.mu.Lock()
	onAttach := w.onAttach
	logger := w.logger
	w.mu.Unlock()
	if onAttach == nil {
		return
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if logger != nil {
			logger.Debug("watcher sync failed", zap.Error(err))
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		arxivID, ok := arxivid.FromLocalName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if logger != nil {
			logger.Debug("watcher sync attaching pdf",
				zap.String("arxiv_id", arxivID), zap.String("path", path))
		}
		onAttach(arxivID, path)
	}
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
