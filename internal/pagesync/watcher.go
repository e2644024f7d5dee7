package pagesync

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watcher turns fsnotify events under a set of directory trees into debounced
// change and remove callbacks. Callbacks run on the goroutine calling run.
type watcher struct {
	dirs        []string
	match       func(path string) bool
	onChange    func(path string)
	onRemove    func(path string)
	onRemoveDir func(dir string)
	debounce    time.Duration
	logger      *zap.Logger

	fsw     *fsnotify.Watcher
	watched map[string]bool // owned by the run goroutine once started
	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// start registers every directory tree. Missing roots are created.
func (w *watcher) start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	w.watched = make(map[string]bool)
	w.pending = make(map[string]*time.Timer)
	w.ready = make(chan string)
	w.done = make(chan struct{})
	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := w.addTree(dir); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	return nil
}

func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return err
			}
			w.watched[filepath.Clean(path)] = true
		}
		return nil
	})
}

// run dispatches events until ctx is done, then releases the fsnotify handle.
func (w *watcher) run(ctx context.Context) {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.ready:
			w.onChange(path)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	w.logger.Debug("watch event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancel(ev.Name)
		if dir := filepath.Clean(ev.Name); w.watched[dir] {
			w.forgetTree(dir)
			w.onRemoveDir(dir)
			return
		}
		if w.match(ev.Name) {
			w.onRemove(ev.Name)
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.handleNewDir(ev.Name)
			return
		}
		if w.match(ev.Name) {
			w.schedule(ev.Name)
		}
	}
}

// handleNewDir watches a directory created or moved in and schedules the files
// already inside it.
func (w *watcher) handleNewDir(dir string) {
	if err := w.addTree(dir); err != nil {
		w.logger.Warn("watch directory failed", zap.String("path", dir), zap.Error(err))
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && w.match(path) {
			w.schedule(path)
		}
		return nil
	})
}

// forgetTree drops the watches and pending work for a directory that was
// removed or moved away.
func (w *watcher) forgetTree(dir string) {
	for path := range w.watched {
		if inDir(dir, path) {
			delete(w.watched, path)
			_ = w.fsw.Remove(path)
		}
	}
	w.mu.Lock()
	for path, t := range w.pending {
		if inDir(dir, path) {
			t.Stop()
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()
}

func (w *watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	close(w.done)
	_ = w.fsw.Close()
}
