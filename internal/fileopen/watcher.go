package fileopen

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// importedSuffix marks files the watcher has already ingested. The
// rename keeps the original around while making it ineligible.
const importedSuffix = ".imported"

// DefaultSettle is how long a dropped file must be quiet before import,
// so a file still being copied in is not read half-written.
const DefaultSettle = 500 * time.Millisecond

// Watcher ingests eligible files dropped into a directory. Each path
// gets its own settle timer; a write event restarts it, so only a file
// that has stopped changing is imported, exactly once.
type Watcher struct {
	dir      string
	settle   time.Duration
	importFn func(path string) error
	logger   *slog.Logger

	fsw *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer

	done chan struct{}
}

// NewWatcher watches dir for dropped files. importFn is called once
// per settled file, normally Importer.ImportFile adapted to drop the
// memo return.
func NewWatcher(dir string, settle time.Duration, importFn func(path string) error, logger *slog.Logger) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w := &Watcher{
		dir:      dir,
		settle:   settle,
		importFn: importFn,
		logger:   logger,
		fsw:      fsw,
		timers:   map[string]*time.Timer{},
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !Eligible(ev.Name) || strings.HasSuffix(ev.Name, importedSuffix) {
				continue
			}
			w.schedule(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("fileopen: watch error", "dir", w.dir, "error", err)
			}
		case <-w.done:
			return
		}
	}
}

// schedule restarts the settle timer for one path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.settle, func() { w.ingest(path) })
}

func (w *Watcher) ingest(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	w.mu.Unlock()

	if err := w.importFn(path); err != nil {
		if w.logger != nil {
			w.logger.Error("fileopen: import failed", "path", path, "error", err)
		}
		return
	}

	// Move the original aside so it is not re-ingested.
	if err := os.Rename(path, path+importedSuffix); err != nil {
		if w.logger != nil {
			w.logger.Warn("fileopen: could not mark file imported", "path", path, "error", err)
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("fileopen: imported dropped file", "path", path)
	}
}

// Close stops the watcher and discards pending settle timers.
func (w *Watcher) Close() error {
	close(w.done)
	w.mu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
