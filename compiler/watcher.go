package compiler

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/exorules/catalog"
)

// WatchEvent reports one rebuild triggered by file changes.
type WatchEvent struct {
	// Paths are the changed catalog files, relative to the catalog dir.
	Paths []string

	// Result is nil when the rebuild failed.
	Result *Result

	// Error if the rebuild failed
	Error error
}

// Watcher rebuilds the catalog whenever a catalog file changes.
type Watcher struct {
	compiler *Compiler
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // relative path → most recent operation

	// State tracking for change detection
	hashMu sync.RWMutex
	hashes map[string]string // relative path → content hash

	events chan WatchEvent
}

// NewWatcher creates a watcher over the compiler's catalog directory.
func (c *Compiler) NewWatcher(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		compiler: c,
		dir:      c.config.Catalog.Dir,
		debounce: debounce,
		watcher:  fsw,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan WatchEvent, 16),
	}, nil
}

// Events returns the channel of rebuild events. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Run performs an initial build, then rebuilds on every settled change
// until ctx is done. Build failures are reported as events and logged;
// they do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.watcher.Close()

	if err := w.addWatchesRecursive(w.dir); err != nil {
		return err
	}

	w.rebuild(ctx, nil)

	w.compiler.logger.Info("Watching catalog",
		"dir", w.dir,
		"debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.compiler.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// addWatchesRecursive adds watches to all non-hidden directories
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.compiler.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.compiler.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func skipDir(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || base == "__pycache__"
}

// handleFSEvent records a change to a catalog file
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDir(event.Name) {
				if err := w.addWatchesRecursive(event.Name); err != nil {
					w.compiler.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.compiler.loader.Matches(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = event.Op
	w.pendingMu.Unlock()

	w.compiler.logger.Debug("Catalog change detected", "path", rel, "op", event.Op.String())
}

// flushPending rebuilds once if any pending file really changed
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed []string
	for rel := range toProcess {
		if w.contentChanged(rel) {
			changed = append(changed, rel)
		}
	}
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	w.rebuild(ctx, changed)
}

// contentChanged compares a file against its last seen hash, treating
// removal as a change.
func (w *Watcher) contentChanged(rel string) bool {
	data, err := os.ReadFile(filepath.Join(w.dir, filepath.FromSlash(rel)))

	w.hashMu.Lock()
	defer w.hashMu.Unlock()

	old, had := w.hashes[rel]
	if err != nil {
		delete(w.hashes, rel)
		return had
	}
	hash := catalog.ComputeHash(data)
	w.hashes[rel] = hash
	return !had || old != hash
}

func (w *Watcher) rebuild(ctx context.Context, paths []string) {
	res, err := w.compiler.build(ctx, ModeWatch)
	if err != nil {
		w.compiler.logger.Error("Rebuild failed", "error", err, "changed", paths)
		res = nil
	} else {
		w.hashMu.Lock()
		for _, f := range res.Files {
			w.hashes[f.Path] = f.Hash
		}
		w.hashMu.Unlock()
	}
	w.sendEvent(WatchEvent{Paths: paths, Result: res, Error: err})
}

// sendEvent sends an event to the output channel
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
	default:
		w.compiler.logger.Warn("Event channel full, dropping event", "paths", event.Paths)
	}
}
