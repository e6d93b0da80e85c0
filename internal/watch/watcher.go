// Package watch monitors a documentation source tree and triggers docref
// re-resolution for documents that change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/llmdocs/internal/logfields"
)

// Handler receives the batch of changed document paths after debouncing.
type Handler func(ctx context.Context, paths []string)

// Watcher monitors a source tree for document changes and invokes the handler
// with debounced batches. Rewrites performed by the handler itself fire one
// more round, which resolves as fresh and settles.
type Watcher struct {
	sourceDir    string
	extensions   []string
	handler      Handler
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	flushChan    chan struct{}
	pending      map[string]struct{}
	debounceTime time.Duration
}

// NewWatcher creates a watcher over sourceDir for documents carrying one of
// the given extensions.
func NewWatcher(sourceDir string, extensions []string, debounce time.Duration, handler Handler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(sourceDir)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	return &Watcher{
		sourceDir:    absDir,
		extensions:   extensions,
		handler:      handler,
		watcher:      fsWatcher,
		stopChan:     make(chan struct{}),
		flushChan:    make(chan struct{}, 1),
		pending:      make(map[string]struct{}),
		debounceTime: debounce,
	}, nil
}

// Start begins monitoring the source tree.
func (w *Watcher) Start(ctx context.Context) error {
	// Watch every directory under the root; fsnotify is not recursive.
	err := filepath.WalkDir(w.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch source tree %s: %w", w.sourceDir, err)
	}

	slog.Info("Starting document watcher", logfields.Path(w.sourceDir))

	go w.watchLoop(ctx)
	go w.flushLoop(ctx)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	return w.watcher.Close()
}

// watchLoop collects file system events into the pending set.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
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
			slog.Error("Document watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create && isDir(event.Name) {
		// New directories must be added to the watch set.
		if err := w.watcher.Add(event.Name); err != nil {
			slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
		}
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if !w.isDocument(event.Name) {
		return
	}

	slog.Debug("Document change detected", logfields.File(event.Name))

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.mu.Unlock()

	select {
	case w.flushChan <- struct{}{}:
	default:
		// Flush already pending
	}
}

// flushLoop invokes the handler with the pending batch after the debounce
// window closes.
func (w *Watcher) flushLoop(ctx context.Context) {
	var flushTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			return
		case <-w.stopChan:
			if flushTimer != nil {
				flushTimer.Stop()
			}
			return
		case <-w.flushChan:
			if flushTimer != nil {
				flushTimer.Stop()
			}
			flushTimer = time.AfterFunc(w.debounceTime, func() {
				w.flush(ctx)
			})
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	// Stable order keeps logs and journal entries reproducible across runs.
	sort.Strings(paths)

	slog.Info("Resolving changed documents", logfields.Count(len(paths)))
	w.handler(ctx, paths)
}

func (w *Watcher) isDocument(name string) bool {
	ext := filepath.Ext(name)
	for _, candidate := range w.extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
