package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driving"
	"github.com/custodia-labs/importer/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is imported.
const DefaultDebounce = 250 * time.Millisecond

// ResultFunc receives the outcome of each import made by a Watcher.
type ResultFunc func(path string, result *domain.ImportResult, err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithContentType sets the declared content type of imported files.
func WithContentType(contentType string) Option {
	return func(w *Watcher) {
		w.contentType = contentType
	}
}

// WithResults sets the callback receiving import outcomes.
func WithResults(fn ResultFunc) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// Watcher imports files created or written below a root directory.
type Watcher struct {
	root        string
	importer    driving.Importer
	debounce    time.Duration
	contentType string
	onResult    ResultFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// New creates a watcher for root.
func New(root string, importer driving.Importer, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		importer: importer,
		debounce: DefaultDebounce,
		onResult: func(string, *domain.ImportResult, error) {},
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Imports still pending when ctx is
// cancelled are dropped; imports already running are waited for.
func (w *Watcher) Run(ctx context.Context) error {
	if w.importer == nil {
		return errors.New("watch: importer is required")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// addTree registers root and every non-hidden directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, path); rel != "." && isHidden(rel) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// importPath returns the file an event should import, or "" to ignore it.
func (w *Watcher) importPath(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return ""
	}
	if rel, err := filepath.Rel(w.root, event.Name); err == nil && isHidden(rel) {
		return ""
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return event.Name
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, event.Name); err != nil {
				logger.Warn("%v", err)
			}
			return
		}
	}

	path := w.importPath(event)
	if path == "" {
		return
	}
	logger.Debug("watch: %s %s", event.Op, path)
	w.schedule(ctx, path)
}

// schedule imports path once no event for it arrived for the debounce period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if ctx.Err() != nil {
			return
		}
		result, err := w.importer.Import(ctx, FileRequest(path, w.contentType))
		w.onResult(path, result, err)
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
