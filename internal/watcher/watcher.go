// Package watcher re-imports a clippings file whenever it changes on disk,
// e.g. when a Kindle is mounted and its My Clippings.txt is rewritten.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/services"
)

// DefaultDebounce is used when no debounce is configured
const DefaultDebounce = 2 * time.Second

// Handler is called once per settled burst of changes to the watched file.
type Handler func(ctx context.Context, path string)

// Watcher monitors a single file. The parent directory is watched so that
// editors and devices which replace the file (remove + create) are seen.
type Watcher struct {
	path     string
	debounce time.Duration
	handler  Handler

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// New creates a watcher for path. A non-positive debounce uses DefaultDebounce.
func New(path string, debounce time.Duration, handler Handler) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		handler:  handler,
	}
}

// ImportHandler re-runs the import pipeline for the changed file.
func ImportHandler(importer services.ClippingsImporter) Handler {
	return func(ctx context.Context, path string) {
		report, err := importer.ImportFile(ctx, path, services.ImportRequest{
			Source: audit.SourceWatch,
			File:   filepath.Base(path),
		})
		if err != nil {
			log.Printf("[WATCH] Import of %s failed: %v", path, err)
			return
		}
		log.Printf("[WATCH] Imported %s: %d books processed, %d clippings added",
			path, report.Result.BooksProcessed, report.Result.ClippingsAdded)
	}
}

// Start begins watching. It returns once the watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}

	dir := filepath.Dir(w.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.watcher = fw
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(runCtx, fw)

	log.Printf("[WATCH] Watching %s (debounce %v)", w.path, w.debounce)
	return nil
}

// Stop stops watching and waits for an in-flight handler to return.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.watcher == nil {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()

	w.mu.Lock()
	w.watcher = nil
	w.cancel = nil
	w.mu.Unlock()
	log.Printf("[WATCH] Stopped watching %s", w.path)
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()

	settled := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case settled <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case <-settled:
			if _, err := os.Stat(w.path); err != nil {
				log.Printf("[WATCH] %s is gone, skipping import", w.path)
				continue
			}
			w.handler(ctx, w.path)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("[WATCH] fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
