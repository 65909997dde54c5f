// This file implements a file system watcher for the content directory.
// It uses OS-level file system events to notice asset files being deleted
// outside the app (file manager cleanups, SD card pulls) and marks the
// affected cache entries invalid.

package cache

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sadmanHT/porakhela-sync/internal/store"
)

// WatcherService watches the content directory and invalidates cache
// entries whose backing files are removed.
type WatcherService struct {
	st            *store.Store
	contentRoot   string
	watcher       *fsnotify.Watcher
	removedPaths  map[string]bool
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

// NewWatcherService creates a new content directory watcher.
func NewWatcherService(st *store.Store, contentRoot string) *WatcherService {
	return &WatcherService{
		st:            st,
		contentRoot:   contentRoot,
		removedPaths:  make(map[string]bool),
		debounceDelay: 2 * time.Second, // Wait for burst deletions to settle
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching the content directory for changes.
func (w *WatcherService) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	// Watch the content root and every lesson directory under it. Files are
	// watched via their parent directory.
	err = filepath.WalkDir(w.contentRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	log.Printf("File watcher started for content directory: %s", w.contentRoot)

	go w.processEvents()
	return nil
}

// Stop stops the file watcher service.
func (w *WatcherService) Stop() error {
	close(w.stopChan)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *WatcherService) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *WatcherService) handleEvent(event fsnotify.Event) {
	// New lesson directories need to be added to the watch list so their
	// files are covered too.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watcher.Add(event.Name)
		}
		return
	}

	if event.Op&fsnotify.Remove != fsnotify.Remove && event.Op&fsnotify.Rename != fsnotify.Rename {
		return
	}

	w.mu.Lock()
	w.removedPaths[event.Name] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flushRemovals)
	w.mu.Unlock()
}

// flushRemovals invalidates the cache entries for every path collected
// since the last flush. Paths that were never cache entries (temp files,
// the archive leftovers) affect nothing.
func (w *WatcherService) flushRemovals() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.removedPaths))
	for path := range w.removedPaths {
		paths = append(paths, path)
	}
	w.removedPaths = make(map[string]bool)
	w.mu.Unlock()

	for _, path := range paths {
		invalidated, err := w.st.InvalidateAssetByPath(path)
		if err != nil {
			log.Printf("Error invalidating asset for removed file %s: %v", path, err)
			continue
		}
		if invalidated {
			log.Printf("Asset file removed externally, cache entry invalidated: %s", path)
		}
	}
}
