// Package watcher turns filesystem events under a repository root into
// debounced re-analysis triggers.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/repolens/repolens/internal/scanner"
)

// DefaultDebounce is the quiet period after the last event before the
// callback fires. Editors save in bursts; one trigger per burst is enough.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a repository tree recursively and invokes a callback with
// the accumulated changed paths once events settle.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher

	cancel context.CancelFunc
	doneCh chan struct{}

	accumulatedMu sync.Mutex
	accumulated   map[string]bool

	timerMu       sync.Mutex
	debounceTimer *time.Timer

	stopOnce sync.Once
}

// New creates a watcher over root. debounce <= 0 uses DefaultDebounce.
func New(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		root:        root,
		debounce:    debounce,
		fsw:         fsw,
		accumulated: make(map[string]bool),
		doneCh:      make(chan struct{}),
	}

	if err := w.addDirsRecursively(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching. callback receives repository-relative slash paths
// of the files that changed during the debounce window. It is invoked from
// the watch goroutine, never concurrently with itself.
func (w *Watcher) Start(ctx context.Context, callback func(paths []string)) error {
	if callback == nil {
		return nil
	}
	ctx, w.cancel = context.WithCancel(ctx)
	go w.watch(ctx, callback)
	return nil
}

// Stop shuts the watcher down and waits for the watch goroutine to exit.
// Idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) watch(ctx context.Context, callback func(paths []string)) {
	defer close(w.doneCh)

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.stopDebounceTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// New directories join the watch set immediately so files
			// created inside them are not missed.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirsRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v\n", event.Name, err)
					}
					continue
				}
			}

			rel, ok := w.relevantPath(event)
			if !ok {
				continue
			}
			w.accumulatedMu.Lock()
			w.accumulated[rel] = true
			w.accumulatedMu.Unlock()

			w.resetDebounceTimer(fire)

		case <-fire:
			w.flush(callback)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v\n", err)
		}
	}
}

// flush hands the accumulated paths to the callback and clears them.
func (w *Watcher) flush(callback func(paths []string)) {
	w.accumulatedMu.Lock()
	if len(w.accumulated) == 0 {
		w.accumulatedMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.accumulated))
	for p := range w.accumulated {
		paths = append(paths, p)
	}
	w.accumulated = make(map[string]bool)
	w.accumulatedMu.Unlock()

	callback(paths)
}

// relevantPath filters events down to write/create/remove/rename on paths
// outside denied directories, returning the repository-relative slash path.
func (w *Watcher) relevantPath(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	for _, seg := range strings.Split(rel, "/") {
		if scanner.DeniedDir(seg) {
			return "", false
		}
	}
	return rel, true
}

func (w *Watcher) resetDebounceTimer(fire chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		if !w.debounceTimer.Stop() {
			select {
			case <-fire:
			default:
			}
		}
	}
	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopDebounceTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// addDirsRecursively registers root and all non-denied subdirectories.
func (w *Watcher) addDirsRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("Warning: error accessing %s: %v\n", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && scanner.DeniedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v\n", path, err)
		}
		return nil
	})
}
