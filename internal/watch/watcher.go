// Package watch refreshes views when the folders they show change on disk.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/location"
)

const defaultDebounce = 200 * time.Millisecond

// DirectoryWatcher watches folders and reports, after a quiet period, each
// folder whose contents changed. Folders are reference counted so several
// views can watch the same one.
type DirectoryWatcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	watching map[string]int
	notify   chan location.Location
	done     chan struct{}
	debounce time.Duration
}

// NewDirectoryWatcher starts a watcher. A debounce of zero or less uses
// 200ms.
func NewDirectoryWatcher(debounce time.Duration) (*DirectoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	dw := &DirectoryWatcher{
		watcher:  w,
		watching: make(map[string]int),
		notify:   make(chan location.Location, 10),
		done:     make(chan struct{}),
		debounce: debounce,
	}

	go dw.run()
	return dw, nil
}

func (dw *DirectoryWatcher) run() {
	lastEvent := make(map[string]time.Time)
	ticker := time.NewTicker(dw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}

			// Events name the changed item; attribute them to the watched
			// folder containing it, or to the folder itself.
			changed := event.Name
			parent := filepath.Dir(changed)

			dw.mu.Lock()
			switch {
			case dw.watching[parent] > 0:
				lastEvent[parent] = time.Now()
				debug.Log(debug.WATCH, "%s on %s", event.Op, changed)
			case dw.watching[changed] > 0:
				lastEvent[changed] = time.Now()
				debug.Log(debug.WATCH, "%s on watched folder %s", event.Op, changed)
			}
			dw.mu.Unlock()

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.WATCH, "fsnotify error: %v", err)

		case now := <-ticker.C:
			for dir, at := range lastEvent {
				if now.Sub(at) < dw.debounce {
					continue
				}
				delete(lastEvent, dir)

				loc, err := location.Parse(dir)
				if err != nil {
					continue
				}
				select {
				case dw.notify <- loc:
					debug.Log(debug.WATCH, "folder changed: %s", loc)
				default:
					debug.Log(debug.WATCH, "notification queue full, dropping %s", loc)
				}
			}
		}
	}
}

// Watch starts watching loc. The namespace root is never watched.
func (dw *DirectoryWatcher) Watch(loc location.Location) error {
	path := loc.Path()
	if path == "" {
		return nil
	}

	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watching[path] > 0 {
		dw.watching[path]++
		return nil
	}
	if err := dw.watcher.Add(path); err != nil {
		return err
	}
	dw.watching[path] = 1
	debug.Log(debug.WATCH, "watching %s", path)
	return nil
}

// Unwatch releases one Watch of loc.
func (dw *DirectoryWatcher) Unwatch(loc location.Location) error {
	path := loc.Path()

	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watching[path] == 0 {
		return nil
	}
	dw.watching[path]--
	if dw.watching[path] > 0 {
		return nil
	}
	delete(dw.watching, path)

	if err := dw.watcher.Remove(path); err != nil {
		// The folder may already be gone.
		debug.Log(debug.WATCH, "unwatching %s: %v", path, err)
	}
	debug.Log(debug.WATCH, "stopped watching %s", path)
	return nil
}

// Watching reports how many times loc is currently watched.
func (dw *DirectoryWatcher) Watching(loc location.Location) int {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.watching[loc.Path()]
}

// UnwatchAll drops every watch.
func (dw *DirectoryWatcher) UnwatchAll() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for path := range dw.watching {
		dw.watcher.Remove(path)
	}
	dw.watching = make(map[string]int)
}

// Notify delivers folders whose contents changed.
func (dw *DirectoryWatcher) Notify() <-chan location.Location {
	return dw.notify
}

func (dw *DirectoryWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
