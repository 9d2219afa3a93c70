package watch

import (
	"context"

	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/dispatch"
	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/nav"
)

// Watcher is the part of DirectoryWatcher the AutoRefresher needs.
type Watcher interface {
	Watch(loc location.Location) error
	Unwatch(loc location.Location) error
}

// Invalidator drops cached listings for a folder.
type Invalidator interface {
	Invalidate(loc location.Location)
}

// AutoRefresher keeps the folder shown by every view watched, and refreshes
// those views when the folder changes. All of its state lives on the origin
// executor.
type AutoRefresher struct {
	watcher Watcher
	origin  dispatch.Executor
	cache   Invalidator
	views   map[*nav.ShellBrowser]location.Location
	conn    nav.Connection
}

// NewAutoRefresher starts tracking committed navigations. cache may be nil.
func NewAutoRefresher(w Watcher, events *nav.Events, origin dispatch.Executor, cache Invalidator) *AutoRefresher {
	r := &AutoRefresher{
		watcher: w,
		origin:  origin,
		cache:   cache,
		views:   make(map[*nav.ShellBrowser]location.Location),
	}
	r.conn = events.AddCommittedObserver(r.onNavigationCommitted, nav.Global())
	return r
}

func (r *AutoRefresher) onNavigationCommitted(req *nav.NavigationRequest) {
	sb := req.ShellBrowser()
	if sb == nil {
		return
	}
	loc := req.Location()
	prev, ok := r.views[sb]
	if ok && prev == loc {
		return
	}
	if ok {
		if err := r.watcher.Unwatch(prev); err != nil {
			debug.Log(debug.WATCH, "view %d: cannot unwatch %s: %v", sb.ID(), prev, err)
		}
	}
	r.views[sb] = loc
	if err := r.watcher.Watch(loc); err != nil {
		debug.Log(debug.WATCH, "view %d: cannot watch %s: %v", sb.ID(), loc, err)
	}
}

// Forget stops watching on behalf of sb.
func (r *AutoRefresher) Forget(sb *nav.ShellBrowser) {
	if loc, ok := r.views[sb]; ok {
		if err := r.watcher.Unwatch(loc); err != nil {
			debug.Log(debug.WATCH, "view %d: cannot unwatch %s: %v", sb.ID(), loc, err)
		}
		delete(r.views, sb)
	}
}

// Changed handles a change to loc: cached listings are dropped and every
// idle view showing loc is refreshed. It must run on the origin executor.
func (r *AutoRefresher) Changed(loc location.Location) {
	if r.cache != nil {
		r.cache.Invalidate(loc)
	}
	for sb, shown := range r.views {
		if sb.IsDestroyed() {
			r.Forget(sb)
			continue
		}
		if !shown.Equal(loc) || sb.IsNavigating() {
			continue
		}
		debug.Log(debug.WATCH, "view %d: refreshing %s", sb.ID(), loc)
		if _, err := sb.Controller().Refresh(); err != nil {
			debug.Log(debug.WATCH, "view %d: refresh failed: %v", sb.ID(), err)
		}
	}
}

// Run forwards change notifications to the origin executor until ctx is
// done or changes is closed.
func (r *AutoRefresher) Run(ctx context.Context, changes <-chan location.Location) {
	for {
		select {
		case <-ctx.Done():
			return
		case loc, ok := <-changes:
			if !ok {
				return
			}
			r.origin.Post(func() { r.Changed(loc) })
		}
	}
}

// WatchedViews returns the number of views being tracked.
func (r *AutoRefresher) WatchedViews() int {
	return len(r.views)
}

// Close stops tracking navigations and releases every watch.
func (r *AutoRefresher) Close() {
	r.conn.Disconnect()
	for sb := range r.views {
		r.Forget(sb)
	}
}
