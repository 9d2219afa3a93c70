// Package app wires navigation, tabs, caching, watching and session
// persistence around one origin loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/justyntemme/shellnav/internal/browser"
	"github.com/justyntemme/shellnav/internal/config"
	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/dispatch"
	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/nav"
	"github.com/justyntemme/shellnav/internal/store"
	"github.com/justyntemme/shellnav/internal/watch"
)

var ErrNotStarted = errors.New("app: not started")

// Orchestrator owns every long-lived component. Window state is only
// touched on the origin loop; use Do to reach it from other goroutines.
type Orchestrator struct {
	cfg config.Config

	loop   *dispatch.Loop
	pool   *dispatch.Pool
	events *nav.Events

	fs         *fs.System
	cache      *fs.Cache
	enumerator fs.Enumerator

	store     *store.DB
	sessionID string

	watcher   *watch.DirectoryWatcher
	refresher *watch.AutoRefresher

	window *browser.Window

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewOrchestrator(cfg config.Config) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		loop:   dispatch.NewLoop(),
		pool:   dispatch.NewPool(runtime.NumCPU()),
		events: nav.NewEvents(),
		fs:     fs.NewSystem(),
	}
}

// Events is the navigation event hub shared by every view.
func (o *Orchestrator) Events() *nav.Events {
	return o.events
}

// SessionID identifies the session Save writes to. Empty without a store.
func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

// Start brings up the origin loop and opens a window. The previous session
// is restored when session.restoreOnStart is set and one exists; otherwise
// the window opens a single tab at start.
func (o *Orchestrator) Start(ctx context.Context, start location.Location) error {
	o.enumerator = o.fs
	if o.cfg.Cache.Size > 0 {
		cache, err := fs.NewCache(o.fs, o.cfg.Cache.Size)
		if err != nil {
			return fmt.Errorf("app: cache: %w", err)
		}
		o.cache = cache
		o.enumerator = cache
	}

	restored, err := o.openStore(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.loop.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("App: origin loop: %v", err)
		}
	}()

	if o.cfg.Watcher.Enabled {
		o.startWatcher(runCtx)
	}

	var openErr error
	callErr := o.loop.Call(ctx, func() {
		openErr = o.openWindow(restored, start)
	})
	return errors.Join(callErr, openErr)
}

func (o *Orchestrator) openStore(ctx context.Context) (*browser.PreservedWindow, error) {
	path := o.cfg.Session.DBPath
	if path == "" {
		return nil, nil
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("app: session store: %w", err)
	}
	o.store = db

	if !o.cfg.Session.RestoreOnStart {
		return nil, nil
	}
	id, w, err := db.LatestSession(ctx)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("App: loading last session: %v", err)
		return nil, nil
	}
	o.sessionID = id
	debug.Log(debug.STORE, "restoring session %s", id)
	return &w, nil
}

func (o *Orchestrator) startWatcher(ctx context.Context) {
	w, err := watch.NewDirectoryWatcher(o.cfg.WatcherDebounce())
	if err != nil {
		// Navigation works without automatic refresh.
		log.Printf("App: directory watcher unavailable: %v", err)
		return
	}
	o.watcher = w

	var invalidator watch.Invalidator
	if o.cache != nil {
		invalidator = o.cache
	}
	o.refresher = watch.NewAutoRefresher(w, o.events, o.loop, invalidator)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.refresher.Run(ctx, w.Notify())
	}()
}

// openWindow runs on the origin loop.
func (o *Orchestrator) openWindow(restored *browser.PreservedWindow, start location.Location) error {
	deps := browser.Deps{
		Events:            o.events,
		Enumerator:        o.enumerator,
		Background:        o.pool,
		Origin:            o.loop,
		Settings:          o.cfg.FolderSettings(),
		MaxHistoryEntries: o.cfg.History.MaxEntries,
		SwitchToNewTab:    o.cfg.Tabs.SwitchToNewTab,
	}

	if restored != nil {
		w, err := browser.RestoreWindow(deps, *restored)
		if w != nil {
			if err != nil {
				log.Printf("App: session partially restored: %v", err)
			}
			o.attachWindow(w)
			return nil
		}
		log.Printf("App: session not restored: %v", err)
	}

	w := browser.NewWindow(deps)
	o.attachWindow(w)
	_, err := w.CreateTab(start, browser.TabOptions{Selected: true})
	w.Start()
	return err
}

func (o *Orchestrator) attachWindow(w *browser.Window) {
	o.window = w
	if o.refresher != nil {
		w.AddTabRemovedObserver(func(t *browser.Tab) {
			o.refresher.Forget(t.ShellBrowser())
		})
	}
}

// Do runs fn with the window on the origin loop and waits for it.
func (o *Orchestrator) Do(ctx context.Context, fn func(w *browser.Window)) error {
	if o.cancel == nil {
		return ErrNotStarted
	}
	return o.loop.Call(ctx, func() {
		if o.window != nil {
			fn(o.window)
		}
	})
}

// Navigate runs fn on the origin loop and waits for the navigation it
// starts to finish. A nil request (nothing started) returns at once.
func (o *Orchestrator) Navigate(ctx context.Context, fn func(w *browser.Window) (*nav.NavigationRequest, error)) (*nav.NavigationRequest, error) {
	var (
		req    *nav.NavigationRequest
		navErr error
	)
	if err := o.Do(ctx, func(w *browser.Window) {
		req, navErr = fn(w)
	}); err != nil {
		return nil, err
	}
	if navErr != nil || req == nil {
		return req, navErr
	}

	select {
	case <-req.Done():
	case <-ctx.Done():
		return req, ctx.Err()
	}

	// Done closes before the loop finishes the task that closed it.
	var finalErr error
	if err := o.loop.Call(ctx, func() {
		if req.State() == nav.StateFailed {
			finalErr = req.Err()
		}
	}); err != nil {
		return req, err
	}
	return req, finalErr
}

// WaitIdle blocks until no tab has a navigation in flight.
func (o *Orchestrator) WaitIdle(ctx context.Context) error {
	for {
		var pending []<-chan struct{}
		if err := o.Do(ctx, func(w *browser.Window) {
			for _, t := range w.Tabs() {
				if req := t.ShellBrowser().ActiveRequest(); req != nil {
					pending = append(pending, req.Done())
				}
			}
		}); err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		for _, done := range pending {
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Save writes the window to the session store under SessionID, creating
// the session on first use.
func (o *Orchestrator) Save(ctx context.Context) (string, error) {
	if o.store == nil {
		return "", nil
	}
	var (
		p  browser.PreservedWindow
		ok bool
	)
	if err := o.Do(ctx, func(w *browser.Window) {
		if w.TabCount() > 0 {
			p, ok = w.Preserve(), true
		}
	}); err != nil {
		return "", err
	}
	if !ok {
		return o.sessionID, nil
	}

	if o.sessionID == "" {
		id, err := o.store.SaveSession(ctx, p)
		if err != nil {
			return "", err
		}
		o.sessionID = id
		return id, nil
	}
	return o.sessionID, o.store.SaveSessionAs(ctx, o.sessionID, p, time.Now())
}

// Store returns the session store, or nil when sessions are disabled.
func (o *Orchestrator) Store() *store.DB {
	return o.store
}

// Close saves the session, closes the window and stops every worker.
func (o *Orchestrator) Close(ctx context.Context) error {
	var errs []error
	o.closeOnce.Do(func() {
		if o.cancel == nil {
			if o.store != nil {
				errs = append(errs, o.store.Close())
			}
			return
		}

		if _, err := o.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("saving session: %w", err))
		}
		if err := o.loop.Call(ctx, func() {
			if o.refresher != nil {
				o.refresher.Close()
			}
			if o.window != nil {
				o.window.Close()
			}
		}); err != nil {
			errs = append(errs, err)
		}

		o.loop.Close()
		o.cancel()
		if o.watcher != nil {
			errs = append(errs, o.watcher.Close())
		}
		o.wg.Wait()
		o.pool.Wait()

		if o.store != nil {
			errs = append(errs, o.store.Close())
		}
	})
	return errors.Join(errs...)
}
