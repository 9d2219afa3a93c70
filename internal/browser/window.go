// Package browser implements headless top-level windows that own tabs.
//
// A Window is the nav.BrowserWindow its views redirect new-tab navigations
// to, and the window that ForBrowser and ForActiveShellBrowser event scopes
// filter on.
package browser

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/dispatch"
	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/nav"
	"github.com/justyntemme/shellnav/internal/signal"
)

var (
	ErrTabLocked    = errors.New("browser: tab is locked")
	ErrLastTab      = errors.New("browser: cannot close the last tab")
	ErrTabNotFound  = errors.New("browser: tab not found")
	ErrWindowClosed = errors.New("browser: window is closing")
)

// LifecycleState tracks a window from creation to teardown.
type LifecycleState int

const (
	Starting LifecycleState = iota
	Main
	Closing
)

func (s LifecycleState) String() string {
	switch s {
	case Starting:
		return "starting"
	case Main:
		return "main"
	case Closing:
		return "closing"
	}
	return "unknown"
}

// Deps are shared by every tab a window creates.
type Deps struct {
	Events     *nav.Events
	Enumerator fs.Enumerator
	Background dispatch.Executor
	Origin     dispatch.Executor

	// Settings are the folder settings new tabs start with.
	Settings nav.FolderSettings

	// MaxHistoryEntries caps each tab's history. Zero keeps the default.
	MaxHistoryEntries int

	// SwitchToNewTab selects tabs opened with the NewTab disposition.
	SwitchToNewTab bool

	// OpenWindow handles the NewWindow disposition. When nil such folders
	// open in a foreground tab instead.
	OpenWindow func(loc location.Location) error
}

// TabOptions control how CreateTab adds a tab.
type TabOptions struct {
	Selected bool
}

var windowIDs atomic.Int64

// Window is a top-level browser window holding an ordered set of tabs, one
// of which is active. It must only be used on the origin executor.
type Window struct {
	id         int
	deps       Deps
	tabs       []*Tab
	active     int
	state      LifecycleState
	tabCounter int
	committed  nav.Connection

	tabCreated  signal.Signal[*Tab]
	tabSelected signal.Signal[*Tab]
	tabRemoved  signal.Signal[*Tab]
	tabUpdated  signal.Signal[TabUpdate]
	lifecycle   signal.Signal[LifecycleState]
}

func NewWindow(deps Deps) *Window {
	w := &Window{
		id:     int(windowIDs.Add(1)),
		deps:   deps,
		active: -1,
	}
	w.tabCreated.Name = "tab-created"
	w.tabSelected.Name = "tab-selected"
	w.tabRemoved.Name = "tab-removed"
	w.tabUpdated.Name = "tab-updated"
	w.lifecycle.Name = "lifecycle"

	w.committed = deps.Events.AddCommittedObserver(w.onNavigationCommitted, nav.ForBrowser(w))
	debug.Log(debug.BROWSER, "window %d: created", w.id)
	return w
}

func (w *Window) ID() int {
	return w.id
}

func (w *Window) LifecycleState() LifecycleState {
	return w.state
}

// Start moves the window into its main state once its initial tabs exist.
func (w *Window) Start() {
	if w.state != Starting {
		return
	}
	w.setState(Main)
}

// Close destroys every tab, locked or not. In-flight navigations are
// cancelled without notifying anyone.
func (w *Window) Close() {
	if w.state == Closing {
		return
	}
	w.setState(Closing)
	for _, t := range w.tabs {
		t.sb.Destroy()
	}
	w.tabs = nil
	w.active = -1
	w.committed.Disconnect()
}

func (w *Window) setState(s LifecycleState) {
	debug.Log(debug.BROWSER, "window %d: %s -> %s", w.id, w.state, s)
	w.state = s
	w.lifecycle.Emit(s)
}

// CreateTab adds a tab and starts navigating it to loc. The tab is
// returned even when the navigation could not start.
func (w *Window) CreateTab(loc location.Location, opts TabOptions) (*Tab, error) {
	if w.state == Closing {
		return nil, ErrWindowClosed
	}
	sb := nav.NewShellBrowser(w.viewDeps(), loc, w.deps.Settings)
	t := w.addTab(sb, opts.Selected)

	_, err := sb.Controller().Navigate(nav.NormalParams(loc))
	if err != nil {
		return t, fmt.Errorf("navigating new tab: %w", err)
	}
	return t, nil
}

// CreateTabFromPreserved restores a saved tab and reloads its current
// folder.
func (w *Window) CreateTabFromPreserved(p PreservedTab, selected bool) (*Tab, error) {
	if w.state == Closing {
		return nil, ErrWindowClosed
	}
	sb, err := nav.NewPreservedShellBrowser(w.viewDeps(), p.Browser)
	if err != nil {
		return nil, err
	}
	t := w.addTab(sb, selected)
	t.customName = p.CustomName
	t.SetLockState(p.LockState)

	if _, err := sb.Controller().GoToOffset(0); err != nil {
		return t, fmt.Errorf("restoring tab: %w", err)
	}
	return t, nil
}

func (w *Window) viewDeps() nav.Deps {
	return nav.Deps{
		Browser:    w,
		Events:     w.deps.Events,
		Enumerator: w.deps.Enumerator,
		Background: w.deps.Background,
		Origin:     w.deps.Origin,
	}
}

func (w *Window) addTab(sb *nav.ShellBrowser, selected bool) *Tab {
	if w.deps.MaxHistoryEntries != 0 {
		sb.Controller().MaxHistoryEntries = w.deps.MaxHistoryEntries
	}

	w.tabCounter++
	t := &Tab{
		id:     fmt.Sprintf("tab-%d", w.tabCounter),
		window: w,
		sb:     sb,
	}
	w.tabs = append(w.tabs, t)
	debug.Log(debug.BROWSER, "window %d: created %s (view %d)", w.id, t.id, sb.ID())
	w.tabCreated.Emit(t)

	if selected || w.active < 0 {
		w.selectIndex(len(w.tabs) - 1)
	}
	return t
}

// CloseTab removes t and destroys its view. Locked tabs and the last tab
// cannot be closed.
func (w *Window) CloseTab(t *Tab) error {
	i := slices.Index(w.tabs, t)
	if i < 0 {
		return ErrTabNotFound
	}
	if t.lock != NotLocked {
		return ErrTabLocked
	}
	if len(w.tabs) <= 1 {
		return ErrLastTab
	}

	debug.Log(debug.BROWSER, "window %d: closing %s", w.id, t.id)
	wasActive := i == w.active
	w.tabs = slices.Delete(w.tabs, i, i+1)
	switch {
	case wasActive:
		w.active = -1
		w.selectIndex(min(i, len(w.tabs)-1))
	case i < w.active:
		w.active--
	}

	t.sb.Destroy()
	w.tabRemoved.Emit(t)
	return nil
}

func (w *Window) SelectTab(t *Tab) error {
	i := slices.Index(w.tabs, t)
	if i < 0 {
		return ErrTabNotFound
	}
	w.selectIndex(i)
	return nil
}

func (w *Window) SelectTabAtIndex(i int) error {
	if i < 0 || i >= len(w.tabs) {
		return ErrTabNotFound
	}
	w.selectIndex(i)
	return nil
}

func (w *Window) selectIndex(i int) {
	if i == w.active {
		return
	}
	w.active = i
	w.tabSelected.Emit(w.tabs[i])
}

// ActiveTab returns nil once the window has closed.
func (w *Window) ActiveTab() *Tab {
	if w.active < 0 {
		return nil
	}
	return w.tabs[w.active]
}

func (w *Window) ActiveShellBrowser() *nav.ShellBrowser {
	if t := w.ActiveTab(); t != nil {
		return t.sb
	}
	return nil
}

func (w *Window) ActiveIndex() int {
	return w.active
}

func (w *Window) Tabs() []*Tab {
	return slices.Clone(w.tabs)
}

func (w *Window) TabCount() int {
	return len(w.tabs)
}

func (w *Window) TabByID(id string) *Tab {
	for _, t := range w.tabs {
		if t.id == id {
			return t
		}
	}
	return nil
}

func (w *Window) IndexOfTab(t *Tab) int {
	return slices.Index(w.tabs, t)
}

func (w *Window) tabForView(sb *nav.ShellBrowser) *Tab {
	for _, t := range w.tabs {
		if t.sb == sb {
			return t
		}
	}
	return nil
}

// IsShellBrowserActive implements nav.BrowserWindow.
func (w *Window) IsShellBrowserActive(sb *nav.ShellBrowser) bool {
	return sb != nil && w.ActiveShellBrowser() == sb
}

// OpenItem implements nav.BrowserWindow.
func (w *Window) OpenItem(loc location.Location, d nav.OpenDisposition) error {
	if w.state == Closing {
		return ErrWindowClosed
	}
	debug.Log(debug.BROWSER, "window %d: open %s (%s)", w.id, loc, d)

	switch d {
	case nav.CurrentTab:
		sb := w.ActiveShellBrowser()
		if sb == nil {
			_, err := w.CreateTab(loc, TabOptions{Selected: true})
			return err
		}
		_, err := sb.Controller().Navigate(nav.NormalParams(loc))
		return err
	case nav.NewTab:
		_, err := w.CreateTab(loc, TabOptions{Selected: w.deps.SwitchToNewTab})
		return err
	case nav.BackgroundTab:
		_, err := w.CreateTab(loc, TabOptions{})
		return err
	case nav.NewWindow:
		if w.deps.OpenWindow != nil {
			return w.deps.OpenWindow(loc)
		}
	}
	_, err := w.CreateTab(loc, TabOptions{Selected: true})
	return err
}

func (w *Window) onNavigationCommitted(req *nav.NavigationRequest) {
	if t := w.tabForView(req.ShellBrowser()); t != nil {
		w.tabUpdated.Emit(TabUpdate{Tab: t, Property: PropertyLocation})
	}
}

func (w *Window) AddTabCreatedObserver(fn func(*Tab), pos ...signal.Position) signal.Connection {
	return w.tabCreated.Connect(fn, pos...)
}

func (w *Window) AddTabSelectedObserver(fn func(*Tab), pos ...signal.Position) signal.Connection {
	return w.tabSelected.Connect(fn, pos...)
}

func (w *Window) AddTabRemovedObserver(fn func(*Tab), pos ...signal.Position) signal.Connection {
	return w.tabRemoved.Connect(fn, pos...)
}

func (w *Window) AddTabUpdatedObserver(fn func(TabUpdate), pos ...signal.Position) signal.Connection {
	return w.tabUpdated.Connect(fn, pos...)
}

func (w *Window) AddLifecycleObserver(fn func(LifecycleState), pos ...signal.Position) signal.Connection {
	return w.lifecycle.Connect(fn, pos...)
}

// PreservedWindow is the saved form of a Window.
type PreservedWindow struct {
	Tabs      []PreservedTab
	ActiveTab int
}

func (w *Window) Preserve() PreservedWindow {
	p := PreservedWindow{ActiveTab: w.active}
	for _, t := range w.tabs {
		p.Tabs = append(p.Tabs, t.Preserve())
	}
	return p
}

// RestoreWindow rebuilds a saved window. Tabs whose history is invalid are
// skipped; the window is returned as long as at least one tab survived.
func RestoreWindow(deps Deps, p PreservedWindow) (*Window, error) {
	w := NewWindow(deps)
	var errs []error
	for i, pt := range p.Tabs {
		if _, err := w.CreateTabFromPreserved(pt, i == p.ActiveTab); err != nil {
			errs = append(errs, fmt.Errorf("tab %d: %w", i, err))
		}
	}
	if w.TabCount() == 0 {
		w.Close()
		return nil, errors.Join(append(errs, errors.New("browser: no tabs to restore"))...)
	}
	w.Start()
	return w, errors.Join(errs...)
}
