package nav

import (
	"slices"

	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/signal"
)

// DefaultMaxHistoryEntries bounds a view's history unless overridden.
const DefaultMaxHistoryEntries = 1000

// Controller owns a view's back/forward history. The history is never
// empty: a placeholder initial entry exists until the first navigation
// commits and replaces it.
//
// Entries only change when a navigation commits. The controller observes
// Committed ahead of every other observer, including those added AtFront,
// so they all see the updated history.
type Controller struct {
	view    *ShellBrowser
	ids     *IDAllocator
	entries []*HistoryEntry
	current int

	targetMode      NavigationTargetMode
	firstNavigation bool

	// MaxHistoryEntries caps the history length. The oldest entries are
	// dropped first. Zero means unlimited.
	MaxHistoryEntries int

	entryUpdated signal.Signal[entryUpdate]
	committed    Connection
}

type entryUpdate struct {
	entry    *HistoryEntry
	property HistoryEntryProperty
}

func newController(view *ShellBrowser, ids *IDAllocator, initial location.Location) *Controller {
	c := newControllerBase(view, ids)
	c.entries = []*HistoryEntry{c.newEntry(initial, Initial)}
	c.firstNavigation = true
	c.connect()
	return c
}

func newPreservedController(view *ShellBrowser, ids *IDAllocator, history []PreservedHistoryEntry, current int) (*Controller, error) {
	if len(history) == 0 || current < 0 || current >= len(history) {
		return nil, ErrInvalidPreserved
	}
	c := newControllerBase(view, ids)
	for _, p := range history {
		e := c.newEntry(p.Location, NonInitial)
		e.selected = slices.Clone(p.SelectedItems)
		e.scroll = p.ScrollPosition
		c.entries = append(c.entries, e)
	}
	c.current = current
	c.connect()
	return c, nil
}

func newControllerBase(view *ShellBrowser, ids *IDAllocator) *Controller {
	if ids == nil {
		ids = &entryIDs
	}
	c := &Controller{
		view:              view,
		ids:               ids,
		MaxHistoryEntries: DefaultMaxHistoryEntries,
	}
	c.entryUpdated.Name = "history-entry-updated"
	return c
}

func (c *Controller) connect() {
	c.committed = c.view.events.addControllerCommittedObserver(c.onNavigationCommitted, c.view)
}

func (c *Controller) disconnect() {
	c.committed.Disconnect()
}

// Navigate starts a navigation in this view. It returns nil and no error
// when the navigation was redirected to a new tab instead.
func (c *Controller) Navigate(params NavigateParams) (*NavigationRequest, error) {
	if c.view.destroyed {
		return nil, ErrViewDestroyed
	}

	if params.Type != NavigationHistory && c.CurrentEntry().Location().Equal(params.Location) {
		// Navigating to the current folder is an implicit refresh.
		params.HistoryEntryType = ReplaceCurrentEntry
		params.OverrideNavigationTargetMode = true
	}

	if c.shouldOpenInNewTab(params) {
		debug.Log(debug.NAV, "view %d: redirecting %s to a new tab", c.view.id, params.Location)
		return nil, c.view.browser.OpenItem(params.Location, ForegroundTab)
	}

	return c.view.startNavigation(params)
}

func (c *Controller) shouldOpenInNewTab(params NavigateParams) bool {
	return c.targetMode == TargetModeForceNewTab &&
		!params.OverrideNavigationTargetMode &&
		!c.firstNavigation &&
		c.view.browser != nil
}

// Refresh reloads the current folder. The current entry is replaced and its
// view state kept.
func (c *Controller) Refresh() (*NavigationRequest, error) {
	params := NormalParams(c.CurrentEntry().Location())
	params.HistoryEntryType = ReplaceCurrentEntry
	params.OverrideNavigationTargetMode = true
	params.BypassCache = true
	return c.Navigate(params)
}

func (c *Controller) GoBack() (*NavigationRequest, error) {
	return c.GoToOffset(-1)
}

func (c *Controller) GoForward() (*NavigationRequest, error) {
	return c.GoToOffset(1)
}

// GoToOffset returns to the entry offset steps from the current one.
// Negative offsets move back. The current index moves once the navigation
// commits.
func (c *Controller) GoToOffset(offset int) (*NavigationRequest, error) {
	entry := c.EntryAtIndex(c.current + offset)
	if entry == nil {
		return nil, ErrInvalidOffset
	}
	return c.Navigate(HistoryParams(entry))
}

// GoUp navigates to the parent of the current folder. At the root of the
// namespace it does nothing and returns ErrNoParent.
func (c *Controller) GoUp() (*NavigationRequest, error) {
	cur := c.CurrentEntry().Location()
	parent, ok := cur.Parent()
	if !ok {
		return nil, ErrNoParent
	}
	return c.Navigate(UpParams(parent, cur))
}

func (c *Controller) CanGoBack() bool {
	return c.current > 0
}

func (c *Controller) CanGoForward() bool {
	return c.current < len(c.entries)-1
}

func (c *Controller) CanGoUp() bool {
	return c.CurrentEntry().Location().HasParent()
}

func (c *Controller) CurrentEntry() *HistoryEntry {
	return c.entries[c.current]
}

func (c *Controller) CurrentIndex() int {
	return c.current
}

// EntryAtIndex returns nil when i is out of range.
func (c *Controller) EntryAtIndex(i int) *HistoryEntry {
	if i < 0 || i >= len(c.entries) {
		return nil
	}
	return c.entries[i]
}

func (c *Controller) EntryByID(id int) *HistoryEntry {
	if i := c.indexOfID(id); i >= 0 {
		return c.entries[i]
	}
	return nil
}

// IndexOfEntry returns -1 when e is not in the history.
func (c *Controller) IndexOfEntry(e *HistoryEntry) int {
	return slices.Index(c.entries, e)
}

func (c *Controller) NumHistoryEntries() int {
	return len(c.entries)
}

// BackHistory returns the entries before the current one, oldest first.
func (c *Controller) BackHistory() []*HistoryEntry {
	return slices.Clone(c.entries[:c.current])
}

// ForwardHistory returns the entries after the current one, nearest first.
func (c *Controller) ForwardHistory() []*HistoryEntry {
	return slices.Clone(c.entries[c.current+1:])
}

func (c *Controller) NavigationTargetMode() NavigationTargetMode {
	return c.targetMode
}

func (c *Controller) SetNavigationTargetMode(mode NavigationTargetMode) {
	c.targetMode = mode
}

// AddHistoryEntryUpdatedObserver is told whenever the view state of one of
// this controller's entries changes.
func (c *Controller) AddHistoryEntryUpdatedObserver(fn func(*HistoryEntry, HistoryEntryProperty), pos ...Position) Connection {
	return c.entryUpdated.Connect(func(u entryUpdate) { fn(u.entry, u.property) }, pos...)
}

func (c *Controller) onEntryUpdated(e *HistoryEntry, p HistoryEntryProperty) {
	c.entryUpdated.Emit(entryUpdate{entry: e, property: p})
}

func (c *Controller) newEntry(loc location.Location, initial InitialNavigationType) *HistoryEntry {
	e := newHistoryEntry(c.ids.Next(), loc, initial)
	e.onUpdated = c.onEntryUpdated
	return e
}

func (c *Controller) onNavigationCommitted(req *NavigationRequest) {
	params := req.Params()
	entryType := params.HistoryEntryType

	switch {
	case c.firstNavigation:
		// The first navigation always replaces the initial entry.
		c.firstNavigation = false
		entryType = ReplaceCurrentEntry
	case params.Type == NavigationHistory:
		if i := c.indexOfID(params.HistoryEntryID); i >= 0 {
			c.current = i
		} else {
			// The entry was trimmed while the navigation was in flight.
			entryType = AddEntry
		}
	}

	switch entryType {
	case ReplaceCurrentEntry:
		prev := c.entries[c.current]
		e := c.newEntry(params.Location, NonInitial)
		if prev.Location().Equal(params.Location) {
			e.copyViewState(prev)
		}
		c.entries[c.current] = e
	case AddEntry:
		clear(c.entries[c.current+1:])
		c.entries = append(c.entries[:c.current+1], c.newEntry(params.Location, NonInitial))
		c.current = len(c.entries) - 1
		c.trim()
	}

	if params.Type == NavigationUp && params.From != "" {
		c.CurrentEntry().SetSelectedItems([]location.Location{params.From})
	}

	debug.Log(debug.NAV, "view %d: committed %s (%s), index %d of %d",
		c.view.id, params.Location, entryType, c.current, len(c.entries))
}

func (c *Controller) trim() {
	if c.MaxHistoryEntries <= 0 || len(c.entries) <= c.MaxHistoryEntries {
		return
	}
	excess := len(c.entries) - c.MaxHistoryEntries
	if excess > c.current {
		excess = c.current
	}
	c.entries = slices.Delete(c.entries, 0, excess)
	c.current -= excess
}

func (c *Controller) indexOfID(id int) int {
	return slices.IndexFunc(c.entries, func(e *HistoryEntry) bool { return e.id == id })
}
