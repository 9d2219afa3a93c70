package nav

import (
	"context"
	"slices"

	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/dispatch"
	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
)

// FolderSettings control how a view lists its folder.
type FolderSettings struct {
	ShowHidden          bool
	FilterText          string
	FilterCaseSensitive bool
	FilterEnabled       bool
}

// EnumerationOptions converts the settings into enumerator options. The
// filter only applies while it is enabled.
func (s FolderSettings) EnumerationOptions() fs.Options {
	opts := fs.Options{ShowHidden: s.ShowHidden}
	if s.FilterEnabled {
		opts.Filter = s.FilterText
		opts.FilterCaseSensitive = s.FilterCaseSensitive
	}
	return opts
}

// Deps are the collaborators a view navigates with.
type Deps struct {
	// Browser owns the view. It may be nil for a view outside any window,
	// in which case new-tab redirection is disabled.
	Browser    BrowserWindow
	Events     *Events
	Enumerator fs.Enumerator

	// Background runs enumerations. Origin runs everything else and must
	// be the executor the view's methods are called on.
	Background dispatch.Executor
	Origin     dispatch.Executor

	// IDs allocates history entry ids. Nil uses the process-wide allocator.
	IDs *IDAllocator
}

// ShellBrowser is one view: a folder listing with its own history. It owns
// the Controller and the active NavigationRequest, and it is the key that
// event scopes filter on.
//
// A ShellBrowser is not safe for concurrent use; call it on the origin
// executor only.
type ShellBrowser struct {
	id         int
	browser    BrowserWindow
	events     *Events
	enumerator fs.Enumerator
	background dispatch.Executor
	origin     dispatch.Executor

	controller *Controller
	settings   FolderSettings
	items      []fs.Entry

	active    *NavigationRequest
	opCancel  context.CancelFunc
	destroyed bool
}

// NewShellBrowser creates a view whose history holds a single initial entry
// for initial. Nothing is enumerated until the first navigation.
func NewShellBrowser(deps Deps, initial location.Location, settings FolderSettings) *ShellBrowser {
	sb := newShellBrowser(deps, settings)
	sb.controller = newController(sb, deps.IDs, initial)
	debug.Log(debug.NAV, "view %d: created at %s", sb.id, initial)
	return sb
}

// NewPreservedShellBrowser rebuilds a view from saved history. The first
// navigation has already happened as far as the controller is concerned,
// so callers usually follow up with Controller().GoToOffset(0).
func NewPreservedShellBrowser(deps Deps, p PreservedShellBrowser) (*ShellBrowser, error) {
	sb := newShellBrowser(deps, p.Settings)
	c, err := newPreservedController(sb, deps.IDs, p.History, p.CurrentEntry)
	if err != nil {
		return nil, err
	}
	c.targetMode = p.TargetMode
	sb.controller = c
	debug.Log(debug.NAV, "view %d: restored %d entries", sb.id, len(p.History))
	return sb, nil
}

func newShellBrowser(deps Deps, settings FolderSettings) *ShellBrowser {
	return &ShellBrowser{
		id:         viewIDs.Next(),
		browser:    deps.Browser,
		events:     deps.Events,
		enumerator: deps.Enumerator,
		background: deps.Background,
		origin:     deps.Origin,
		settings:   settings,
	}
}

func (sb *ShellBrowser) ID() int {
	return sb.id
}

func (sb *ShellBrowser) Browser() BrowserWindow {
	return sb.browser
}

func (sb *ShellBrowser) Controller() *Controller {
	return sb.controller
}

// Location returns the folder of the current history entry.
func (sb *ShellBrowser) Location() location.Location {
	return sb.controller.CurrentEntry().Location()
}

// Items returns the listing from the last committed navigation.
func (sb *ShellBrowser) Items() []fs.Entry {
	return slices.Clone(sb.items)
}

func (sb *ShellBrowser) FolderSettings() FolderSettings {
	return sb.settings
}

// SetFolderSettings applies new settings and refreshes the view when they
// changed. It returns the refresh request, or nil if nothing changed.
func (sb *ShellBrowser) SetFolderSettings(s FolderSettings) (*NavigationRequest, error) {
	if s == sb.settings {
		return nil, nil
	}
	sb.settings = s
	return sb.controller.Refresh()
}

func (sb *ShellBrowser) SetShowHidden(show bool) (*NavigationRequest, error) {
	s := sb.settings
	s.ShowHidden = show
	return sb.SetFolderSettings(s)
}

// SetFilter enables filtering with text. An empty text disables it.
func (sb *ShellBrowser) SetFilter(text string, caseSensitive bool) (*NavigationRequest, error) {
	s := sb.settings
	s.FilterText = text
	s.FilterCaseSensitive = caseSensitive
	s.FilterEnabled = text != ""
	return sb.SetFolderSettings(s)
}

// ActiveRequest returns the in-flight navigation, if any.
func (sb *ShellBrowser) ActiveRequest() *NavigationRequest {
	return sb.active
}

func (sb *ShellBrowser) IsNavigating() bool {
	return sb.active != nil
}

// StopNavigation cancels the in-flight navigation. It still concludes with
// Cancelled and Stopped.
func (sb *ShellBrowser) StopNavigation() {
	if sb.active == nil {
		return
	}
	debug.Log(debug.NAV, "view %d: stopping request %d", sb.id, sb.active.id)
	sb.cancelOperation()
}

// Destroy tears the view down. An in-flight navigation is cancelled and
// concludes without notifying anyone.
func (sb *ShellBrowser) Destroy() {
	if sb.destroyed {
		return
	}
	sb.destroyed = true
	sb.cancelOperation()
	sb.controller.disconnect()
	sb.active = nil
	debug.Log(debug.NAV, "view %d: destroyed", sb.id)
}

func (sb *ShellBrowser) IsDestroyed() bool {
	return sb.destroyed
}

// startNavigation supersedes any in-flight navigation and starts a new
// one. Replacing the operation context cancels every earlier request.
func (sb *ShellBrowser) startNavigation(params NavigateParams) (*NavigationRequest, error) {
	sb.cancelOperation()
	ctx, cancel := context.WithCancel(context.Background())
	sb.opCancel = cancel

	opts := sb.settings.EnumerationOptions()
	opts.BypassCache = params.BypassCache

	req := newNavigationRequest(sb, params, opts, ctx)
	sb.active = req
	if err := req.Start(); err != nil {
		cancel()
		sb.active = nil
		return nil, err
	}
	return req, nil
}

func (sb *ShellBrowser) cancelOperation() {
	if sb.opCancel != nil {
		sb.opCancel()
		sb.opCancel = nil
	}
}

func (sb *ShellBrowser) onEnumerationCompleted(_ *NavigationRequest, items []fs.Entry) {
	sb.items = items
}

func (sb *ShellBrowser) onRequestFinished(req *NavigationRequest) {
	if sb.active != req {
		return
	}
	sb.active = nil
	sb.cancelOperation()
}
