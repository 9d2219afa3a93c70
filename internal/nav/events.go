package nav

import (
	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/signal"
)

type scopeKind int

const (
	scopeGlobal scopeKind = iota
	scopeBrowser
	scopeShellBrowser
	scopeActiveShellBrowser
)

// Scope selects which views an observer hears about.
type Scope struct {
	kind    scopeKind
	browser BrowserWindow
	view    *ShellBrowser
}

// Global matches every view.
func Global() Scope {
	return Scope{kind: scopeGlobal}
}

// ForBrowser matches every view owned by w.
func ForBrowser(w BrowserWindow) Scope {
	return Scope{kind: scopeBrowser, browser: w}
}

// ForShellBrowser matches sb only.
func ForShellBrowser(sb *ShellBrowser) Scope {
	return Scope{kind: scopeShellBrowser, view: sb}
}

// ForActiveShellBrowser matches whichever view is active in w when the
// event fires.
func ForActiveShellBrowser(w BrowserWindow) Scope {
	return Scope{kind: scopeActiveShellBrowser, browser: w}
}

func (s Scope) matches(sb *ShellBrowser) bool {
	switch s.kind {
	case scopeGlobal:
		return true
	case scopeBrowser:
		return sb != nil && sb.browser != nil && sb.browser == s.browser
	case scopeShellBrowser:
		return sb != nil && sb == s.view
	case scopeActiveShellBrowser:
		return sb != nil && sb.browser != nil && sb.browser == s.browser &&
			s.browser.IsShellBrowserActive(sb)
	}
	return false
}

type (
	Position   = signal.Position
	Connection = signal.Connection
)

const (
	AtBack  = signal.AtBack
	AtFront = signal.AtFront
)

// RequestObserver receives a navigation request lifecycle event.
type RequestObserver func(*NavigationRequest)

// StoppedObserver is told when a view's navigation has concluded.
type StoppedObserver func(*ShellBrowser)

// Events broadcasts navigation lifecycle events to observers. It holds no
// navigation state and delivers synchronously on the calling goroutine.
type Events struct {
	started    signal.Signal[*NavigationRequest]
	willCommit signal.Signal[*NavigationRequest]
	committed  signal.Signal[*NavigationRequest]
	failed     signal.Signal[*NavigationRequest]
	cancelled  signal.Signal[*NavigationRequest]
	stopped    signal.Signal[*ShellBrowser]
}

func NewEvents() *Events {
	e := &Events{}
	e.started.Name = "started"
	e.willCommit.Name = "will-commit"
	e.committed.Name = "committed"
	e.failed.Name = "failed"
	e.cancelled.Name = "cancelled"
	e.stopped.Name = "stopped"
	return e
}

func connectRequest(s *signal.Signal[*NavigationRequest], fn RequestObserver, scope Scope, group signal.Group, pos []Position) Connection {
	p := AtBack
	if len(pos) > 0 {
		p = pos[0]
	}
	filter := func(req *NavigationRequest) bool { return scope.matches(req.ShellBrowser()) }
	return s.ConnectFiltered(fn, filter, group, p)
}

func (e *Events) AddStartedObserver(fn RequestObserver, scope Scope, pos ...Position) Connection {
	return connectRequest(&e.started, fn, scope, signal.GroupDefault, pos)
}

func (e *Events) AddWillCommitObserver(fn RequestObserver, scope Scope, pos ...Position) Connection {
	return connectRequest(&e.willCommit, fn, scope, signal.GroupDefault, pos)
}

// AddCommittedObserver observes commits. History is already updated when
// fn runs, including for observers added AtFront.
func (e *Events) AddCommittedObserver(fn RequestObserver, scope Scope, pos ...Position) Connection {
	return connectRequest(&e.committed, fn, scope, signal.GroupDefault, pos)
}

func (e *Events) addControllerCommittedObserver(fn RequestObserver, sb *ShellBrowser) Connection {
	return connectRequest(&e.committed, fn, ForShellBrowser(sb), signal.GroupHighest, []Position{AtFront})
}

func (e *Events) AddFailedObserver(fn RequestObserver, scope Scope, pos ...Position) Connection {
	return connectRequest(&e.failed, fn, scope, signal.GroupDefault, pos)
}

func (e *Events) AddCancelledObserver(fn RequestObserver, scope Scope, pos ...Position) Connection {
	return connectRequest(&e.cancelled, fn, scope, signal.GroupDefault, pos)
}

func (e *Events) AddStoppedObserver(fn StoppedObserver, scope Scope, pos ...Position) Connection {
	p := AtBack
	if len(pos) > 0 {
		p = pos[0]
	}
	return e.stopped.ConnectFiltered(fn, scope.matches, signal.GroupDefault, p)
}

func (e *Events) NotifyStarted(req *NavigationRequest) {
	debug.Log(debug.EVENTS, "started: request %d -> %s", req.ID(), req.Location())
	e.started.Emit(req)
}

func (e *Events) NotifyWillCommit(req *NavigationRequest) {
	debug.Log(debug.EVENTS, "will-commit: request %d", req.ID())
	e.willCommit.Emit(req)
}

func (e *Events) NotifyCommitted(req *NavigationRequest) {
	debug.Log(debug.EVENTS, "committed: request %d", req.ID())
	e.committed.Emit(req)
}

func (e *Events) NotifyFailed(req *NavigationRequest) {
	debug.Log(debug.EVENTS, "failed: request %d: %v", req.ID(), req.Err())
	e.failed.Emit(req)
}

func (e *Events) NotifyCancelled(req *NavigationRequest) {
	debug.Log(debug.EVENTS, "cancelled: request %d", req.ID())
	e.cancelled.Emit(req)
}

func (e *Events) NotifyStopped(sb *ShellBrowser) {
	debug.Log(debug.EVENTS, "stopped: view %d", sb.ID())
	e.stopped.Emit(sb)
}

// ObserverCount returns the number of registered observers across all
// events.
func (e *Events) ObserverCount() int {
	return e.started.Len() + e.willCommit.Len() + e.committed.Len() +
		e.failed.Len() + e.cancelled.Len() + e.stopped.Len()
}
