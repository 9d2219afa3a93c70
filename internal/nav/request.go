package nav

import (
	"context"
	"slices"
	"weak"

	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/dispatch"
	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
)

// State is the lifecycle state of a NavigationRequest.
type State int

const (
	StateNotStarted State = iota
	StateStarted
	StateWillCommit
	StateCommitted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarted:
		return "started"
	case StateWillCommit:
		return "will-commit"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateFailed || s == StateCancelled
}

type trigger string

const (
	triggerStart      trigger = "start"
	triggerWillCommit trigger = "will_commit"
	triggerCommit     trigger = "commit"
	triggerFail       trigger = "fail"
	triggerCancel     trigger = "cancel"
)

// transitionTable defines all valid state transitions.
// Key: current state → trigger → new state.
var transitionTable = map[State]map[trigger]State{
	StateNotStarted: {
		triggerStart: StateStarted,
	},
	StateStarted: {
		triggerWillCommit: StateWillCommit,
		triggerFail:       StateFailed,
		triggerCancel:     StateCancelled,
	},
	StateWillCommit: {
		triggerCommit: StateCommitted,
		triggerCancel: StateCancelled,
	},
}

func applyTransition(current State, t trigger) (State, error) {
	next, ok := transitionTable[current][t]
	if !ok {
		return current, &TransitionError{From: current, Trigger: string(t)}
	}
	return next, nil
}

// NavigationRequest is one attempt to show a folder in a view. It moves
// through its states exactly once: Started, then WillCommit and Committed on
// success, or Failed, or Cancelled.
//
// All state changes and events happen on the origin executor. Only the
// enumeration itself runs on the background executor.
type NavigationRequest struct {
	id         int
	view       weak.Pointer[ShellBrowser]
	events     *Events
	enumerator fs.Enumerator
	background dispatch.Executor
	origin     dispatch.Executor
	params     NavigateParams
	opts       fs.Options
	ctx        context.Context

	state State
	items []fs.Entry
	err   error
	done  chan struct{}
}

func newNavigationRequest(sb *ShellBrowser, params NavigateParams, opts fs.Options, ctx context.Context) *NavigationRequest {
	return &NavigationRequest{
		id:         requestIDs.Next(),
		view:       weak.Make(sb),
		events:     sb.events,
		enumerator: sb.enumerator,
		background: sb.background,
		origin:     sb.origin,
		params:     params,
		opts:       opts,
		ctx:        ctx,
		done:       make(chan struct{}),
	}
}

func (r *NavigationRequest) ID() int {
	return r.id
}

// ShellBrowser returns the view the request navigates, or nil once the view
// has been garbage collected.
func (r *NavigationRequest) ShellBrowser() *ShellBrowser {
	return r.view.Value()
}

func (r *NavigationRequest) Params() NavigateParams {
	return r.params
}

func (r *NavigationRequest) Location() location.Location {
	return r.params.Location
}

func (r *NavigationRequest) Options() fs.Options {
	return r.opts
}

func (r *NavigationRequest) State() State {
	return r.state
}

// Items returns the enumerated folder contents once the request committed.
func (r *NavigationRequest) Items() []fs.Entry {
	return slices.Clone(r.items)
}

// Err returns the *EnumerationError of a failed request.
func (r *NavigationRequest) Err() error {
	return r.err
}

// Done is closed once the request reaches a terminal state and every
// observer has been told.
func (r *NavigationRequest) Done() <-chan struct{} {
	return r.done
}

// Start fires Started and schedules the enumeration. It must be called on
// the origin executor.
func (r *NavigationRequest) Start() error {
	if err := r.transition(triggerStart); err != nil {
		return err
	}
	debug.Log(debug.NAV, "request %d: start %s (%s, %s)", r.id, r.params.Location, r.params.Type, r.params.HistoryEntryType)
	r.events.NotifyStarted(r)
	r.background.Post(r.enumerate)
	return nil
}

func (r *NavigationRequest) enumerate() {
	if err := r.ctx.Err(); err != nil {
		r.origin.Post(func() { r.resume(nil, err) })
		return
	}
	items, err := r.enumerator.Enumerate(r.ctx, r.params.Location, r.opts)
	r.origin.Post(func() { r.resume(items, err) })
}

func (r *NavigationRequest) resume(items []fs.Entry, err error) {
	sb := r.liveView()
	if sb == nil {
		r.abandon()
		return
	}
	if r.ctx.Err() != nil {
		r.cancel(sb)
		return
	}
	if err != nil {
		r.fail(sb, err)
		return
	}

	r.mustTransition(triggerWillCommit)
	r.events.NotifyWillCommit(r)

	// Observers may have superseded this request or torn the view down.
	if sb = r.liveView(); sb == nil {
		r.abandon()
		return
	}
	if r.ctx.Err() != nil {
		r.cancel(sb)
		return
	}

	r.mustTransition(triggerCommit)
	r.items = items
	sb.onEnumerationCompleted(r, items)
	r.events.NotifyCommitted(r)
	r.finish(sb)
}

func (r *NavigationRequest) fail(sb *ShellBrowser, err error) {
	r.mustTransition(triggerFail)
	r.err = &EnumerationError{Location: r.params.Location, Err: err}
	debug.Log(debug.NAV, "request %d: %v", r.id, r.err)
	r.events.NotifyFailed(r)
	r.finish(sb)
}

func (r *NavigationRequest) cancel(sb *ShellBrowser) {
	r.mustTransition(triggerCancel)
	debug.Log(debug.NAV, "request %d: cancelled", r.id)
	r.events.NotifyCancelled(r)
	r.finish(sb)
}

// abandon concludes a request whose view is gone. Nothing is notified and
// no view state is touched.
func (r *NavigationRequest) abandon() {
	r.mustTransition(triggerCancel)
	debug.Log(debug.NAV, "request %d: view destroyed", r.id)
	close(r.done)
}

func (r *NavigationRequest) finish(sb *ShellBrowser) {
	sb.onRequestFinished(r)
	r.events.NotifyStopped(sb)
	close(r.done)
}

func (r *NavigationRequest) liveView() *ShellBrowser {
	sb := r.view.Value()
	if sb == nil || sb.destroyed {
		return nil
	}
	return sb
}

func (r *NavigationRequest) transition(t trigger) error {
	next, err := applyTransition(r.state, t)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

func (r *NavigationRequest) mustTransition(t trigger) {
	if err := r.transition(t); err != nil {
		panic(err)
	}
}
