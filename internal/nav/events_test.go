package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
)

// eventsFixture has two windows: the first with two views, the second with
// one. Requests are built but never started, since the hub only broadcasts.
type eventsFixture struct {
	h                *harness
	browser1         *fakeBrowser
	browser2         *fakeBrowser
	tab1, tab2, tab3 *ShellBrowser
	req1, req2, req3 *NavigationRequest
}

func newEventsFixture(t *testing.T) *eventsFixture {
	h := newHarness(t)
	f := &eventsFixture{h: h, browser1: &fakeBrowser{}, browser2: &fakeBrowser{}}
	f.tab1 = h.newShellBrowserIn(f.browser1)
	f.tab2 = h.newShellBrowserIn(f.browser1)
	f.tab3 = h.newShellBrowserIn(f.browser2)
	f.req1 = f.request(f.tab1, `D:\`)
	f.req2 = f.request(f.tab2, `E:\`)
	f.req3 = f.request(f.tab3, `F:\`)
	return f
}

func (f *eventsFixture) request(sb *ShellBrowser, path string) *NavigationRequest {
	return newNavigationRequest(sb, NormalParams(location.MustParse(path)), fs.Options{}, context.Background())
}

func (f *eventsFixture) notifyAll() {
	e := f.h.events
	for _, req := range []*NavigationRequest{f.req1, f.req2, f.req3} {
		e.NotifyStarted(req)
	}
	for _, sb := range []*ShellBrowser{f.tab1, f.tab2, f.tab3} {
		e.NotifyStopped(sb)
	}
}

func TestEvents_Signals(t *testing.T) {
	f := newEventsFixture(t)
	e := f.h.events

	var got []*NavigationRequest
	var stopped []*ShellBrowser
	collect := func(req *NavigationRequest) { got = append(got, req) }

	e.AddStartedObserver(collect, Global())
	e.AddWillCommitObserver(collect, Global())
	e.AddCommittedObserver(collect, Global())
	e.AddFailedObserver(collect, Global())
	e.AddCancelledObserver(collect, Global())
	e.AddStoppedObserver(func(sb *ShellBrowser) { stopped = append(stopped, sb) }, Global())

	reqs := []*NavigationRequest{f.req1, f.req2, f.req3}
	for _, notify := range []func(*NavigationRequest){
		e.NotifyStarted, e.NotifyWillCommit, e.NotifyCommitted, e.NotifyFailed, e.NotifyCancelled,
	} {
		for _, req := range reqs {
			notify(req)
		}
	}
	for _, sb := range []*ShellBrowser{f.tab1, f.tab2, f.tab3} {
		e.NotifyStopped(sb)
	}

	var want []*NavigationRequest
	for i := 0; i < 5; i++ {
		want = append(want, reqs...)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []*ShellBrowser{f.tab1, f.tab2, f.tab3}, stopped)
}

func TestEvents_FilteredByBrowser(t *testing.T) {
	f := newEventsFixture(t)

	var started []*NavigationRequest
	var stopped []*ShellBrowser
	f.h.events.AddStartedObserver(func(req *NavigationRequest) { started = append(started, req) }, ForBrowser(f.browser1))
	f.h.events.AddStoppedObserver(func(sb *ShellBrowser) { stopped = append(stopped, sb) }, ForBrowser(f.browser2))

	f.notifyAll()

	assert.Equal(t, []*NavigationRequest{f.req1, f.req2}, started)
	assert.Equal(t, []*ShellBrowser{f.tab3}, stopped)
}

func TestEvents_FilteredByShellBrowser(t *testing.T) {
	f := newEventsFixture(t)

	var started []*NavigationRequest
	var stopped []*ShellBrowser
	f.h.events.AddStartedObserver(func(req *NavigationRequest) { started = append(started, req) }, ForShellBrowser(f.tab1))
	f.h.events.AddStoppedObserver(func(sb *ShellBrowser) { stopped = append(stopped, sb) }, ForShellBrowser(f.tab2))

	f.notifyAll()

	assert.Equal(t, []*NavigationRequest{f.req1}, started)
	assert.Equal(t, []*ShellBrowser{f.tab2}, stopped)
}

func TestEvents_FilteredByActiveShellBrowser(t *testing.T) {
	f := newEventsFixture(t)
	f.browser1.active = f.tab2
	f.browser2.active = f.tab3

	var started []*NavigationRequest
	var stopped []*ShellBrowser
	f.h.events.AddStartedObserver(func(req *NavigationRequest) { started = append(started, req) }, ForActiveShellBrowser(f.browser1))
	f.h.events.AddStoppedObserver(func(sb *ShellBrowser) { stopped = append(stopped, sb) }, ForActiveShellBrowser(f.browser2))

	f.notifyAll()

	assert.Equal(t, []*NavigationRequest{f.req2}, started)
	assert.Equal(t, []*ShellBrowser{f.tab3}, stopped)

	// The active view is looked up each time an event fires.
	f.browser1.active = f.tab1
	f.h.events.NotifyStarted(f.req1)
	f.h.events.NotifyStarted(f.req2)
	assert.Equal(t, []*NavigationRequest{f.req2, f.req1}, started)
}

func TestEvents_Ordering(t *testing.T) {
	f := newEventsFixture(t)
	e := f.h.events

	var order []string
	add := func(name string, pos ...Position) {
		e.AddStartedObserver(func(*NavigationRequest) { order = append(order, name) }, Global(), pos...)
	}
	add("back1")
	add("front1", AtFront)
	add("back2", AtBack)
	add("front2", AtFront)

	e.NotifyStarted(f.req1)
	assert.Equal(t, []string{"front2", "front1", "back1", "back2"}, order)
}

func TestEvents_DisconnectDuringFire(t *testing.T) {
	f := newEventsFixture(t)
	e := f.h.events

	var calls []string
	var second Connection
	first := e.AddStartedObserver(func(*NavigationRequest) {
		calls = append(calls, "first")
		second.Disconnect()
	}, Global())
	second = e.AddStartedObserver(func(*NavigationRequest) { calls = append(calls, "second") }, Global())
	var self Connection
	self = e.AddStartedObserver(func(*NavigationRequest) {
		calls = append(calls, "self")
		self.Disconnect()
	}, Global())

	e.NotifyStarted(f.req1)
	assert.Equal(t, []string{"first", "self"}, calls)
	assert.False(t, second.Connected())
	assert.False(t, self.Connected())
	assert.True(t, first.Connected())

	e.NotifyStarted(f.req1)
	assert.Equal(t, []string{"first", "self", "first"}, calls)

	first.Disconnect()
	first.Disconnect()
	assert.False(t, first.Connected())
}

func TestEvents_ConnectDuringFire(t *testing.T) {
	f := newEventsFixture(t)
	e := f.h.events

	var late int
	e.AddStartedObserver(func(*NavigationRequest) {
		e.AddStartedObserver(func(*NavigationRequest) { late++ }, Global())
	}, Global())

	// Observers added mid-fire only see later events.
	e.NotifyStarted(f.req1)
	assert.Equal(t, 0, late)
	e.NotifyStarted(f.req1)
	assert.Equal(t, 1, late)
}

func TestEvents_PanickingObserver(t *testing.T) {
	f := newEventsFixture(t)
	e := f.h.events

	var reached bool
	e.AddStartedObserver(func(*NavigationRequest) { panic("boom") }, Global())
	e.AddStartedObserver(func(*NavigationRequest) { reached = true }, Global())

	require.NotPanics(t, func() { e.NotifyStarted(f.req1) })
	assert.True(t, reached)
}

func TestEvents_DestroyDisconnectsController(t *testing.T) {
	h := newHarness(t)
	before := h.events.ObserverCount()

	sb := h.newShellBrowser()
	assert.Equal(t, before+1, h.events.ObserverCount())

	sb.Destroy()
	assert.Equal(t, before, h.events.ObserverCount())
}
