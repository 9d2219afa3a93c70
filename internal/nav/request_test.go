package nav

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/shellnav/internal/dispatch"
	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
)

func TestApplyTransition(t *testing.T) {
	tests := []struct {
		from    State
		trigger trigger
		want    State
		wantErr bool
	}{
		{StateNotStarted, triggerStart, StateStarted, false},
		{StateStarted, triggerWillCommit, StateWillCommit, false},
		{StateStarted, triggerFail, StateFailed, false},
		{StateStarted, triggerCancel, StateCancelled, false},
		{StateWillCommit, triggerCommit, StateCommitted, false},
		{StateWillCommit, triggerCancel, StateCancelled, false},

		{StateNotStarted, triggerCommit, StateNotStarted, true},
		{StateStarted, triggerStart, StateStarted, true},
		{StateStarted, triggerCommit, StateStarted, true},
		{StateWillCommit, triggerFail, StateWillCommit, true},
		{StateCommitted, triggerCancel, StateCommitted, true},
		{StateFailed, triggerStart, StateFailed, true},
		{StateCancelled, triggerCancel, StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"+"+string(tt.trigger), func(t *testing.T) {
			got, err := applyTransition(tt.from, tt.trigger)
			if tt.wantErr {
				var te *TransitionError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, tt.from, te.From)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestState_IsTerminal(t *testing.T) {
	assert.False(t, StateNotStarted.IsTerminal())
	assert.False(t, StateStarted.IsTerminal())
	assert.False(t, StateWillCommit.IsTerminal())
	assert.True(t, StateCommitted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
}

func TestRequest_CommittedSequence(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()

	rec := &recorder{}
	rec.observe(h.events, ForShellBrowser(sb))

	req, err := sb.Controller().Navigate(NormalParams(location.MustParse(`C:\Fake`)))
	require.NoError(t, err)

	// Started fires before any asynchronous work runs.
	assert.Equal(t, []string{"started"}, rec.sequence())
	assert.Equal(t, StateStarted, req.State())
	assert.Same(t, req, sb.ActiveRequest())
	assert.Equal(t, 1, h.background.Len())
	assert.Equal(t, 0, h.origin.Len())

	// Enumeration runs in the background and hands back to the origin.
	require.True(t, h.background.RunOne())
	assert.Equal(t, 1, h.enumerator.callCount())
	assert.Equal(t, []string{"started"}, rec.sequence())
	assert.Equal(t, 1, h.origin.Len())

	require.True(t, h.origin.RunOne())
	assert.Equal(t, []string{"started", "will-commit", "committed", "stopped"}, rec.sequence())
	assert.Equal(t, StateCommitted, req.State())
	assert.Len(t, req.Items(), 2)
	assert.Equal(t, req.Items(), sb.Items())
	assert.Nil(t, sb.ActiveRequest())
	assert.False(t, sb.IsNavigating())

	select {
	case <-req.Done():
	default:
		t.Fatal("Done not closed after commit")
	}
}

func TestRequest_Failed(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()

	rec := &recorder{}
	rec.observe(h.events, ForShellBrowser(sb))

	loc := location.MustParse(`C:\Denied`)
	h.enumerator.fail(loc, fs.ErrAccessDenied)

	req := h.navigate(sb, NormalParams(loc))
	assert.Equal(t, []string{"started", "failed", "stopped"}, rec.sequence())
	assert.Equal(t, StateFailed, req.State())
	assert.ErrorIs(t, req.Err(), fs.ErrAccessDenied)
	assert.Empty(t, sb.Items())
}

// A second navigation issued before the first finishes enumerating
// supersedes it.
func TestRequest_Superseded(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()
	c := sb.Controller()

	rec := &recorder{}
	rec.observe(h.events, ForShellBrowser(sb))

	first, err := c.Navigate(NormalParams(location.MustParse(`C:\First`)))
	require.NoError(t, err)
	second, err := c.Navigate(NormalParams(location.MustParse(`C:\Second`)))
	require.NoError(t, err)
	assert.Same(t, second, sb.ActiveRequest())

	h.settle()

	assert.Equal(t, StateCancelled, first.State())
	assert.Equal(t, StateCommitted, second.State())
	assert.Equal(t, 1, rec.count("cancelled"))
	assert.Equal(t, 1, rec.count("committed"))
	assert.Equal(t, 2, rec.count("stopped"))
	assert.Equal(t, location.MustParse(`C:\Second`), c.CurrentEntry().Location())
	assert.Equal(t, 1, c.NumHistoryEntries())

	// The superseded request never reached the enumerator.
	assert.Equal(t, 1, h.enumerator.callCount())
}

func TestRequest_SupersededAfterEnumeration(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()
	c := sb.Controller()

	first, err := c.Navigate(NormalParams(location.MustParse(`C:\First`)))
	require.NoError(t, err)
	require.True(t, h.background.RunOne())

	// The result is waiting on the origin executor when the next
	// navigation starts.
	second, err := c.Navigate(NormalParams(location.MustParse(`C:\Second`)))
	require.NoError(t, err)

	h.settle()
	assert.Equal(t, StateCancelled, first.State())
	assert.Equal(t, StateCommitted, second.State())
	assert.Empty(t, first.Items())
}

func TestRequest_SupersededDuringWillCommit(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()
	c := sb.Controller()

	rec := &recorder{}
	rec.observe(h.events, ForShellBrowser(sb))

	redirect := location.MustParse(`C:\Redirect`)
	var second *NavigationRequest
	h.events.AddWillCommitObserver(func(req *NavigationRequest) {
		if req.Location() == redirect {
			return
		}
		var err error
		second, err = c.Navigate(NormalParams(redirect))
		require.NoError(t, err)
	}, ForShellBrowser(sb))

	first := h.navigateTo(sb, `C:\Fake`)

	assert.Equal(t, StateCancelled, first.State())
	require.NotNil(t, second)
	assert.Equal(t, StateCommitted, second.State())
	assert.Equal(t, redirect, c.CurrentEntry().Location())
	assert.Equal(t, 1, rec.count("committed"))
	assert.Equal(t, 1, rec.count("cancelled"))
}

func TestRequest_StopNavigation(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()
	c := sb.Controller()
	h.navigateTo(sb, `C:\Fake1`)

	rec := &recorder{}
	rec.observe(h.events, ForShellBrowser(sb))

	req, err := c.Navigate(NormalParams(location.MustParse(`C:\Fake2`)))
	require.NoError(t, err)
	assert.True(t, sb.IsNavigating())

	sb.StopNavigation()
	h.settle()

	assert.Equal(t, StateCancelled, req.State())
	assert.Equal(t, []string{"started", "cancelled", "stopped"}, rec.sequence())
	assert.Equal(t, location.MustParse(`C:\Fake1`), c.CurrentEntry().Location())
	assert.False(t, sb.IsNavigating())

	// Stopping an idle view does nothing.
	sb.StopNavigation()
	assert.Equal(t, 0, h.background.Len()+h.origin.Len())
}

func TestRequest_ViewDestroyedInFlight(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()
	h.navigateTo(sb, `C:\Fake1`)
	items := sb.Items()

	rec := &recorder{}
	rec.observe(h.events, Global())

	req, err := sb.Controller().Navigate(NormalParams(location.MustParse(`C:\Fake2`)))
	require.NoError(t, err)
	require.True(t, h.background.RunOne())

	sb.Destroy()
	assert.True(t, sb.IsDestroyed())
	h.settle()

	assert.Equal(t, StateCancelled, req.State())
	select {
	case <-req.Done():
	default:
		t.Fatal("Done not closed for abandoned request")
	}
	// Only Started was ever broadcast.
	assert.Equal(t, []string{"started"}, rec.sequence())
	assert.Equal(t, items, sb.Items())
	assert.Equal(t, location.MustParse(`C:\Fake1`), sb.Location())

	_, err = sb.Controller().Navigate(NormalParams(location.MustParse(`C:\Fake3`)))
	assert.ErrorIs(t, err, ErrViewDestroyed)
}

func TestRequest_ViewCollected(t *testing.T) {
	h := newHarness(t)
	sb := NewShellBrowser(h.deps(nil), location.Root, FolderSettings{})
	req, err := sb.Controller().Navigate(NormalParams(location.MustParse(`C:\Fake`)))
	require.NoError(t, err)

	// Drop every strong reference to the view.
	sb.Destroy()
	sb = nil
	runtime.GC()
	runtime.GC()

	h.settle()
	assert.Equal(t, StateCancelled, req.State())
	<-req.Done()
}

func TestRequest_StartTwice(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()
	req, err := sb.Controller().Navigate(NormalParams(location.MustParse(`C:\Fake`)))
	require.NoError(t, err)

	var te *TransitionError
	assert.ErrorAs(t, req.Start(), &te)
	h.settle()
	assert.Equal(t, StateCommitted, req.State())
}

func TestRequest_UsesFolderSettings(t *testing.T) {
	h := newHarness(t)
	sb := h.newShellBrowser()
	h.navigateTo(sb, `C:\Fake`)

	req, err := sb.SetFilter("*.txt", true)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, fs.Options{Filter: "*.txt", FilterCaseSensitive: true, BypassCache: true}, req.Options())
	h.settle()
	assert.Equal(t, 1, sb.Controller().NumHistoryEntries())

	// Unchanged settings do not refresh.
	req, err = sb.SetFilter("*.txt", true)
	require.NoError(t, err)
	assert.Nil(t, req)

	req, err = sb.SetShowHidden(true)
	require.NoError(t, err)
	assert.True(t, req.Options().ShowHidden)
	h.settle()

	req, err = sb.SetFilter("", false)
	require.NoError(t, err)
	assert.Empty(t, req.Options().Filter)
	assert.False(t, sb.FolderSettings().FilterEnabled)
	h.settle()
}

// Run a navigation on the real executors: a Loop for the origin and a Pool
// for enumeration.
func TestRequest_LoopAndPool(t *testing.T) {
	loop := dispatch.NewLoop()
	pool := dispatch.NewPool(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	defer loop.Close()

	events := NewEvents()
	deps := Deps{
		Events:     events,
		Enumerator: fs.NewSystem(),
		Background: pool,
		Origin:     loop,
	}

	dir := location.MustParse(t.TempDir())
	var sb *ShellBrowser
	var req *NavigationRequest
	require.NoError(t, loop.Call(ctx, func() {
		sb = NewShellBrowser(deps, location.Root, FolderSettings{})
		var err error
		req, err = sb.Controller().Navigate(NormalParams(dir))
		require.NoError(t, err)
	}))

	select {
	case <-req.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("navigation did not finish")
	}
	pool.Wait()

	require.NoError(t, loop.Call(ctx, func() {
		assert.Equal(t, StateCommitted, req.State())
		assert.Equal(t, dir, sb.Location())
		sb.Destroy()
	}))
}

func TestEnumerationError(t *testing.T) {
	err := &EnumerationError{Location: location.MustParse(`C:\x`), Err: fs.ErrNotFound}
	assert.True(t, errors.Is(err, fs.ErrNotFound))
	assert.Contains(t, err.Error(), `C:\x`)
}
