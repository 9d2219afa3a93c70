package nav

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justyntemme/shellnav/internal/dispatch"
	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
)

type fakeEnumerator struct {
	mu       sync.Mutex
	failures map[location.Location]error
	calls    []location.Location
}

func newFakeEnumerator() *fakeEnumerator {
	return &fakeEnumerator{failures: make(map[location.Location]error)}
}

func (f *fakeEnumerator) Enumerate(ctx context.Context, loc location.Location, opts fs.Options) ([]fs.Entry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, loc)
	err := f.failures[loc]
	f.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return []fs.Entry{
		{Name: "folder", Path: loc.Join("folder"), IsDir: true},
		{Name: "file.txt", Path: loc.Join("file.txt")},
	}, nil
}

func (f *fakeEnumerator) fail(loc location.Location, err error) {
	f.mu.Lock()
	f.failures[loc] = err
	f.mu.Unlock()
}

func (f *fakeEnumerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type openedItem struct {
	loc         location.Location
	disposition OpenDisposition
}

type fakeBrowser struct {
	active *ShellBrowser
	opened []openedItem
}

func (b *fakeBrowser) OpenItem(loc location.Location, d OpenDisposition) error {
	b.opened = append(b.opened, openedItem{loc: loc, disposition: d})
	return nil
}

func (b *fakeBrowser) IsShellBrowserActive(sb *ShellBrowser) bool {
	return b.active == sb
}

// harness wires views to manual executors so every suspension point of a
// navigation runs only when the test says so.
type harness struct {
	t          *testing.T
	events     *Events
	browser    *fakeBrowser
	enumerator *fakeEnumerator
	background *dispatch.Manual
	origin     *dispatch.Manual
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:          t,
		events:     NewEvents(),
		browser:    &fakeBrowser{},
		enumerator: newFakeEnumerator(),
		background: dispatch.NewManual(),
		origin:     dispatch.NewManual(),
	}
}

func (h *harness) deps(browser BrowserWindow) Deps {
	return Deps{
		Browser:    browser,
		Events:     h.events,
		Enumerator: h.enumerator,
		Background: h.background,
		Origin:     h.origin,
	}
}

func (h *harness) newShellBrowser() *ShellBrowser {
	return h.newShellBrowserIn(h.browser)
}

func (h *harness) newShellBrowserIn(browser BrowserWindow) *ShellBrowser {
	sb := NewShellBrowser(h.deps(browser), location.Root, FolderSettings{})
	h.t.Cleanup(sb.Destroy)
	return sb
}

// settle runs queued work on both executors until neither has any left.
func (h *harness) settle() {
	for h.background.RunAll()+h.origin.RunAll() > 0 {
	}
}

func (h *harness) navigate(sb *ShellBrowser, params NavigateParams) *NavigationRequest {
	h.t.Helper()
	req, err := sb.Controller().Navigate(params)
	require.NoError(h.t, err)
	h.settle()
	return req
}

func (h *harness) navigateTo(sb *ShellBrowser, path string, entryType ...HistoryEntryType) *NavigationRequest {
	h.t.Helper()
	params := NormalParams(location.MustParse(path))
	if len(entryType) > 0 {
		params.HistoryEntryType = entryType[0]
	}
	return h.navigate(sb, params)
}

// recorder captures the lifecycle events fired for a scope.
type recorder struct {
	mu     sync.Mutex
	events []string
	reqs   []*NavigationRequest
}

func (r *recorder) record(name string, req *NavigationRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
	if req != nil {
		r.reqs = append(r.reqs, req)
	}
}

func (r *recorder) observe(e *Events, scope Scope) {
	e.AddStartedObserver(func(req *NavigationRequest) { r.record("started", req) }, scope)
	e.AddWillCommitObserver(func(req *NavigationRequest) { r.record("will-commit", req) }, scope)
	e.AddCommittedObserver(func(req *NavigationRequest) { r.record("committed", req) }, scope)
	e.AddFailedObserver(func(req *NavigationRequest) { r.record("failed", req) }, scope)
	e.AddCancelledObserver(func(req *NavigationRequest) { r.record("cancelled", req) }, scope)
	e.AddStoppedObserver(func(*ShellBrowser) { r.record("stopped", nil) }, scope)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == name {
			n++
		}
	}
	return n
}

func (r *recorder) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
