package browser

import (
	"fmt"

	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/nav"
)

// LockState restricts what can happen to a tab.
type LockState int

const (
	NotLocked LockState = iota
	// Locked tabs cannot be closed.
	Locked
	// AddressLocked tabs cannot be closed, and navigations away from the
	// current folder open in a new tab.
	AddressLocked
)

func (s LockState) String() string {
	switch s {
	case NotLocked:
		return "not-locked"
	case Locked:
		return "locked"
	case AddressLocked:
		return "address-locked"
	}
	return "unknown"
}

// ParseLockState is the inverse of LockState.String.
func ParseLockState(s string) (LockState, error) {
	for _, ls := range []LockState{NotLocked, Locked, AddressLocked} {
		if ls.String() == s {
			return ls, nil
		}
	}
	return NotLocked, fmt.Errorf("browser: unknown lock state %q", s)
}

// TabProperty names what changed in a TabUpdate.
type TabProperty int

const (
	PropertyLocation TabProperty = iota
	PropertyName
	PropertyLockState
)

// TabUpdate is delivered to TabUpdated observers.
type TabUpdate struct {
	Tab      *Tab
	Property TabProperty
}

// Tab is one view inside a Window.
type Tab struct {
	id         string
	window     *Window
	sb         *nav.ShellBrowser
	customName string
	lock       LockState
}

func (t *Tab) ID() string {
	return t.id
}

func (t *Tab) Window() *Window {
	return t.window
}

func (t *Tab) ShellBrowser() *nav.ShellBrowser {
	return t.sb
}

// Name is the custom name if one is set, otherwise the folder name.
func (t *Tab) Name() string {
	if t.customName != "" {
		return t.customName
	}
	return t.sb.Location().Name()
}

func (t *Tab) HasCustomName() bool {
	return t.customName != ""
}

// SetCustomName names the tab. An empty name reverts to the folder name.
func (t *Tab) SetCustomName(name string) {
	if name == t.customName {
		return
	}
	t.customName = name
	t.window.tabUpdated.Emit(TabUpdate{Tab: t, Property: PropertyName})
}

func (t *Tab) LockState() LockState {
	return t.lock
}

func (t *Tab) SetLockState(s LockState) {
	if s == t.lock {
		return
	}
	t.lock = s

	mode := nav.TargetModeNormal
	if s == AddressLocked {
		mode = nav.TargetModeForceNewTab
	}
	t.sb.Controller().SetNavigationTargetMode(mode)

	debug.Log(debug.BROWSER, "tab %s: lock state %s", t.id, s)
	t.window.tabUpdated.Emit(TabUpdate{Tab: t, Property: PropertyLockState})
}

// PreservedTab is the saved form of a Tab.
type PreservedTab struct {
	Browser    nav.PreservedShellBrowser
	CustomName string
	LockState  LockState
}

func (t *Tab) Preserve() PreservedTab {
	return PreservedTab{
		Browser:    t.sb.Preserve(),
		CustomName: t.customName,
		LockState:  t.lock,
	}
}
