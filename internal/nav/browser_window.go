package nav

import "github.com/justyntemme/shellnav/internal/location"

// OpenDisposition says where an opened folder should be shown.
type OpenDisposition int

const (
	CurrentTab OpenDisposition = iota
	NewTab
	ForegroundTab
	BackgroundTab
	NewWindow
)

func (d OpenDisposition) String() string {
	switch d {
	case CurrentTab:
		return "current-tab"
	case NewTab:
		return "new-tab"
	case ForegroundTab:
		return "foreground-tab"
	case BackgroundTab:
		return "background-tab"
	case NewWindow:
		return "new-window"
	}
	return "unknown"
}

// BrowserWindow is the top-level window that owns a set of views.
type BrowserWindow interface {
	// OpenItem shows loc according to disposition. Views forced into new
	// tabs redirect their navigations here.
	OpenItem(loc location.Location, disposition OpenDisposition) error

	// IsShellBrowserActive reports whether sb is the window's active view.
	IsShellBrowserActive(sb *ShellBrowser) bool
}
