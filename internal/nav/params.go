package nav

import "github.com/justyntemme/shellnav/internal/location"

// HistoryEntryType says how a committed navigation changes the history.
type HistoryEntryType int

const (
	AddEntry HistoryEntryType = iota
	ReplaceCurrentEntry
	NoEntry
)

func (t HistoryEntryType) String() string {
	switch t {
	case AddEntry:
		return "add"
	case ReplaceCurrentEntry:
		return "replace"
	case NoEntry:
		return "none"
	}
	return "unknown"
}

// NavigationType records where a navigation came from.
type NavigationType int

const (
	NavigationNormal NavigationType = iota
	NavigationHistory
	NavigationUp
)

func (t NavigationType) String() string {
	switch t {
	case NavigationNormal:
		return "normal"
	case NavigationHistory:
		return "history"
	case NavigationUp:
		return "up"
	}
	return "unknown"
}

// NavigationTargetMode controls whether navigations in a view open in a new
// tab instead.
type NavigationTargetMode int

const (
	TargetModeNormal NavigationTargetMode = iota
	TargetModeForceNewTab
)

// NavigateParams describes one navigation.
type NavigateParams struct {
	Location         location.Location
	HistoryEntryType HistoryEntryType
	Type             NavigationType

	// OverrideNavigationTargetMode keeps the navigation in the current view
	// even when the view forces new tabs.
	OverrideNavigationTargetMode bool

	// HistoryEntryID is the entry a history navigation returns to.
	HistoryEntryID int

	// From is the folder a GoUp navigation started in. It becomes the
	// selection in the parent once the navigation commits.
	From location.Location

	// BypassCache forces a fresh enumeration.
	BypassCache bool
}

// NormalParams navigates to loc, adding a history entry.
func NormalParams(loc location.Location) NavigateParams {
	return NavigateParams{
		Location:         loc,
		HistoryEntryType: AddEntry,
		Type:             NavigationNormal,
	}
}

// HistoryParams returns to an existing entry without changing the history.
func HistoryParams(entry *HistoryEntry) NavigateParams {
	return NavigateParams{
		Location:                     entry.Location(),
		HistoryEntryType:             NoEntry,
		Type:                         NavigationHistory,
		OverrideNavigationTargetMode: true,
		HistoryEntryID:               entry.ID(),
	}
}

// UpParams navigates from a folder to its parent.
func UpParams(parent, from location.Location) NavigateParams {
	return NavigateParams{
		Location:                     parent,
		HistoryEntryType:             AddEntry,
		Type:                         NavigationUp,
		OverrideNavigationTargetMode: true,
		From:                         from,
	}
}
