package nav

import (
	"slices"

	"github.com/justyntemme/shellnav/internal/location"
)

// PreservedHistoryEntry is the saved form of a HistoryEntry.
type PreservedHistoryEntry struct {
	Location       location.Location
	SelectedItems  []location.Location
	ScrollPosition int
}

// PreservedShellBrowser is everything needed to rebuild a view, for session
// restore and for moving a view between windows.
type PreservedShellBrowser struct {
	History      []PreservedHistoryEntry
	CurrentEntry int
	Settings     FolderSettings
	TargetMode   NavigationTargetMode
}

func preserveEntry(e *HistoryEntry) PreservedHistoryEntry {
	return PreservedHistoryEntry{
		Location:       e.Location(),
		SelectedItems:  slices.Clone(e.selected),
		ScrollPosition: e.scroll,
	}
}

// Preserve captures the view's history and settings.
func (sb *ShellBrowser) Preserve() PreservedShellBrowser {
	c := sb.controller
	p := PreservedShellBrowser{
		History:      make([]PreservedHistoryEntry, 0, len(c.entries)),
		CurrentEntry: c.current,
		Settings:     sb.settings,
		TargetMode:   c.targetMode,
	}
	for _, e := range c.entries {
		p.History = append(p.History, preserveEntry(e))
	}
	return p
}
