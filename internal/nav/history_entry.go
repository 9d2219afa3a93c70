package nav

import (
	"slices"

	"github.com/justyntemme/shellnav/internal/location"
)

type InitialNavigationType int

const (
	NonInitial InitialNavigationType = iota
	Initial
)

// HistoryEntryProperty names the view state that changed on an entry.
type HistoryEntryProperty int

const (
	PropertySelectedItems HistoryEntryProperty = iota
	PropertyScrollPosition
)

func (p HistoryEntryProperty) String() string {
	switch p {
	case PropertySelectedItems:
		return "selected-items"
	case PropertyScrollPosition:
		return "scroll-position"
	}
	return "unknown"
}

// HistoryEntry is one committed visit in a view's history. The location
// never changes; the view state (selection and scroll offset) is updated
// by the UI while the entry is current.
type HistoryEntry struct {
	id       int
	loc      location.Location
	initial  InitialNavigationType
	selected []location.Location
	scroll   int

	onUpdated func(*HistoryEntry, HistoryEntryProperty)
}

func newHistoryEntry(id int, loc location.Location, initial InitialNavigationType) *HistoryEntry {
	return &HistoryEntry{id: id, loc: loc, initial: initial}
}

func (e *HistoryEntry) ID() int {
	return e.id
}

func (e *HistoryEntry) Location() location.Location {
	return e.loc
}

func (e *HistoryEntry) InitialNavigationType() InitialNavigationType {
	return e.initial
}

// IsInitialEntry reports whether e is the placeholder a controller starts
// with, before any navigation has committed.
func (e *HistoryEntry) IsInitialEntry() bool {
	return e.initial == Initial
}

func (e *HistoryEntry) SelectedItems() []location.Location {
	return slices.Clone(e.selected)
}

func (e *HistoryEntry) SetSelectedItems(items []location.Location) {
	e.selected = slices.Clone(items)
	e.notify(PropertySelectedItems)
}

func (e *HistoryEntry) ScrollPosition() int {
	return e.scroll
}

func (e *HistoryEntry) SetScrollPosition(pos int) {
	e.scroll = pos
	e.notify(PropertyScrollPosition)
}

func (e *HistoryEntry) notify(p HistoryEntryProperty) {
	if e.onUpdated != nil {
		e.onUpdated(e, p)
	}
}

// copyViewState carries selection and scroll offset over from prev without
// firing update notifications.
func (e *HistoryEntry) copyViewState(prev *HistoryEntry) {
	e.selected = slices.Clone(prev.selected)
	e.scroll = prev.scroll
}
