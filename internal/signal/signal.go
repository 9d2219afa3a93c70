// Package signal implements ordered, synchronous observer lists.
//
// Emitting walks a snapshot of the list, so observers may connect or
// disconnect (themselves included) while an emit is in progress. A panicking
// observer is logged and skipped; the rest still run.
package signal

import (
	"log"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
)

// Position places an observer relative to others in its group.
type Position int

const (
	AtBack Position = iota
	AtFront
)

// Group orders observers coarsely. Lower groups always run first.
type Group int

const (
	GroupHighest Group = iota
	GroupDefault
)

// Connection is returned by Connect.
type Connection struct {
	s *state
}

// Disconnect stops further calls to the observer. It is safe to call from
// inside the observer and more than once.
func (c Connection) Disconnect() {
	if c.s != nil && c.s.connected.CompareAndSwap(true, false) {
		c.s.remove()
	}
}

// Connected reports whether the observer is still registered.
func (c Connection) Connected() bool {
	return c.s != nil && c.s.connected.Load()
}

type state struct {
	connected atomic.Bool
	remove    func()
}

type slot[T any] struct {
	id     uint64
	fn     func(T)
	filter func(T) bool
	group  Group
	state  *state
}

// Signal is an observer list for values of type T. The zero value is ready
// to use.
type Signal[T any] struct {
	// Name identifies the signal in panic logs.
	Name string

	mu     sync.Mutex
	slots  []*slot[T]
	nextID uint64
}

// Connect adds fn to the default group, at the back unless AtFront is
// given.
func (s *Signal[T]) Connect(fn func(T), pos ...Position) Connection {
	p := AtBack
	if len(pos) > 0 {
		p = pos[0]
	}
	return s.ConnectFiltered(fn, nil, GroupDefault, p)
}

// ConnectFiltered adds fn to group. When filter is non-nil, fn only runs
// for values the filter accepts at emit time.
func (s *Signal[T]) ConnectFiltered(fn func(T), filter func(T) bool, group Group, pos Position) Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sl := &slot[T]{id: s.nextID, fn: fn, filter: filter, group: group, state: &state{}}
	sl.state.connected.Store(true)
	id := sl.id
	sl.state.remove = func() { s.disconnect(id) }

	var i int
	if pos == AtFront {
		i = slices.IndexFunc(s.slots, func(o *slot[T]) bool { return o.group >= group })
	} else {
		i = slices.IndexFunc(s.slots, func(o *slot[T]) bool { return o.group > group })
	}
	if i < 0 {
		i = len(s.slots)
	}
	s.slots = slices.Insert(s.slots, i, sl)
	return Connection{s: sl.state}
}

func (s *Signal[T]) disconnect(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = slices.DeleteFunc(s.slots, func(sl *slot[T]) bool { return sl.id == id })
}

// Emit calls every connected observer whose filter accepts v, in order,
// on the calling goroutine.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	snapshot := slices.Clone(s.slots)
	s.mu.Unlock()

	for _, sl := range snapshot {
		if !sl.state.connected.Load() {
			continue
		}
		if sl.filter != nil && !sl.filter(v) {
			continue
		}
		s.safeCall(sl.fn, v)
	}
}

// Len returns the number of connected observers.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *Signal[T]) safeCall(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: %s observer panicked: %v\n%s", s.Name, r, debug.Stack())
		}
	}()
	fn(v)
}
