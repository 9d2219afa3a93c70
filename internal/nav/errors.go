package nav

import (
	"errors"
	"fmt"

	"github.com/justyntemme/shellnav/internal/location"
)

var (
	// ErrInvalidOffset is returned by GoToOffset when the target index is
	// outside the history.
	ErrInvalidOffset = errors.New("nav: history offset out of range")

	// ErrNoParent is returned by GoUp at the root of the namespace.
	ErrNoParent = errors.New("nav: location has no parent")

	// ErrViewDestroyed is returned when navigating a destroyed view.
	ErrViewDestroyed = errors.New("nav: view destroyed")

	// ErrInvalidPreserved is returned when restoring a view from preserved
	// state with no history or a current index outside it.
	ErrInvalidPreserved = errors.New("nav: invalid preserved history")
)

// EnumerationError reports a navigation that failed because its folder
// could not be listed.
type EnumerationError struct {
	Location location.Location
	Err      error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("nav: enumerating %s: %v", e.Location, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// TransitionError reports an attempt to move a request between two states
// the state machine does not connect.
type TransitionError struct {
	From    State
	Trigger string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("nav: invalid transition: %s + %q", e.From, e.Trigger)
}
