package navigation

import (
	"errors"
	"fmt"
)

// ErrInvalidState is matched by every InvalidStateError via errors.Is
var ErrInvalidState = errors.New("invalid navigation state")

// InvalidStateError reports a symbolic state name missing from its axis table.
// It points at a bad mapping in the caller, not at operator input.
type InvalidStateError struct {
	Axis Axis
	Name string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: unknown %s state %q", ErrInvalidState, e.Axis, e.Name)
}

// Is lets errors.Is(err, ErrInvalidState) succeed
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
