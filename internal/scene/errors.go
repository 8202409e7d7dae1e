package scene

import (
	"errors"
	"fmt"
)

// Scene description errors.
var (
	// ErrMissingID is returned when a node has no id.
	ErrMissingID = errors.New("scene: missing id")

	// ErrDuplicateID is returned when two nodes share an id.
	ErrDuplicateID = errors.New("scene: duplicate id")

	// ErrUnknownParent is returned when a parent id names no node.
	ErrUnknownParent = errors.New("scene: unknown parent")

	// ErrNotContainer is returned when a parent id names a leaf control.
	ErrNotContainer = errors.New("scene: parent is not a container")

	// ErrCycle is returned when parent links loop.
	ErrCycle = errors.New("scene: parent cycle")

	// ErrInvalidValue is returned for a malformed property value.
	ErrInvalidValue = errors.New("scene: invalid value")
)

// DefError ties a description error to the node and field it came from.
type DefError struct {
	ID    string
	Field string
	Err   error
}

func (e *DefError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("node %q: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("node %q: %s: %v", e.ID, e.Field, e.Err)
}

func (e *DefError) Unwrap() error {
	return e.Err
}
