package script

import "errors"

var (
	// ErrStateClosed is returned when running code on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrUnknownNode is raised when a script names an id it never created.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateNode is raised when a script reuses an id.
	ErrDuplicateNode = errors.New("node id already in use")

	// ErrNotComposite is raised when an id that cannot hold children is
	// used as a parent or laid out.
	ErrNotComposite = errors.New("node is not a composite")
)
