package native

import "errors"

// Toolkit errors.
var (
	// ErrInvalidThread is the panic value raised when a widget is touched
	// outside the UI goroutine.
	ErrInvalidThread = errors.New("native: invalid thread access")

	// ErrWidgetDisposed is the panic value raised when a disposed widget is
	// mutated.
	ErrWidgetDisposed = errors.New("native: widget is disposed")

	// ErrNoParent is returned when a non-shell widget is created without a parent.
	ErrNoParent = errors.New("native: parent required")

	// ErrNotContainer is returned when the parent cannot hold children.
	ErrNotContainer = errors.New("native: parent is not a container")

	// ErrUnknownKind is returned for a widget kind the toolkit cannot create.
	ErrUnknownKind = errors.New("native: unknown widget kind")

	// ErrUnknownStyle is returned when a style name is not in the table.
	ErrUnknownStyle = errors.New("native: unknown style name")
)
