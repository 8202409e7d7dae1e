package access

import (
	"errors"
	"fmt"
)

// Bridge errors.
var (
	// ErrOperationPending is the protocol violation raised when an operation
	// starts on a node that already has one in flight.
	ErrOperationPending = errors.New("operation already pending")

	// ErrUnknownOp is the protocol violation raised for an operation no layer
	// of the node handles.
	ErrUnknownOp = errors.New("unknown operation")

	// ErrNotCreatable is returned by Create when no ancestor is realized.
	ErrNotCreatable = errors.New("no realized ancestor")

	// ErrDisposed is returned when creating a node that is already disposed.
	ErrDisposed = errors.New("node is disposed")

	// ErrReparent is returned when a realized control is attached to a
	// different parent.
	ErrReparent = errors.New("cannot move a realized control to another parent")

	// ErrCycle is returned when attaching a composite below itself.
	ErrCycle = errors.New("parent chain would form a cycle")

	// ErrShellParent is returned when a shell is given a parent.
	ErrShellParent = errors.New("a shell cannot have a parent")

	// ErrNoDispatcher is returned when a node's environment lacks a dispatcher.
	ErrNoDispatcher = errors.New("no dispatcher configured")
)

// ProtocolError is the panic value for violations of the bridge protocol.
// It is never returned as an ordinary error; it reaches the caller through
// the dispatcher's panic propagation.
type ProtocolError struct {
	Op   Op
	Node string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("access protocol violation: %s on %s: %v", e.Op, e.Node, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NodeError represents an error that occurred during an operation on a node.
type NodeError struct {
	Op   string // Operation name (e.g., "create", "setParent")
	Node string // Node label, kind#short-id
	Err  error  // Underlying error
}

func (e *NodeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("access: %s %s: %v", e.Op, e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
