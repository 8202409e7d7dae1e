package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatch package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running dispatcher.
	ErrAlreadyRunning = errors.New("dispatcher is already running")

	// ErrNotRunning is returned when operations are attempted on a stopped dispatcher.
	ErrNotRunning = errors.New("dispatcher is not running")

	// ErrQueueFull is returned when the queue is full and cannot accept more tasks.
	ErrQueueFull = errors.New("task queue is full")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("nil task")
)

// PanicError carries a panic recovered on the UI goroutine back to the
// goroutine that submitted the task.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the UI goroutine's stack at the point of the panic.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic on ui goroutine: %v", e.Value)
}

// Unwrap returns the panic value when it is an error, so callers can match
// it with errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
