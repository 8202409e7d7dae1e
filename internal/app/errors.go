package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the user asked the application to exit.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called while running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application is not running.
	ErrNotRunning = errors.New("application not running")

	// ErrShutdownTimeout indicates main did not return after the UI stopped.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// InitError reports which component failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
