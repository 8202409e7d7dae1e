package access

import (
	"context"

	"github.com/dshills/syncaccess/internal/dispatch"
	"github.com/dshills/syncaccess/internal/logging"
	"github.com/dshills/syncaccess/internal/native"
)

// Runner executes a task on the UI goroutine and waits for it.
// dispatch.UIDispatcher implements it.
type Runner interface {
	RunAndWait(ctx context.Context, task dispatch.Task) error
}

// EventQueue delivers listener callbacks away from the UI goroutine.
// dispatch.AsyncDispatcher implements it.
type EventQueue interface {
	Enqueue(ctx context.Context, event any, handler dispatch.Handler) error
}

// Env holds the collaborators every node is constructed with.
type Env struct {
	// Dispatcher runs operations on the UI goroutine. Required.
	Dispatcher Runner

	// Toolkit creates native delegates. Required.
	Toolkit native.Toolkit

	// Events delivers listener callbacks. When nil, listeners run on the UI
	// goroutine and must not call back into blocking node methods.
	Events EventQueue

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *logging.Logger

	// Styles resolves symbolic style names. Defaults to the built-in table.
	Styles native.StyleTable
}

// ParseStyle resolves a style spec such as "border|wrap" with the env's table.
func (e Env) ParseStyle(spec string) (native.Style, error) {
	table := e.Styles
	if table == nil {
		table = native.DefaultStyleTable()
	}
	return table.Parse(spec)
}

func (e Env) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.Nop()
	}
	return e.Logger
}
