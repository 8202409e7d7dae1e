package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Executor runs tasks and handlers, turning their outcome (error, panic or
// skip) into a Result. It never lets a panic escape.
type Executor struct {
	panicHandler PanicHandler
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler is told about every recovered panic.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// NewExecutor returns an Executor whose panic handler does nothing.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{panicHandler: defaultPanicHandler}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs task. A task whose context is already done is skipped.
func (e *Executor) Execute(ctx context.Context, task Task) Result {
	return e.run(ctx, task, task)
}

// ExecuteHandler delivers event to handler.
func (e *Executor) ExecuteHandler(ctx context.Context, event any, handler Handler) Result {
	return e.run(ctx, event, func(ctx context.Context) error {
		return handler.Handle(ctx, event)
	})
}

func (e *Executor) run(ctx context.Context, subject any, fn func(context.Context) error) Result {
	if err := ctx.Err(); err != nil {
		return Result{Error: err, Skipped: true}
	}

	start := time.Now()
	res := e.call(ctx, subject, fn)
	res.Duration = time.Since(start)
	return res
}

func (e *Executor) call(ctx context.Context, subject any, fn func(context.Context) error) (res Result) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		stack := debug.Stack()
		res = Result{Panicked: true, PanicValue: v, PanicStack: stack}
		e.notifyPanic(subject, v, stack)
	}()

	err := fn(ctx)
	return Result{Success: err == nil, Error: err}
}

// notifyPanic swallows panics raised by the handler itself.
func (e *Executor) notifyPanic(subject, v any, stack []byte) {
	if e.panicHandler == nil {
		return
	}
	defer func() { _ = recover() }()
	e.panicHandler(subject, v, stack)
}
