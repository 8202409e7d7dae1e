// Package dispatch provides the execution primitives the access bridge is
// built on.
//
// # UI Dispatcher
//
// UIDispatcher owns the single UI goroutine. Every native toolkit object is
// created, read and mutated from inside a task running on that goroutine.
// Callers on any goroutine submit work with RunAndWait, which blocks until
// the task has completed:
//
//	ui := dispatch.NewUIDispatcher()
//	if err := ui.Start(); err != nil {
//	    return err
//	}
//	defer ui.Stop(context.Background())
//
//	err := ui.RunAndWait(ctx, func(ctx context.Context) error {
//	    return widget.SetText("hello")
//	})
//
// Tasks run one at a time in submission order. A task never interleaves with
// another task. Errors returned by the task are returned to the caller; a
// panic inside the task is recovered on the UI goroutine and raised again on
// the caller's goroutine as a *PanicError.
//
// The context handed to a task is marked as running on the UI goroutine.
// Passing it to RunAndWait executes the nested task inline instead of
// queueing it, which is what allows recursive work (such as realizing a
// parent before a child) without deadlocking. Code running inside a task must
// thread that context through; a fresh context.Background() would enqueue
// behind the running task and never complete.
//
// A task still waiting in the queue when its context is cancelled is skipped.
// Once a task has started it always runs to completion.
//
// # Async Dispatcher
//
// AsyncDispatcher runs handlers on a worker pool. The bridge uses it to
// deliver native events to application listeners away from the UI goroutine,
// so that a listener may itself call blocking mutators. Events implementing
// Keyed are delivered in order per key; listener events are keyed by their
// source node.
//
// # Executor
//
// Executor runs a single task with panic recovery and timing and reports a
// Result. Both dispatchers use it.
package dispatch
