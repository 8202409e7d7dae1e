package dispatch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/syncaccess/internal/logging"
)

// uiKey marks a context as belonging to a task running on a UIDispatcher's
// goroutine. The value is the owning dispatcher.
type uiKey struct{}

// OnUIThread reports whether ctx was handed to a task by a UIDispatcher,
// i.e. whether the caller is currently running on a UI goroutine.
func OnUIThread(ctx context.Context) bool {
	_, ok := ctx.Value(uiKey{}).(*UIDispatcher)
	return ok
}

// job is a task queued for the UI goroutine. done is nil for posted tasks.
type job struct {
	ctx  context.Context
	task Task
	done chan Result
}

// UIDispatcher executes tasks on a single dedicated goroutine.
type UIDispatcher struct {
	// Configuration
	queueSize    int
	lockOSThread bool
	logger       *logging.Logger
	executor     *Executor
	onStart      func()

	// State
	mu        sync.Mutex // protects start/stop transitions
	queue     chan *job
	stop      chan struct{}
	done      chan struct{}
	running   atomic.Bool
	executing atomic.Bool

	// Stats
	submitted   atomic.Uint64
	posted      atomic.Uint64
	executed    atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	skipped     atomic.Uint64
	inline      atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// UIOption configures a UIDispatcher.
type UIOption func(*UIDispatcher)

// WithUIQueueSize sets the capacity of the task queue.
func WithUIQueueSize(size int) UIOption {
	return func(d *UIDispatcher) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// WithLockOSThread pins the UI goroutine to its OS thread for its lifetime.
// Native toolkits with thread affinity require this.
func WithLockOSThread(lock bool) UIOption {
	return func(d *UIDispatcher) {
		d.lockOSThread = lock
	}
}

// WithStartHook runs fn on the UI goroutine each time the loop starts,
// before the first task. Tasks submitted from fn are queued.
func WithStartHook(fn func()) UIOption {
	return func(d *UIDispatcher) {
		d.onStart = fn
	}
}

// WithUILogger sets the logger used to report recovered panics and failed
// posted tasks.
func WithUILogger(l *logging.Logger) UIOption {
	return func(d *UIDispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewUIDispatcher creates a stopped UI dispatcher.
func NewUIDispatcher(opts ...UIOption) *UIDispatcher {
	d := &UIDispatcher{
		queueSize: 1024,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.executor = NewExecutor(WithExecutorPanicHandler(func(_ any, v any, stack []byte) {
		d.logger.WithComponent("dispatch").Error("panic in ui task: %v\n%s", v, stack)
	}))
	return d
}

// Start runs the UI loop on a new goroutine.
func (d *UIDispatcher) Start() error {
	if err := d.prepare(); err != nil {
		return err
	}
	go d.loop()
	return nil
}

// Run runs the UI loop on the calling goroutine until ctx is done or Stop is
// called. Use it to keep the UI on the main goroutine.
func (d *UIDispatcher) Run(ctx context.Context) error {
	if err := d.prepare(); err != nil {
		return err
	}

	d.mu.Lock()
	stop, done := d.stop, d.done
	d.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			d.signalStop()
		case <-done:
		case <-stop:
		}
	}()

	d.loop()
	return ctx.Err()
}

func (d *UIDispatcher) prepare() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrAlreadyRunning
	}

	d.queue = make(chan *job, d.queueSize)
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.running.Store(true)
	return nil
}

// Stop stops the UI loop after the tasks already queued have run.
// It waits for the loop to exit or until ctx is cancelled.
func (d *UIDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return ErrNotRunning
	}
	done := d.done
	d.mu.Unlock()

	d.signalStop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *UIDispatcher) signalStop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.CompareAndSwap(true, false) {
		close(d.stop)
	}
}

// IsRunning returns true if the UI loop accepts tasks.
func (d *UIDispatcher) IsRunning() bool {
	return d.running.Load()
}

// Executing reports whether the UI goroutine is currently inside a task.
// The answer is the same on every goroutine, so toolkits using it as a
// thread guard only catch access made while the loop is idle.
func (d *UIDispatcher) Executing() bool {
	return d.executing.Load()
}

func (d *UIDispatcher) loop() {
	if d.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	d.mu.Lock()
	queue, stop, done := d.queue, d.stop, d.done
	d.mu.Unlock()
	defer close(done)

	if d.onStart != nil {
		d.onStart()
	}

	for {
		select {
		case j := <-queue:
			d.execute(j)
		case <-stop:
			// Drain what was accepted before the stop.
			for {
				select {
				case j := <-queue:
					d.execute(j)
				default:
					return
				}
			}
		}
	}
}

func (d *UIDispatcher) execute(j *job) {
	ctx := context.WithValue(j.ctx, uiKey{}, d)

	d.executing.Store(true)
	result := d.executor.Execute(ctx, j.task)
	d.executing.Store(false)

	d.executed.Add(1)
	d.totalTimeNs.Add(result.Duration.Nanoseconds())
	switch {
	case result.Skipped:
		d.skipped.Add(1)
	case result.Panicked:
		d.panicked.Add(1)
	case result.Error != nil:
		d.failed.Add(1)
	}

	if j.done != nil {
		j.done <- result
		return
	}
	if result.Error != nil && !result.Skipped {
		d.logger.WithComponent("dispatch").Warn("posted task failed: %v", result.Error)
	}
}

// RunAndWait executes task on the UI goroutine and blocks until it has
// completed. The task's error is returned. A panic in the task is re-raised
// on the calling goroutine as a *PanicError.
//
// When ctx already belongs to a task on this dispatcher's goroutine the task
// runs inline.
func (d *UIDispatcher) RunAndWait(ctx context.Context, task Task) error {
	if task == nil {
		return ErrNilTask
	}
	if owner, ok := ctx.Value(uiKey{}).(*UIDispatcher); ok && owner == d {
		d.inline.Add(1)
		return task(ctx)
	}

	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return ErrNotRunning
	}
	queue, done := d.queue, d.done
	d.mu.Unlock()

	j := &job{ctx: ctx, task: task, done: make(chan Result, 1)}
	select {
	case queue <- j:
		d.submitted.Add(1)
	case <-ctx.Done():
		d.skipped.Add(1)
		return ctx.Err()
	case <-done:
		return ErrNotRunning
	}

	var result Result
	select {
	case result = <-j.done:
	case <-done:
		// The loop may have finished the job right before exiting.
		select {
		case result = <-j.done:
		default:
			return ErrNotRunning
		}
	}

	if result.Panicked {
		panic(&PanicError{Value: result.PanicValue, Stack: result.PanicStack})
	}
	return result.Error
}

// Post schedules task on the UI goroutine without waiting for it.
// Returns ErrQueueFull if the queue is at capacity.
func (d *UIDispatcher) Post(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return ErrNotRunning
	}

	select {
	case d.queue <- &job{ctx: context.Background(), task: task}:
		d.posted.Add(1)
		return nil
	default:
		d.dropped.Add(1)
		return ErrQueueFull
	}
}

// QueueDepth returns the number of tasks waiting to run.
func (d *UIDispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue == nil {
		return 0
	}
	return len(d.queue)
}

// Stats returns dispatcher statistics.
// Values are read without a lock and may be slightly inconsistent while
// tasks are running.
func (d *UIDispatcher) Stats() UIDispatcherStats {
	executed := d.executed.Load()
	totalNs := d.totalTimeNs.Load()

	var avgNs int64
	if executed > 0 {
		avgNs = totalNs / int64(executed)
	}

	return UIDispatcherStats{
		Submitted:     d.submitted.Load(),
		Posted:        d.posted.Load(),
		Executed:      executed,
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		Skipped:       d.skipped.Load(),
		Inline:        d.inline.Load(),
		Dropped:       d.dropped.Load(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

// UIDispatcherStats contains statistics for a UI dispatcher.
type UIDispatcherStats struct {
	// Submitted is the number of RunAndWait tasks accepted by the queue.
	Submitted uint64

	// Posted is the number of fire-and-forget tasks accepted by the queue.
	Posted uint64

	// Executed is the number of tasks taken off the queue.
	Executed uint64

	// Failed is the number of tasks that returned errors.
	Failed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Skipped is the number of tasks abandoned because their context ended
	// before they started.
	Skipped uint64

	// Inline is the number of nested RunAndWait calls run directly on the UI
	// goroutine.
	Inline uint64

	// Dropped is the number of posted tasks rejected by a full queue.
	Dropped uint64

	// TotalDuration is the cumulative time spent in tasks.
	TotalDuration time.Duration

	// AvgDuration is the average task execution time.
	AvgDuration time.Duration
}
