package dispatch

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// Keyed is implemented by events that must reach their handlers in the
// order they were enqueued relative to other events with the same key.
// Listener events use the source node's id, so one node's events never
// overtake each other even with several workers.
type Keyed interface {
	DispatchKey() string
}

// AsyncDispatcher delivers events to handlers on a pool of worker
// goroutines. Every worker owns a bounded lane. Keyed events always go to
// the lane their key hashes to; other events are spread round-robin.
type AsyncDispatcher struct {
	queueSize    int
	workerCount  int
	panicHandler PanicHandler

	mu      sync.Mutex // guards lanes across Start, Stop and Enqueue
	lanes   []chan asyncTask
	running atomic.Bool
	wg      sync.WaitGroup
	next    atomic.Uint64

	enqueued    atomic.Uint64
	processed   atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
}

type asyncTask struct {
	ctx     context.Context
	event   any
	handler Handler
}

// AsyncOption configures an AsyncDispatcher.
type AsyncOption func(*AsyncDispatcher)

// WithQueueSize sets the capacity of each worker's lane.
func WithQueueSize(size int) AsyncOption {
	return func(d *AsyncDispatcher) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) AsyncOption {
	return func(d *AsyncDispatcher) {
		if count > 0 {
			d.workerCount = count
		}
	}
}

// WithAsyncPanicHandler is called with the event when a handler panics.
func WithAsyncPanicHandler(h PanicHandler) AsyncOption {
	return func(d *AsyncDispatcher) {
		d.panicHandler = h
	}
}

// NewAsyncDispatcher creates a stopped pool with one worker.
func NewAsyncDispatcher(opts ...AsyncOption) *AsyncDispatcher {
	d := &AsyncDispatcher{
		queueSize:    1024,
		workerCount:  1,
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the workers.
func (d *AsyncDispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrAlreadyRunning
	}

	executor := NewExecutor(WithExecutorPanicHandler(d.panicHandler))
	d.lanes = make([]chan asyncTask, d.workerCount)
	for i := range d.lanes {
		lane := make(chan asyncTask, d.queueSize)
		d.lanes[i] = lane
		d.wg.Add(1)
		go d.worker(executor, lane)
	}
	d.running.Store(true)
	return nil
}

// Stop refuses new events and waits until the queued ones have been
// handled or ctx is done.
func (d *AsyncDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return ErrNotRunning
	}
	d.running.Store(false)
	for _, lane := range d.lanes {
		close(lane)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue queues handler.Handle(ctx, event) without blocking. It returns
// ErrQueueFull when the event's lane is at capacity.
func (d *AsyncDispatcher) Enqueue(ctx context.Context, event any, handler Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return ErrNotRunning
	}

	select {
	case d.lanes[d.laneFor(event)] <- asyncTask{ctx: ctx, event: event, handler: handler}:
		d.enqueued.Add(1)
		return nil
	default:
		d.dropped.Add(1)
		return ErrQueueFull
	}
}

func (d *AsyncDispatcher) laneFor(event any) int {
	n := uint64(len(d.lanes))
	if n == 1 {
		return 0
	}
	if k, ok := event.(Keyed); ok {
		h := fnv.New64a()
		_, _ = h.Write([]byte(k.DispatchKey()))
		return int(h.Sum64() % n)
	}
	return int(d.next.Add(1) % n)
}

func (d *AsyncDispatcher) worker(executor *Executor, lane <-chan asyncTask) {
	defer d.wg.Done()

	for task := range lane {
		res := executor.ExecuteHandler(task.ctx, task.event, task.handler)
		d.record(res)
	}
}

func (d *AsyncDispatcher) record(res Result) {
	d.processed.Add(1)
	d.totalTimeNs.Add(res.Duration.Nanoseconds())
	switch {
	case res.Panicked:
		d.panicked.Add(1)
	case res.Skipped, res.Error != nil:
		d.failed.Add(1)
	default:
		d.succeeded.Add(1)
	}
}

// QueueDepth returns the number of events waiting across all lanes.
func (d *AsyncDispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return 0
	}
	depth := 0
	for _, lane := range d.lanes {
		depth += len(lane)
	}
	return depth
}

// IsRunning reports whether the pool accepts events.
func (d *AsyncDispatcher) IsRunning() bool {
	return d.running.Load()
}

// Stats returns a snapshot of the delivery counters.
func (d *AsyncDispatcher) Stats() AsyncDispatcherStats {
	processed := d.processed.Load()
	total := time.Duration(d.totalTimeNs.Load())

	var avg time.Duration
	if processed > 0 {
		avg = total / time.Duration(processed)
	}
	return AsyncDispatcherStats{
		Enqueued:      d.enqueued.Load(),
		Processed:     processed,
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		Dropped:       d.dropped.Load(),
		QueueDepth:    d.QueueDepth(),
		Workers:       d.workerCount,
		TotalDuration: total,
		AvgDuration:   avg,
	}
}

// AsyncDispatcherStats counts events over the pool's lifetime.
type AsyncDispatcherStats struct {
	Enqueued  uint64
	Processed uint64
	Succeeded uint64

	// Failed counts handlers that returned an error or were skipped
	// because their context was done.
	Failed   uint64
	Panicked uint64

	// Dropped counts events refused with ErrQueueFull.
	Dropped uint64

	QueueDepth    int
	Workers       int
	TotalDuration time.Duration
	AvgDuration   time.Duration
}
