package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestAsyncDispatcher_StartStop(t *testing.T) {
	d := NewAsyncDispatcher()

	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !d.IsRunning() {
		t.Error("expected IsRunning() after Start")
	}
	if err := d.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v", err)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := d.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop() = %v", err)
	}
}

func TestAsyncDispatcher_SingleWorkerKeepsOrder(t *testing.T) {
	d := NewAsyncDispatcher(WithWorkerCount(1))
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		err := d.Enqueue(context.Background(), i, HandlerFunc(func(ctx context.Context, event any) error {
			mu.Lock()
			got = append(got, event.(int))
			mu.Unlock()
			return nil
		}))
		if err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	if err := d.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("events delivered out of order at %d: %v", i, v)
		}
	}
	if stats := d.Stats(); stats.Succeeded != 100 {
		t.Errorf("Succeeded = %d, want 100", stats.Succeeded)
	}
}

func TestAsyncDispatcher_PanicIsContained(t *testing.T) {
	var panics atomic.Int32
	d := NewAsyncDispatcher(WithAsyncPanicHandler(func(event any, v any, stack []byte) {
		panics.Add(1)
	}))
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	_ = d.Enqueue(context.Background(), "x", HandlerFunc(func(ctx context.Context, event any) error {
		panic("listener bug")
	}))
	_ = d.Stop(context.Background())

	if panics.Load() != 1 {
		t.Errorf("panic handler called %d times, want 1", panics.Load())
	}
	if d.Stats().Panicked != 1 {
		t.Errorf("Panicked = %d, want 1", d.Stats().Panicked)
	}
}

func TestAsyncDispatcher_QueueFull(t *testing.T) {
	d := NewAsyncDispatcher(WithQueueSize(1), WithWorkerCount(1))
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	defer d.Stop(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), nil, HandlerFunc(func(ctx context.Context, event any) error {
		close(started)
		<-block
		return nil
	}))
	<-started

	noop := HandlerFunc(func(ctx context.Context, event any) error { return nil })
	if err := d.Enqueue(context.Background(), nil, noop); err != nil {
		t.Fatalf("first queued Enqueue() = %v", err)
	}
	if err := d.Enqueue(context.Background(), nil, noop); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() on full queue = %v, want ErrQueueFull", err)
	}
	close(block)
}

func TestAsyncDispatcher_EnqueueNotRunning(t *testing.T) {
	d := NewAsyncDispatcher()
	err := d.Enqueue(context.Background(), nil, HandlerFunc(func(ctx context.Context, event any) error { return nil }))
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("Enqueue() = %v, want ErrNotRunning", err)
	}
}

type keyedEvent struct {
	key string
	seq int
}

func (e keyedEvent) DispatchKey() string { return e.key }

func TestAsyncDispatcher_KeyedEventsKeepOrderAcrossWorkers(t *testing.T) {
	d := NewAsyncDispatcher(WithWorkerCount(4))
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	got := make(map[string][]int)
	record := HandlerFunc(func(ctx context.Context, event any) error {
		e := event.(keyedEvent)
		mu.Lock()
		got[e.key] = append(got[e.key], e.seq)
		mu.Unlock()
		return nil
	})

	keys := []string{"a", "b", "c", "d", "e"}
	for seq := range 50 {
		for _, k := range keys {
			if err := d.Enqueue(context.Background(), keyedEvent{key: k, seq: seq}, record); err != nil {
				t.Fatalf("Enqueue() error = %v", err)
			}
		}
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, k := range keys {
		if len(got[k]) != 50 {
			t.Fatalf("key %s: %d events, want 50", k, len(got[k]))
		}
		for i, seq := range got[k] {
			if seq != i {
				t.Fatalf("key %s delivered out of order at %d: %v", k, i, got[k])
			}
		}
	}
	if s := d.Stats(); s.Workers != 4 || s.Succeeded != 250 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestAsyncDispatcher_SkipsCancelledEvents(t *testing.T) {
	d := NewAsyncDispatcher()
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool
	_ = d.Enqueue(ctx, nil, HandlerFunc(func(context.Context, any) error {
		ran.Store(true)
		return nil
	}))
	_ = d.Stop(context.Background())

	if ran.Load() {
		t.Error("handler ran with a cancelled context")
	}
	if s := d.Stats(); s.Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Failed)
	}
}
