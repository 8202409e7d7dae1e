package access

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dshills/syncaccess/internal/dispatch"
	"github.com/dshills/syncaccess/internal/native"
)

type harness struct {
	ui  *dispatch.UIDispatcher
	kit *native.Memory
	env Env
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ui := dispatch.NewUIDispatcher()
	if err := ui.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = ui.Stop(ctx)
	})

	kit := native.NewMemory(native.WithThreadGuard(ui))
	return &harness{
		ui:  ui,
		kit: kit,
		env: Env{Dispatcher: ui, Toolkit: kit},
	}
}

// onUI runs fn on the UI goroutine.
func (h *harness) onUI(t *testing.T, fn func()) {
	t.Helper()
	err := h.ui.RunAndWait(context.Background(), func(context.Context) error {
		fn()
		return nil
	})
	if err != nil {
		t.Fatalf("RunAndWait() error = %v", err)
	}
}

// nativeID returns the id of n's live delegate, 0 if none.
func (h *harness) nativeID(t *testing.T, n *Node) int64 {
	t.Helper()
	var id int64
	h.onUI(t, func() {
		if w := n.Delegate(); w != nil {
			id = w.ID()
		}
	})
	return id
}

// nativeParent returns the id of the native parent of n's delegate.
func (h *harness) nativeParent(t *testing.T, n *Node) int64 {
	t.Helper()
	var id int64
	h.onUI(t, func() {
		if w := n.Delegate(); w != nil && w.Parent() != nil {
			id = w.Parent().ID()
		}
	})
	return id
}

func (h *harness) methods(id int64) []string {
	var out []string
	for _, c := range h.kit.CallsFor(id) {
		out = append(out, c.Method)
	}
	return out
}

func (h *harness) countCreates() int {
	n := 0
	for _, c := range h.kit.Calls() {
		if c.Method == "create" {
			n++
		}
	}
	return n
}

func (h *harness) shell(t *testing.T) *Shell {
	t.Helper()
	s := NewShell(h.env, native.StyleNone)
	if err := s.Create(context.Background()); err != nil {
		t.Fatalf("shell Create() error = %v", err)
	}
	return s
}

// protocolPanic runs fn and returns the *ProtocolError it panicked with.
func protocolPanic(t *testing.T, fn func()) (perr *ProtocolError) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		err, ok := r.(error)
		if !ok || !errors.As(err, &perr) {
			t.Fatalf("panic value %v is not a protocol error", r)
		}
	}()
	fn()
	return nil
}

// gatedToolkit blocks Create until released.
type gatedToolkit struct {
	native.Toolkit
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedToolkit(inner native.Toolkit) *gatedToolkit {
	return &gatedToolkit{
		Toolkit: inner,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedToolkit) Create(kind native.Kind, parent native.Widget, style native.Style) (native.Widget, error) {
	if kind != native.KindShell {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	return g.Toolkit.Create(kind, parent, style)
}
