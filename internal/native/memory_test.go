package native

import (
	"errors"
	"testing"
)

type fakeGuard struct{ executing bool }

func (g *fakeGuard) Executing() bool { return g.executing }

func mustCreate(t *testing.T, m *Memory, kind Kind, parent Widget, style Style) *Object {
	t.Helper()
	o, err := m.CreateObject(kind, parent, style)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", kind, err)
	}
	return o
}

func TestMemory_CreateHierarchy(t *testing.T) {
	m := NewMemory()

	shell := mustCreate(t, m, KindShell, nil, StyleBorder)
	panel := mustCreate(t, m, KindComposite, shell, StyleNone)
	label := mustCreate(t, m, KindLabel, panel, StyleWrap)

	if label.Parent() != Widget(panel) {
		t.Error("label parent should be panel")
	}
	if shell.Parent() != nil {
		t.Error("shell parent should be nil")
	}
	if got := len(panel.Children()); got != 1 {
		t.Errorf("panel has %d children, want 1", got)
	}
	if !label.Style().Has(StyleWrap) {
		t.Error("style lost at creation")
	}
	if len(m.Shells()) != 1 {
		t.Errorf("Shells() = %d, want 1", len(m.Shells()))
	}
}

func TestMemory_CreateErrors(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleNone)
	label := mustCreate(t, m, KindLabel, shell, StyleNone)

	tests := []struct {
		name   string
		kind   Kind
		parent Widget
		want   error
	}{
		{"no parent", KindButton, nil, ErrNoParent},
		{"leaf parent", KindButton, label, ErrNotContainer},
		{"unknown kind", Kind("slider"), shell, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(tt.kind, tt.parent, StyleNone)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}

	other := NewMemory()
	foreign := mustCreate(t, other, KindShell, nil, StyleNone)
	if _, err := m.Create(KindLabel, foreign, StyleNone); err == nil {
		t.Error("expected error for parent from another toolkit")
	}
}

func TestMemory_RecordsCalls(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleNone)
	m.ResetCalls()

	shell.SetText("title")
	shell.SetSize(Size{Width: 10, Height: 5})

	calls := m.CallsFor(shell.ID())
	if len(calls) != 2 {
		t.Fatalf("recorded %d calls, want 2: %v", len(calls), calls)
	}
	if calls[0].Method != "setText" || calls[0].Value != "title" {
		t.Errorf("first call = %v", calls[0])
	}
	if calls[1].Method != "setSize" {
		t.Errorf("second call = %v", calls[1])
	}
}

func TestMemory_DisposeCascades(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleNone)
	panel := mustCreate(t, m, KindComposite, shell, StyleNone)
	button := mustCreate(t, m, KindButton, panel, StyleNone)

	var disposed []int64
	button.AddListener(EventDispose, func(ev Event) {
		disposed = append(disposed, ev.Widget.ID())
	})

	shell.Dispose()

	if !button.IsDisposed() || !panel.IsDisposed() || !shell.IsDisposed() {
		t.Error("dispose did not cascade to children")
	}
	if len(disposed) != 1 || disposed[0] != button.ID() {
		t.Errorf("dispose listener got %v", disposed)
	}
	if len(m.Shells()) != 0 {
		t.Error("disposed shell still listed")
	}

	shell.Dispose() // idempotent
}

func TestMemory_MutateDisposedPanics(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleNone)
	shell.Dispose()

	defer func() {
		if r := recover(); r != ErrWidgetDisposed {
			t.Errorf("recover() = %v, want ErrWidgetDisposed", r)
		}
	}()
	shell.SetText("late")
}

func TestMemory_ThreadGuard(t *testing.T) {
	guard := &fakeGuard{}
	m := NewMemory(WithThreadGuard(guard))

	func() {
		defer func() {
			if r := recover(); r != ErrInvalidThread {
				t.Errorf("recover() = %v, want ErrInvalidThread", r)
			}
		}()
		_, _ = m.Create(KindShell, nil, StyleNone)
	}()

	guard.executing = true
	if _, err := m.Create(KindShell, nil, StyleNone); err != nil {
		t.Errorf("Create() with guard held = %v", err)
	}
}

func TestObject_FireModify(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleNone)
	text := mustCreate(t, m, KindText, shell, StyleNone)

	var got string
	text.AddListener(EventModify, func(ev Event) { got = ev.Text })
	text.Fire(Event{Type: EventModify, Text: "typed"})

	if got != "typed" || text.Text() != "typed" {
		t.Errorf("modify event not applied: listener=%q text=%q", got, text.Text())
	}
}

func TestObject_ClientArea(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleBorder)
	shell.SetSize(Size{Width: 10, Height: 6})

	want := Rect{X: 1, Y: 1, Width: 8, Height: 4}
	if got := shell.ClientArea(); got != want {
		t.Errorf("ClientArea() = %+v, want %+v", got, want)
	}
}
