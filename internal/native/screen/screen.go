// Package screen is a native toolkit that draws widgets on a terminal.
//
// Widgets live in a native.Memory toolkit; Toolkit renders that tree to a
// tcell screen and turns terminal input into widget events. Like every
// native toolkit it is single-threaded: Create, Render and HandleEvent must
// run on the UI goroutine. PollEvent is the one blocking call and belongs on
// its own goroutine.
package screen

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/syncaccess/internal/native"
)

// Toolkit renders a widget tree to a tcell screen.
type Toolkit struct {
	*native.Memory

	screen tcell.Screen
	mu     sync.Mutex // guards screen setup and teardown

	// Confined to the UI goroutine.
	focus *native.Object
}

// New wraps an uninitialized screen.
func New(screen tcell.Screen, opts ...native.MemoryOption) *Toolkit {
	return &Toolkit{
		Memory: native.NewMemory(opts...),
		screen: screen,
	}
}

// NewTerminal creates a toolkit on the process terminal.
func NewTerminal(opts ...native.MemoryOption) (*Toolkit, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(s, opts...), nil
}

// NewSimulation creates a toolkit on an in-memory screen of the given size.
// The screen is initialized.
func NewSimulation(width, height int, opts ...native.MemoryOption) (*Toolkit, error) {
	s := tcell.NewSimulationScreen("UTF-8")
	t := New(s, opts...)
	if err := t.Init(); err != nil {
		return nil, err
	}
	s.SetSize(width, height)
	return t, nil
}

// Init initializes the screen and enables mouse input.
func (t *Toolkit) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnableMouse()
	return nil
}

// Shutdown restores the terminal.
func (t *Toolkit) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

// Size returns the screen dimensions.
func (t *Toolkit) Size() native.Size {
	w, h := t.screen.Size()
	return native.Size{Width: w, Height: h}
}

// PollEvent blocks until the next terminal event. It returns nil once the
// screen is shut down.
func (t *Toolkit) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// Interrupt wakes a pending PollEvent with an interrupt event.
func (t *Toolkit) Interrupt(data any) {
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(data)) // best-effort; queue may be full
}

// Snapshot returns the screen contents as text, one string per row with
// trailing spaces trimmed.
func (t *Toolkit) Snapshot() []string {
	w, h := t.screen.Size()
	rows := make([]string, h)
	line := make([]rune, w)
	for y := range h {
		for x := range w {
			r, _, _, _ := t.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
			if r == 0 {
				r = ' '
			}
			line[x] = r
		}
		end := w
		for end > 0 && line[end-1] == ' ' {
			end--
		}
		rows[y] = string(line[:end])
	}
	return rows
}

// Focus returns the focused widget, nil if none. UI goroutine only.
func (t *Toolkit) Focus() *native.Object {
	if t.focus != nil && t.focus.IsDisposed() {
		t.focus = nil
	}
	return t.focus
}
