package native

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Call records one primitive invoked on a Memory toolkit widget.
type Call struct {
	Widget int64
	Method string
	Value  any
}

// String formats the call as "id.method(value)".
func (c Call) String() string {
	if c.Value == nil {
		return fmt.Sprintf("%d.%s", c.Widget, c.Method)
	}
	return fmt.Sprintf("%d.%s(%v)", c.Widget, c.Method, c.Value)
}

// Memory is a toolkit that keeps widgets in memory and records every
// primitive invoked on them. It is the headless target for tests and the
// model the screen toolkit draws from.
type Memory struct {
	guard  ThreadGuard
	nextID atomic.Int64

	mu     sync.Mutex
	calls  []Call
	shells []*Object
}

// MemoryOption configures a Memory toolkit.
type MemoryOption func(*Memory)

// WithThreadGuard makes every widget call panic with ErrInvalidThread unless
// guard reports that a UI task is executing. The check is approximate: it
// catches calls made while the UI goroutine is idle, not calls from other
// goroutines that overlap a running task.
func WithThreadGuard(guard ThreadGuard) MemoryOption {
	return func(m *Memory) {
		m.guard = guard
	}
}

// NewMemory creates an empty in-memory toolkit.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create implements Toolkit.
func (m *Memory) Create(kind Kind, parent Widget, style Style) (Widget, error) {
	return m.CreateObject(kind, parent, style)
}

// CreateObject is Create returning the concrete widget type.
func (m *Memory) CreateObject(kind Kind, parent Widget, style Style) (*Object, error) {
	m.checkThread()

	switch kind {
	case KindShell, KindComposite, KindGroup, KindLabel, KindButton, KindText:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	var p *Object
	if kind == KindShell {
		if parent != nil {
			return nil, fmt.Errorf("shell cannot have a parent")
		}
	} else {
		if parent == nil {
			return nil, fmt.Errorf("create %s: %w", kind, ErrNoParent)
		}
		obj, ok := parent.(*Object)
		if !ok || obj.kit != m {
			return nil, fmt.Errorf("create %s: parent belongs to another toolkit", kind)
		}
		if obj.disposed {
			return nil, fmt.Errorf("create %s: %w", kind, ErrWidgetDisposed)
		}
		if !obj.kind.IsContainer() {
			return nil, fmt.Errorf("create %s under %s: %w", kind, obj.kind, ErrNotContainer)
		}
		p = obj
	}

	o := &Object{
		kit:        m,
		id:         m.nextID.Add(1),
		kind:       kind,
		style:      style,
		parent:     p,
		enabled:    true,
		visible:    true,
		foreground: ColorDefault,
		background: ColorDefault,
		listeners:  make(map[EventType][]Listener),
	}

	if p != nil {
		p.children = append(p.children, o)
	} else {
		m.mu.Lock()
		m.shells = append(m.shells, o)
		m.mu.Unlock()
	}

	var parentID int64
	if p != nil {
		parentID = p.id
	}
	m.record(o.id, "create", fmt.Sprintf("%s parent=%d style=%d", kind, parentID, style))
	return o, nil
}

// Shells returns the live top-level widgets.
func (m *Memory) Shells() []*Object {
	m.mu.Lock()
	defer m.mu.Unlock()

	shells := make([]*Object, 0, len(m.shells))
	for _, s := range m.shells {
		if !s.disposed {
			shells = append(shells, s)
		}
	}
	return shells
}

// Calls returns a copy of the recorded primitive calls.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsFor returns the recorded calls of one widget.
func (m *Memory) CallsFor(id int64) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls []Call
	for _, c := range m.calls {
		if c.Widget == id {
			calls = append(calls, c)
		}
	}
	return calls
}

// ResetCalls clears the call log.
func (m *Memory) ResetCalls() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

func (m *Memory) record(id int64, method string, value any) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Widget: id, Method: method, Value: value})
	m.mu.Unlock()
}

func (m *Memory) checkThread() {
	if m.guard != nil && !m.guard.Executing() {
		panic(ErrInvalidThread)
	}
}

// Object is the Memory toolkit's widget. It implements Container for every
// kind; only container kinds ever receive children.
type Object struct {
	kit    *Memory
	id     int64
	kind   Kind
	style  Style
	parent *Object

	disposed   bool
	text       string
	image      Image
	enabled    bool
	visible    bool
	size       Size
	location   Point
	toolTip    string
	font       Font
	foreground Color
	background Color
	layoutData LayoutData
	layout     Layout
	children   []*Object
	listeners  map[EventType][]Listener
}

var _ Container = (*Object)(nil)

func (o *Object) ID() int64    { return o.id }
func (o *Object) Kind() Kind   { return o.kind }
func (o *Object) Style() Style { return o.style }

func (o *Object) Parent() Widget {
	if o.parent == nil {
		return nil
	}
	return o.parent
}

func (o *Object) IsDisposed() bool {
	o.kit.checkThread()
	return o.disposed
}

// Dispose destroys the widget, its children first, then fires EventDispose.
func (o *Object) Dispose() {
	o.kit.checkThread()
	if o.disposed {
		return
	}

	for _, child := range append([]*Object(nil), o.children...) {
		child.Dispose()
	}

	o.disposed = true
	o.kit.record(o.id, "dispose", nil)
	o.emit(Event{Type: EventDispose, Widget: o})

	if o.parent != nil {
		siblings := o.parent.children
		for i, c := range siblings {
			if c == o {
				o.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
}

// mutate checks thread and liveness and records the call.
func (o *Object) mutate(method string, value any) {
	o.kit.checkThread()
	if o.disposed {
		panic(ErrWidgetDisposed)
	}
	o.kit.record(o.id, method, value)
}

// read checks thread and liveness for a query.
func (o *Object) read() {
	o.kit.checkThread()
	if o.disposed {
		panic(ErrWidgetDisposed)
	}
}

func (o *Object) Text() string { o.read(); return o.text }

func (o *Object) SetText(text string) {
	o.mutate("setText", text)
	o.text = text
}

func (o *Object) Image() Image { o.read(); return o.image }

func (o *Object) SetImage(img Image) {
	o.mutate("setImage", img.Name)
	o.image = img
}

func (o *Object) Enabled() bool { o.read(); return o.enabled }

func (o *Object) SetEnabled(enabled bool) {
	o.mutate("setEnabled", enabled)
	o.enabled = enabled
}

func (o *Object) Visible() bool { o.read(); return o.visible }

func (o *Object) SetVisible(visible bool) {
	o.mutate("setVisible", visible)
	o.visible = visible
}

func (o *Object) Size() Size { o.read(); return o.size }

func (o *Object) SetSize(size Size) {
	o.mutate("setSize", size)
	o.size = size
}

func (o *Object) Location() Point { o.read(); return o.location }

func (o *Object) SetLocation(p Point) {
	o.mutate("setLocation", p)
	o.location = p
}

func (o *Object) ToolTip() string { o.read(); return o.toolTip }

func (o *Object) SetToolTip(tip string) {
	o.mutate("setToolTip", tip)
	o.toolTip = tip
}

func (o *Object) Font() Font { o.read(); return o.font }

func (o *Object) SetFont(font Font) {
	o.mutate("setFont", font.Name)
	o.font = font
}

func (o *Object) Foreground() Color { o.read(); return o.foreground }

func (o *Object) SetForeground(c Color) {
	o.mutate("setForeground", c)
	o.foreground = c
}

func (o *Object) Background() Color { o.read(); return o.background }

func (o *Object) SetBackground(c Color) {
	o.mutate("setBackground", c)
	o.background = c
}

func (o *Object) LayoutData() LayoutData { o.read(); return o.layoutData }

func (o *Object) SetLayoutData(data LayoutData) {
	o.mutate("setLayoutData", data)
	o.layoutData = data
}

func (o *Object) AddListener(t EventType, fn Listener) {
	o.mutate("addListener", t)
	if fn != nil {
		o.listeners[t] = append(o.listeners[t], fn)
	}
}

// Children returns the live children in creation order.
func (o *Object) Children() []Widget {
	o.read()
	children := make([]Widget, len(o.children))
	for i, c := range o.children {
		children[i] = c
	}
	return children
}

func (o *Object) SetLayout(layout Layout) {
	o.mutate("setLayout", fmt.Sprintf("%T", layout))
	o.layout = layout
}

func (o *Object) LayoutManager() Layout { o.read(); return o.layout }

// Arrange lays out the children inside the client area.
func (o *Object) Arrange() {
	o.mutate("layout", nil)
	if o.layout == nil {
		return
	}
	o.layout.Arrange(o.ClientArea(), o.Children())
}

// ClientArea returns the area available to children, inset by the border.
func (o *Object) ClientArea() Rect {
	area := Rect{Width: o.size.Width, Height: o.size.Height}
	if o.style.Has(StyleBorder) || o.kind == KindGroup {
		area = Rect{X: 1, Y: 1, Width: max(0, area.Width-2), Height: max(0, area.Height-2)}
	}
	return area
}

// Fire delivers a synthetic event to the widget's listeners, as if the user
// had produced it. It must be called on the UI goroutine.
func (o *Object) Fire(ev Event) {
	o.read()
	if ev.Widget == nil {
		ev.Widget = o
	}
	if ev.Type == EventModify {
		o.text = ev.Text
	}
	o.emit(ev)
}

func (o *Object) emit(ev Event) {
	for _, fn := range o.listeners[ev.Type] {
		fn(ev)
	}
}
