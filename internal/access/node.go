package access

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/syncaccess/internal/dispatch"
	"github.com/dshills/syncaccess/internal/logging"
	"github.com/dshills/syncaccess/internal/native"
)

// Extension is implemented by every layer above Node. The node calls these
// hooks on the UI goroutine, except CanCreate which may be called anywhere.
type Extension interface {
	// CanCreate reports whether the delegate may be realized now.
	CanCreate() bool

	// NewDelegate builds the native widget, realizing whatever it depends
	// on first. A nil widget with a nil error leaves the node unrealized.
	NewDelegate(ctx context.Context) (native.Widget, error)

	// Flush applies the layer's staged properties to a fresh delegate and
	// must finish with the node's FlushCore.
	Flush(w native.Widget)

	// ExecuteOperation handles operations the core does not know.
	// handled=false lets the operation fall through as unknown.
	ExecuteOperation(ctx context.Context, op Op, arg any) (result any, handled bool, err error)
}

// Event is delivered to listeners registered on a node.
type Event struct {
	Type   native.EventType
	Source *Node
	Text   string
}

// DispatchKey keeps one node's events in order on the event queue.
func (e Event) DispatchKey() string {
	return e.Source.ID().String()
}

// Listener receives node events.
type Listener func(Event)

type listenerReg struct {
	typ native.EventType
	fn  Listener
}

// Node is the thread-safe proxy for one native widget. Any goroutine may
// call its methods; every delegate access is marshaled onto the UI
// goroutine, one operation at a time.
type Node struct {
	id    uuid.UUID
	kind  native.Kind
	env   Env
	log   *logging.Logger
	owner Extension

	mu sync.Mutex // serializes callers; held across RunAndWait

	style    atomic.Uint32
	disposed atomic.Bool
	realized atomic.Bool
	state    atomic.Int32

	// Confined to the UI goroutine.
	pending      Op
	delegate     native.Widget
	staged       propMask
	text         string
	image        native.Image
	enabled      bool
	visible      bool
	listeners    []listenerReg
	stateFlushed bool
	coreFlushed  bool
}

// NewNode creates a node of the given kind. ext supplies creation and the
// operations beyond the core set; a node without one is never creatable.
func NewNode(env Env, kind native.Kind, style native.Style, ext Extension) *Node {
	n := newNode(env, kind, style)
	n.owner = ext
	return n
}

// SetExtension replaces the layer that receives creation hooks and
// non-core operations. Wrapper types embedding a Control call it with
// themselves before the node is shared.
func (n *Node) SetExtension(ext Extension) {
	n.owner = ext
}

func newNode(env Env, kind native.Kind, style native.Style) *Node {
	n := &Node{
		id:      uuid.New(),
		kind:    kind,
		env:     env,
		enabled: true,
		visible: true,
	}
	n.log = env.logger().WithField("node", n.Label())
	n.style.Store(uint32(style))
	return n
}

// ID returns the node's identifier.
func (n *Node) ID() uuid.UUID { return n.id }

// Kind returns the native widget class the node realizes.
func (n *Node) Kind() native.Kind { return n.kind }

// Label returns a short human-readable name, kind#id-prefix.
func (n *Node) Label() string {
	return fmt.Sprintf("%s#%s", n.kind, n.id.String()[:8])
}

// Env returns the collaborators the node was built with.
func (n *Node) Env() Env { return n.env }

// State returns the lifecycle state.
func (n *Node) State() State { return State(n.state.Load()) }

// HasDelegate reports whether a live native widget backs the node.
func (n *Node) HasDelegate() bool { return n.realized.Load() && !n.disposed.Load() }

// Style returns the style flags. They are read once, at creation.
func (n *Node) Style() native.Style { return native.Style(n.style.Load()) }

// HasStyle reports whether every bit of flag is set.
func (n *Node) HasStyle(flag native.Style) bool { return n.Style().Has(flag) }

// SetFlag sets style bits. Changes after creation do not reach the delegate.
func (n *Node) SetFlag(flag native.Style) { n.style.Or(uint32(flag)) }

// UnsetFlag clears style bits.
func (n *Node) UnsetFlag(flag native.Style) { n.style.And(^uint32(flag)) }

// InvertFlag toggles style bits.
func (n *Node) InvertFlag(flag native.Style) {
	for {
		old := n.style.Load()
		if n.style.CompareAndSwap(old, old^uint32(flag)) {
			return
		}
	}
}

// Invoke executes op on the UI goroutine and waits for its result. Calls
// from other goroutines are serialized per node. A call made from inside a
// UI task runs inline. Protocol violations panic with *ProtocolError on the
// calling goroutine, wrapped in *dispatch.PanicError.
func (n *Node) Invoke(ctx context.Context, op Op, arg any) (any, error) {
	if n.env.Dispatcher == nil {
		return nil, n.fail(op.String(), ErrNoDispatcher)
	}
	if !dispatch.OnUIThread(ctx) {
		n.mu.Lock()
		defer n.mu.Unlock()
	}

	var result any
	err := n.env.Dispatcher.RunAndWait(ctx, func(ctx context.Context) error {
		n.checkReady(op)
		n.pending = op
		defer func() { n.pending = OpNone }()

		var err error
		result, err = n.execute(ctx, op, arg)
		return err
	})
	return result, err
}

func (n *Node) checkReady(op Op) {
	if n.pending != OpNone {
		panic(&ProtocolError{
			Op:   op,
			Node: n.Label(),
			Err:  fmt.Errorf("%w: %s", ErrOperationPending, n.pending),
		})
	}
}

func (n *Node) execute(ctx context.Context, op Op, arg any) (any, error) {
	switch op {
	case OpCreate:
		return nil, n.realize(ctx)
	case OpDispose:
		n.release()
		return nil, nil
	case OpIsDisposed:
		return n.refreshDisposed(), nil
	}

	d := n.live()
	if op.IsMutator() && n.disposed.Load() {
		n.log.Debug("dropping %s on disposed node", op)
		return nil, nil
	}

	switch op {
	case OpSetText:
		n.text = arg.(string)
		n.staged |= propText
		if d != nil {
			d.SetText(n.text)
		}
	case OpGetText:
		if d != nil {
			n.text = d.Text()
		}
		return n.text, nil

	case OpSetImage:
		n.image = arg.(native.Image)
		n.staged |= propImage
		if d != nil {
			d.SetImage(n.image)
		}
	case OpGetImage:
		if d != nil {
			n.image = d.Image()
		}
		return n.image, nil

	case OpSetEnabled:
		n.enabled = arg.(bool)
		n.staged |= propEnabled
		if d != nil {
			d.SetEnabled(n.enabled)
		}
	case OpGetEnabled:
		if n.disposed.Load() {
			return false, nil
		}
		if d != nil {
			n.enabled = d.Enabled()
		}
		return n.enabled, nil

	case OpSetVisible:
		n.visible = arg.(bool)
		n.staged |= propVisible
		if d != nil {
			d.SetVisible(n.visible)
		}
	case OpGetVisible:
		if n.disposed.Load() {
			return false, nil
		}
		if d != nil {
			n.visible = d.Visible()
		}
		return n.visible, nil

	case OpAddListener:
		reg := arg.(listenerReg)
		n.listeners = append(n.listeners, reg)
		if d != nil {
			d.AddListener(reg.typ, n.bridge(reg))
		}

	default:
		if n.owner != nil {
			if result, handled, err := n.owner.ExecuteOperation(ctx, op, arg); handled {
				return result, err
			}
		}
		panic(&ProtocolError{Op: op, Node: n.Label(), Err: ErrUnknownOp})
	}
	return nil, nil
}

// Delegate returns the live native widget, or nil when the node is
// unrealized or its widget has been destroyed. UI goroutine only.
func (n *Node) Delegate() native.Widget { return n.live() }

// live returns the delegate if it still exists natively. A delegate found
// destroyed marks the node disposed.
func (n *Node) live() native.Widget {
	if n.delegate == nil {
		return nil
	}
	if n.delegate.IsDisposed() {
		n.log.Debug("native widget %d disposed underneath the node", n.delegate.ID())
		n.markDisposed()
		n.delegate = nil
		n.realized.Store(false)
		return nil
	}
	return n.delegate
}

// realize creates and flushes the delegate. UI goroutine only. A node is
// realized at most once.
func (n *Node) realize(ctx context.Context) error {
	if n.delegate != nil {
		return nil
	}
	if n.disposed.Load() {
		return n.fail("create", ErrDisposed)
	}
	if n.owner == nil || !n.owner.CanCreate() {
		return n.fail("create", ErrNotCreatable)
	}

	n.setState(StateCreating)
	w, err := n.owner.NewDelegate(ctx)
	if err != nil {
		n.setState(StateUncreated)
		return n.fail("create", err)
	}
	if w == nil {
		n.setState(StateUncreated)
		n.log.Warn("no parent chain at creation, staying unrealized")
		return nil
	}

	n.delegate = w
	n.owner.Flush(w)
	n.FlushCore(w)
	n.realized.Store(true)
	n.setState(StateCreated)
	n.log.Debug("realized as native widget %d", w.ID())

	// Dispose raced with creation and saw no delegate.
	if n.disposed.Load() {
		n.release()
	}
	return nil
}

// FlushState applies staged enabled and visible values. Extensions that
// order it explicitly call it from Flush; otherwise FlushCore does.
// UI goroutine only.
func (n *Node) FlushState(w native.Widget) {
	if n.stateFlushed {
		return
	}
	n.stateFlushed = true
	if n.staged.has(propEnabled) {
		w.SetEnabled(n.enabled)
	}
	if n.staged.has(propVisible) {
		w.SetVisible(n.visible)
	}
}

// FlushCore applies the core staged properties to a fresh delegate: text,
// image, then listener registration. UI goroutine only.
func (n *Node) FlushCore(w native.Widget) {
	if n.coreFlushed {
		return
	}
	n.coreFlushed = true
	n.FlushState(w)
	if n.staged.has(propText) {
		w.SetText(n.text)
	}
	if n.staged.has(propImage) {
		w.SetImage(n.image)
	}
	for _, reg := range n.listeners {
		w.AddListener(reg.typ, n.bridge(reg))
	}
}

// bridge adapts a node listener to the native callback. Delivery goes
// through the event queue when one is configured.
func (n *Node) bridge(reg listenerReg) native.Listener {
	return func(ev native.Event) {
		if ev.Type == native.EventModify {
			n.text = ev.Text
		}
		e := Event{Type: ev.Type, Source: n, Text: ev.Text}
		if n.env.Events == nil {
			reg.fn(e)
			return
		}
		h := dispatch.HandlerFunc(func(context.Context, any) error {
			reg.fn(e)
			return nil
		})
		if err := n.env.Events.Enqueue(context.Background(), e, h); err != nil {
			n.log.Warn("dropping %s event: %v", ev.Type, err)
		}
	}
}

// release destroys the delegate. UI goroutine only.
func (n *Node) release() {
	n.markDisposed()
	if n.delegate != nil {
		if !n.delegate.IsDisposed() {
			n.delegate.Dispose()
		}
		n.delegate = nil
	}
	n.realized.Store(false)
}

func (n *Node) refreshDisposed() bool {
	n.live()
	return n.disposed.Load()
}

// subtree is implemented by nodes whose disposal covers their descendants.
type subtree interface {
	markSubtreeDisposed()
}

// markDisposed flips the node to disposed and reports whether this call
// did it. Safe from any goroutine.
func (n *Node) markDisposed() bool {
	if n.disposed.Swap(true) {
		return false
	}
	n.state.Store(int32(StateDisposed))
	return true
}

func (n *Node) setState(s State) {
	for {
		cur := n.state.Load()
		if State(cur) == StateDisposed {
			return
		}
		if n.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

func (n *Node) fail(op string, err error) error {
	return &NodeError{Op: op, Node: n.Label(), Err: err}
}

// Create realizes the delegate. It fails with ErrNotCreatable when the node
// cannot be created yet and is a no-op once realized.
func (n *Node) Create(ctx context.Context) error {
	if n.owner == nil || !n.owner.CanCreate() {
		return n.fail("create", ErrNotCreatable)
	}
	_, err := n.Invoke(ctx, OpCreate, nil)
	return err
}

// Dispose marks the node disposed and destroys its delegate, if any.
// Disposal is terminal and idempotent.
func (n *Node) Dispose(ctx context.Context) error {
	first := n.markDisposed()
	if tree, ok := n.owner.(subtree); ok {
		tree.markSubtreeDisposed()
	}
	if !first || !n.realized.Load() {
		return nil
	}
	n.log.Debug("disposing")
	_, err := n.Invoke(ctx, OpDispose, nil)
	return err
}

// IsDisposed reports whether the node is disposed, asking the native side
// when a delegate exists.
func (n *Node) IsDisposed(ctx context.Context) bool {
	if n.disposed.Load() {
		return true
	}
	if !n.realized.Load() {
		return false
	}
	v, err := n.Invoke(ctx, OpIsDisposed, nil)
	if err != nil {
		n.log.Warn("disposed query failed: %v", err)
		return n.disposed.Load()
	}
	return v.(bool)
}

// query runs a read operation and converts its result.
func query[T any](ctx context.Context, n *Node, op Op) (T, error) {
	var zero T
	v, err := n.Invoke(ctx, op, nil)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, nil
	}
	return t, nil
}

func (n *Node) set(ctx context.Context, op Op, v any) error {
	_, err := n.Invoke(ctx, op, v)
	return err
}

// SetText sets the widget text.
func (n *Node) SetText(ctx context.Context, text string) error {
	return n.set(ctx, OpSetText, text)
}

// Text returns the widget text, or the staged text when unrealized.
func (n *Node) Text(ctx context.Context) (string, error) {
	return query[string](ctx, n, OpGetText)
}

// SetImage sets the widget image.
func (n *Node) SetImage(ctx context.Context, img native.Image) error {
	return n.set(ctx, OpSetImage, img)
}

// Image returns the widget image.
func (n *Node) Image(ctx context.Context) (native.Image, error) {
	return query[native.Image](ctx, n, OpGetImage)
}

// SetEnabled enables or disables the widget.
func (n *Node) SetEnabled(ctx context.Context, enabled bool) error {
	return n.set(ctx, OpSetEnabled, enabled)
}

// Enabled reports whether the widget is enabled. Always false once disposed.
func (n *Node) Enabled(ctx context.Context) (bool, error) {
	if n.disposed.Load() {
		return false, nil
	}
	return query[bool](ctx, n, OpGetEnabled)
}

// SetVisible shows or hides the widget.
func (n *Node) SetVisible(ctx context.Context, visible bool) error {
	return n.set(ctx, OpSetVisible, visible)
}

// Visible reports whether the widget is visible. Always false once disposed.
func (n *Node) Visible(ctx context.Context) (bool, error) {
	if n.disposed.Load() {
		return false, nil
	}
	return query[bool](ctx, n, OpGetVisible)
}

// AddListener registers fn for events of type t. Registration made before
// creation is applied when the delegate is realized.
func (n *Node) AddListener(ctx context.Context, t native.EventType, fn Listener) error {
	if fn == nil {
		return nil
	}
	return n.set(ctx, OpAddListener, listenerReg{typ: t, fn: fn})
}
