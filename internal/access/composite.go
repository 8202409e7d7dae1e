package access

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/syncaccess/internal/native"
)

// Composite is a control that holds child controls and lays them out.
type Composite struct {
	Control

	childMu  sync.Mutex
	children []*Control

	// Confined to the UI goroutine.
	layout native.Layout
}

// NewComposite creates an unattached container of the given kind.
func NewComposite(env Env, kind native.Kind, style native.Style) *Composite {
	c := &Composite{}
	c.init(env, kind, style)
	c.owner = c
	return c
}

func (c *Composite) composite() *Composite { return c }

// Children returns the attached child controls in attach order.
func (c *Composite) Children() []*Control {
	c.childMu.Lock()
	defer c.childMu.Unlock()
	return append([]*Control(nil), c.children...)
}

func (c *Composite) addChild(child *Control) {
	c.childMu.Lock()
	defer c.childMu.Unlock()
	for _, existing := range c.children {
		if existing == child {
			return
		}
	}
	c.children = append(c.children, child)
}

func (c *Composite) removeChild(child *Control) {
	c.childMu.Lock()
	defer c.childMu.Unlock()
	for i, existing := range c.children {
		if existing == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

// markSubtreeDisposed marks every descendant disposed. Their delegates go
// with the composite's own.
func (c *Composite) markSubtreeDisposed() {
	for _, child := range c.Children() {
		child.markDisposed()
		if tree, ok := child.owner.(subtree); ok {
			tree.markSubtreeDisposed()
		}
	}
}

// SetLayout sets the layout manager applied by Layout.
func (c *Composite) SetLayout(ctx context.Context, layout native.Layout) error {
	return c.set(ctx, OpSetLayout, layout)
}

// Layout arranges the children. It is a no-op before creation.
func (c *Composite) Layout(ctx context.Context) error {
	return c.set(ctx, OpLayout, nil)
}

// Tree returns an indented description of the composite and its
// descendants, one node per line.
func (c *Composite) Tree(ctx context.Context) (string, error) {
	return query[string](ctx, c.Node, OpDump)
}

// Flush applies staged control and core properties, then the layout.
func (c *Composite) Flush(w native.Widget) {
	c.flushControl(w)
	c.FlushCore(w)
	if !c.props.has(propLayout) {
		return
	}
	if ct, ok := w.(native.Container); ok {
		ct.SetLayout(c.layout)
	}
}

// ExecuteOperation handles the composite operations and defers the rest to
// Control.
func (c *Composite) ExecuteOperation(ctx context.Context, op Op, arg any) (any, bool, error) {
	switch op {
	case OpSetLayout:
		c.layout, _ = arg.(native.Layout)
		c.props |= propLayout
		if ct, ok := c.live().(native.Container); ok {
			ct.SetLayout(c.layout)
		}
	case OpLayout:
		if ct, ok := c.live().(native.Container); ok {
			ct.Arrange()
		}
	case OpDump:
		var b strings.Builder
		c.dump(&b, 0)
		return b.String(), true, nil
	default:
		return c.Control.ExecuteOperation(ctx, op, arg)
	}
	return nil, true, nil
}

// dump writes the subtree from staged state. UI goroutine only.
func (c *Composite) dump(b *strings.Builder, depth int) {
	writeNode(b, c.Node, depth)
	for _, child := range c.Children() {
		if sub, ok := child.owner.(interface {
			dump(*strings.Builder, int)
		}); ok {
			sub.dump(b, depth+1)
			continue
		}
		writeNode(b, child.Node, depth+1)
	}
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	fmt.Fprintf(b, "%s%s %s", strings.Repeat("  ", depth), n.Label(), n.State())
	if n.text != "" {
		fmt.Fprintf(b, " %q", n.text)
	}
	b.WriteByte('\n')
}

// Shell is a top-level composite. It has no parent and may be created at
// any time.
type Shell struct {
	Composite
}

// NewShell creates an unrealized shell.
func NewShell(env Env, style native.Style) *Shell {
	s := &Shell{}
	s.init(env, native.KindShell, style)
	s.owner = s
	return s
}

// CanCreate always reports true: a shell needs no ancestor.
func (s *Shell) CanCreate() bool { return true }

// NewDelegate creates the top-level native widget.
func (s *Shell) NewDelegate(ctx context.Context) (native.Widget, error) {
	return s.env.Toolkit.Create(native.KindShell, nil, s.Style())
}

// ExecuteOperation rejects parenting and defers the rest to Composite.
func (s *Shell) ExecuteOperation(ctx context.Context, op Op, arg any) (any, bool, error) {
	if op == OpSetParent {
		return nil, true, s.fail("setParent", ErrShellParent)
	}
	return s.Composite.ExecuteOperation(ctx, op, arg)
}

// Realizer is the part of a node that owns a native delegate.
type Realizer interface {
	HasDelegate() bool
	CanCreate() bool
	Create(ctx context.Context) error
	Dispose(ctx context.Context) error
}

var (
	_ Realizer  = (*Control)(nil)
	_ Realizer  = (*Composite)(nil)
	_ Realizer  = (*Shell)(nil)
	_ Extension = (*Control)(nil)
	_ Extension = (*Composite)(nil)
	_ Extension = (*Shell)(nil)
	_ Parent    = (*Composite)(nil)
	_ Parent    = (*Shell)(nil)
)
