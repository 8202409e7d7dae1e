package access

import (
	"context"
	"sync/atomic"

	"github.com/dshills/syncaccess/internal/native"
)

// Parent is implemented by nodes that can hold controls.
type Parent interface {
	composite() *Composite
}

// Control is a node that lives inside a parent composite. Its delegate is
// created lazily, bottom-up: only once some ancestor has a live delegate.
type Control struct {
	*Node

	parent atomic.Pointer[Composite]

	// Confined to the UI goroutine.
	props      propMask
	size       native.Size
	location   native.Point
	toolTip    string
	font       native.Font
	foreground native.Color
	background native.Color
	layoutData native.LayoutData
}

// NewControl creates an unattached control of the given kind.
func NewControl(env Env, kind native.Kind, style native.Style) *Control {
	c := &Control{}
	c.init(env, kind, style)
	c.owner = c
	return c
}

func (c *Control) init(env Env, kind native.Kind, style native.Style) {
	c.Node = newNode(env, kind, style)
	c.foreground = native.ColorDefault
	c.background = native.ColorDefault
}

// Parent returns the composite the control is attached to, nil if none.
func (c *Control) Parent() *Composite { return c.parent.Load() }

// SetParentAccess attaches the control to p. When p already has a live
// delegate the control is realized immediately; otherwise it waits for an
// ancestor to be created. Attaching never realizes p.
func (c *Control) SetParentAccess(ctx context.Context, p Parent) error {
	var comp *Composite
	if p != nil {
		comp = p.composite()
	}
	return c.set(ctx, OpSetParent, comp)
}

// CanCreate reports whether some ancestor already has a live delegate.
func (c *Control) CanCreate() bool {
	for p := c.parent.Load(); p != nil; p = p.parent.Load() {
		if p.HasDelegate() {
			return true
		}
	}
	return false
}

// NewDelegate realizes the parent chain and then the control itself.
func (c *Control) NewDelegate(ctx context.Context) (native.Widget, error) {
	p := c.parent.Load()
	if p == nil {
		return nil, nil
	}
	if err := p.realize(ctx); err != nil {
		return nil, err
	}
	pw := p.live()
	if pw == nil {
		return nil, nil
	}
	return c.env.Toolkit.Create(c.kind, pw, c.Style())
}

// Flush applies staged control properties, then the core ones.
func (c *Control) Flush(w native.Widget) {
	c.flushControl(w)
	c.FlushCore(w)
}

func (c *Control) flushControl(w native.Widget) {
	if c.props.has(propFont) {
		w.SetFont(c.font)
	}
	if c.props.has(propForeground) {
		w.SetForeground(c.foreground)
	}
	if c.props.has(propBackground) {
		w.SetBackground(c.background)
	}
	if c.props.has(propSize) {
		w.SetSize(c.size)
	}
	if c.props.has(propLocation) {
		w.SetLocation(c.location)
	}
	if c.props.has(propToolTip) {
		w.SetToolTip(c.toolTip)
	}
	c.FlushState(w)
	if c.props.has(propLayoutData) {
		w.SetLayoutData(c.layoutData)
	}
}

// ExecuteOperation handles the control operations.
func (c *Control) ExecuteOperation(ctx context.Context, op Op, arg any) (any, bool, error) {
	d := c.live()
	switch op {
	case OpSetParent:
		return nil, true, c.attach(ctx, arg.(*Composite))

	case OpSetSize:
		c.size = arg.(native.Size)
		c.props |= propSize
		if d != nil {
			d.SetSize(c.size)
		}
	case OpGetSize:
		if d != nil {
			c.size = d.Size()
		}
		return c.size, true, nil

	case OpSetLocation:
		c.location = arg.(native.Point)
		c.props |= propLocation
		if d != nil {
			d.SetLocation(c.location)
		}
	case OpGetLocation:
		if d != nil {
			c.location = d.Location()
		}
		return c.location, true, nil

	case OpSetToolTip:
		c.toolTip = arg.(string)
		c.props |= propToolTip
		if d != nil {
			d.SetToolTip(c.toolTip)
		}
	case OpGetToolTip:
		if d != nil {
			c.toolTip = d.ToolTip()
		}
		return c.toolTip, true, nil

	case OpSetFont:
		c.font = arg.(native.Font)
		c.props |= propFont
		if d != nil {
			d.SetFont(c.font)
		}
	case OpGetFont:
		if d != nil {
			c.font = d.Font()
		}
		return c.font, true, nil

	case OpSetForeground:
		c.foreground = arg.(native.Color)
		c.props |= propForeground
		if d != nil {
			d.SetForeground(c.foreground)
		}
	case OpGetForeground:
		if d != nil {
			c.foreground = d.Foreground()
		}
		return c.foreground, true, nil

	case OpSetBackground:
		c.background = arg.(native.Color)
		c.props |= propBackground
		if d != nil {
			d.SetBackground(c.background)
		}
	case OpGetBackground:
		if d != nil {
			c.background = d.Background()
		}
		return c.background, true, nil

	case OpSetLayoutData:
		c.layoutData = arg.(native.LayoutData)
		c.props |= propLayoutData
		if d != nil {
			d.SetLayoutData(c.layoutData)
		}
	case OpGetLayoutData:
		if d != nil {
			c.layoutData = d.LayoutData()
		}
		return c.layoutData, true, nil

	default:
		return nil, false, nil
	}
	return nil, true, nil
}

// attach records the parent link and realizes the control when the parent
// is live. UI goroutine only.
func (c *Control) attach(ctx context.Context, p *Composite) error {
	old := c.parent.Load()
	if old != p && c.delegate != nil {
		return c.fail("setParent", ErrReparent)
	}
	for q := p; q != nil; q = q.parent.Load() {
		if &q.Control == c {
			return c.fail("setParent", ErrCycle)
		}
	}
	if old != nil && old != p {
		old.removeChild(c)
	}
	c.parent.Store(p)
	if p == nil {
		return nil
	}
	p.addChild(c)

	if c.delegate == nil && !c.disposed.Load() && p.live() != nil {
		return c.realize(ctx)
	}
	return nil
}

// SetSize sets the widget size.
func (c *Control) SetSize(ctx context.Context, size native.Size) error {
	return c.set(ctx, OpSetSize, size)
}

// Size returns the widget size.
func (c *Control) Size(ctx context.Context) (native.Size, error) {
	return query[native.Size](ctx, c.Node, OpGetSize)
}

// SetLocation moves the widget within its parent.
func (c *Control) SetLocation(ctx context.Context, p native.Point) error {
	return c.set(ctx, OpSetLocation, p)
}

// Location returns the widget position within its parent.
func (c *Control) Location(ctx context.Context) (native.Point, error) {
	return query[native.Point](ctx, c.Node, OpGetLocation)
}

// SetToolTip sets the hover text.
func (c *Control) SetToolTip(ctx context.Context, tip string) error {
	return c.set(ctx, OpSetToolTip, tip)
}

// ToolTip returns the hover text.
func (c *Control) ToolTip(ctx context.Context) (string, error) {
	return query[string](ctx, c.Node, OpGetToolTip)
}

// SetFont sets the text font.
func (c *Control) SetFont(ctx context.Context, font native.Font) error {
	return c.set(ctx, OpSetFont, font)
}

// Font returns the text font.
func (c *Control) Font(ctx context.Context) (native.Font, error) {
	return query[native.Font](ctx, c.Node, OpGetFont)
}

// SetForeground sets the foreground color.
func (c *Control) SetForeground(ctx context.Context, color native.Color) error {
	return c.set(ctx, OpSetForeground, color)
}

// Foreground returns the foreground color.
func (c *Control) Foreground(ctx context.Context) (native.Color, error) {
	return query[native.Color](ctx, c.Node, OpGetForeground)
}

// SetBackground sets the background color.
func (c *Control) SetBackground(ctx context.Context, color native.Color) error {
	return c.set(ctx, OpSetBackground, color)
}

// Background returns the background color.
func (c *Control) Background(ctx context.Context) (native.Color, error) {
	return query[native.Color](ctx, c.Node, OpGetBackground)
}

// SetLayoutData sets the hints the parent's layout reads.
func (c *Control) SetLayoutData(ctx context.Context, data native.LayoutData) error {
	return c.set(ctx, OpSetLayoutData, data)
}

// LayoutData returns the layout hints.
func (c *Control) LayoutData(ctx context.Context) (native.LayoutData, error) {
	return query[native.LayoutData](ctx, c.Node, OpGetLayoutData)
}
