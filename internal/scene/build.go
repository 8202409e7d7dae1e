package scene

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"

	"github.com/dshills/syncaccess/internal/access"
	"github.com/dshills/syncaccess/internal/native"
)

// Scene is a built access tree with its nodes indexed by id.
type Scene struct {
	Shell *access.Shell

	controls   map[string]*access.Control
	composites map[string]*access.Composite
	order      []string
}

// EventHandler receives listener events from every control in a scene.
type EventHandler func(id string, ev access.Event)

type buildOptions struct {
	concurrent bool
	handler    EventHandler
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithConcurrentAttach attaches every control from its own goroutine in
// shuffled order. Siblings are then created, and laid out, in whatever
// order their attachments win.
func WithConcurrentAttach() BuildOption {
	return func(o *buildOptions) {
		o.concurrent = true
	}
}

// WithEventHandler registers h for selection and modify events on every
// control.
func WithEventHandler(h EventHandler) BuildOption {
	return func(o *buildOptions) {
		o.handler = h
	}
}

// Build creates the nodes of doc, stages their properties, realizes the
// shell and attaches every control. Controls whose parent chain was not
// live when they were attached are created afterwards, bottom-up from the
// leaves. Composites are laid out top-down last.
func Build(ctx context.Context, env access.Env, doc *Document, opts ...BuildOption) (*Scene, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	style, err := env.ParseStyle(doc.Shell.Style)
	if err != nil {
		return nil, &DefError{ID: doc.Shell.ID, Field: "style", Err: err}
	}
	s := &Scene{
		Shell:      access.NewShell(env, style),
		controls:   make(map[string]*access.Control, len(doc.Controls)+1),
		composites: make(map[string]*access.Composite),
		order:      make([]string, 0, len(doc.Controls)+1),
	}
	s.add(doc.Shell.ID, &s.Shell.Control, &s.Shell.Composite)

	for _, def := range doc.Controls {
		style, err := env.ParseStyle(def.Style)
		if err != nil {
			return nil, &DefError{ID: def.ID, Field: "style", Err: err}
		}
		kind := native.Kind(def.Kind)
		if kind.IsContainer() {
			c := access.NewComposite(env, kind, style)
			s.add(def.ID, &c.Control, c)
		} else {
			s.add(def.ID, access.NewControl(env, kind, style), nil)
		}
	}

	defs := append([]Def{doc.Shell}, doc.Controls...)
	for _, def := range defs {
		if err := s.stage(ctx, def, o.handler); err != nil {
			return nil, err
		}
	}

	if err := s.Shell.Create(ctx); err != nil {
		return nil, err
	}
	if err := s.attach(ctx, doc.Controls, o.concurrent); err != nil {
		return nil, err
	}

	for _, def := range doc.Controls {
		c := s.controls[def.ID]
		if c.HasDelegate() || !c.CanCreate() {
			continue
		}
		if err := c.Create(ctx); err != nil {
			return nil, &DefError{ID: def.ID, Field: "create", Err: err}
		}
	}

	if err := s.layout(ctx, doc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) add(id string, c *access.Control, comp *access.Composite) {
	s.controls[id] = c
	if comp != nil {
		s.composites[id] = comp
	}
	s.order = append(s.order, id)
}

// attach links every control to its parent, in document order or
// concurrently in shuffled order.
func (s *Scene) attach(ctx context.Context, defs []Def, concurrent bool) error {
	if !concurrent {
		for _, def := range defs {
			if err := s.controls[def.ID].SetParentAccess(ctx, s.composites[def.Parent]); err != nil {
				return &DefError{ID: def.ID, Field: "parent", Err: err}
			}
		}
		return nil
	}

	shuffled := append([]Def(nil), defs...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	p := pool.New().WithErrors()
	for _, def := range shuffled {
		p.Go(func() error {
			if err := s.controls[def.ID].SetParentAccess(ctx, s.composites[def.Parent]); err != nil {
				return &DefError{ID: def.ID, Field: "parent", Err: err}
			}
			return nil
		})
	}
	return p.Wait()
}

// layout arranges composites parents first so children see their final
// bounds.
func (s *Scene) layout(ctx context.Context, doc *Document) error {
	parents := map[string]string{}
	for _, def := range doc.Controls {
		parents[def.ID] = def.Parent
	}
	ids := make([]string, 0, len(s.composites))
	for id := range s.composites {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		di, dj := doc.depth(ids[i], parents), doc.depth(ids[j], parents)
		if di != dj {
			return di < dj
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		if err := s.composites[id].Layout(ctx); err != nil {
			return &DefError{ID: id, Field: "layout", Err: err}
		}
	}
	return nil
}

// stage applies the described properties before creation.
func (s *Scene) stage(ctx context.Context, def Def, h EventHandler) error {
	c := s.controls[def.ID]
	fail := func(field string, err error) error {
		return &DefError{ID: def.ID, Field: field, Err: err}
	}

	if def.Text != "" {
		if err := c.SetText(ctx, def.Text); err != nil {
			return fail("text", err)
		}
	}
	if def.ToolTip != "" {
		if err := c.SetToolTip(ctx, def.ToolTip); err != nil {
			return fail("tooltip", err)
		}
	}
	if def.Image != nil {
		img, err := def.Image.image()
		if err != nil {
			return fail("image", err)
		}
		if err := c.SetImage(ctx, img); err != nil {
			return fail("image", err)
		}
	}
	if def.Size != nil {
		width, height, err := pair(def.Size)
		if err != nil {
			return fail("size", err)
		}
		if err := c.SetSize(ctx, native.Size{Width: width, Height: height}); err != nil {
			return fail("size", err)
		}
	}
	if def.Location != nil {
		x, y, err := pair(def.Location)
		if err != nil {
			return fail("location", err)
		}
		if err := c.SetLocation(ctx, native.Point{X: x, Y: y}); err != nil {
			return fail("location", err)
		}
	}
	if def.Enabled != nil {
		if err := c.SetEnabled(ctx, *def.Enabled); err != nil {
			return fail("enabled", err)
		}
	}
	if def.Visible != nil {
		if err := c.SetVisible(ctx, *def.Visible); err != nil {
			return fail("visible", err)
		}
	}
	if def.Foreground != "" {
		col, err := ParseColor(def.Foreground)
		if err != nil {
			return fail("fg", err)
		}
		if err := c.SetForeground(ctx, col); err != nil {
			return fail("fg", err)
		}
	}
	if def.Background != "" {
		col, err := ParseColor(def.Background)
		if err != nil {
			return fail("bg", err)
		}
		if err := c.SetBackground(ctx, col); err != nil {
			return fail("bg", err)
		}
	}
	if f := def.Font; f != nil {
		font := native.Font{Name: f.Name, Size: f.Size, Bold: f.Bold, Italic: f.Italic, Underline: f.Underline}
		if err := c.SetFont(ctx, font); err != nil {
			return fail("font", err)
		}
	}
	if ld := def.LayoutData; ld != nil {
		data := native.LayoutData{Exclude: ld.Exclude, Fill: ld.Fill, Grow: ld.Grow}
		if err := c.SetLayoutData(ctx, data); err != nil {
			return fail("layoutData", err)
		}
	}
	if def.Layout != nil {
		layout, err := def.Layout.layout()
		if err != nil {
			return fail("layout", err)
		}
		if err := s.composites[def.ID].SetLayout(ctx, layout); err != nil {
			return fail("layout", err)
		}
	}

	if h != nil {
		id := def.ID
		for _, t := range []native.EventType{native.EventSelection, native.EventModify} {
			if err := c.AddListener(ctx, t, func(ev access.Event) { h(id, ev) }); err != nil {
				return fail("listener", err)
			}
		}
	}
	return nil
}

func pair(v []int) (int, int, error) {
	if len(v) != 2 {
		return 0, 0, fmt.Errorf("%w: want two numbers, got %d", ErrInvalidValue, len(v))
	}
	if v[0] < 0 || v[1] < 0 {
		return 0, 0, fmt.Errorf("%w: negative value %v", ErrInvalidValue, v)
	}
	return v[0], v[1], nil
}

func (d *ImageDef) image() (native.Image, error) {
	img := native.Image{Name: d.Name}
	if d.Glyph == "" {
		return img, nil
	}
	r, n := utf8.DecodeRuneInString(d.Glyph)
	if n != len(d.Glyph) {
		return img, fmt.Errorf("%w: glyph %q is not a single character", ErrInvalidValue, d.Glyph)
	}
	img.Glyph = r
	return img, nil
}

func (d *LayoutDef) layout() (native.Layout, error) {
	switch d.Type {
	case "", "stack":
		return native.StackLayout{Vertical: d.Vertical, Spacing: d.Spacing, Margin: d.Margin}, nil
	default:
		return nil, fmt.Errorf("%w: unknown layout %q", ErrInvalidValue, d.Type)
	}
}

var namedColors = map[string]native.Color{
	"default": native.ColorDefault,
	"black":   native.ColorBlack,
	"white":   native.ColorWhite,
	"red":     native.ColorRed,
	"green":   native.ColorGreen,
	"blue":    native.ColorBlue,
	"gray":    native.ColorGray,
	"grey":    native.ColorGray,
}

// ParseColor accepts a color name or a "#rgb"/"#rrggbb" hex value.
func ParseColor(s string) (native.Color, error) {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	c, err := native.ColorFromHex(s)
	if err != nil {
		return native.Color{}, fmt.Errorf("%w: color %q", ErrInvalidValue, s)
	}
	return c, nil
}

// Control returns the node with the given id. The shell is included.
func (s *Scene) Control(id string) (*access.Control, bool) {
	c, ok := s.controls[id]
	return c, ok
}

// Composite returns the container node with the given id.
func (s *Scene) Composite(id string) (*access.Composite, bool) {
	c, ok := s.composites[id]
	return c, ok
}

// IDs returns every node id, shell first, in document order.
func (s *Scene) IDs() []string {
	return append([]string(nil), s.order...)
}

// Dispose disposes the shell and with it the whole tree.
func (s *Scene) Dispose(ctx context.Context) error {
	return s.Shell.Dispose(ctx)
}
