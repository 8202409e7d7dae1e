package script

import (
	"context"
	"fmt"
	"io"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/syncaccess/internal/access"
	"github.com/dshills/syncaccess/internal/logging"
	"github.com/dshills/syncaccess/internal/native"
	"github.com/dshills/syncaccess/internal/scene"
)

// Driver exposes node construction and operations to Lua scripts. Nodes
// are named by string ids chosen by the script:
//
//	shell("main")
//	control("label", "greeting")
//	set_text("greeting", "hello")
//	attach("greeting", "main")
//	create("main")
//	create("greeting")
//	print(text("greeting"), created("greeting"))
//
// Node errors are raised as Lua errors and can be caught with pcall.
type Driver struct {
	state *State
	env   access.Env
	log   *logging.Logger

	controls   map[string]*access.Control
	composites map[string]*access.Composite
}

// Option configures a Driver.
type Option func(*driverOptions)

type driverOptions struct {
	out io.Writer
	log *logging.Logger
}

// WithOutput sends the script's print output to w.
func WithOutput(w io.Writer) Option {
	return func(o *driverOptions) {
		o.out = w
	}
}

// WithLogger sets the logger for script diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(o *driverOptions) {
		o.log = l
	}
}

// NewDriver creates a Lua state with the node API installed.
func NewDriver(env access.Env, opts ...Option) *Driver {
	o := driverOptions{out: io.Discard, log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Driver{
		state:      NewState(o.out),
		env:        env,
		log:        o.log.WithComponent("script"),
		controls:   make(map[string]*access.Control),
		composites: make(map[string]*access.Composite),
	}

	for name, fn := range map[string]lua.LGFunction{
		"shell":       d.luaShell,
		"control":     d.luaControl,
		"attach":      d.luaAttach,
		"create":      d.luaCreate,
		"created":     d.luaCreated,
		"set_text":    d.luaSetText,
		"text":        d.luaText,
		"set_size":    d.luaSetSize,
		"size":        d.luaSize,
		"set_visible": d.luaSetVisible,
		"visible":     d.luaVisible,
		"set_enabled": d.luaSetEnabled,
		"enabled":     d.luaEnabled,
		"dispose":     d.luaDispose,
		"disposed":    d.luaDisposed,
		"layout":      d.luaLayout,
		"tree":        d.luaTree,
		"scene":       d.luaScene,
	} {
		d.state.Register(name, fn)
	}
	return d
}

// Run executes code.
func (d *Driver) Run(ctx context.Context, code string) error {
	return d.state.DoString(ctx, code)
}

// RunFile executes the script at path.
func (d *Driver) RunFile(ctx context.Context, path string) error {
	d.log.Debug("running %s", path)
	return d.state.DoFile(ctx, path)
}

// Control returns the node a script registered under id.
func (d *Driver) Control(id string) (*access.Control, bool) {
	c, ok := d.controls[id]
	return c, ok
}

// Composite returns the composite a script registered under id.
func (d *Driver) Composite(id string) (*access.Composite, error) {
	if c, ok := d.composites[id]; ok {
		return c, nil
	}
	if _, ok := d.controls[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNotComposite, id)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
}

// Global returns a global variable of the script.
func (d *Driver) Global(name string) lua.LValue {
	return d.state.Global(name)
}

// Close releases the Lua state. Nodes are left as they are.
func (d *Driver) Close() error {
	return d.state.Close()
}

func ctxOf(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// raise converts err into a Lua error.
func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func (d *Driver) register(L *lua.LState, id string, c *access.Control, comp *access.Composite) {
	if _, dup := d.controls[id]; dup {
		raise(L, fmt.Errorf("%w: %q", ErrDuplicateNode, id))
	}
	d.controls[id] = c
	if comp != nil {
		d.composites[id] = comp
	}
}

func (d *Driver) node(L *lua.LState, n int) *access.Control {
	id := L.CheckString(n)
	c, ok := d.controls[id]
	if !ok {
		raise(L, fmt.Errorf("%w: %q", ErrUnknownNode, id))
	}
	return c
}

func (d *Driver) composite(L *lua.LState, n int) *access.Composite {
	c, err := d.Composite(L.CheckString(n))
	raise(L, err)
	return c
}

func (d *Driver) style(L *lua.LState, n int) native.Style {
	s, err := d.env.ParseStyle(L.OptString(n, ""))
	raise(L, err)
	return s
}

// shell(id [, style]) -> id
func (d *Driver) luaShell(L *lua.LState) int {
	id := L.CheckString(1)
	s := access.NewShell(d.env, d.style(L, 2))
	d.register(L, id, &s.Control, &s.Composite)
	L.Push(lua.LString(id))
	return 1
}

// control(kind, id [, style]) -> id
func (d *Driver) luaControl(L *lua.LState) int {
	kind := native.Kind(L.CheckString(1))
	id := L.CheckString(2)
	style := d.style(L, 3)

	switch kind {
	case native.KindComposite, native.KindGroup:
		c := access.NewComposite(d.env, kind, style)
		d.register(L, id, &c.Control, c)
	case native.KindLabel, native.KindButton, native.KindText:
		d.register(L, id, access.NewControl(d.env, kind, style), nil)
	default:
		L.ArgError(1, fmt.Sprintf("%v %q", native.ErrUnknownKind, kind))
	}
	L.Push(lua.LString(id))
	return 1
}

// attach(child, parent)
func (d *Driver) luaAttach(L *lua.LState) int {
	child := d.node(L, 1)
	parent := d.composite(L, 2)
	raise(L, child.SetParentAccess(ctxOf(L), parent))
	return 0
}

// create(id)
func (d *Driver) luaCreate(L *lua.LState) int {
	raise(L, d.node(L, 1).Create(ctxOf(L)))
	return 0
}

// created(id) -> bool
func (d *Driver) luaCreated(L *lua.LState) int {
	L.Push(lua.LBool(d.node(L, 1).HasDelegate()))
	return 1
}

// set_text(id, text)
func (d *Driver) luaSetText(L *lua.LState) int {
	c := d.node(L, 1)
	raise(L, c.SetText(ctxOf(L), L.CheckString(2)))
	return 0
}

// text(id) -> string
func (d *Driver) luaText(L *lua.LState) int {
	text, err := d.node(L, 1).Text(ctxOf(L))
	raise(L, err)
	L.Push(lua.LString(text))
	return 1
}

// set_size(id, width, height)
func (d *Driver) luaSetSize(L *lua.LState) int {
	c := d.node(L, 1)
	size := native.Size{Width: L.CheckInt(2), Height: L.CheckInt(3)}
	raise(L, c.SetSize(ctxOf(L), size))
	return 0
}

// size(id) -> width, height
func (d *Driver) luaSize(L *lua.LState) int {
	size, err := d.node(L, 1).Size(ctxOf(L))
	raise(L, err)
	L.Push(lua.LNumber(size.Width))
	L.Push(lua.LNumber(size.Height))
	return 2
}

// set_visible(id, bool)
func (d *Driver) luaSetVisible(L *lua.LState) int {
	c := d.node(L, 1)
	raise(L, c.SetVisible(ctxOf(L), L.CheckBool(2)))
	return 0
}

// visible(id) -> bool
func (d *Driver) luaVisible(L *lua.LState) int {
	v, err := d.node(L, 1).Visible(ctxOf(L))
	raise(L, err)
	L.Push(lua.LBool(v))
	return 1
}

// set_enabled(id, bool)
func (d *Driver) luaSetEnabled(L *lua.LState) int {
	c := d.node(L, 1)
	raise(L, c.SetEnabled(ctxOf(L), L.CheckBool(2)))
	return 0
}

// enabled(id) -> bool
func (d *Driver) luaEnabled(L *lua.LState) int {
	v, err := d.node(L, 1).Enabled(ctxOf(L))
	raise(L, err)
	L.Push(lua.LBool(v))
	return 1
}

// dispose(id)
func (d *Driver) luaDispose(L *lua.LState) int {
	raise(L, d.node(L, 1).Dispose(ctxOf(L)))
	return 0
}

// disposed(id) -> bool
func (d *Driver) luaDisposed(L *lua.LState) int {
	L.Push(lua.LBool(d.node(L, 1).IsDisposed(ctxOf(L))))
	return 1
}

// layout(id [, {vertical=, spacing=, margin=}]) sets the stack layout when
// a table is given, then arranges the children.
func (d *Driver) luaLayout(L *lua.LState) int {
	c := d.composite(L, 1)
	ctx := ctxOf(L)
	if opts := L.OptTable(2, nil); opts != nil {
		layout := native.StackLayout{
			Vertical: lua.LVAsBool(opts.RawGetString("vertical")),
			Spacing:  int(lua.LVAsNumber(opts.RawGetString("spacing"))),
			Margin:   int(lua.LVAsNumber(opts.RawGetString("margin"))),
		}
		raise(L, c.SetLayout(ctx, layout))
	}
	raise(L, c.Layout(ctx))
	return 0
}

// tree(id) -> string
func (d *Driver) luaTree(L *lua.LState) int {
	tree, err := d.composite(L, 1).Tree(ctxOf(L))
	raise(L, err)
	L.Push(lua.LString(tree))
	return 1
}

// scene(path) -> shell id. Builds a YAML scene and registers its ids.
func (d *Driver) luaScene(L *lua.LState) int {
	doc, err := scene.LoadFile(L.CheckString(1))
	raise(L, err)
	for _, id := range append([]string{doc.Shell.ID}, controlIDs(doc)...) {
		if _, dup := d.controls[id]; dup {
			raise(L, fmt.Errorf("%w: %q", ErrDuplicateNode, id))
		}
	}

	sc, err := scene.Build(ctxOf(L), d.env, doc)
	raise(L, err)
	for _, id := range sc.IDs() {
		c, _ := sc.Control(id)
		comp, _ := sc.Composite(id)
		d.controls[id] = c
		if comp != nil {
			d.composites[id] = comp
		}
	}
	L.Push(lua.LString(doc.Shell.ID))
	return 1
}

func controlIDs(doc *scene.Document) []string {
	ids := make([]string, len(doc.Controls))
	for i, c := range doc.Controls {
		ids[i] = c.ID
	}
	return ids
}
