package scene

import (
	"context"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/dshills/syncaccess/internal/access"
)

// Export reports the current state of every node as JSON, in document
// order:
//
//	{"shell":"main","nodes":[
//	  {"id":"main","kind":"shell","state":"created","text":"Demo",
//	   "visible":true,"enabled":true,"location":[0,0],"size":[30,10]},
//	  {"id":"ok","kind":"button","parent":"main",...}]}
//
// Disposed nodes carry only id, kind and "disposed":true.
func (s *Scene) Export(ctx context.Context) ([]byte, error) {
	ids := make(map[*access.Composite]string, len(s.composites))
	for id, c := range s.composites {
		ids[c] = id
	}

	e := exporter{out: []byte(`{}`)}
	e.set("shell", s.order[0])
	for i, id := range s.order {
		e.node(ctx, fmt.Sprintf("nodes.%d.", i), id, s.controls[id], ids)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.out, nil
}

type exporter struct {
	out []byte
	err error
}

func (e *exporter) set(path string, v any) {
	if e.err != nil {
		return
	}
	e.out, e.err = sjson.SetBytes(e.out, path, v)
}

func (e *exporter) fail(id string, err error) {
	if e.err == nil && err != nil {
		e.err = fmt.Errorf("exporting %q: %w", id, err)
	}
}

func (e *exporter) node(ctx context.Context, prefix, id string, c *access.Control, ids map[*access.Composite]string) {
	e.set(prefix+"id", id)
	e.set(prefix+"kind", string(c.Kind()))
	if c.IsDisposed(ctx) {
		e.set(prefix+"disposed", true)
		return
	}
	e.set(prefix+"state", c.State().String())
	if p := c.Parent(); p != nil {
		e.set(prefix+"parent", ids[p])
	}

	text, err := c.Text(ctx)
	e.fail(id, err)
	if text != "" {
		e.set(prefix+"text", text)
	}
	visible, err := c.Visible(ctx)
	e.fail(id, err)
	e.set(prefix+"visible", visible)
	enabled, err := c.Enabled(ctx)
	e.fail(id, err)
	e.set(prefix+"enabled", enabled)

	loc, err := c.Location(ctx)
	e.fail(id, err)
	e.set(prefix+"location", []int{loc.X, loc.Y})
	size, err := c.Size(ctx)
	e.fail(id, err)
	e.set(prefix+"size", []int{size.Width, size.Height})
}
