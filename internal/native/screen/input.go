package screen

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/syncaccess/internal/native"
)

// HandleEvent delivers a terminal event to the widget tree and reports
// whether any widget consumed it. UI goroutine only.
func (t *Toolkit) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return t.handleKey(e)
	case *tcell.EventMouse:
		return t.handleMouse(e)
	case *tcell.EventResize:
		w, h := e.Size()
		t.Resize(native.Size{Width: w, Height: h})
		return true
	default:
		return false
	}
}

// Resize gives every shell the full screen and lays it out again.
// UI goroutine only.
func (t *Toolkit) Resize(size native.Size) {
	for _, s := range t.Shells() {
		s.SetSize(size)
		arrangeTree(s)
	}
	t.screen.Sync()
}

func arrangeTree(o *native.Object) {
	o.Arrange()
	for _, child := range o.Children() {
		if c, ok := child.(*native.Object); ok && c.Kind().IsContainer() {
			arrangeTree(c)
		}
	}
}

func (t *Toolkit) handleKey(e *tcell.EventKey) bool {
	switch e.Key() {
	case tcell.KeyTab:
		t.moveFocus(1)
		return true
	case tcell.KeyBacktab:
		t.moveFocus(-1)
		return true
	}

	focus := t.Focus()
	if focus == nil || !focus.Enabled() {
		return false
	}

	switch focus.Kind() {
	case native.KindButton:
		if e.Key() == tcell.KeyEnter || (e.Key() == tcell.KeyRune && e.Rune() == ' ') {
			focus.Fire(native.Event{Type: native.EventSelection})
			return true
		}
	case native.KindText:
		if focus.Style().Has(native.StyleReadOnly) {
			return false
		}
		text := []rune(focus.Text())
		switch e.Key() {
		case tcell.KeyRune:
			text = append(text, e.Rune())
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(text) == 0 {
				return true
			}
			text = text[:len(text)-1]
		case tcell.KeyEnter:
			if !focus.Style().Has(native.StyleMulti) {
				focus.Fire(native.Event{Type: native.EventSelection, Text: string(text)})
				return true
			}
			text = append(text, '\n')
		default:
			return false
		}
		focus.Fire(native.Event{Type: native.EventModify, Text: string(text)})
		return true
	}
	return false
}

func (t *Toolkit) handleMouse(e *tcell.EventMouse) bool {
	if e.Buttons()&tcell.Button1 == 0 {
		return false
	}
	x, y := e.Position()
	hit := t.hitTest(native.Point{X: x, Y: y})
	if hit == nil || !hit.Enabled() {
		return false
	}
	if focusable(hit) {
		t.setFocus(hit)
	}
	if hit.Kind() == native.KindButton {
		hit.Fire(native.Event{Type: native.EventSelection})
	}
	return true
}

// hitTest returns the deepest visible widget under p.
func (t *Toolkit) hitTest(p native.Point) *native.Object {
	shells := t.Shells()
	for i := len(shells) - 1; i >= 0; i-- {
		if hit := hitObject(shells[i], native.Point{}, p); hit != nil {
			return hit
		}
	}
	return nil
}

func hitObject(o *native.Object, origin, p native.Point) *native.Object {
	if !o.Visible() {
		return nil
	}
	loc, size := o.Location(), o.Size()
	abs := native.Rect{X: origin.X + loc.X, Y: origin.Y + loc.Y, Width: size.Width, Height: size.Height}
	if !abs.Contains(p) {
		return nil
	}
	area := o.ClientArea()
	inner := native.Point{X: abs.X + area.X, Y: abs.Y + area.Y}
	children := o.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if c, ok := children[i].(*native.Object); ok {
			if hit := hitObject(c, inner, p); hit != nil {
				return hit
			}
		}
	}
	return o
}

func focusable(o *native.Object) bool {
	switch o.Kind() {
	case native.KindButton, native.KindText:
		return o.Visible() && o.Enabled() && !o.Style().Has(native.StyleNoFocus)
	default:
		return false
	}
}

// focusOrder lists focusable widgets in tree order.
func (t *Toolkit) focusOrder() []*native.Object {
	var order []*native.Object
	var walk func(o *native.Object)
	walk = func(o *native.Object) {
		if !o.Visible() {
			return
		}
		if focusable(o) {
			order = append(order, o)
		}
		for _, child := range o.Children() {
			if c, ok := child.(*native.Object); ok {
				walk(c)
			}
		}
	}
	for _, s := range t.Shells() {
		walk(s)
	}
	return order
}

func (t *Toolkit) moveFocus(step int) {
	order := t.focusOrder()
	if len(order) == 0 {
		t.setFocus(nil)
		return
	}
	idx := -1
	for i, o := range order {
		if o == t.Focus() {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && step < 0:
		idx = len(order) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + step + len(order)) % len(order)
	}
	t.setFocus(order[idx])
}

// setFocus moves focus and notifies the widget gaining it.
func (t *Toolkit) setFocus(o *native.Object) {
	if o == t.Focus() {
		return
	}
	t.focus = o
	if o != nil {
		o.Fire(native.Event{Type: native.EventFocus})
	}
}

// SetFocus focuses o if it can take focus. UI goroutine only.
func (t *Toolkit) SetFocus(o *native.Object) bool {
	if o == nil || !focusable(o) {
		return false
	}
	t.setFocus(o)
	return true
}
