package screen

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/syncaccess/internal/native"
)

// Render redraws every live shell and shows the result.
// UI goroutine only.
func (t *Toolkit) Render() {
	t.screen.Clear()
	t.screen.HideCursor()
	w, h := t.screen.Size()
	clip := native.Rect{Width: w, Height: h}
	for _, s := range t.Shells() {
		t.draw(s, native.Point{}, clip)
	}
	t.screen.Show()
}

// draw paints o and its subtree. origin is the absolute position of the
// parent's client area; clip bounds what may be painted.
func (t *Toolkit) draw(o *native.Object, origin native.Point, clip native.Rect) {
	if !o.Visible() {
		return
	}

	loc, size := o.Location(), o.Size()
	abs := native.Rect{X: origin.X + loc.X, Y: origin.Y + loc.Y, Width: size.Width, Height: size.Height}
	c := &canvas{screen: t.screen, clip: intersect(clip, abs)}
	style := widgetStyle(o)
	if o == t.focus {
		style = style.Reverse(true)
	}

	switch o.Kind() {
	case native.KindShell, native.KindComposite, native.KindGroup:
		t.drawContainer(c, o, abs, style)
	case native.KindButton:
		drawLine(c, abs, 0, "[ "+decorate(o)+" ]", style, o.Style().Has(native.StyleCenter))
	case native.KindText:
		t.drawText(c, o, abs, style)
	default:
		drawBlock(c, o, abs, decorate(o), style)
	}
}

func (t *Toolkit) drawContainer(c *canvas, o *native.Object, abs native.Rect, style tcell.Style) {
	if !o.Background().Default {
		c.fill(abs, style)
	}
	if o.Style().Has(native.StyleBorder) || o.Kind() == native.KindGroup {
		c.box(abs, style)
		if title := o.Text(); title != "" && abs.Width > 4 {
			c.text(abs.X+2, abs.Y, abs.X+abs.Width-2, " "+title+" ", style)
		}
	}

	area := o.ClientArea()
	inner := native.Point{X: abs.X + area.X, Y: abs.Y + area.Y}
	childClip := intersect(c.clip, native.Rect{X: inner.X, Y: inner.Y, Width: area.Width, Height: area.Height})
	for _, child := range o.Children() {
		if obj, ok := child.(*native.Object); ok {
			t.draw(obj, inner, childClip)
		}
	}
}

func (t *Toolkit) drawText(c *canvas, o *native.Object, abs native.Rect, style tcell.Style) {
	field := style.Underline(true)
	c.fill(native.Rect{X: abs.X, Y: abs.Y, Width: abs.Width, Height: 1}, field)

	text := o.Text()
	if o.Style().Has(native.StyleMulti) {
		drawBlock(c, o, abs, text, field)
		return
	}

	// Keep the tail of long input visible.
	runes := []rune(text)
	if len(runes) > abs.Width && abs.Width > 0 {
		runes = runes[len(runes)-abs.Width:]
	}
	c.text(abs.X, abs.Y, abs.X+abs.Width, string(runes), field)
	if o == t.focus && !o.Style().Has(native.StyleReadOnly) {
		t.screen.ShowCursor(abs.X+min(len(runes), max(abs.Width-1, 0)), abs.Y)
	}
}

// drawBlock paints text over the widget area, wrapping when the widget
// asks for it.
func drawBlock(c *canvas, o *native.Object, abs native.Rect, text string, style tcell.Style) {
	center := o.Style().Has(native.StyleCenter)
	var lines []string
	if o.Style().Has(native.StyleWrap) || o.Style().Has(native.StyleMulti) {
		lines = wrap(text, abs.Width)
	} else {
		lines = strings.Split(text, "\n")
	}
	for i, line := range lines {
		if i >= max(abs.Height, 1) {
			break
		}
		drawLine(c, abs, i, line, style, center)
	}
}

func drawLine(c *canvas, abs native.Rect, row int, line string, style tcell.Style, center bool) {
	x := abs.X
	if center {
		if pad := (abs.Width - uniseg.StringWidth(line)) / 2; pad > 0 {
			x += pad
		}
	}
	c.text(x, abs.Y+row, abs.X+abs.Width, line, style)
}

// decorate prefixes the widget text with its image glyph.
func decorate(o *native.Object) string {
	img := o.Image()
	if img.IsZero() || img.Glyph == 0 {
		return o.Text()
	}
	if o.Text() == "" {
		return string(img.Glyph)
	}
	return string(img.Glyph) + " " + o.Text()
}

// wrap breaks text into lines no wider than width, at spaces when possible.
func wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			for uniseg.StringWidth(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				r := []rune(word)
				lines = append(lines, string(r[:width]))
				word = string(r[width:])
			}
			switch {
			case line == "":
				line = word
			case uniseg.StringWidth(line)+1+uniseg.StringWidth(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// canvas paints cells inside a clip rectangle.
type canvas struct {
	screen tcell.Screen
	clip   native.Rect
}

func (c *canvas) set(x, y int, r rune, style tcell.Style) {
	if !c.clip.Contains(native.Point{X: x, Y: y}) {
		return
	}
	c.screen.SetContent(x, y, r, nil, style)
}

func (c *canvas) fill(r native.Rect, style tcell.Style) {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			c.set(x, y, ' ', style)
		}
	}
}

// text writes s from x until limit, grapheme by grapheme.
func (c *canvas) text(x, y, limit int, s string, style tcell.Style) {
	g := uniseg.NewGraphemes(s)
	for g.Next() && x < limit {
		runes := g.Runes()
		w := g.Width()
		if w == 0 {
			continue
		}
		if x+w > limit {
			break
		}
		if c.clip.Contains(native.Point{X: x, Y: y}) {
			c.screen.SetContent(x, y, runes[0], runes[1:], style)
		}
		x += w
	}
}

func (c *canvas) box(r native.Rect, style tcell.Style) {
	if r.Width < 2 || r.Height < 2 {
		return
	}
	right, bottom := r.X+r.Width-1, r.Y+r.Height-1
	for x := r.X + 1; x < right; x++ {
		c.set(x, r.Y, tcell.RuneHLine, style)
		c.set(x, bottom, tcell.RuneHLine, style)
	}
	for y := r.Y + 1; y < bottom; y++ {
		c.set(r.X, y, tcell.RuneVLine, style)
		c.set(right, y, tcell.RuneVLine, style)
	}
	c.set(r.X, r.Y, tcell.RuneULCorner, style)
	c.set(right, r.Y, tcell.RuneURCorner, style)
	c.set(r.X, bottom, tcell.RuneLLCorner, style)
	c.set(right, bottom, tcell.RuneLRCorner, style)
}

func intersect(a, b native.Rect) native.Rect {
	x0, y0 := max(a.X, b.X), max(a.Y, b.Y)
	x1, y1 := min(a.X+a.Width, b.X+b.Width), min(a.Y+a.Height, b.Y+b.Height)
	if x1 <= x0 || y1 <= y0 {
		return native.Rect{X: x0, Y: y0}
	}
	return native.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
