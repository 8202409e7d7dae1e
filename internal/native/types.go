// Package native defines the toolkit contract the access bridge drives and
// an in-memory toolkit implementing it.
//
// Everything in this package assumes it is called from the UI goroutine.
// Toolkits created with a ThreadGuard panic with ErrInvalidThread when that
// assumption is broken.
package native

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind names a native widget class.
type Kind string

// Widget kinds understood by the toolkits in this repository.
const (
	KindShell     Kind = "shell"
	KindComposite Kind = "composite"
	KindGroup     Kind = "group"
	KindLabel     Kind = "label"
	KindButton    Kind = "button"
	KindText      Kind = "text"
)

// IsContainer reports whether widgets of this kind can parent other widgets.
func (k Kind) IsContainer() bool {
	switch k {
	case KindShell, KindComposite, KindGroup:
		return true
	default:
		return false
	}
}

// Point is a position in cells relative to the parent's origin.
type Point struct {
	X, Y int
}

// Size is a width and height in cells.
type Size struct {
	Width, Height int
}

// IsZero returns true if both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Rect is a rectangle in cells.
type Rect struct {
	X, Y, Width, Height int
}

// Contains returns true if the point lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Color represents a color value.
// Supports true color (RGB) and terminal palette colors.
type Color struct {
	R, G, B uint8
	// If Indexed is true, R contains the palette index (0-255).
	Indexed bool
	// Default indicates the toolkit's default color.
	Default bool
}

// ColorDefault represents the toolkit's default color.
var ColorDefault = Color{Default: true}

// Common colors.
var (
	ColorBlack = Color{R: 0, G: 0, B: 0}
	ColorWhite = Color{R: 255, G: 255, B: 255}
	ColorRed   = Color{R: 255, G: 0, B: 0}
	ColorGreen = Color{R: 0, G: 255, B: 0}
	ColorBlue  = Color{R: 0, G: 0, B: 255}
	ColorGray  = Color{R: 128, G: 128, B: 128}
)

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromIndex creates an indexed palette color.
func ColorFromIndex(index uint8) Color {
	return Color{R: index, Indexed: true}
}

// ColorFromHex creates a color from a "#rgb" or "#rrggbb" string.
func ColorFromHex(hex string) (Color, error) {
	hex = strings.TrimPrefix(hex, "#")

	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return Color{}, fmt.Errorf("invalid hex color length: %s", hex)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color: %s", hex)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.Default {
		return "default"
	}
	if c.Indexed {
		return fmt.Sprintf("idx(%d)", c.R)
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Font describes the text attributes of a widget.
type Font struct {
	Name      string
	Size      int
	Bold      bool
	Italic    bool
	Underline bool
}

// Image is a named icon. Terminal toolkits draw Glyph.
type Image struct {
	Name  string
	Glyph rune
}

// IsZero returns true if no image is set.
func (i Image) IsZero() bool {
	return i.Name == "" && i.Glyph == 0
}

// LayoutData carries per-child hints for the parent's layout manager.
type LayoutData struct {
	// Exclude removes the child from layout; it keeps its own bounds.
	Exclude bool
	// Fill stretches the child across the layout's cross axis.
	Fill bool
	// Grow distributes leftover space along the main axis between children
	// with a positive weight.
	Grow int
}

// EventType identifies a native event.
type EventType int

const (
	EventNone EventType = iota
	// EventSelection fires when a button is activated.
	EventSelection
	// EventModify fires when the user changes a widget's text.
	EventModify
	// EventFocus fires when a widget gains keyboard focus.
	EventFocus
	// EventDispose fires when a widget is disposed.
	EventDispose
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventSelection:
		return "selection"
	case EventModify:
		return "modify"
	case EventFocus:
		return "focus"
	case EventDispose:
		return "dispose"
	default:
		return "none"
	}
}

// Event is delivered to listeners on the UI goroutine.
type Event struct {
	Type   EventType
	Widget Widget
	Text   string
}

// Listener receives native events.
type Listener func(Event)
