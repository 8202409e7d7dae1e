package screen

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/syncaccess/internal/native"
)

// convertColor converts a native color to a tcell color.
func convertColor(c native.Color) tcell.Color {
	switch {
	case c.Default:
		return tcell.ColorDefault
	case c.Indexed:
		return tcell.PaletteColor(int(c.R))
	default:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
}

// convertTcellColor converts a tcell color back to a native color.
func convertTcellColor(tc tcell.Color) native.Color {
	if tc == tcell.ColorDefault {
		return native.ColorDefault
	}

	// Check if it's a palette color
	if tc >= tcell.ColorValid && tc < tcell.ColorIsRGB {
		return native.ColorFromIndex(uint8(tc - tcell.ColorValid))
	}

	r, g, b := tc.RGB()
	return native.ColorFromRGB(uint8(r), uint8(g), uint8(b))
}

// widgetStyle builds the cell style for a widget.
func widgetStyle(o *native.Object) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(convertColor(o.Foreground())).
		Background(convertColor(o.Background()))

	font := o.Font()
	if font.Bold {
		style = style.Bold(true)
	}
	if font.Italic {
		style = style.Italic(true)
	}
	if font.Underline {
		style = style.Underline(true)
	}
	if !o.Enabled() {
		style = style.Dim(true)
	}
	return style
}
