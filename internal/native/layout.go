package native

// StackLayout places visible children one after another along one axis.
// Each child keeps its own size along the main axis; children with a
// positive LayoutData.Grow share the leftover space; LayoutData.Fill
// stretches a child across the cross axis.
type StackLayout struct {
	Vertical bool
	Spacing  int
	Margin   int
}

// Arrange implements Layout.
func (l StackLayout) Arrange(area Rect, children []Widget) {
	area = Rect{
		X:      area.X + l.Margin,
		Y:      area.Y + l.Margin,
		Width:  max(0, area.Width-2*l.Margin),
		Height: max(0, area.Height-2*l.Margin),
	}

	var placed []Widget
	used, weights := 0, 0
	for _, c := range children {
		if c.IsDisposed() || !c.Visible() || c.LayoutData().Exclude {
			continue
		}
		placed = append(placed, c)
		used += l.main(c.Size())
		weights += max(0, c.LayoutData().Grow)
	}
	if len(placed) == 0 {
		return
	}
	used += l.Spacing * (len(placed) - 1)

	extent := area.Width
	if l.Vertical {
		extent = area.Height
	}
	leftover := max(0, extent-used)

	offset := 0
	for _, c := range placed {
		size := c.Size()
		data := c.LayoutData()

		length := l.main(size)
		if weights > 0 && data.Grow > 0 {
			share := leftover * data.Grow / weights
			length += share
		}

		cross := l.cross(size)
		if data.Fill {
			if l.Vertical {
				cross = area.Width
			} else {
				cross = area.Height
			}
		}

		if l.Vertical {
			c.SetLocation(Point{X: area.X, Y: area.Y + offset})
			c.SetSize(Size{Width: cross, Height: length})
		} else {
			c.SetLocation(Point{X: area.X + offset, Y: area.Y})
			c.SetSize(Size{Width: length, Height: cross})
		}
		offset += length + l.Spacing
	}
}

func (l StackLayout) main(s Size) int {
	if l.Vertical {
		return s.Height
	}
	return s.Width
}

func (l StackLayout) cross(s Size) int {
	if l.Vertical {
		return s.Width
	}
	return s.Height
}
