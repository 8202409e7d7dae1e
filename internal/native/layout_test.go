package native

import "testing"

func TestStackLayout_Vertical(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleNone)
	shell.SetSize(Size{Width: 20, Height: 10})
	shell.SetLayout(StackLayout{Vertical: true, Spacing: 1})

	a := mustCreate(t, m, KindLabel, shell, StyleNone)
	a.SetSize(Size{Width: 5, Height: 1})
	b := mustCreate(t, m, KindButton, shell, StyleNone)
	b.SetSize(Size{Width: 6, Height: 2})
	b.SetLayoutData(LayoutData{Fill: true})

	shell.Arrange()

	if got := a.Location(); got != (Point{X: 0, Y: 0}) {
		t.Errorf("a at %+v", got)
	}
	if got := b.Location(); got != (Point{X: 0, Y: 2}) {
		t.Errorf("b at %+v", got)
	}
	if got := b.Size(); got != (Size{Width: 20, Height: 2}) {
		t.Errorf("b filled to %+v", got)
	}
}

func TestStackLayout_GrowAndExclude(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleNone)
	shell.SetSize(Size{Width: 20, Height: 1})
	shell.SetLayout(StackLayout{})

	fixed := mustCreate(t, m, KindLabel, shell, StyleNone)
	fixed.SetSize(Size{Width: 4, Height: 1})
	grow := mustCreate(t, m, KindText, shell, StyleNone)
	grow.SetSize(Size{Width: 2, Height: 1})
	grow.SetLayoutData(LayoutData{Grow: 1})
	excluded := mustCreate(t, m, KindLabel, shell, StyleNone)
	excluded.SetLocation(Point{X: 15, Y: 0})
	excluded.SetSize(Size{Width: 3, Height: 1})
	excluded.SetLayoutData(LayoutData{Exclude: true})
	hidden := mustCreate(t, m, KindLabel, shell, StyleNone)
	hidden.SetVisible(false)

	shell.Arrange()

	if got := grow.Location(); got.X != 4 {
		t.Errorf("grow starts at %d, want 4", got.X)
	}
	if got := grow.Size().Width; got != 16 {
		t.Errorf("grow width = %d, want 16", got)
	}
	if got := excluded.Location(); got.X != 15 {
		t.Errorf("excluded child moved to %+v", got)
	}
}

func TestStackLayout_Margin(t *testing.T) {
	m := NewMemory()
	shell := mustCreate(t, m, KindShell, nil, StyleBorder)
	shell.SetSize(Size{Width: 12, Height: 6})
	shell.SetLayout(StackLayout{Vertical: true, Margin: 1})

	label := mustCreate(t, m, KindLabel, shell, StyleNone)
	label.SetSize(Size{Width: 3, Height: 1})

	shell.Arrange()

	if got := label.Location(); got != (Point{X: 2, Y: 2}) {
		t.Errorf("label at %+v, want border+margin offset", got)
	}
}
