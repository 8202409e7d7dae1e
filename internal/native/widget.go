package native

// Toolkit creates native widgets.
type Toolkit interface {
	// Create instantiates a widget of the given kind under parent.
	// Shells are created with a nil parent; every other kind requires a
	// container parent.
	Create(kind Kind, parent Widget, style Style) (Widget, error)
}

// ThreadGuard reports whether a UI task is executing. It cannot tell which
// goroutine is asking, so a call from another goroutine made while some UI
// task runs goes undetected. dispatch.UIDispatcher implements it.
type ThreadGuard interface {
	Executing() bool
}

// Widget is a native widget. All methods must be called on the UI goroutine.
// Mutators panic with ErrWidgetDisposed once the widget is disposed;
// IsDisposed, Kind and ID remain callable.
type Widget interface {
	// ID returns the toolkit-assigned identifier.
	ID() int64

	// Kind returns the widget class.
	Kind() Kind

	// Style returns the flags the widget was created with.
	Style() Style

	// Parent returns the parent widget, nil for shells.
	Parent() Widget

	// IsDisposed reports whether the widget has been destroyed.
	IsDisposed() bool

	// Dispose destroys the widget and all of its children.
	Dispose()

	Text() string
	SetText(text string)

	Image() Image
	SetImage(img Image)

	Enabled() bool
	SetEnabled(enabled bool)

	Visible() bool
	SetVisible(visible bool)

	Size() Size
	SetSize(size Size)

	Location() Point
	SetLocation(p Point)

	ToolTip() string
	SetToolTip(tip string)

	Font() Font
	SetFont(font Font)

	Foreground() Color
	SetForeground(c Color)

	Background() Color
	SetBackground(c Color)

	LayoutData() LayoutData
	SetLayoutData(data LayoutData)

	// AddListener registers fn for events of type t.
	AddListener(t EventType, fn Listener)
}

// Container is a widget that can parent other widgets.
type Container interface {
	Widget

	// Children returns the live children in creation order.
	Children() []Widget

	// SetLayout sets the layout manager used by Arrange.
	SetLayout(layout Layout)

	// LayoutManager returns the current layout manager, nil if none.
	LayoutManager() Layout

	// Arrange positions the children with the layout manager.
	Arrange()
}

// Layout positions children inside a container's client area.
type Layout interface {
	Arrange(area Rect, children []Widget)
}
