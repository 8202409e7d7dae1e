package native

import (
	"fmt"
	"sort"
	"strings"
)

// Style is a bitmask of native creation flags.
type Style uint32

// Creation flags. They only take effect when a widget is created.
const (
	StyleNone     Style = 0
	StyleBorder   Style = 1 << iota // draw a frame
	StyleReadOnly                   // text cannot be edited
	StyleWrap                       // wrap long text
	StyleCenter                     // center text horizontally
	StyleCheck                      // button toggles a check mark
	StylePush                       // regular push button
	StyleMulti                      // multi-line text
	StyleNoFocus                    // never takes keyboard focus
)

// Has returns true if all bits of flag are set.
func (s Style) Has(flag Style) bool {
	return s&flag == flag
}

// With returns the style with flag set.
func (s Style) With(flag Style) Style {
	return s | flag
}

// Without returns the style with flag cleared.
func (s Style) Without(flag Style) Style {
	return s &^ flag
}

// Toggle returns the style with flag inverted.
func (s Style) Toggle(flag Style) Style {
	return s ^ flag
}

// StyleTable maps symbolic style names to flags. A table is passed to the
// components that need it; there is no package-level registry.
type StyleTable map[string]Style

// DefaultStyleTable returns the names of the built-in flags.
func DefaultStyleTable() StyleTable {
	return StyleTable{
		"none":     StyleNone,
		"border":   StyleBorder,
		"readonly": StyleReadOnly,
		"wrap":     StyleWrap,
		"center":   StyleCenter,
		"check":    StyleCheck,
		"push":     StylePush,
		"multi":    StyleMulti,
		"nofocus":  StyleNoFocus,
	}
}

// Merge returns a copy of t with the entries of other added or replaced.
func (t StyleTable) Merge(other map[string]uint32) StyleTable {
	merged := make(StyleTable, len(t)+len(other))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range other {
		merged[strings.ToLower(k)] = Style(v)
	}
	return merged
}

// Parse converts "border|wrap" (also comma or space separated) to a Style.
func (t StyleTable) Parse(spec string) (Style, error) {
	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})

	var style Style
	for _, name := range fields {
		flag, ok := t[strings.ToLower(name)]
		if !ok {
			return StyleNone, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
		}
		style |= flag
	}
	return style, nil
}

// Format renders a style using the table's names, sorted.
func (t StyleTable) Format(s Style) string {
	var names []string
	for name, flag := range t {
		if flag != StyleNone && s.Has(flag) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
