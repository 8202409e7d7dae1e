// Package scene builds access trees from YAML descriptions.
//
// A scene names one shell and any number of controls, each attached to the
// shell or to a container control by id:
//
//	shell:
//	  id: main
//	  text: Settings
//	  size: [60, 20]
//	  layout: {type: stack, vertical: true, margin: 1}
//	controls:
//	  - {id: form, kind: group, parent: main, text: Name, size: [0, 3], layoutData: {fill: true}}
//	  - {id: name, kind: text, parent: form, size: [20, 1]}
//	  - {id: ok, kind: button, parent: main, text: OK, size: [8, 1], style: push}
//
// Controls may be listed in any order; a child listed before its parent is
// attached before the parent has a native widget and is created later.
package scene

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/syncaccess/internal/native"
)

// Document is a parsed scene description.
type Document struct {
	Shell    Def   `yaml:"shell"`
	Controls []Def `yaml:"controls"`
}

// Def describes one node. Unset fields leave the node's defaults alone.
type Def struct {
	ID     string `yaml:"id"`
	Kind   string `yaml:"kind"`
	Parent string `yaml:"parent"`
	Style  string `yaml:"style"`

	Text       string         `yaml:"text"`
	ToolTip    string         `yaml:"tooltip"`
	Image      *ImageDef      `yaml:"image"`
	Size       []int          `yaml:"size"`
	Location   []int          `yaml:"location"`
	Enabled    *bool          `yaml:"enabled"`
	Visible    *bool          `yaml:"visible"`
	Foreground string         `yaml:"fg"`
	Background string         `yaml:"bg"`
	Font       *FontDef       `yaml:"font"`
	Layout     *LayoutDef     `yaml:"layout"`
	LayoutData *LayoutDataDef `yaml:"layoutData"`
}

// ImageDef names an icon. Glyph is the single character terminals draw.
type ImageDef struct {
	Name  string `yaml:"name"`
	Glyph string `yaml:"glyph"`
}

// FontDef describes text attributes.
type FontDef struct {
	Name      string `yaml:"name"`
	Size      int    `yaml:"size"`
	Bold      bool   `yaml:"bold"`
	Italic    bool   `yaml:"italic"`
	Underline bool   `yaml:"underline"`
}

// LayoutDef selects a composite's layout manager. Only "stack" exists.
type LayoutDef struct {
	Type     string `yaml:"type"`
	Vertical bool   `yaml:"vertical"`
	Spacing  int    `yaml:"spacing"`
	Margin   int    `yaml:"margin"`
}

// LayoutDataDef carries per-child layout hints.
type LayoutDataDef struct {
	Exclude bool `yaml:"exclude"`
	Fill    bool `yaml:"fill"`
	Grow    int  `yaml:"grow"`
}

// Parse decodes and validates a YAML scene. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and parses the scene at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks ids, kinds and parent links.
func (d *Document) Validate() error {
	if d.Shell.ID == "" {
		return &DefError{Field: "shell", Err: ErrMissingID}
	}
	if d.Shell.Parent != "" {
		return &DefError{ID: d.Shell.ID, Field: "parent", Err: fmt.Errorf("%w: a shell has no parent", ErrInvalidValue)}
	}

	kinds := map[string]native.Kind{d.Shell.ID: native.KindShell}
	parents := make(map[string]string, len(d.Controls))
	for i, c := range d.Controls {
		if c.ID == "" {
			return &DefError{Field: fmt.Sprintf("controls[%d]", i), Err: ErrMissingID}
		}
		if _, dup := kinds[c.ID]; dup {
			return &DefError{ID: c.ID, Err: ErrDuplicateID}
		}
		kind, err := controlKind(c.Kind)
		if err != nil {
			return &DefError{ID: c.ID, Field: "kind", Err: err}
		}
		if c.Layout != nil && !kind.IsContainer() {
			return &DefError{ID: c.ID, Field: "layout", Err: fmt.Errorf("%w: %s has no children", ErrInvalidValue, kind)}
		}
		kinds[c.ID] = kind
		parents[c.ID] = c.Parent
	}

	for _, c := range d.Controls {
		pk, ok := kinds[c.Parent]
		if !ok {
			return &DefError{ID: c.ID, Field: "parent", Err: fmt.Errorf("%w %q", ErrUnknownParent, c.Parent)}
		}
		if !pk.IsContainer() {
			return &DefError{ID: c.ID, Field: "parent", Err: fmt.Errorf("%w: %q is a %s", ErrNotContainer, c.Parent, pk)}
		}
	}

	// Every chain must reach the shell.
	for _, c := range d.Controls {
		seen := map[string]bool{}
		for id := c.ID; id != d.Shell.ID; id = parents[id] {
			if seen[id] {
				return &DefError{ID: c.ID, Field: "parent", Err: ErrCycle}
			}
			seen[id] = true
		}
	}
	return nil
}

func controlKind(s string) (native.Kind, error) {
	switch k := native.Kind(s); k {
	case native.KindComposite, native.KindGroup, native.KindLabel, native.KindButton, native.KindText:
		return k, nil
	case "":
		return "", fmt.Errorf("%w: kind is required", ErrInvalidValue)
	default:
		return "", fmt.Errorf("%w %q", native.ErrUnknownKind, s)
	}
}

// depth returns the number of links between id and the shell.
func (d *Document) depth(id string, parents map[string]string) int {
	n := 0
	for id != d.Shell.ID {
		id = parents[id]
		n++
	}
	return n
}
