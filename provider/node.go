package provider

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ifabos/go-cspi/spi"
)

// Node describes one element of a served tree. Optional sections enable
// the matching capability: Extents adds Component, Text adds Text (and
// EditableText when editable), and so on.
type Node struct {
	ID          string     `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Role        spi.Role   `yaml:"role" json:"role"`
	States      []string   `yaml:"states,omitempty" json:"states,omitempty"`
	Relations   []Relation `yaml:"relations,omitempty" json:"relations,omitempty"`
	Children    []*Node    `yaml:"children,omitempty" json:"children,omitempty"`

	Extents    *Extents   `yaml:"extents,omitempty" json:"extents,omitempty"`
	Text       *TextSpec  `yaml:"text,omitempty" json:"text,omitempty"`
	Actions    []Action   `yaml:"actions,omitempty" json:"actions,omitempty"`
	Table      *TableSpec `yaml:"table,omitempty" json:"table,omitempty"`
	Selectable bool       `yaml:"selectable,omitempty" json:"selectable,omitempty"`
	Value      *ValueSpec `yaml:"value,omitempty" json:"value,omitempty"`
	Links      *int       `yaml:"links,omitempty" json:"links,omitempty"`
	Image      *ImageSpec `yaml:"image,omitempty" json:"image,omitempty"`
}

// Relation points at other nodes by ID.
type Relation struct {
	Type    string   `yaml:"type" json:"type"`
	Targets []string `yaml:"targets" json:"targets"`
}

// Extents is a bounding box in screen coordinates.
type Extents struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

func (e *Extents) contains(x, y int) bool {
	return x >= e.X && y >= e.Y && x < e.X+e.Width && y < e.Y+e.Height
}

type TextSpec struct {
	Contents string `yaml:"contents" json:"contents"`
	Caret    int    `yaml:"caret,omitempty" json:"caret,omitempty"`
	Editable bool   `yaml:"editable,omitempty" json:"editable,omitempty"`
}

type Action struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// TableSpec lays the first Rows*Columns children out row by row.
type TableSpec struct {
	Rows    int    `yaml:"rows" json:"rows"`
	Columns int    `yaml:"columns" json:"columns"`
	Caption string `yaml:"caption,omitempty" json:"caption,omitempty"`
}

type ValueSpec struct {
	Minimum float64 `yaml:"minimum" json:"minimum"`
	Maximum float64 `yaml:"maximum" json:"maximum"`
	Current float64 `yaml:"current" json:"current"`
}

type ImageSpec struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
}

// Find returns the first node named name in depth first order.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Capabilities lists the capabilities the node's sections enable.
func (n *Node) Capabilities() []spi.Capability {
	var caps []spi.Capability
	for _, c := range spi.Capabilities() {
		if n.supports(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

func (n *Node) supports(c spi.Capability) bool {
	switch c {
	case spi.CapabilityAction:
		return len(n.Actions) > 0
	case spi.CapabilityComponent:
		return n.Extents != nil
	case spi.CapabilityEditableText:
		return n.Text != nil && n.Text.Editable
	case spi.CapabilityHypertext:
		return n.Links != nil
	case spi.CapabilityImage:
		return n.Image != nil
	case spi.CapabilitySelection:
		return n.Selectable
	case spi.CapabilityTable:
		return n.Table != nil
	case spi.CapabilityText:
		return n.Text != nil
	case spi.CapabilityValue:
		return n.Value != nil
	}
	return false
}

// LoadTree decodes a YAML tree and validates it.
func LoadTree(r io.Reader) (*Node, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var root Node
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	if err := Validate(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// LoadTreeFile reads a YAML tree from path.
func LoadTreeFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadTree(f)
}

//go:embed demo.yaml
var demoYAML []byte

// DemoTree returns a fresh copy of the built in sample tree: a window with
// a form panel, a table and a push button.
func DemoTree() *Node {
	root, err := LoadTree(bytes.NewReader(demoYAML))
	if err != nil {
		panic(fmt.Sprintf("demo tree: %v", err))
	}
	return root
}

// Validate checks IDs, state and relation names, and table layouts.
func Validate(root *Node) error {
	ids := make(map[string]*Node)
	var collect func(n *Node) error
	collect = func(n *Node) error {
		if n == nil {
			return fmt.Errorf("nil node in tree")
		}
		if n.ID != "" {
			if _, dup := ids[n.ID]; dup {
				return fmt.Errorf("duplicate node id %q", n.ID)
			}
			ids[n.ID] = n
		}
		for _, c := range n.Children {
			if err := collect(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(root); err != nil {
		return err
	}

	var check func(n *Node) error
	check = func(n *Node) error {
		for _, s := range n.States {
			if _, ok := spi.ParseState(s); !ok {
				return fmt.Errorf("node %q: unknown state %q", n.Name, s)
			}
		}
		for _, rel := range n.Relations {
			if _, ok := spi.ParseRelationType(rel.Type); !ok {
				return fmt.Errorf("node %q: unknown relation type %q", n.Name, rel.Type)
			}
			for _, id := range rel.Targets {
				if _, ok := ids[id]; !ok {
					return fmt.Errorf("node %q: relation target %q not found", n.Name, id)
				}
			}
		}
		if t := n.Table; t != nil {
			if t.Rows < 0 || t.Columns < 0 || t.Rows*t.Columns > len(n.Children) {
				return fmt.Errorf("node %q: table %dx%d needs more children than %d", n.Name, t.Rows, t.Columns, len(n.Children))
			}
			if _, ok := ids[t.Caption]; t.Caption != "" && !ok {
				return fmt.Errorf("node %q: table caption %q not found", n.Name, t.Caption)
			}
		}
		if v := n.Value; v != nil && v.Minimum > v.Maximum {
			return fmt.Errorf("node %q: value minimum above maximum", n.Name)
		}
		for _, c := range n.Children {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	return check(root)
}
