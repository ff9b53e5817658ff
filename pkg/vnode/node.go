package vnode

import (
	"fmt"

	"github.com/vango-dev/kinetic/pkg/host"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindComment               // Comment placeholder
	KindFragment              // Grouping without wrapper
	KindComponent             // Stateful component
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Shape tells which children variant a node carries.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapeText
	ShapeList
)

// Component is a component descriptor. The renderer's descriptor type
// implements it; two component nodes are the same logical node only if they
// reference the same descriptor.
type Component interface {
	ComponentName() string
}

// Props holds attributes and event handlers.
type Props map[string]any

// Node is one piece of a renderable tree.
type Node struct {
	Kind Kind
	Tag  string // element tag
	Key  any    // nil means no explicit identity; must be comparable
	// Props for elements; passed props for components.
	Props Props

	// Shape selects between Text and Children. Text and Comment nodes carry
	// their payload in Text with ShapeText.
	Shape    Shape
	Text     string
	Children []*Node

	Component Component // for KindComponent
	Instance  any       // component instance, set by the renderer

	// Handle is the realized host node. Fragments have none; a component
	// shares its subtree's handle.
	Handle host.Handle
}

// SameNode reports whether a and b are the same logical node: equal kind,
// equal type (tag or component descriptor) and equal key. Two keyless
// siblings of the same type are always the same logical node.
func SameNode(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Key != b.Key {
		return false
	}
	switch a.Kind {
	case KindElement:
		return a.Tag == b.Tag
	case KindComponent:
		return a.Component == b.Component
	}
	return true
}

// HasKey reports whether the node carries an explicit key.
func (n *Node) HasKey() bool {
	return n != nil && n.Key != nil
}

// TypeName returns the tag, component name, or kind used in diagnostics.
func (n *Node) TypeName() string {
	switch {
	case n == nil:
		return "<nil>"
	case n.Kind == KindElement:
		return n.Tag
	case n.Kind == KindComponent && n.Component != nil:
		return n.Component.ComponentName()
	}
	return n.Kind.String()
}

// String renders a compact description, e.g. li#3 or Text("hi").
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindText, KindComment:
		return fmt.Sprintf("%s(%q)", n.Kind, n.Text)
	}
	if n.Key != nil {
		return fmt.Sprintf("%s#%v", n.TypeName(), n.Key)
	}
	return n.TypeName()
}

// SetChildren replaces the children with a list.
func (n *Node) SetChildren(children []*Node) {
	n.Shape = ShapeList
	n.Text = ""
	n.Children = children
}

// SetText replaces the children with a text payload.
func (n *Node) SetText(text string) {
	n.Shape = ShapeText
	n.Text = text
	n.Children = nil
}

// Walk calls fn for n and every descendant in document order. Component
// subtrees are not visited; they belong to the instance.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if n.Shape == ShapeList {
		for _, c := range n.Children {
			c.Walk(fn)
		}
	}
}
