package vnode

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/kinetic/pkg/host"
)

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// El creates an element node.
//
// Arguments can be: nil, Attr, []Attr, Props, *Node, []*Node, string, or a
// Component descriptor (mounted as a child component). A lone string argument
// becomes text children; strings mixed with nodes become Text nodes.
func El(tag string, args ...any) *Node {
	n := &Node{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}
	var kids []*Node
	var texts []string
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case Attr:
			n.applyAttr(v)
		case []Attr:
			for _, a := range v {
				n.applyAttr(a)
			}
		case Props:
			for k, val := range v {
				n.applyAttr(Attr{Key: k, Value: val})
			}
		case string:
			texts = append(texts, v)
			kids = append(kids, Text(v))
		default:
			kids = appendChild(kids, arg)
		}
	}
	switch {
	case len(kids) == 1 && len(texts) == 1:
		n.SetText(texts[0])
	case len(kids) > 0:
		n.SetChildren(kids)
	}
	return n
}

func (n *Node) applyAttr(a Attr) {
	switch a.Key {
	case "":
	case "key":
		n.Key = checkKey(a.Value)
	default:
		n.Props[a.Key] = a.Value
	}
}

func appendChild(kids []*Node, arg any) []*Node {
	switch v := arg.(type) {
	case nil:
	case *Node:
		if v != nil {
			kids = append(kids, v)
		}
	case []*Node:
		for _, c := range v {
			if c != nil {
				kids = append(kids, c)
			}
		}
	case string:
		kids = append(kids, Text(v))
	case Component:
		kids = append(kids, Comp(v))
	case fmt.Stringer:
		kids = append(kids, Text(v.String()))
	}
	return kids
}

// Text creates a text node.
func Text(content string) *Node {
	return &Node{Kind: KindText, Shape: ShapeText, Text: content}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// Comment creates a comment node.
func Comment(text string) *Node {
	return &Node{Kind: KindComment, Shape: ShapeText, Text: text}
}

// Fragment groups children without a wrapper element. A Key attr sets the
// fragment's key.
func Fragment(children ...any) *Node {
	n := &Node{Kind: KindFragment}
	kids := make([]*Node, 0, len(children))
	for _, c := range children {
		if a, ok := c.(Attr); ok && a.Key == "key" {
			n.Key = checkKey(a.Value)
			continue
		}
		kids = appendChild(kids, c)
	}
	n.SetChildren(kids)
	return n
}

// Comp creates a component node. Arguments can be Attr, []Attr or Props;
// Key sets the node key and everything else becomes a prop.
func Comp(c Component, args ...any) *Node {
	n := &Node{Kind: KindComponent, Component: c, Props: make(Props)}
	for _, arg := range args {
		switch v := arg.(type) {
		case Attr:
			n.applyAttr(v)
		case []Attr:
			for _, a := range v {
				n.applyAttr(a)
			}
		case Props:
			for k, val := range v {
				n.applyAttr(Attr{Key: k, Value: val})
			}
		}
	}
	return n
}

// Key sets a node's reconciliation key. It panics when key's dynamic value
// is not comparable with ==.
func Key(key any) Attr {
	return Attr{Key: "key", Value: checkKey(key)}
}

func checkKey(key any) any {
	if key != nil && !reflect.ValueOf(key).Comparable() {
		panic(fmt.Sprintf("vnode: key of type %T is not comparable", key))
	}
	return key
}

// Prop sets an arbitrary property.
func Prop(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// ID sets the id attribute.
func ID(id string) Attr { return Prop("id", id) }

// Class sets the class attribute.
func Class(class string) Attr { return Prop("class", class) }

// On registers an event handler, e.g. On("click", fn).
func On(event string, fn func(host.Event)) Attr {
	return Prop("on"+event, host.Handler(fn))
}

// OnClick registers a click handler that ignores the event payload.
func OnClick(fn func()) Attr {
	return On("click", func(host.Event) { fn() })
}

// If returns the node if condition is true, nil otherwise.
func If(condition bool, node *Node) *Node {
	if condition {
		return node
	}
	return nil
}

// When is like If but only builds the node when condition is true.
func When(condition bool, fn func() *Node) *Node {
	if condition {
		return fn()
	}
	return nil
}

// Range maps items to nodes, skipping nil results.
func Range[T any](items []T, fn func(item T, index int) *Node) []*Node {
	out := make([]*Node, 0, len(items))
	for i, item := range items {
		if n := fn(item, i); n != nil {
			out = append(out, n)
		}
	}
	return out
}
