package memhost

import (
	"fmt"
	"sort"
	"strings"
)

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	switch n.Type {
	case TypeText:
		return n.Text
	case TypeComment:
		return ""
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// Find returns the first node in document order for which match is true.
func (n *Node) Find(match func(*Node) bool) *Node {
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(match); f != nil {
			return f
		}
	}
	return nil
}

// FindAll returns every matching node in document order.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		if match(x) {
			out = append(out, x)
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// ByTag matches elements with the given tag.
func ByTag(tag string) func(*Node) bool {
	return func(n *Node) bool { return n.Type == TypeElement && n.Tag == tag }
}

// ByProp matches elements whose prop key equals value.
func ByProp(key string, value any) func(*Node) bool {
	return func(n *Node) bool { return n.Type == TypeElement && n.Props[key] == value }
}

// String renders the subtree as markup. Roots render only their children;
// handlers are omitted and props are sorted.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Type {
	case TypeText:
		b.WriteString(n.Text)
		return
	case TypeComment:
		fmt.Fprintf(b, "<!--%s-->", n.Text)
		return
	case TypeRoot:
		for _, c := range n.Children {
			c.write(b)
		}
		return
	}
	b.WriteString("<" + n.Tag)
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%q", k, fmt.Sprint(n.Props[k]))
	}
	b.WriteString(">")
	for _, c := range n.Children {
		c.write(b)
	}
	b.WriteString("</" + n.Tag + ">")
}
