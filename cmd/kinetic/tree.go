package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"

	"github.com/vango-dev/kinetic/pkg/host/memhost"
)

// renderTree draws the children of root as a tree. idOf, when non-nil,
// labels elements with the id a client uses to address them.
func renderTree(root *memhost.Node, idOf func(*memhost.Node) (uint32, bool)) string {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	var walk func(n *memhost.Node)
	walk = func(n *memhost.Node) {
		l.AppendItem(nodeLabel(n, idOf))
		if len(n.Children) == 0 {
			return
		}
		l.Indent()
		for _, c := range n.Children {
			walk(c)
		}
		l.UnIndent()
	}
	for _, c := range root.Children {
		walk(c)
	}
	if l.Length() == 0 {
		return "(empty)"
	}
	return l.Render()
}

func nodeLabel(n *memhost.Node, idOf func(*memhost.Node) (uint32, bool)) string {
	switch n.Type {
	case memhost.TypeText:
		return fmt.Sprintf("%q", n.Text)
	case memhost.TypeComment:
		return "<!--" + n.Text + "-->"
	}

	var b strings.Builder
	b.WriteString("<" + n.Tag)
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, fmt.Sprint(n.Props[k]))
	}
	b.WriteString(">")

	if len(n.Handlers) > 0 {
		events := make([]string, 0, len(n.Handlers))
		for ev := range n.Handlers {
			events = append(events, ev)
		}
		sort.Strings(events)
		b.WriteString(" on:" + strings.Join(events, ","))
	}
	if idOf != nil {
		if id, ok := idOf(n); ok {
			fmt.Fprintf(&b, " #%d", id)
		}
	}
	return b.String()
}
