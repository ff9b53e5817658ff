// Package memhost is an in-memory host adapter.
//
// It keeps a plain node tree plus a log of every primitive applied to it,
// which makes it the adapter of choice for tests, the CLI demo, and the
// receiving side of the wire protocol.
package memhost

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/kinetic/pkg/host"
)

// Type discriminates memhost nodes.
type Type uint8

const (
	TypeElement Type = iota
	TypeText
	TypeComment
	TypeRoot
)

// Node is one in-memory host node.
type Node struct {
	ID       int
	Type     Type
	Tag      string // element tag or root name
	Text     string // text and comment payload
	Props    map[string]any
	Handlers map[string]host.Handler
	Parent   *Node
	Children []*Node
}

// Entry is one logged primitive.
type Entry struct {
	Op     host.Op
	Node   int
	Parent int    // insert only
	Anchor int    // insert only; 0 means append
	Move   bool   // insert of an attached node
	Key    string // patch_prop only
	Value  any    // text payload or next prop value
}

// Host is an in-memory adapter. It is not safe for concurrent use.
type Host struct {
	nextID int
	roots  map[string]*Node
	log    []Entry
	logger *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates an empty host.
func New(opts ...Option) *Host {
	h := &Host{
		roots:  make(map[string]*Node),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) newNode(t Type) *Node {
	h.nextID++
	return &Node{ID: h.nextID, Type: t}
}

// Root returns the named container, creating it on first use. Resolve finds
// roots by name or "#name".
func (h *Host) Root(name string) *Node {
	if r, ok := h.roots[name]; ok {
		return r
	}
	r := h.newNode(TypeRoot)
	r.Tag = name
	h.roots[name] = r
	return r
}

// Resolve implements host.Resolver. It accepts a *Node, a root name, or a
// "#name" selector for an existing root.
func (h *Host) Resolve(target any) (host.Handle, bool) {
	switch v := target.(type) {
	case *Node:
		return v, v != nil
	case string:
		if len(v) > 1 && v[0] == '#' {
			v = v[1:]
		}
		r, ok := h.roots[v]
		if !ok {
			return nil, false
		}
		return r, true
	}
	return nil, false
}

// CreateElement implements host.Adapter.
func (h *Host) CreateElement(tag string) host.Handle {
	n := h.newNode(TypeElement)
	n.Tag = tag
	h.record(Entry{Op: host.OpCreateElement, Node: n.ID, Value: tag})
	return n
}

// CreateText implements host.Adapter.
func (h *Host) CreateText(text string) host.Handle {
	n := h.newNode(TypeText)
	n.Text = text
	h.record(Entry{Op: host.OpCreateText, Node: n.ID, Value: text})
	return n
}

// CreateComment implements host.Adapter.
func (h *Host) CreateComment(text string) host.Handle {
	n := h.newNode(TypeComment)
	n.Text = text
	h.record(Entry{Op: host.OpCreateComment, Node: n.ID, Value: text})
	return n
}

// SetElementText replaces el's children with a single text node, or clears
// them when text is empty.
func (h *Host) SetElementText(el host.Handle, text string) {
	n := mustNode(el)
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	if text != "" {
		t := h.newNode(TypeText)
		t.Text = text
		t.Parent = n
		n.Children = []*Node{t}
	}
	h.record(Entry{Op: host.OpSetElementText, Node: n.ID, Value: text})
}

// SetText implements host.Adapter.
func (h *Host) SetText(node host.Handle, text string) {
	n := mustNode(node)
	n.Text = text
	h.record(Entry{Op: host.OpSetText, Node: n.ID, Value: text})
}

// Insert implements host.Adapter. An attached node is detached first and the
// entry is logged as a move.
func (h *Host) Insert(node, parent, anchor host.Handle) {
	n, p := mustNode(node), mustNode(parent)
	moved := n.Parent != nil
	if moved {
		n.Parent.detach(n)
	}

	idx := len(p.Children)
	anchorID := 0
	if a, ok := anchor.(*Node); ok && a != nil {
		idx = p.indexOf(a)
		if idx < 0 {
			panic(fmt.Sprintf("memhost: anchor %d is not a child of %d", a.ID, p.ID))
		}
		anchorID = a.ID
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[idx+1:], p.Children[idx:])
	p.Children[idx] = n
	n.Parent = p

	h.record(Entry{Op: host.OpInsert, Node: n.ID, Parent: p.ID, Anchor: anchorID, Move: moved})
}

// Remove implements host.Adapter. Removing a detached node is a no-op.
func (h *Host) Remove(node host.Handle) {
	n := mustNode(node)
	if n.Parent != nil {
		n.Parent.detach(n)
	}
	h.record(Entry{Op: host.OpRemove, Node: n.ID})
}

// PatchProp implements host.Adapter. Event props register handlers; a nil
// next removes the prop.
func (h *Host) PatchProp(el host.Handle, key string, prev, next any) {
	n := mustNode(el)
	if host.IsEventProp(key) {
		name := host.EventName(key)
		if fn, ok := host.AsHandler(next); ok {
			if n.Handlers == nil {
				n.Handlers = make(map[string]host.Handler)
			}
			n.Handlers[name] = fn
		} else {
			delete(n.Handlers, name)
		}
	} else if next == nil {
		delete(n.Props, key)
	} else {
		if n.Props == nil {
			n.Props = make(map[string]any)
		}
		n.Props[key] = next
	}
	h.record(Entry{Op: host.OpPatchProp, Node: n.ID, Key: key, Value: next})
}

// NextSibling implements host.Navigator.
func (h *Host) NextSibling(node host.Handle) (host.Handle, bool) {
	n := mustNode(node)
	if n.Parent == nil {
		return nil, false
	}
	i := n.Parent.indexOf(n)
	if i+1 < len(n.Parent.Children) {
		return n.Parent.Children[i+1], true
	}
	return nil, true
}

// Dispatch invokes node's handler for ev.Type. It reports whether a handler
// was found.
func (h *Host) Dispatch(node *Node, ev host.Event) bool {
	fn, ok := node.Handlers[ev.Type]
	if !ok {
		h.logger.Debug("memhost: no handler", "node", node.ID, "event", ev.Type)
		return false
	}
	fn(ev)
	return true
}

func (h *Host) record(e Entry) {
	h.log = append(h.log, e)
}

// Log returns the primitives applied since the last Reset.
func (h *Host) Log() []Entry {
	return h.log
}

// Reset clears the log.
func (h *Host) Reset() {
	h.log = nil
}

// Count returns how many logged entries have the given op.
func (h *Host) Count(op host.Op) int {
	n := 0
	for _, e := range h.log {
		if e.Op == op {
			n++
		}
	}
	return n
}

// Moves returns the number of logged inserts that moved an attached node.
func (h *Host) Moves() int {
	n := 0
	for _, e := range h.log {
		if e.Op == host.OpInsert && e.Move {
			n++
		}
	}
	return n
}

func mustNode(v host.Handle) *Node {
	n, ok := v.(*Node)
	if !ok || n == nil {
		panic(fmt.Sprintf("memhost: foreign handle %T", v))
	}
	return n
}

func (n *Node) indexOf(c *Node) int {
	for i, x := range n.Children {
		if x == c {
			return i
		}
	}
	return -1
}

func (n *Node) detach(c *Node) {
	if i := n.indexOf(c); i >= 0 {
		n.Children = append(n.Children[:i], n.Children[i+1:]...)
	}
	c.Parent = nil
}

var (
	_ host.Adapter   = (*Host)(nil)
	_ host.Resolver  = (*Host)(nil)
	_ host.Navigator = (*Host)(nil)
)
