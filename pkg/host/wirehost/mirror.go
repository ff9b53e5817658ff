package wirehost

import (
	"fmt"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/protocol"
)

// Mirror applies patches frames to a memhost tree, reproducing the sender's
// shadow tree.
type Mirror struct {
	host  *memhost.Host
	root  *memhost.Node
	nodes map[uint32]*memhost.Node
	ids   map[*memhost.Node]uint32
	seq   uint64

	// OnEvent, when set, receives events fired on mirrored nodes whose
	// handlers were registered by the sender.
	OnEvent func(protocol.Event)
}

// NewMirror creates a mirror that renders into root.
func NewMirror(h *memhost.Host, root *memhost.Node) *Mirror {
	m := &Mirror{
		host:  h,
		root:  root,
		nodes: map[uint32]*memhost.Node{protocol.RootID: root},
		ids:   map[*memhost.Node]uint32{root: protocol.RootID},
	}
	return m
}

// Root returns the container the mirror renders into.
func (m *Mirror) Root() *memhost.Node {
	return m.root
}

// Seq returns the sequence number of the last applied frame.
func (m *Mirror) Seq() uint64 {
	return m.seq
}

// Node returns the mirrored node for a wire id.
func (m *Mirror) Node(id uint32) (*memhost.Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// ID returns the wire id of a mirrored node.
func (m *Mirror) ID(n *memhost.Node) (uint32, bool) {
	id, ok := m.ids[n]
	return id, ok
}

// Apply decodes a patches frame and applies its ops.
func (m *Mirror) Apply(f *protocol.Frame) error {
	if f.Type != protocol.FramePatches {
		return fmt.Errorf("wirehost: mirror cannot apply %s frame: %w", f.Type, protocol.ErrInvalidFrameType)
	}
	pf, err := protocol.DecodePatches(f.Payload)
	if err != nil {
		return fmt.Errorf("wirehost: decode patches: %w", err)
	}
	m.seq = pf.Seq
	return m.ApplyOps(pf.Ops)
}

// ApplyOps applies decoded ops in order, stopping at the first op that
// references an unknown node.
func (m *Mirror) ApplyOps(ops []protocol.Op) error {
	for i := range ops {
		if err := m.apply(&ops[i]); err != nil {
			return fmt.Errorf("wirehost: op %d (%s): %w", i, ops[i].Code, err)
		}
	}
	return nil
}

func (m *Mirror) lookup(id uint32) (*memhost.Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("unknown node %d", id)
	}
	return n, nil
}

func (m *Mirror) add(id uint32, h host.Handle) {
	n := h.(*memhost.Node)
	m.nodes[id] = n
	m.ids[n] = id
}

func (m *Mirror) apply(op *protocol.Op) error {
	switch op.Code {
	case protocol.OpCreateElement:
		m.add(op.Node, m.host.CreateElement(op.Tag))
		return nil
	case protocol.OpCreateText:
		m.add(op.Node, m.host.CreateText(op.Text))
		return nil
	case protocol.OpCreateComment:
		m.add(op.Node, m.host.CreateComment(op.Text))
		return nil
	}

	n, err := m.lookup(op.Node)
	if err != nil {
		return err
	}
	switch op.Code {
	case protocol.OpSetElementText:
		m.host.SetElementText(n, op.Text)
	case protocol.OpSetText:
		m.host.SetText(n, op.Text)
	case protocol.OpInsert:
		parent, err := m.lookup(op.Parent)
		if err != nil {
			return err
		}
		var anchor host.Handle
		if op.Anchor != 0 {
			a, err := m.lookup(op.Anchor)
			if err != nil {
				return err
			}
			anchor = a
		}
		m.host.Insert(n, parent, anchor)
	case protocol.OpRemove:
		m.host.Remove(n)
		for _, x := range n.FindAll(func(*memhost.Node) bool { return true }) {
			if id, ok := m.ids[x]; ok {
				delete(m.nodes, id)
				delete(m.ids, x)
			}
		}
	case protocol.OpSetProp:
		m.host.PatchProp(n, op.Key, n.Props[op.Key], op.Value)
	case protocol.OpRemoveProp:
		m.host.PatchProp(n, op.Key, n.Props[op.Key], nil)
	case protocol.OpSetHandler:
		id := op.Node
		m.host.PatchProp(n, "on"+op.Key, nil, host.Handler(func(ev host.Event) {
			if m.OnEvent == nil {
				return
			}
			data := make(map[string]string, len(ev.Data))
			for k, v := range ev.Data {
				data[k] = fmt.Sprint(v)
			}
			m.OnEvent(protocol.Event{Node: id, Type: ev.Type, Value: ev.Value, Data: data})
		}))
	case protocol.OpRemoveHandler:
		m.host.PatchProp(n, "on"+op.Key, nil, nil)
	default:
		return fmt.Errorf("unsupported op 0x%02x", byte(op.Code))
	}
	return nil
}
