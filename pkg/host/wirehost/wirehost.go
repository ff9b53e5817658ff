// Package wirehost is a host adapter that turns primitives into protocol
// ops. A shadow memhost tree keeps node ids and event handlers on the
// sending side; Mirror replays the ops into a tree on the receiving side.
package wirehost

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/protocol"
)

// Host buffers protocol ops for every primitive. It is not safe for
// concurrent use; drive it from the session loop.
type Host struct {
	shadow *memhost.Host
	root   *memhost.Node
	byID   map[uint32]*memhost.Node
	ops    []protocol.Op
	seq    uint64
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

// New creates a host whose container has id protocol.RootID.
func New(opts ...Option) *Host {
	h := &Host{
		shadow: memhost.New(),
		byID:   make(map[uint32]*memhost.Node),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.root = h.shadow.Root("root")
	if uint32(h.root.ID) != protocol.RootID {
		panic(fmt.Sprintf("wirehost: root id %d, want %d", h.root.ID, protocol.RootID))
	}
	h.byID[protocol.RootID] = h.root
	return h
}

// Root returns the container handle.
func (h *Host) Root() host.Handle {
	return h.root
}

// Resolve implements host.Resolver for "root", "#root" and the root handle.
func (h *Host) Resolve(target any) (host.Handle, bool) {
	return h.shadow.Resolve(target)
}

// Tree returns the shadow tree of what the remote side should hold.
func (h *Host) Tree() *memhost.Node {
	return h.root
}

func (h *Host) emit(op protocol.Op) {
	h.ops = append(h.ops, op)
}

func (h *Host) track(v host.Handle) *memhost.Node {
	n := v.(*memhost.Node)
	h.byID[uint32(n.ID)] = n
	return n
}

func idOf(v host.Handle) uint32 {
	n, ok := v.(*memhost.Node)
	if !ok || n == nil {
		return 0
	}
	return uint32(n.ID)
}

// CreateElement implements host.Adapter.
func (h *Host) CreateElement(tag string) host.Handle {
	n := h.track(h.shadow.CreateElement(tag))
	h.emit(protocol.Op{Code: protocol.OpCreateElement, Node: uint32(n.ID), Tag: tag})
	return n
}

// CreateText implements host.Adapter.
func (h *Host) CreateText(text string) host.Handle {
	n := h.track(h.shadow.CreateText(text))
	h.emit(protocol.Op{Code: protocol.OpCreateText, Node: uint32(n.ID), Text: text})
	return n
}

// CreateComment implements host.Adapter.
func (h *Host) CreateComment(text string) host.Handle {
	n := h.track(h.shadow.CreateComment(text))
	h.emit(protocol.Op{Code: protocol.OpCreateComment, Node: uint32(n.ID), Text: text})
	return n
}

// SetElementText implements host.Adapter.
func (h *Host) SetElementText(el host.Handle, text string) {
	h.shadow.SetElementText(el, text)
	h.emit(protocol.Op{Code: protocol.OpSetElementText, Node: idOf(el), Text: text})
}

// SetText implements host.Adapter.
func (h *Host) SetText(node host.Handle, text string) {
	h.shadow.SetText(node, text)
	h.emit(protocol.Op{Code: protocol.OpSetText, Node: idOf(node), Text: text})
}

// Insert implements host.Adapter.
func (h *Host) Insert(node, parent, anchor host.Handle) {
	h.shadow.Insert(node, parent, anchor)
	h.emit(protocol.Op{Code: protocol.OpInsert, Node: idOf(node), Parent: idOf(parent), Anchor: idOf(anchor)})
}

// Remove implements host.Adapter. The removed subtree stops receiving events.
func (h *Host) Remove(node host.Handle) {
	h.shadow.Remove(node)
	n := node.(*memhost.Node)
	for _, x := range n.FindAll(func(*memhost.Node) bool { return true }) {
		delete(h.byID, uint32(x.ID))
	}
	h.emit(protocol.Op{Code: protocol.OpRemove, Node: uint32(n.ID)})
}

// PatchProp implements host.Adapter. Handlers stay on this side; the remote
// only learns which events to forward.
func (h *Host) PatchProp(el host.Handle, key string, prev, next any) {
	h.shadow.PatchProp(el, key, prev, next)
	id := idOf(el)
	if host.IsEventProp(key) {
		if _, ok := host.AsHandler(next); ok {
			if _, had := host.AsHandler(prev); !had {
				h.emit(protocol.Op{Code: protocol.OpSetHandler, Node: id, Key: host.EventName(key)})
			}
		} else {
			h.emit(protocol.Op{Code: protocol.OpRemoveHandler, Node: id, Key: host.EventName(key)})
		}
		return
	}
	if next == nil {
		h.emit(protocol.Op{Code: protocol.OpRemoveProp, Node: id, Key: key})
		return
	}
	h.emit(protocol.Op{Code: protocol.OpSetProp, Node: id, Key: key, Value: next})
}

// NextSibling implements host.Navigator from the shadow tree.
func (h *Host) NextSibling(node host.Handle) (host.Handle, bool) {
	return h.shadow.NextSibling(node)
}

// Pending returns the number of buffered ops.
func (h *Host) Pending() int {
	return len(h.ops)
}

// Seq returns the sequence number of the last frame batch.
func (h *Host) Seq() uint64 {
	return h.seq
}

// TakeFrames drains the buffered ops into patches frames. It returns nil
// when nothing is buffered.
func (h *Host) TakeFrames() []*protocol.Frame {
	if len(h.ops) == 0 {
		return nil
	}
	h.seq++
	frames := protocol.EncodePatchFrames(h.seq, h.ops)
	h.logger.Debug("wirehost: frames", "seq", h.seq, "ops", len(h.ops), "frames", len(frames))
	h.ops = nil
	return frames
}

// Dispatch delivers a client event to the handler registered on its node.
// Failures are returned as *protocol.ErrorMessage.
func (h *Host) Dispatch(ev *protocol.Event) error {
	n, ok := h.byID[ev.Node]
	if !ok {
		return protocol.NewError(protocol.ErrHandlerNotFound, fmt.Sprintf("unknown node %d", ev.Node))
	}
	data := make(map[string]any, len(ev.Data))
	for k, v := range ev.Data {
		data[k] = v
	}
	if !h.shadow.Dispatch(n, host.Event{Type: ev.Type, Value: ev.Value, Data: data}) {
		return protocol.NewError(protocol.ErrHandlerNotFound, fmt.Sprintf("no %s handler on node %d", ev.Type, ev.Node))
	}
	return nil
}

var (
	_ host.Adapter   = (*Host)(nil)
	_ host.Resolver  = (*Host)(nil)
	_ host.Navigator = (*Host)(nil)
)
