package renderer

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

// Observer receives one call per component render.
type Observer interface {
	// ObserveRender reports a render derivation. err is non-nil when it
	// panicked.
	ObserveRender(component string, d time.Duration, err error)
}

// Renderer reconciles trees against one host adapter. It is not safe for
// concurrent use; drive it from the goroutine that owns the runtime.
type Renderer struct {
	host host.Adapter
	rt   *reactive.Runtime

	// memo holds the tree last rendered into each container.
	memo map[host.Handle]*vnode.Node

	logger   *slog.Logger
	tracer   trace.Tracer
	observer Observer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer used for component update spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Renderer) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithObserver registers an Observer for component renders.
func WithObserver(o Observer) Option {
	return func(r *Renderer) {
		r.observer = o
	}
}

// New creates a Renderer that applies trees through a and runs component
// effects on rt.
func New(a host.Adapter, rt *reactive.Runtime, opts ...Option) *Renderer {
	r := &Renderer{
		host:   a,
		rt:     rt,
		memo:   make(map[host.Handle]*vnode.Node),
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/vango-dev/kinetic/pkg/renderer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Runtime returns the reactive runtime components run on.
func (r *Renderer) Runtime() *reactive.Runtime {
	return r.rt
}

// Host returns the adapter trees are applied through.
func (r *Renderer) Host() host.Adapter {
	return r.host
}

// Render makes container show n. The previous tree of container is patched
// against n; a nil n unmounts it and forgets the container.
func (r *Renderer) Render(n *vnode.Node, container host.Handle) {
	prev := r.memo[container]
	if n == nil {
		if prev != nil {
			r.unmount(prev, true)
		}
		delete(r.memo, container)
		return
	}
	r.Patch(prev, n, container, nil)
	r.memo[container] = n
}

// Tree returns the tree last rendered into container, or nil.
func (r *Renderer) Tree(container host.Handle) *vnode.Node {
	return r.memo[container]
}

// Patch reconciles old into n inside container. New host nodes are inserted
// before anchor, or appended when anchor is nil. A nil old mounts n.
func (r *Renderer) Patch(old, n *vnode.Node, container, anchor host.Handle) {
	if old == n {
		return
	}
	if old != nil && !vnode.SameNode(old, n) {
		if next, ok := r.nextHostNode(old); ok {
			anchor = next
		}
		r.unmount(old, true)
		old = nil
	}

	switch n.Kind {
	case vnode.KindText:
		r.processText(old, n, container, anchor)
	case vnode.KindComment:
		r.processComment(old, n, container, anchor)
	case vnode.KindFragment:
		r.processFragment(old, n, container, anchor)
	case vnode.KindElement:
		r.processElement(old, n, container, anchor)
	case vnode.KindComponent:
		r.processComponent(old, n, container, anchor)
	default:
		panic(fmt.Sprintf("renderer: unknown node kind %d", n.Kind))
	}
}

func (r *Renderer) processText(old, n *vnode.Node, container, anchor host.Handle) {
	if old == nil {
		n.Handle = r.host.CreateText(n.Text)
		r.host.Insert(n.Handle, container, anchor)
		return
	}
	n.Handle = old.Handle
	if n.Text != old.Text {
		r.host.SetText(n.Handle, n.Text)
	}
}

func (r *Renderer) processComment(old, n *vnode.Node, container, anchor host.Handle) {
	if old == nil {
		n.Handle = r.host.CreateComment(n.Text)
		r.host.Insert(n.Handle, container, anchor)
		return
	}
	n.Handle = old.Handle
	if n.Text != old.Text {
		r.host.SetText(n.Handle, n.Text)
	}
}

// processFragment mounts or diffs a fragment's children directly into
// container. Text children are promoted to a single text node so the
// container's other children are never touched by SetElementText.
func (r *Renderer) processFragment(old, n *vnode.Node, container, anchor host.Handle) {
	if n.Shape != vnode.ShapeList {
		var kids []*vnode.Node
		if n.Shape == vnode.ShapeText {
			kids = []*vnode.Node{vnode.Text(n.Text)}
		}
		n.SetChildren(kids)
	}
	if old == nil {
		r.mountChildren(n.Children, container, anchor)
		return
	}
	r.patchChildren(old, n, container, anchor)
}

func (r *Renderer) processElement(old, n *vnode.Node, container, anchor host.Handle) {
	if old == nil {
		r.mountElement(n, container, anchor)
		return
	}
	el := old.Handle
	n.Handle = el
	r.patchChildren(old, n, el, nil)
	r.patchProps(el, old.Props, n.Props)
}

func (r *Renderer) mountElement(n *vnode.Node, container, anchor host.Handle) {
	el := r.host.CreateElement(n.Tag)
	n.Handle = el

	switch n.Shape {
	case vnode.ShapeText:
		r.host.SetElementText(el, n.Text)
	case vnode.ShapeList:
		r.mountChildren(n.Children, el, nil)
	}

	for _, key := range sortedProps(n.Props) {
		if v := n.Props[key]; v != nil {
			r.host.PatchProp(el, key, nil, v)
		}
	}

	r.host.Insert(el, container, anchor)
}

func (r *Renderer) mountChildren(children []*vnode.Node, container, anchor host.Handle) {
	normalizeChildren(children)
	for _, c := range children {
		r.Patch(nil, c, container, anchor)
	}
}

// patchProps applies changed and added props, then removes props missing
// from next. Functions always count as changed.
func (r *Renderer) patchProps(el host.Handle, prev, next vnode.Props) {
	for _, key := range sortedProps(next) {
		old, v := prev[key], next[key]
		if reactive.Changed(old, v) {
			r.host.PatchProp(el, key, old, v)
		}
	}
	for _, key := range sortedProps(prev) {
		if _, ok := next[key]; !ok {
			r.host.PatchProp(el, key, prev[key], nil)
		}
	}
}

// unmount releases n. Host nodes are removed only when remove is set; the
// children of a removed element go with it, so they are only walked to stop
// component effects.
func (r *Renderer) unmount(n *vnode.Node, remove bool) {
	switch n.Kind {
	case vnode.KindElement:
		if n.Shape == vnode.ShapeList {
			for _, c := range n.Children {
				r.unmount(c, false)
			}
		}
		if remove && n.Handle != nil {
			r.host.Remove(n.Handle)
		}
	case vnode.KindText, vnode.KindComment:
		if remove && n.Handle != nil {
			r.host.Remove(n.Handle)
		}
	case vnode.KindFragment:
		for _, c := range n.Children {
			r.unmount(c, remove)
		}
	case vnode.KindComponent:
		if inst, ok := n.Instance.(*Instance); ok {
			inst.unmount(remove)
		}
	}
}

func (r *Renderer) unmountChildren(children []*vnode.Node) {
	for _, c := range children {
		r.unmount(c, true)
	}
}

// move re-inserts every host node of n before anchor.
func (r *Renderer) move(n *vnode.Node, container, anchor host.Handle) {
	switch n.Kind {
	case vnode.KindFragment:
		for _, c := range n.Children {
			r.move(c, container, anchor)
		}
	case vnode.KindComponent:
		if inst, ok := n.Instance.(*Instance); ok {
			inst.anchor = anchor
			if inst.subTree != nil {
				r.move(inst.subTree, container, anchor)
			}
		}
	default:
		if n.Handle != nil {
			r.host.Insert(n.Handle, container, anchor)
		}
	}
}

// nextHostNode returns the host node following the last host node of n when
// the adapter can tell.
func (r *Renderer) nextHostNode(n *vnode.Node) (host.Handle, bool) {
	nav, ok := r.host.(host.Navigator)
	if !ok {
		return nil, false
	}
	last := lastHandle(n)
	if last == nil {
		return nil, false
	}
	return nav.NextSibling(last)
}

// anchorAfter returns the host node following prev; nil means prev is last
// in its parent. fallback is returned when prev is nil or the adapter
// cannot say where it sits.
func (r *Renderer) anchorAfter(prev *vnode.Node, fallback host.Handle) host.Handle {
	if prev == nil {
		return fallback
	}
	if h, ok := r.nextHostNode(prev); ok {
		return h
	}
	return fallback
}

// realizes reports whether mounting n creates at least one host node.
func realizes(n *vnode.Node) bool {
	if n == nil {
		return false
	}
	if n.Kind != vnode.KindFragment || n.Shape == vnode.ShapeText {
		return true
	}
	for _, c := range n.Children {
		if c == nil || realizes(c) {
			return true
		}
	}
	return false
}

// firstHandle returns the first host node realized for n, looking through
// fragments and components.
func firstHandle(n *vnode.Node) host.Handle {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case vnode.KindFragment:
		for _, c := range n.Children {
			if h := firstHandle(c); h != nil {
				return h
			}
		}
		return nil
	case vnode.KindComponent:
		if inst, ok := n.Instance.(*Instance); ok {
			return firstHandle(inst.subTree)
		}
		return nil
	}
	return n.Handle
}

func lastHandle(n *vnode.Node) host.Handle {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case vnode.KindFragment:
		for i := len(n.Children) - 1; i >= 0; i-- {
			if h := lastHandle(n.Children[i]); h != nil {
				return h
			}
		}
		return nil
	case vnode.KindComponent:
		if inst, ok := n.Instance.(*Instance); ok {
			return lastHandle(inst.subTree)
		}
		return nil
	}
	return n.Handle
}

// anchorAt returns the first host node at or after position i in children,
// or fallback when none is realized.
func anchorAt(children []*vnode.Node, i int, fallback host.Handle) host.Handle {
	for ; i < len(children); i++ {
		if h := firstHandle(children[i]); h != nil {
			return h
		}
	}
	return fallback
}

// normalizeChildren replaces nil entries with empty comments so every
// position has a host node.
func normalizeChildren(children []*vnode.Node) {
	for i, c := range children {
		if c == nil {
			children[i] = vnode.Comment("")
		}
	}
}

func sortedProps(p vnode.Props) []string {
	if len(p) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
