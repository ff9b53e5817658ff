package renderer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

// Component is a stateful component descriptor. Nodes created with
// vnode.Comp(c) for the same *Component are the same logical node.
//
// Hooks run in this order: Setup, BeforeCreate, Data, Created, BeforeMount,
// the first render, Mounted.
type Component struct {
	Name string

	// Setup runs once per instance. A Render in its result overrides the
	// descriptor's Render.
	Setup func(ctx *Context) SetupResult

	// Render derives the component's subtree. Reads of ctx state subscribe
	// the instance.
	Render func(ctx *Context) *vnode.Node

	// Data returns the initial state; it is wrapped into Context.State.
	Data func() map[string]any

	BeforeCreate func(ctx *Context)
	Created      func(ctx *Context)
	BeforeMount  func(ctx *Context)
	Mounted      func(ctx *Context)
}

// ComponentName implements vnode.Component.
func (c *Component) ComponentName() string {
	if c.Name == "" {
		return "Anonymous"
	}
	return c.Name
}

// SetupResult is returned by Component.Setup.
type SetupResult struct {
	Render func(ctx *Context) *vnode.Node

	// State is exposed through Context.Get ahead of data and props.
	State map[string]any
}

// Context is the render and hook scope of one instance.
type Context struct {
	// State is the reactive view of Data's result; nil without Data.
	State *reactive.Proxy
	// Props holds the props passed by the parent node.
	Props *reactive.Proxy
	// Setup holds SetupResult.State.
	Setup map[string]any

	Runtime *reactive.Runtime

	inst *Instance
}

// Get looks key up in Setup, then State, then Props. State and props reads
// are tracked.
func (c *Context) Get(key string) any {
	if v, ok := c.Setup[key]; ok {
		return v
	}
	if c.State != nil && c.State.Has(key) {
		return c.State.Get(key)
	}
	return c.Props.Get(key)
}

// Set writes key into State.
func (c *Context) Set(key string, value any) {
	if c.State == nil {
		panic(fmt.Sprintf("renderer: %s has no data to set %q on", c.inst.Name(), key))
	}
	c.State.Set(key, value)
}

// Instance returns the component instance.
func (c *Context) Instance() *Instance {
	return c.inst
}

// Instance is a mounted component.
type Instance struct {
	uid  uint64
	desc *Component
	r    *Renderer

	// vnode is the node the instance currently belongs to; next is the
	// node a parent patch handed over, consumed by the next update.
	vnode *vnode.Node
	next  *vnode.Node

	ctx     *Context
	render  func(*Context) *vnode.Node
	subTree *vnode.Node
	effect  *reactive.Effect

	mounted       bool
	beforeMounted bool
	unmounted     bool

	container host.Handle
	anchor    host.Handle
}

// UID returns the instance id.
func (inst *Instance) UID() uint64 { return inst.uid }

// Name returns the descriptor name.
func (inst *Instance) Name() string { return inst.desc.ComponentName() }

// Mounted reports whether the first render reached the host.
func (inst *Instance) Mounted() bool { return inst.mounted }

// SubTree returns the tree last rendered.
func (inst *Instance) SubTree() *vnode.Node { return inst.subTree }

// Effect returns the render effect.
func (inst *Instance) Effect() *reactive.Effect { return inst.effect }

// Context returns the render scope.
func (inst *Instance) Context() *Context { return inst.ctx }

// Update re-renders synchronously.
func (inst *Instance) Update() {
	inst.effect.Run()
}

func (r *Renderer) processComponent(old, n *vnode.Node, container, anchor host.Handle) {
	if old == nil {
		r.mountComponent(n, container, anchor)
		return
	}
	r.updateComponent(old, n)
}

func (r *Renderer) mountComponent(n *vnode.Node, container, anchor host.Handle) {
	desc, ok := n.Component.(*Component)
	if !ok {
		panic(fmt.Sprintf("renderer: unsupported component descriptor %T", n.Component))
	}
	inst := &Instance{
		uid:       scheduler.NextID(),
		desc:      desc,
		r:         r,
		vnode:     n,
		container: container,
		anchor:    anchor,
	}
	n.Instance = inst

	r.rt.Untracked(inst.setup)

	inst.effect = r.rt.NewEffect(inst.update,
		reactive.Lazy(),
		reactive.WithScheduler(func() { r.rt.Scheduler().Enqueue(inst.effect) }))
	inst.effect.Run()
}

// setup materializes the instance state. It runs untracked so a parent
// render never subscribes to reads made here.
func (inst *Instance) setup() {
	rt := inst.r.rt
	props := make(map[string]any, len(inst.vnode.Props))
	for k, v := range inst.vnode.Props {
		props[k] = v
	}
	inst.ctx = &Context{
		Props:   rt.Wrap(props),
		Runtime: rt,
		inst:    inst,
	}

	desc := inst.desc
	if desc.Setup != nil {
		res := desc.Setup(inst.ctx)
		inst.render = res.Render
		inst.ctx.Setup = res.State
	}
	if inst.render == nil {
		inst.render = desc.Render
	}
	if inst.render == nil {
		panic(fmt.Sprintf("renderer: component %s has no render function", inst.Name()))
	}

	inst.callHook(desc.BeforeCreate)
	if desc.Data != nil {
		if data := desc.Data(); data != nil {
			inst.ctx.State = rt.Wrap(data)
		}
	}
	inst.callHook(desc.Created)
}

func (inst *Instance) callHook(hook func(*Context)) {
	if hook == nil {
		return
	}
	inst.r.rt.Untracked(func() { hook(inst.ctx) })
}

// update is the body of the instance's render effect.
func (inst *Instance) update() {
	r := inst.r
	op := "mount"
	if inst.mounted {
		op = "update"
	}
	_, span := r.tracer.Start(context.Background(), "component."+op,
		trace.WithAttributes(
			attribute.String("kinetic.component", inst.Name()),
			attribute.Int64("kinetic.component.uid", int64(inst.uid)),
		))
	defer span.End()

	if !inst.mounted {
		if !inst.beforeMounted {
			inst.beforeMounted = true
			inst.callHook(inst.desc.BeforeMount)
		}
		tree, err := inst.renderRoot()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			if inst.subTree == nil {
				// Hold the instance's position until a render succeeds.
				inst.subTree = vnode.Comment("")
				r.Patch(nil, inst.subTree, inst.container, inst.anchor)
				inst.vnode.Handle = firstHandle(inst.subTree)
			}
			return
		}
		prev := inst.subTree
		inst.subTree = tree
		r.Patch(prev, tree, inst.container, r.anchorAfter(prev, inst.anchor))
		inst.vnode.Handle = firstHandle(tree)
		inst.callHook(inst.desc.Mounted)
		inst.mounted = true
		return
	}

	next := inst.next
	if next == nil {
		next = inst.vnode
	}
	inst.next = nil

	tree, err := inst.renderRoot()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	prev := inst.subTree
	inst.subTree = tree
	r.Patch(prev, tree, inst.container, r.anchorAfter(prev, inst.anchor))

	next.Handle = firstHandle(tree)
	inst.vnode = next
}

// renderRoot runs the render function. A panic is recovered, logged and
// returned; the caller keeps the previous subtree and the effect keeps the
// dependencies read before the panic, so the next write retries.
func (inst *Instance) renderRoot() (tree *vnode.Node, err error) {
	r := inst.r
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			ke := kerrors.FromPanic(v, kerrors.CodeRenderFailed).WithComponent(inst.Name())
			r.logger.Error("component render failed",
				"code", ke.Code,
				"component", inst.Name(),
				"uid", inst.uid,
				"error", ke.Wrapped,
				"stack", ke.Stack)
			tree, err = nil, ke
		}
		if r.observer != nil {
			r.observer.ObserveRender(inst.Name(), time.Since(start), err)
		}
	}()

	tree = inst.render(inst.ctx)
	if !realizes(tree) {
		tree = vnode.Comment("")
	}
	return tree, nil
}

// updateComponent hands n to the existing instance and writes changed props
// into its props proxy. The writes trigger the instance like any other state
// change.
func (r *Renderer) updateComponent(old, n *vnode.Node) {
	inst, ok := old.Instance.(*Instance)
	if !ok {
		panic(fmt.Sprintf("renderer: component node %s has no instance", old))
	}
	n.Instance = inst
	n.Handle = old.Handle
	inst.next = n
	inst.vnode = n

	props := inst.ctx.Props
	for _, key := range sortedProps(n.Props) {
		if v := n.Props[key]; reactive.Changed(props.Peek(key), v) {
			props.Set(key, v)
		}
	}
	for _, key := range props.Keys() {
		if _, ok := n.Props[key]; !ok {
			props.Delete(key)
		}
	}
}

// unmount stops the render effect and releases the subtree.
func (inst *Instance) unmount(remove bool) {
	if inst.unmounted {
		return
	}
	inst.unmounted = true
	if inst.effect != nil {
		inst.effect.Stop()
	}
	if inst.subTree != nil {
		inst.r.unmount(inst.subTree, remove)
	}
	inst.mounted = false
}

// Unmounted reports whether the instance was unmounted.
func (inst *Instance) Unmounted() bool { return inst.unmounted }
