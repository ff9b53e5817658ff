package reactive

import (
	"log/slog"
	"reflect"
	"unsafe"

	"github.com/vango-dev/kinetic/pkg/scheduler"
)

// Runtime holds the dependency graph and the active-subscriber slot.
type Runtime struct {
	sched *scheduler.Scheduler

	// active is the effect whose derivation is currently running, or nil.
	active *Effect

	// Wrapped targets live in an arena indexed by the id assigned at first wrap.
	index   map[identity]int
	targets []*target

	logger *slog.Logger
}

// identity is the address of a wrapped record plus its type, so a struct
// pointer and a pointer to its first field are distinct targets.
type identity struct {
	typ reflect.Type
	ptr unsafe.Pointer
}

type target struct {
	id    int
	raw   any
	acc   accessor
	proxy *Proxy
	// deps is created on the first tracked read.
	deps map[string]*Dep
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// New creates a Runtime that defers effect re-runs through s.
func New(s *scheduler.Scheduler, opts ...Option) *Runtime {
	rt := &Runtime{
		sched:  s,
		index:  make(map[identity]int),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Scheduler returns the scheduler used for deferred re-runs.
func (rt *Runtime) Scheduler() *scheduler.Scheduler {
	return rt.sched
}

// Active returns the effect currently running, or nil.
func (rt *Runtime) Active() *Effect {
	return rt.active
}

// Untracked runs fn without a current subscriber. Reads inside fn create no
// dependencies.
func (rt *Runtime) Untracked(fn func()) {
	prev := rt.active
	rt.active = nil
	defer func() { rt.active = prev }()
	fn()
}

// Targets returns the number of wrapped targets.
func (rt *Runtime) Targets() int {
	return len(rt.targets)
}

// DepCount returns the number of subscribers of the (target, key) pair, or 0
// if the target was never wrapped or the key never tracked.
func (rt *Runtime) DepCount(v any, key string) int {
	if p, ok := v.(*Proxy); ok {
		return p.t.deps[key].Len()
	}
	id, ok := identify(v)
	if !ok {
		return 0
	}
	idx, ok := rt.index[id]
	if !ok {
		return 0
	}
	return rt.targets[idx].deps[key].Len()
}

func (rt *Runtime) track(t *target, key string) {
	if rt.active == nil {
		return
	}
	if t.deps == nil {
		t.deps = make(map[string]*Dep)
	}
	d := t.deps[key]
	if d == nil {
		d = newDep()
		t.deps[key] = d
	}
	rt.trackDep(d)
}

// trackDep subscribes the active effect to d.
func (rt *Runtime) trackDep(d *Dep) {
	e := rt.active
	if e == nil || e.stopped {
		return
	}
	if d.add(e) {
		e.deps = append(e.deps, d)
	}
}

// trackLazy subscribes the active effect to *dp, allocating it on first use.
func (rt *Runtime) trackLazy(dp **Dep) {
	if rt.active == nil {
		return
	}
	if *dp == nil {
		*dp = newDep()
	}
	rt.trackDep(*dp)
}

func (rt *Runtime) trigger(t *target, key string) {
	if t.deps == nil {
		return
	}
	rt.triggerDep(t.deps[key])
}

// triggerDep notifies every subscriber of d. Computed-backed subscribers are
// invalidated first so plain effects observe fresh computed values.
func (rt *Runtime) triggerDep(d *Dep) {
	if d == nil || len(d.subs) == 0 {
		return
	}
	subs := d.snapshot()
	for _, e := range subs {
		if e.computed {
			rt.triggerEffect(e)
		}
	}
	for _, e := range subs {
		if !e.computed {
			rt.triggerEffect(e)
		}
	}
}

// triggerEffect schedules or runs e. The running effect is skipped so an
// effect writing state it reads does not re-run itself.
func (rt *Runtime) triggerEffect(e *Effect) {
	if e.stopped || e == rt.active {
		return
	}
	if e.scheduler != nil {
		e.scheduler()
		return
	}
	e.Run()
}
