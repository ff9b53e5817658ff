package reactive

import "github.com/vango-dev/kinetic/pkg/scheduler"

// Effect is a re-runnable derivation. While it runs it is the runtime's active
// subscriber, so every tracked read subscribes it. Effect implements
// scheduler.Job.
type Effect struct {
	id uint64
	rt *Runtime

	fn func()

	// scheduler, when set, is called on trigger instead of running fn
	// immediately.
	scheduler func()

	// computed marks the effect backing a Computed.
	computed bool

	stopped bool

	// deps are the sets this effect joined, kept so Stop can leave them.
	// Deps are never pruned between runs.
	deps []*Dep
}

// EffectOption configures an Effect created by NewEffect.
type EffectOption func(*effectConfig)

type effectConfig struct {
	scheduler func()
	lazy      bool
}

// WithScheduler makes triggers call fn instead of re-running the effect.
func WithScheduler(fn func()) EffectOption {
	return func(c *effectConfig) {
		c.scheduler = fn
	}
}

// Lazy skips the initial run. Call Run to establish dependencies.
func Lazy() EffectOption {
	return func(c *effectConfig) {
		c.lazy = true
	}
}

// NewEffect creates an effect and runs it once unless Lazy is given. Without
// WithScheduler a trigger re-runs fn synchronously.
func (rt *Runtime) NewEffect(fn func(), opts ...EffectOption) *Effect {
	var cfg effectConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	e := rt.newEffect(fn, false)
	e.scheduler = cfg.scheduler
	if !cfg.lazy {
		e.Run()
	}
	return e
}

// Effect runs fn immediately and re-runs it through the scheduler whenever a
// dependency changes.
//
// Example:
//
//	rt.Effect(func() {
//	    log.Println("count is", state.Get("count"))
//	})
func (rt *Runtime) Effect(fn func()) *Effect {
	e := rt.newEffect(fn, false)
	e.scheduler = func() { rt.sched.Enqueue(e) }
	e.Run()
	return e
}

func (rt *Runtime) newEffect(fn func(), computed bool) *Effect {
	return &Effect{
		id:       scheduler.NextID(),
		rt:       rt,
		fn:       fn,
		computed: computed,
	}
}

// ID returns the effect's identity. Implements scheduler.Job.
func (e *Effect) ID() uint64 {
	return e.id
}

// Run executes the derivation with e as the active subscriber. The previous
// subscriber is restored on every exit path, panics included. Run on a
// stopped effect does nothing, so a job queued before Stop is harmless.
func (e *Effect) Run() {
	if e.stopped {
		return
	}
	prev := e.rt.active
	e.rt.active = e
	defer func() { e.rt.active = prev }()
	e.fn()
}

// Stop makes the effect inert and unsubscribes it from every dependency.
func (e *Effect) Stop() {
	if e.stopped {
		return
	}
	e.stopped = true
	for _, d := range e.deps {
		d.remove(e)
	}
	e.deps = nil
}

// Stopped reports whether Stop was called.
func (e *Effect) Stopped() bool {
	return e.stopped
}

// Computed reports whether the effect backs a Computed.
func (e *Effect) Computed() bool {
	return e.computed
}

// DepCount returns the number of dependency sets the effect joined.
func (e *Effect) DepCount() int {
	return len(e.deps)
}

// SetScheduler replaces the trigger hook. A nil fn makes triggers run the
// effect synchronously.
func (e *Effect) SetScheduler(fn func()) {
	e.scheduler = fn
}

var _ scheduler.Job = (*Effect)(nil)
