package reactive

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// WatchCallback receives the new and previous values of a watched source.
type WatchCallback func(value, old any)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Immediate invokes the callback once at creation with a nil old value.
	Immediate bool
	// Deep subscribes to every nested record reachable from the value.
	Deep bool
}

type watchable interface {
	watchValue() any
}

// Watch calls cb after the source changes. The callback runs through the
// scheduler, so several writes in one turn produce one call.
//
// source may be a *Proxy (watched deeply), a *Ref, a *Computed, or a
// func() any getter. Watch panics on any other source. The returned func
// stops the watcher; a callback already queued then does nothing.
func (rt *Runtime) Watch(source any, cb WatchCallback, opts WatchOptions) func() {
	var getter func() any
	deep := opts.Deep
	switch s := source.(type) {
	case *Proxy:
		getter = func() any { return s }
		deep = true
	case watchable:
		getter = s.watchValue
	case func() any:
		getter = s
	default:
		panic(fmt.Sprintf("reactive: cannot watch %T", source))
	}
	if deep {
		base := getter
		getter = func() any {
			v := base()
			rt.traverse(v, mapset.NewThreadUnsafeSet[*Proxy]())
			return v
		}
	}

	var old any
	e := rt.newEffect(func() { _ = getter() }, false)
	job := &watchJob{id: e.id}
	job.run = func() {
		if e.stopped {
			return
		}
		v := e.capture(getter)
		if deep || Changed(old, v) {
			prev := old
			old = v
			cb(v, prev)
		}
	}
	e.scheduler = func() { rt.sched.Enqueue(job) }

	if opts.Immediate {
		job.run()
	} else {
		old = e.capture(getter)
	}
	return e.Stop
}

// watchJob is the scheduler job for a watcher. It shares the effect's id so
// repeated triggers in a turn collapse into one callback.
type watchJob struct {
	id  uint64
	run func()
}

func (j *watchJob) ID() uint64 { return j.id }
func (j *watchJob) Run()       { j.run() }

// capture runs getter as e's derivation and returns its result.
func (e *Effect) capture(getter func() any) any {
	var v any
	fn := e.fn
	e.fn = func() { v = getter() }
	defer func() { e.fn = fn }()
	e.Run()
	return v
}

// traverse reads every key of v recursively so the active effect subscribes
// to all of them.
func (rt *Runtime) traverse(v any, seen mapset.Set[*Proxy]) {
	var p *Proxy
	switch x := v.(type) {
	case *Proxy:
		p = x
	default:
		if !IsRecord(v) {
			return
		}
		p = rt.Wrap(v)
	}
	if !seen.Add(p) {
		return
	}
	for _, k := range p.Keys() {
		rt.traverse(p.Get(k), seen)
	}
}
