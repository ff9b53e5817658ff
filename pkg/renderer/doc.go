// Package renderer reconciles node trees against a host adapter and runs
// stateful components.
//
// A Renderer diffs the previous tree of a container against a new one and
// applies the minimal set of host primitives. Keyed lists are diffed with a
// head scan, a tail scan and, for the unresolved middle, a longest increasing
// subsequence pass that keeps the number of moves minimal.
//
// Components are descriptors with a render function. Each mounted instance
// owns a reactive effect; state it reads while rendering subscribes the
// effect, and a write schedules one re-render on the runtime's scheduler.
//
//	r := renderer.New(adapter, rt)
//	app := r.CreateApp(Counter, vnode.Props{"start": 1})
//	app.Mount("#app")
package renderer
