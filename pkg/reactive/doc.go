// Package reactive provides the fine-grained dependency graph of the kinetic
// runtime.
//
// A Runtime owns the graph, the active-subscriber slot, and a reference to the
// scheduler used for deferred re-runs. Reads made while an Effect is running
// subscribe that effect; writes trigger every subscribed effect.
//
// # Core Types
//
// Proxy wraps a mutable record (a map with string keys, a pointer to a struct,
// or a Record implementation) so reads and writes become observable:
//
//	state := rt.Wrap(map[string]any{"count": 0})
//	rt.Effect(func() {
//	    fmt.Println("count is", state.Get("count"))
//	})
//	state.Set("count", 1) // the effect re-runs after the current turn
//
// Ref is a boxed single value that only triggers when the value changes:
//
//	name := reactive.NewRef(rt, "ada")
//	name.Set("ada") // no-op
//
// Computed is a lazily evaluated, cached derivation:
//
//	total := reactive.NewComputed(rt, func() int { return price.Value() * qty.Value() })
//
// # Ordering
//
// When a dependency fires, computed-backed subscribers are invalidated before
// any plain effect runs, so effects never read a stale computed value.
//
// # Thread Safety
//
// A Runtime is single-threaded. The active-subscriber slot is a plain field
// saved and restored around every run, which is only correct because runs are
// never suspended. Drive a Runtime from one goroutine (normally the goroutine
// running its loop.Loop).
package reactive
