// Package loop provides the single-threaded execution turn used by the
// kinetic runtime.
//
// A Loop runs macrotasks one at a time. After each macrotask the microtask
// queue is drained completely, including microtasks queued while draining.
// The scheduler defers its flush with QueueMicrotask, so every synchronous
// mutation made inside one turn is coalesced into exactly one flush.
//
// # Turns
//
// Do runs a function as a turn on the calling goroutine:
//
//	l := loop.New()
//	l.Do(func() {
//	    state.Set("count", 1)
//	    state.Set("count", 2)
//	}) // one flush runs here, after fn returns
//
// Submit queues a turn from any goroutine; Run executes submitted turns until
// the context is cancelled or Close is called.
//
// # Thread Safety
//
// Only Submit and Close are safe to call from other goroutines. Everything
// else, including QueueMicrotask, must be called from the goroutine currently
// executing the loop.
package loop
