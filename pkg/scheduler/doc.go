// Package scheduler batches reactive re-runs into deduplicated, deferred
// flushes.
//
// Enqueue appends a Job to the pending queue. The first Enqueue of an idle
// window asks the Deferrer (normally a *loop.Loop) to run a flush once the
// current turn ends; later calls in the same window only append. A flush
// snapshots the queue, clears it, drops duplicate jobs by ID keeping the first
// occurrence, and runs each remaining job once. Jobs enqueued while a flush is
// running land in the next flush.
//
// A job that panics aborts the rest of its batch and the panic propagates out
// of Flush. There is no atomicity across a batch.
package scheduler
