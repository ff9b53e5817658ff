package scheduler

import "sync/atomic"

// Job is a unit of deferred work. Jobs with equal IDs are the same job for
// deduplication purposes.
type Job interface {
	ID() uint64
	Run()
}

var jobIDs uint64

// NextID returns a process-unique job identifier.
func NextID() uint64 {
	return atomic.AddUint64(&jobIDs, 1)
}

type funcJob struct {
	id uint64
	fn func()
}

func (j *funcJob) ID() uint64 { return j.id }
func (j *funcJob) Run()       { j.fn() }

// Func wraps fn in a Job with a fresh identity. Enqueue the returned value,
// not a new Func(fn) per call, to get deduplication.
func Func(fn func()) Job {
	return &funcJob{id: NextID(), fn: fn}
}
