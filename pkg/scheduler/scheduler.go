package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	kerrors "github.com/vango-dev/kinetic/internal/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Deferrer runs a function after the current synchronous turn.
type Deferrer interface {
	QueueMicrotask(fn func())
}

// FlushStats describes one completed or aborted flush.
type FlushStats struct {
	// Queued is the number of Enqueue calls collected for this flush.
	Queued int
	// Unique is the number of distinct jobs after deduplication.
	Unique int
	// Ran is the number of jobs that started.
	Ran int
	// Duration is the wall time of the flush.
	Duration time.Duration
	// Aborted is true when a job panicked.
	Aborted bool
}

// Observer receives statistics for every flush.
type Observer interface {
	ObserveFlush(stats FlushStats)
}

// Scheduler is a deduplicating job queue. It is not safe for concurrent use;
// all calls must come from the goroutine driving the Deferrer.
type Scheduler struct {
	deferrer Deferrer
	queue    []Job
	pending  bool
	flushing bool

	observer Observer
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver registers an Observer for flush statistics.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// WithTracer sets the tracer used to wrap flushes in spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler that defers flushes through d.
func New(d Deferrer, opts ...Option) *Scheduler {
	s := &Scheduler{
		deferrer: d,
		tracer:   otel.Tracer("github.com/vango-dev/kinetic/pkg/scheduler"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue adds job to the pending queue and makes sure a flush is scheduled.
func (s *Scheduler) Enqueue(job Job) {
	if job == nil {
		return
	}
	s.queue = append(s.queue, job)
	if !s.pending {
		s.pending = true
		s.deferrer.QueueMicrotask(s.flushJobs)
	}
}

// Pending returns the number of queued entries, duplicates included.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Flushing reports whether a flush is currently running.
func (s *Scheduler) Flushing() bool {
	return s.flushing
}

func (s *Scheduler) flushJobs() {
	s.pending = false
	s.Flush()
}

// Flush runs every queued job once, in first-enqueued order. It may be called
// directly to flush synchronously; the deferred flush then finds an empty
// queue.
func (s *Scheduler) Flush() {
	if len(s.queue) == 0 {
		return
	}

	queued := len(s.queue)
	seen := mapset.NewThreadUnsafeSet[uint64]()
	batch := make([]Job, 0, queued)
	for _, job := range s.queue {
		if seen.Add(job.ID()) {
			batch = append(batch, job)
		}
	}
	// Clear before running so re-entrant enqueues start the next cycle.
	s.queue = nil

	stats := FlushStats{Queued: queued, Unique: len(batch)}
	_, span := s.tracer.Start(context.Background(), "scheduler.flush",
		trace.WithAttributes(
			attribute.Int("kinetic.jobs.queued", queued),
			attribute.Int("kinetic.jobs.unique", len(batch)),
		))
	start := time.Now()
	wasFlushing := s.flushing
	s.flushing = true

	defer func() {
		s.flushing = wasFlushing
		stats.Duration = time.Since(start)
		if r := recover(); r != nil {
			stats.Aborted = true
			span.SetStatus(codes.Error, fmt.Sprint(r))
			span.End()
			s.logger.Debug("scheduler flush aborted",
				"code", kerrors.CodeFlushAborted,
				"ran", stats.Ran, "unique", stats.Unique, "panic", fmt.Sprint(r))
			s.observe(stats)
			panic(r)
		}
		span.SetAttributes(attribute.Int("kinetic.jobs.ran", stats.Ran))
		span.End()
		s.observe(stats)
	}()

	for _, job := range batch {
		stats.Ran++
		job.Run()
	}
}

func (s *Scheduler) observe(stats FlushStats) {
	if s.observer != nil {
		s.observer.ObserveFlush(stats)
	}
}
