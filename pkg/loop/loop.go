package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
)

// ErrClosed is returned by Submit and Run after Close.
var ErrClosed = errors.New("loop: closed")

// DefaultBacklog is the default capacity of the submitted task queue.
const DefaultBacklog = 256

// Loop is a cooperative, non-preemptive task runner.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once

	// micro is only touched from the goroutine running the current turn.
	micro     []func()
	draining  bool
	afterTurn []func()

	logger  *slog.Logger
	onPanic func(v any)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for recovered task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBacklog sets the capacity of the submitted task queue.
func WithBacklog(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan func(), n)
		}
	}
}

// WithPanicHandler registers a function called with the recovered value when
// a task submitted to Run panics.
func WithPanicHandler(fn func(v any)) Option {
	return func(l *Loop) {
		l.onPanic = fn
	}
}

// New creates a Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:  make(chan func(), DefaultBacklog),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// QueueMicrotask schedules fn to run after the current turn's macrotask,
// before the next macrotask starts.
func (l *Loop) QueueMicrotask(fn func()) {
	if fn == nil {
		return
	}
	l.micro = append(l.micro, fn)
}

// AfterTurn registers fn to run once every turn has drained its microtasks.
// Hooks run in registration order.
func (l *Loop) AfterTurn(fn func()) {
	if fn == nil {
		return
	}
	l.afterTurn = append(l.afterTurn, fn)
}

// Do runs fn as a turn on the calling goroutine and drains microtasks before
// returning. Panics from fn or from microtasks propagate to the caller;
// microtasks still queued when a panic escapes stay queued for the next drain.
func (l *Loop) Do(fn func()) {
	if fn != nil {
		fn()
	}
	l.Drain()
	for _, hook := range l.afterTurn {
		hook()
	}
}

// Drain runs queued microtasks until the queue is empty. Calling Drain from
// inside a microtask is a no-op; the outer drain picks up new entries.
func (l *Loop) Drain() {
	if l.draining {
		return
	}
	l.draining = true
	defer func() { l.draining = false }()

	for len(l.micro) > 0 {
		fn := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		fn()
	}
	l.micro = nil
}

// Pending returns the number of queued microtasks.
func (l *Loop) Pending() int {
	return len(l.micro)
}

// Submit queues fn to run as a turn on the goroutine executing Run.
// It is safe to call from any goroutine.
func (l *Loop) Submit(fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Run executes submitted turns until ctx is cancelled or Close is called.
// A panicking turn is recovered and logged; the loop keeps running.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrClosed
		case fn := <-l.tasks:
			l.safeTurn(fn)
		}
	}
}

// Close stops Run and rejects further submissions.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) safeTurn(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked",
				"code", kerrors.CodeLoopPanic,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			if l.onPanic != nil {
				l.onPanic(r)
			}
		}
	}()
	l.Do(fn)
}
