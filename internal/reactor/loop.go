// Package reactor runs all shell work on one goroutine. Event sources
// post closures into the loop; nothing the closures touch is locked.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned when work is posted to a loop that has exited.
var ErrStopped = errors.New("event loop stopped")

// DefaultQueueSize bounds the number of closures waiting for the loop.
const DefaultQueueSize = 1024

// maxBatch caps how many queued closures run before the tick hook.
const maxBatch = 64

// Loop is a single-threaded event loop.
type Loop struct {
	logger *slog.Logger
	queue  chan func()

	stopOnce sync.Once
	stopCh   chan struct{}
	stopped  atomic.Bool
	done     chan struct{}
}

// New creates a loop. A non-positive size uses DefaultQueueSize.
func New(size int, logger *slog.Logger) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		queue:  make(chan func(), size),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Post queues fn to run on the loop. It blocks while the queue is full
// and returns ErrStopped once the loop has exited.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Stop sets the stop flag. Run returns at the end of the current tick.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stopCh)
	})
}

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool {
	return l.stopped.Load()
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes posted closures until ctx is done or Stop is called.
// After each batch it runs tick, if non-nil.
func (l *Loop) Run(ctx context.Context, tick func()) error {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stopCh:
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}

	batch:
		for i := 1; i < maxBatch; i++ {
			select {
			case fn := <-l.queue:
				l.run(fn)
			default:
				break batch
			}
		}

		if tick != nil {
			l.run(tick)
		}
		if l.Stopped() {
			return nil
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event handler panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Call runs fn on the loop and waits for its result.
func Call[T any](ctx context.Context, l *Loop, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	err := l.Post(func() {
		v, err := fn()
		ch <- result{v, err}
	})
	if err != nil {
		var zero T
		return zero, err
	}
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-l.done:
		select {
		case r := <-ch:
			return r.v, r.err
		default:
		}
		var zero T
		return zero, ErrStopped
	}
}

// Attach forwards every value received on ch into the loop as a call to
// handle. It returns when ch is closed, ctx is done or the loop exits.
func Attach[T any](ctx context.Context, l *Loop, ch <-chan T, handle func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			if err := l.Post(func() { handle(v) }); err != nil {
				return
			}
		}
	}
}
