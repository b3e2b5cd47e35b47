// Package eventloop provides the single-threaded task loop that owns the
// document. Blocking work runs on its own goroutine and hands its result
// back to the loop as a continuation, so document state is only ever touched
// by one goroutine.
package eventloop

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrClosed is returned by Post after Close.
var ErrClosed = errors.New("eventloop: closed")

// Loop is a FIFO task queue. Exactly one goroutine may drain it at a time,
// through Run or Settle.
type Loop struct {
	tasks   chan func()
	pending atomic.Int64
	closed  atomic.Bool
	done    chan struct{}
}

// New returns a loop whose queue holds up to size tasks before Post blocks.
func New(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	if l.closed.Load() {
		return ErrClosed
	}
	l.pending.Add(1)
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		l.pending.Add(-1)
		return ErrClosed
	}
}

// Go runs work on a new goroutine and posts then(value, err) to the loop once
// work returns. The continuation always runs, even when work fails.
func Go[T any](ctx context.Context, l *Loop, work func(context.Context) (T, error), then func(T, error)) {
	l.pending.Add(1)
	go func() {
		defer l.pending.Add(-1)
		value, err := work(ctx)
		_ = l.Post(func() { then(value, err) })
	}()
}

// Pending reports queued tasks plus in-flight work started with Go.
func (l *Loop) Pending() int {
	return int(l.pending.Load())
}

// Run drains tasks until ctx is cancelled or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Settle drains tasks until nothing is queued or in flight. Continuations may
// start more work; Settle keeps going until all of it has landed.
func (l *Loop) Settle(ctx context.Context) error {
	for l.pending.Load() > 0 {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops Run and rejects further posts. Queued tasks are dropped.
func (l *Loop) Close() {
	if l.closed.CompareAndSwap(false, true) {
		close(l.done)
	}
}

func (l *Loop) exec(fn func()) {
	defer l.pending.Add(-1)
	fn()
}
