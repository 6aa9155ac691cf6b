// Package dispatch provides the serial context every observable state change runs on.
package dispatch

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("dispatch queue is closed")

// Queue runs submitted tasks one at a time on a single goroutine.
// A task must not call Do on the queue that runs it.
type Queue struct {
	work      chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewQueue() *Queue {
	q := &Queue{
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	for {
		select {
		case fn := <-q.work:
			fn()
		case <-q.done:
			return
		}
	}
}

// Post schedules fn without waiting for it. It reports false once the queue is closed.
func (q *Queue) Post(fn func()) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.work <- fn:
		return true
	case <-q.done:
		return false
	}
}

// Do runs fn on the queue and waits for it to return.
// Once fn has started it always runs to completion, even if ctx is cancelled.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case q.work <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-q.done:
		return ErrClosed
	}
}

func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
