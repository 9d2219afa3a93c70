// Package dispatch provides the execution contexts navigation work runs on.
//
// All navigation state lives on one origin context (a Loop in the
// application, a Manual executor in tests). Folder enumeration is the only
// work posted to a background context.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/justyntemme/shellnav/internal/debug"
)

// Executor runs tasks on an execution context. Post never blocks.
type Executor interface {
	Post(task func())
}

var ErrClosed = errors.New("dispatch: loop closed")

// Loop is a single-goroutine task queue. Tasks run in the order they were
// posted, one at a time, on the goroutine that called Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	closed  bool
	stopped sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues task. Tasks posted after Close are dropped.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		debug.Log(debug.DISPATCH, "loop closed, dropping task")
		return
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}

	l.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is cancelled or Close is called. Tasks
// already queued when Close is called still run.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			task()
		}

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			l.stopped.Do(func() { close(l.done) })
			return nil
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			l.Close()
			l.stopped.Do(func() { close(l.done) })
			return ctx.Err()
		}
	}
}

// Close stops accepting tasks. Run returns once the queue drains.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}
