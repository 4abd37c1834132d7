// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package runloop provides a cooperative, single-task-at-a-time execution
// domain. Work posted to a Loop runs in FIFO order, one item at a time, on
// whichever goroutine is currently pumping the loop. Resources owned by a
// loop need no locks as long as they are only touched from its work items.
//
// A Loop implements task.Scheduler and is the scripting domain of gogpu/xr:
// frame callbacks in manual rendering mode and errors raised by the
// lifecycle's continuation chains are delivered here.
package runloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/gogpu/xr/task"
)

var (
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("runloop: loop is closed")

	// ErrAlreadyRunning is returned when a loop is pumped from two places.
	ErrAlreadyRunning = errors.New("runloop: loop is already running")
)

// Loop is a cooperative FIFO work loop.
type Loop struct {
	mu      sync.Mutex
	pending *queue.Queue
	wake    chan struct{}
	closed  bool
	running atomic.Bool

	name    string
	onError func(error)
	logger  *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithName sets the name used in log records.
func WithName(name string) Option {
	return func(l *Loop) { l.name = name }
}

// WithErrorHandler installs fn as the loop's error path. Without a handler
// the first error returned by a work item stops Run and is returned from it,
// the way an uncaught exception ends a script runtime.
func WithErrorHandler(fn func(error)) Option {
	return func(l *Loop) { l.onError = fn }
}

// WithLogger sets the logger. By default the loop is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		pending: queue.New(),
		wake:    make(chan struct{}, 1),
		name:    "runloop",
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ensure Loop implements task.Scheduler.
var _ task.Scheduler = (*Loop)(nil)

// Schedule queues work. Work scheduled after Close is dropped.
func (l *Loop) Schedule(work func() error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Debug("runloop: dropping work after close", "loop", l.name)
		return
	}
	l.pending.Add(work)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	l.mu.Unlock()
}

// Post queues work that cannot fail.
func (l *Loop) Post(work func()) {
	l.Schedule(func() error {
		work()
		return nil
	})
}

// Len returns the number of queued work items.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.Length()
}

// Close stops the loop. Queued work is discarded.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for l.pending.Length() > 0 {
		l.pending.Remove()
	}
	close(l.wake)
}

// Run pumps the loop until ctx is done, the loop is closed, or a work item
// fails with no error handler installed.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	l.logger.Debug("runloop: started", "loop", l.name)
	for {
		if err := l.drain(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-l.wake:
			if !ok {
				return ErrClosed
			}
		}
	}
}

// RunPending runs queued work, including work queued while draining, until
// the queue is empty. It is the manual pump used by hosts that drive the
// scripting domain from their own frame loop.
func (l *Loop) RunPending() error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)
	return l.drain()
}

func (l *Loop) drain() error {
	for {
		work, ok := l.next()
		if !ok {
			return nil
		}
		if err := l.invoke(work); err != nil {
			if l.onError == nil {
				return err
			}
			l.onError(err)
		}
	}
}

func (l *Loop) next() (func() error, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.pending.Length() == 0 {
		return nil, false
	}
	return l.pending.Remove().(func() error), true
}

func (l *Loop) invoke(work func() error) error {
	err := work()
	if err != nil {
		l.logger.Warn("runloop: work failed", "loop", l.name, "err", err)
	}
	return err
}
