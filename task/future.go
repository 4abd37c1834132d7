// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrAlreadyCompleted is returned when a promise is settled twice.
	ErrAlreadyCompleted = errors.New("task: future already completed")

	// ErrPending is returned by Result for a future that has not completed.
	ErrPending = errors.New("task: future is pending")
)

// Future is the eventual result of an asynchronous operation.
// A Future is safe for concurrent use.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
	callbacks []func()
}

// Promise settles the Future it was created with.
type Promise[T any] struct {
	f *Future[T]
}

// NewPromise returns a pending future and the promise that completes it.
func NewPromise[T any]() (*Future[T], Promise[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, Promise[T]{f: f}
}

// Resolved returns a future already completed with v.
func Resolved[T any](v T) *Future[T] {
	f, p := NewPromise[T]()
	_ = p.Resolve(v)
	return f
}

// Failed returns a future already completed with err.
func Failed[T any](err error) *Future[T] {
	f, p := NewPromise[T]()
	_ = p.Reject(err)
	return f
}

// Resolve completes the future with v.
func (p Promise[T]) Resolve(v T) error {
	return p.f.complete(v, nil)
}

// Reject completes the future with err.
func (p Promise[T]) Reject(err error) error {
	var zero T
	return p.f.complete(zero, err)
}

// Complete settles the future with either v or err.
func (p Promise[T]) Complete(v T, err error) error {
	return p.f.complete(v, err)
}

func (f *Future[T]) complete(v T, err error) error {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return ErrAlreadyCompleted
	}
	f.completed = true
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// onComplete runs cb once the future completes. If the future is already
// complete, cb runs immediately on the calling goroutine.
func (f *Future[T]) onComplete(cb func()) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	cb()
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the value and error of a completed future, or ErrPending
// while it is still running.
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.completed {
		var zero T
		return zero, ErrPending
	}
	return f.value, f.err
}

// Completed reports whether the future has completed.
func (f *Future[T]) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Await blocks until the future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
