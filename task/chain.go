// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import "context"

// Then schedules fn on s after f succeeds. An error from f is propagated
// without running fn. If ctx is done when the continuation starts, fn is
// skipped and the result fails with ctx.Err().
func Then[T, U any](f *Future[T], s Scheduler, ctx context.Context, fn func(T) (U, error)) *Future[U] {
	next, p := NewPromise[U]()
	f.onComplete(func() {
		s.Schedule(func() error {
			if err := ctx.Err(); err != nil {
				_ = p.Reject(err)
				return nil
			}
			v, err := f.Result()
			if err != nil {
				_ = p.Reject(err)
				return nil
			}
			_ = p.Complete(fn(v))
			return nil
		})
	})
	return next
}

// ThenFuture is Then for continuations that start another asynchronous
// operation. The returned future completes with the inner future's result.
func ThenFuture[T, U any](f *Future[T], s Scheduler, ctx context.Context, fn func(T) *Future[U]) *Future[U] {
	next, p := NewPromise[U]()
	f.onComplete(func() {
		s.Schedule(func() error {
			if err := ctx.Err(); err != nil {
				_ = p.Reject(err)
				return nil
			}
			v, err := f.Result()
			if err != nil {
				_ = p.Reject(err)
				return nil
			}
			inner := fn(v)
			inner.onComplete(func() {
				iv, ierr := inner.Result()
				_ = p.Complete(iv, ierr)
			})
			return nil
		})
	})
	return next
}

// Handle schedules fn on s with the outcome of f, success or failure.
// Cancellation behaves as in Then.
func Handle[T, U any](f *Future[T], s Scheduler, ctx context.Context, fn func(T, error) (U, error)) *Future[U] {
	next, p := NewPromise[U]()
	f.onComplete(func() {
		s.Schedule(func() error {
			if err := ctx.Err(); err != nil {
				_ = p.Reject(err)
				return nil
			}
			v, err := f.Result()
			_ = p.Complete(fn(v, err))
			return nil
		})
	})
	return next
}

// Raise re-raises a failure of f on s: once f completes with an error, a
// work item returning that error is scheduled on s, so it surfaces through
// the scheduler's own error-reporting path. Nothing is scheduled for a
// successful f or when ctx is already done.
func Raise[T any](f *Future[T], s Scheduler, ctx context.Context) {
	f.onComplete(func() {
		if _, err := f.Result(); err == nil {
			return
		}
		s.Schedule(func() error {
			if ctx.Err() != nil {
				return nil
			}
			_, err := f.Result()
			return err
		})
	})
}

// Run schedules fn on s and returns a future for its result.
func Run[T any](s Scheduler, ctx context.Context, fn func() (T, error)) *Future[T] {
	f, p := NewPromise[T]()
	s.Schedule(func() error {
		if err := ctx.Err(); err != nil {
			_ = p.Reject(err)
			return nil
		}
		_ = p.Complete(fn())
		return nil
	})
	return f
}

// FromHook adapts a one-shot hook registration such as
// RunAfterCurrentTick into a future completed when the hook fires.
func FromHook(register func(func())) *Future[struct{}] {
	f, p := NewPromise[struct{}]()
	register(func() { _ = p.Resolve(struct{}{}) })
	return f
}
