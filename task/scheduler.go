// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

// Scheduler runs work items. A scheduler is a single cooperative domain:
// implementations decide where and when work runs, and what happens to an
// error returned by a work item (their error-reporting path).
type Scheduler interface {
	Schedule(work func() error)
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(work func() error)

// Schedule calls f(work).
func (f SchedulerFunc) Schedule(work func() error) { f(work) }

// Inline runs work immediately on the calling goroutine.
//
// Inline has no error path of its own: errors returned by work are dropped.
// Continuations built with Then never return errors to their scheduler, so
// this only matters for Raise, which should target a real domain instead.
var Inline Scheduler = SchedulerFunc(func(work func() error) { _ = work() })
