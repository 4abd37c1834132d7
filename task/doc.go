// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package task provides the small future and continuation vocabulary the XR
// lifecycle is built on.
//
// A [Future] completes once with a value or an error. Continuations attached
// with [Then], [ThenFuture] and [Handle] run on a [Scheduler] and are guarded
// by a [context.Context]: when the context is done before the continuation
// starts, its body is skipped and the resulting future fails with the
// context's error. This is the cancellation contract used throughout gogpu/xr.
//
// The package is deliberately narrow. It is not a general task graph; it
// only models the hand-offs the render and scripting domains need:
//
//	after := task.FromHook(backend.RunAfterCurrentTick)
//	created := task.ThenFuture(after, task.Inline, ctx, createSession)
//	task.Raise(created, scriptScheduler, ctx)
package task
