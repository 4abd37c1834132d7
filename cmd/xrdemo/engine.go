// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"sync/atomic"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend"
	"github.com/gogpu/xr/runloop"
	"github.com/gogpu/xr/task"
)

// engine binds a render backend and a script loop into an xr.Engine.
type engine struct {
	backend backend.RenderBackend
	script  *runloop.Loop
	mode    xr.RenderingMode

	// The render loop is free-running; requests are only counted.
	requested atomic.Uint64
}

var _ xr.Engine = (*engine)(nil)

func (e *engine) ScheduleRender()                    { e.requested.Add(1) }
func (e *engine) RenderingMode() xr.RenderingMode    { return e.mode }
func (e *engine) Framebuffers() xr.FramebufferBinder { return e.backend.Binder() }
func (e *engine) ScriptScheduler() task.Scheduler    { return e.script }
func (e *engine) Dispatch(fn func())                 { e.backend.RunBeforeNextTick(fn) }
