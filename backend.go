// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr/task"
)

// Texture is a GPU texture created by a GraphicsBackend.
type Texture interface {
	Width() uint32
	Height() uint32
	Format() gputypes.TextureFormat

	// Destroy releases the GPU resources of the texture.
	Destroy()
}

// Framebuffer is a render target made of texture attachments.
type Framebuffer interface {
	Width() uint32
	Height() uint32

	// Destroy releases the framebuffer. Attachments are released separately.
	Destroy()
}

// GraphicsBackend owns the GPU context and the render domain.
//
// RunAfterCurrentTick and RunBeforeNextTick are the attachment points
// between the render and scripting domains. Each registered function runs
// exactly once, on the render domain, at the next occurrence of its point.
// Within one tick "before" fires first, then the render (which waits for all
// work enqueued with EnqueueRenderWork), then "after".
type GraphicsBackend interface {
	// CreateTexture allocates a 2D texture. renderTarget marks it usable as
	// a framebuffer attachment.
	CreateTexture(size Size, format gputypes.TextureFormat, renderTarget bool) (Texture, error)

	// OverrideInternal makes tex render into the device-owned native texture.
	// The texture keeps the size it was created with.
	OverrideInternal(tex Texture, native NativeTexture) error

	// CreateFramebuffer builds a framebuffer from color and depth attachments.
	CreateFramebuffer(attachments ...Texture) (Framebuffer, error)

	// Flush submits pending GPU work so that created resources materially
	// exist before OverrideInternal.
	Flush() error

	RunAfterCurrentTick(fn func())
	RunBeforeNextTick(fn func())

	// EnqueueRenderWork makes the current render wait for work to complete.
	EnqueueRenderWork(work *task.Future[struct{}])

	// DeviceProvider returns the GPU context handed to the device runtime.
	DeviceProvider() gpucontext.DeviceProvider

	// NativeWindow returns the platform window handle.
	NativeWindow() uintptr
}

// FramebufferBinder tracks the framebuffer the engine is rendering into.
type FramebufferBinder interface {
	// Bound returns the bound framebuffer, or nil for the back buffer.
	Bound() Framebuffer

	// Unbind rebinds the back buffer if fb is bound.
	Unbind(fb Framebuffer)
}

// Engine is the scripted renderer the lifecycle serves.
type Engine interface {
	// ScheduleRender asks the engine to render another tick.
	ScheduleRender()

	// RenderingMode selects where frame callbacks run.
	RenderingMode() RenderingMode

	// Framebuffers returns the engine's bound-target tracker.
	Framebuffers() FramebufferBinder

	// ScriptScheduler is the scripting domain. Errors raised by the
	// lifecycle's continuation chains are reported through it.
	ScriptScheduler() task.Scheduler

	// Dispatch posts fn onto the render domain.
	Dispatch(fn func())
}

// ClearState is the default clear applied when a framebuffer is bound.
type ClearState struct {
	Color   gputypes.Color
	Depth   float32
	Stencil uint8
}

// DefaultClearState clears to transparent black, the implicit WebXR layer
// clear, with the far depth plane.
func DefaultClearState() ClearState {
	return ClearState{
		Color: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		Depth: 1,
	}
}
