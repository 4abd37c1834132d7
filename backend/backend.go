// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"

	"github.com/gogpu/xr"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrForeignResource is returned when a texture or framebuffer created
	// by another backend is passed in.
	ErrForeignResource = errors.New("backend: resource belongs to another backend")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU backend.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendNative = "native"
)

// RenderBackend is a render domain the lifecycle can attach to.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type RenderBackend interface {
	xr.GraphicsBackend

	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init acquires the backend's GPU context.
	// This should be called before any other operation.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Binder returns the tracker of the framebuffer being rendered into.
	Binder() Binder

	// Render runs one tick. It returns ctx.Err() if ctx is done while
	// waiting for enqueued render work; the after-render hooks then stay
	// pending.
	Render(ctx context.Context) error
}

// Binder binds framebuffers for rendering.
type Binder interface {
	xr.FramebufferBinder

	// Bind makes fb the render target and clears it with cs.
	Bind(fb xr.Framebuffer, cs xr.ClearState) error
}
