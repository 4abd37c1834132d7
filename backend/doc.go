// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend provides pluggable render domains for the xr lifecycle.
//
// A backend owns the GPU context, allocates the textures and framebuffers
// the framebuffer cache wraps around device textures, and drives the
// render loop whose tick boundaries are the lifecycle's attachment points.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is always registered; the GPU backend registers
// when its package is imported:
//
//	import _ "github.com/gogpu/xr/backend/native"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Get(backend.BackendSoftware)
//	if err := b.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
// # Rendering
//
// Each call to Render is one tick: hooks registered with RunBeforeNextTick
// fire, the tick waits for every future passed to EnqueueRenderWork, then
// hooks registered with RunAfterCurrentTick fire.
//
// # Available Backends
//
//   - "software": CPU textures and framebuffers (always available)
//   - "native": GPU textures via gogpu/wgpu HAL
package backend
