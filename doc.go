// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package xr manages the session and frame lifecycle of an immersive (XR)
// device on behalf of a scripted renderer.
//
// # Overview
//
// Two cooperative, single-task-at-a-time domains take part: the render
// domain, owned by a [GraphicsBackend], and the scripting domain, reached
// through the [Engine]'s scheduler. They meet only at the backend's two
// once-per-tick attachment points, "after the current render" and "before
// the next render". A [Lifecycle] sits between them and a [DeviceRuntime]:
//
//	lc := xr.New(backend, device)
//	lc.SetEngine(engine)
//
//	// Resolves once the device session exists.
//	err := lc.BeginSession().Await(ctx)
//
//	// Once per script frame request.
//	lc.DoFrame(func(f *xr.Frame) error {
//	    targets := lc.ActiveRenderTargets() // indexed by eye
//	    return render(f, targets)
//	})
//
//	// Blocks until the device confirms the end of the session.
//	err = lc.EndSession()
//
// # Render targets
//
// The device owns the swapchain textures; xr wraps each one in a
// [FrameBufferEntry] kept in a [FrameBufferCache] keyed by texture identity.
// Entries are reused while the view size is unchanged, replaced when it
// changes, and dropped when the device evicts the texture. An entry that is
// the currently bound render target is always unbound before it is
// destroyed.
//
// # Cancellation
//
// Each Lifecycle owns a context that every continuation checks before it
// runs. Continuations hold the lifecycle through a weak pointer only, so a
// pending BeginSession or DoFrame chain never keeps a closed lifecycle alive
// or touches its state after [Lifecycle.Close].
//
// # Blocking points
//
// Two loops block their calling goroutine: the device initialize retry in
// BeginSession and the frame drain in EndSession. Neither runs on the
// per-tick path. Both assume the device answers within bounded latency.
//
// # Invariants
//
// Misuse of the state machine (BeginFrame with no session, BeginSession
// with one already active, ...) panics with an [*InvariantError]. Build with
// the xrdebug tag to make re-entrant DoFrame calls panic too; by default
// they are ignored.
package xr
