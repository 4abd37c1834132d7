// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package webxr projects an xr.Lifecycle onto the shape of the WebXR
// Device API for scripted engines.
//
// Frames, views, poses, input sources and planes are converted into plain
// values (eyes as "left"/"right"/"none", rigid transforms with 4x4
// matrices, hand joints by name). Session wraps the lifecycle with
// requestAnimationFrame-style callbacks and session events.
//
// Reference spaces are stubs: every space is the identity.
package webxr
