// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"context"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/xr/task"
)

// EvictionFunc is called by the device for each texture it is about to
// invalidate during a poll.
type EvictionFunc func(texture NativeTexture)

// WindowProvider returns the native window the session presents to.
type WindowProvider func() uintptr

// DeviceRuntime is the XR device abstraction.
type DeviceRuntime interface {
	IsInitialized() bool

	// TryInitialize makes one non-blocking initialization attempt.
	TryInitialize() bool

	// CreateSession starts creating a session on the given GPU context.
	CreateSession(ctx context.Context, gpu gpucontext.DeviceProvider, window WindowProvider) *task.Future[DeviceSession]
}

// DeviceSession is an active immersive session on the device.
type DeviceSession interface {
	// RequestEnd asks the device to wind the session down. Frames keep
	// coming until one reports ShouldEnd.
	RequestEnd()

	// NextFrame blocks until the device produces the next frame. onEvict,
	// when non-nil, is called for every texture invalidated by this poll
	// before the frame is returned.
	NextFrame(onEvict EvictionFunc) (*Frame, FrameStatus, error)

	ViewSize(index int) Size
	SetDepthRange(near, far float32)
	SetPlaneDetection(enabled bool)
	TrySetFeaturePointCloud(enabled bool) bool
}
