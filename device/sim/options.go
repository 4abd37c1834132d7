// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"math"
	"time"

	"github.com/gogpu/xr"
)

// Option configures a simulated runtime.
type Option func(*options)

type options struct {
	eyeSize         xr.Size
	swapchainLength int
	colorFormat     xr.TextureFormat
	initAttempts    int
	endFrames       int
	hands           bool
	controllers     bool
	recycleEvery    int
	createDelay     time.Duration
	createErr       error
	fovY            float64
	ipd             float64
	yawStep         float64
	pointCloud      bool
}

func defaultOptions() options {
	return options{
		eyeSize:         xr.Size{Width: 1440, Height: 1600},
		swapchainLength: 3,
		colorFormat:     xr.TextureFormatBGRA8SRGB,
		initAttempts:    1,
		endFrames:       2,
		fovY:            math.Pi / 2,
		ipd:             0.063,
		yawStep:         math.Pi / 360,
		pointCloud:      true,
	}
}

// WithEyeSize sets the initial render size of each eye.
func WithEyeSize(s xr.Size) Option {
	return func(o *options) {
		o.eyeSize = s
	}
}

// WithSwapchainLength sets the number of images per eye. Values below one
// are ignored.
func WithSwapchainLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.swapchainLength = n
		}
	}
}

// WithColorFormat sets the format reported for color images.
func WithColorFormat(f xr.TextureFormat) Option {
	return func(o *options) {
		o.colorFormat = f
	}
}

// WithInitAttempts sets how many TryInitialize calls it takes for the
// runtime to come up.
func WithInitAttempts(n int) Option {
	return func(o *options) {
		o.initAttempts = n
	}
}

// WithEndFrames sets how many polls the runtime needs after RequestEnd
// before it reports the end of the session.
func WithEndFrames(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.endFrames = n
		}
	}
}

// WithHands enables two tracked hands.
func WithHands(enabled bool) Option {
	return func(o *options) {
		o.hands = enabled
	}
}

// WithControllers enables two tracked controllers.
func WithControllers(enabled bool) Option {
	return func(o *options) {
		o.controllers = enabled
	}
}

// WithRecycleEvery makes the runtime replace the next swapchain image of
// every eye each n frames, evicting the old identity. Zero disables it.
func WithRecycleEvery(n int) Option {
	return func(o *options) {
		o.recycleEvery = n
	}
}

// WithCreateDelay makes session creation complete asynchronously after d.
func WithCreateDelay(d time.Duration) Option {
	return func(o *options) {
		o.createDelay = d
	}
}

// WithCreateError makes session creation fail with err.
func WithCreateError(err error) Option {
	return func(o *options) {
		o.createErr = err
	}
}

// WithFieldOfView sets the vertical field of view in radians.
func WithFieldOfView(rad float64) Option {
	return func(o *options) {
		o.fovY = rad
	}
}

// WithYawStep sets the head rotation per frame in radians.
func WithYawStep(rad float64) Option {
	return func(o *options) {
		o.yawStep = rad
	}
}

// WithFeaturePointCloud sets whether the runtime supports a feature point
// cloud.
func WithFeaturePointCloud(supported bool) Option {
	return func(o *options) {
		o.pointCloud = supported
	}
}
