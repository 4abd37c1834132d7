// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import "time"

// Option configures a Lifecycle during creation.
//
// Example:
//
//	lc := xr.New(backend, device,
//	    xr.WithInitTimeout(2*time.Second),
//	)
type Option func(*options)

type options struct {
	initTimeout time.Duration
	clearState  ClearState
}

func defaultOptions() options {
	return options{
		initTimeout: 0, // spin until the device initializes
		clearState:  DefaultClearState(),
	}
}

// WithInitTimeout bounds the device initialization spin in BeginSession.
// Zero, the default, retries until the device reports success.
func WithInitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.initTimeout = d
	}
}

// WithClearState sets the default clear of new framebuffer entries.
// The default is transparent black.
func WithClearState(cs ClearState) Option {
	return func(o *options) {
		o.clearState = cs
	}
}
