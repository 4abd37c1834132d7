// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/task"
)

// ErrNotInitialized is returned when a session is requested before the
// runtime came up.
var ErrNotInitialized = errors.New("sim: runtime not initialized")

// Runtime is a simulated xr.DeviceRuntime.
type Runtime struct {
	mu          sync.Mutex
	opts        options
	attempts    int
	initialized bool
	nextTexture xr.NativeTexture
	last        *Session
	created     int
}

var _ xr.DeviceRuntime = (*Runtime)(nil)

// New creates a simulated runtime.
func New(opts ...Option) *Runtime {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Runtime{opts: o, nextTexture: 0x1000}
}

// IsInitialized reports whether the runtime is up.
func (r *Runtime) IsInitialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// TryInitialize makes one initialization attempt.
func (r *Runtime) TryInitialize() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.attempts >= r.opts.initAttempts {
		r.initialized = true
	}
	return r.initialized
}

// Attempts returns the number of TryInitialize calls so far.
func (r *Runtime) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// SessionsCreated returns the number of sessions handed out.
func (r *Runtime) SessionsCreated() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}

// LastSession returns the most recently created session, or nil.
func (r *Runtime) LastSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// CreateSession creates a session. With a create delay the future completes
// on another goroutine, or fails with ctx's error if ctx ends first.
func (r *Runtime) CreateSession(ctx context.Context, gpu gpucontext.DeviceProvider, window xr.WindowProvider) *task.Future[xr.DeviceSession] {
	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return task.Failed[xr.DeviceSession](ErrNotInitialized)
	}
	if r.opts.createErr != nil {
		err := r.opts.createErr
		r.mu.Unlock()
		return task.Failed[xr.DeviceSession](err)
	}
	delay := r.opts.createDelay
	r.mu.Unlock()

	var handle uintptr
	if window != nil {
		handle = window()
	}
	xr.Logger().Debug("sim: creating session", "gpu", gpu != nil, "window", handle)

	if delay <= 0 {
		return task.Resolved[xr.DeviceSession](r.newSession())
	}

	f, p := task.NewPromise[xr.DeviceSession]()
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			_ = p.Reject(ctx.Err())
		case <-timer.C:
			_ = p.Resolve(r.newSession())
		}
	}()
	return f
}

func (r *Runtime) newSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		rt:               r,
		opts:             r.opts,
		near:             0.1,
		far:              1000,
		trackControllers: true,
		tracking:         true,
	}
	for i := range s.eyes {
		s.eyes[i] = r.allocateLocked(r.opts.eyeSize)
	}
	r.last = s
	r.created++
	return s
}

// allocate returns fresh texture identities for one eye.
func (r *Runtime) allocate(size xr.Size) swapchain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocateLocked(size)
}

func (r *Runtime) allocateLocked(size xr.Size) swapchain {
	sc := swapchain{size: size}
	for range r.opts.swapchainLength {
		sc.color = append(sc.color, r.nextIdentityLocked())
		sc.depth = append(sc.depth, r.nextIdentityLocked())
	}
	return sc
}

func (r *Runtime) nextIdentity() xr.NativeTexture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextIdentityLocked()
}

func (r *Runtime) nextIdentityLocked() xr.NativeTexture {
	r.nextTexture++
	return r.nextTexture
}
