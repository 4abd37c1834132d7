// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tick implements the two once-per-tick attachment points a render
// loop exposes to the scripting domain: "after the current render" and
// "before the next render".
//
// Each registered hook fires exactly once. A hook registered while its
// attachment point is firing is deferred to the next occurrence of that
// point, never run in the same pass.
package tick

import "sync"

// Hooks holds the pending hooks of both attachment points.
// Hooks is safe for concurrent use.
type Hooks struct {
	mu     sync.Mutex
	after  []func()
	before []func()
	ticks  uint64
}

// AfterCurrentTick registers fn to run once the current render completes.
func (h *Hooks) AfterCurrentTick(fn func()) {
	h.mu.Lock()
	h.after = append(h.after, fn)
	h.mu.Unlock()
}

// BeforeNextTick registers fn to run before the next render begins.
func (h *Hooks) BeforeNextTick(fn func()) {
	h.mu.Lock()
	h.before = append(h.before, fn)
	h.mu.Unlock()
}

// FireBefore runs the hooks registered for the before-render point.
func (h *Hooks) FireBefore() {
	h.mu.Lock()
	fns := h.before
	h.before = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// FireAfter runs the hooks registered for the after-render point and
// completes the tick.
func (h *Hooks) FireAfter() {
	h.mu.Lock()
	fns := h.after
	h.after = nil
	h.ticks++
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Pending returns the number of hooks waiting at each point.
func (h *Hooks) Pending() (after, before int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.after), len(h.before)
}

// Ticks returns the number of completed ticks.
func (h *Hooks) Ticks() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ticks
}
