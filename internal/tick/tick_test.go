// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tick

import "testing"

func TestHooksFireOnce(t *testing.T) {
	var h Hooks
	after, before := 0, 0
	h.AfterCurrentTick(func() { after++ })
	h.BeforeNextTick(func() { before++ })

	for range 3 {
		h.FireBefore()
		h.FireAfter()
	}
	if after != 1 || before != 1 {
		t.Errorf("fired after=%d before=%d, want 1 and 1", after, before)
	}
	if got := h.Ticks(); got != 3 {
		t.Errorf("Ticks() = %d, want 3", got)
	}
}

func TestHookRegisteredWhileFiringDefers(t *testing.T) {
	var h Hooks
	var fired []string
	h.AfterCurrentTick(func() {
		fired = append(fired, "first")
		h.AfterCurrentTick(func() { fired = append(fired, "second") })
	})

	h.FireAfter()
	if len(fired) != 1 {
		t.Fatalf("fired = %v, want only the first hook", fired)
	}
	if a, _ := h.Pending(); a != 1 {
		t.Errorf("pending after hooks = %d, want 1", a)
	}
	h.FireAfter()
	if len(fired) != 2 || fired[1] != "second" {
		t.Errorf("fired = %v, want [first second]", fired)
	}
}

func TestBeforeHookCanRegisterSameTickAfterHook(t *testing.T) {
	var h Hooks
	var order []string
	h.BeforeNextTick(func() {
		order = append(order, "before")
		h.AfterCurrentTick(func() { order = append(order, "after") })
	})
	h.FireBefore()
	h.FireAfter()
	if len(order) != 2 || order[0] != "before" || order[1] != "after" {
		t.Errorf("order = %v, want [before after]", order)
	}
}
