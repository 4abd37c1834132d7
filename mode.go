// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

// RenderingMode selects the domain frame callbacks run on.
type RenderingMode int

const (
	// RenderingModeAutomatic runs the frame callback on the render domain,
	// as part of the render it belongs to.
	RenderingModeAutomatic RenderingMode = iota

	// RenderingModeManual runs the frame callback on the scripting domain;
	// the render waits for it to finish.
	RenderingModeManual
)

// String returns the mode name.
func (m RenderingMode) String() string {
	switch m {
	case RenderingModeAutomatic:
		return "Automatic"
	case RenderingModeManual:
		return "Manual"
	default:
		return "Unknown"
	}
}

// SessionState is the session half of the lifecycle state machine.
type SessionState int

const (
	StateNoSession SessionState = iota
	StateActive
	// StateEnding is held while EndSession drains the device.
	StateEnding
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateNoSession:
		return "NoSession"
	case StateActive:
		return "Active"
	case StateEnding:
		return "Ending"
	default:
		return "Unknown"
	}
}
