// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import "testing"

func TestRenderingModeString(t *testing.T) {
	tests := []struct {
		name string
		mode RenderingMode
		want string
	}{
		{"Automatic", RenderingModeAutomatic, "Automatic"},
		{"Manual", RenderingModeManual, "Manual"},
		{"Unknown", RenderingMode(99), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.want {
				t.Errorf("RenderingMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestSessionStateString(t *testing.T) {
	tests := []struct {
		state SessionState
		want  string
	}{
		{StateNoSession, "NoSession"},
		{StateActive, "Active"},
		{StateEnding, "Ending"},
		{SessionState(-1), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SessionState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
