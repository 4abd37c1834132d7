// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestTextureFormatGPUFormat(t *testing.T) {
	tests := []struct {
		format  TextureFormat
		want    gputypes.TextureFormat
		wantErr bool
	}{
		{TextureFormatBGRA8SRGB, gputypes.TextureFormatBGRA8Unorm, false},
		{TextureFormatRGBA8SRGB, gputypes.TextureFormatRGBA8Unorm, false},
		{TextureFormatD24S8, gputypes.TextureFormatDepth24PlusStencil8, false},
		{TextureFormatUnknown, gputypes.TextureFormatUndefined, true},
		{TextureFormat(42), gputypes.TextureFormatUndefined, true},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			got, err := tt.format.GPUFormat()
			if got != tt.want {
				t.Errorf("GPUFormat() = %v, want %v", got, tt.want)
			}
			if tt.wantErr != errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("GPUFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandednessString(t *testing.T) {
	if got := HandednessLeft.String(); got != "left" {
		t.Errorf("HandednessLeft.String() = %q, want left", got)
	}
	if got := HandednessRight.String(); got != "right" {
		t.Errorf("HandednessRight.String() = %q, want right", got)
	}
	if got := Handedness(7).String(); got != "none" {
		t.Errorf("Handedness(7).String() = %q, want none", got)
	}
}
