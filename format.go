// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TextureFormat is a texture format as reported by the device runtime.
type TextureFormat int

const (
	TextureFormatUnknown TextureFormat = iota
	TextureFormatBGRA8SRGB
	TextureFormatRGBA8SRGB
	TextureFormatD24S8
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatBGRA8SRGB:
		return "BGRA8_SRGB"
	case TextureFormatRGBA8SRGB:
		return "RGBA8_SRGB"
	case TextureFormatD24S8:
		return "D24S8"
	default:
		return "Unknown"
	}
}

// GPUFormat returns the GPU format used to render into a device texture.
//
// sRGB color requests map to linear formats: scripted shaders written for
// the web expect to output sRGB themselves.
func (f TextureFormat) GPUFormat() (gputypes.TextureFormat, error) {
	switch f {
	case TextureFormatBGRA8SRGB:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case TextureFormatRGBA8SRGB:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case TextureFormatD24S8:
		return gputypes.TextureFormatDepth24PlusStencil8, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}
