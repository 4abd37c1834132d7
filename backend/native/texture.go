// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xr"
)

// Texture is a HAL texture with its default view.
//
// Destroy should only be called once the texture is no longer attached to
// a live framebuffer; calling it twice is harmless.
type Texture struct {
	mu        sync.Mutex
	owner     *Backend
	device    hal.Device
	tex       hal.Texture
	view      hal.TextureView
	size      xr.Size
	format    gputypes.TextureFormat
	native    xr.NativeTexture
	destroyed bool
}

func (t *Texture) Width() uint32                  { return t.size.Width }
func (t *Texture) Height() uint32                 { return t.size.Height }
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Native returns the device image the texture stands in for, or zero.
func (t *Texture) Native() xr.NativeTexture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.native
}

// View returns the default view, or nil after Destroy.
func (t *Texture) View() hal.TextureView {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil
	}
	return t.view
}

// IsDestroyed returns true if the texture has been destroyed.
func (t *Texture) IsDestroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

// Destroy releases the view and the texture.
func (t *Texture) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	view, tex := t.view, t.tex
	t.view, t.tex = nil, nil
	t.mu.Unlock()

	if view != nil {
		t.device.DestroyTextureView(view)
	}
	if tex != nil {
		t.device.DestroyTexture(tex)
	}
	t.owner.track(-1)
}

// Framebuffer is a color attachment with an optional depth/stencil
// attachment. HAL has no framebuffer object; the attachments are bound
// when a render pass begins.
type Framebuffer struct {
	mu        sync.Mutex
	owner     *Backend
	color     *Texture
	depth     *Texture
	destroyed bool
}

func (f *Framebuffer) Width() uint32  { return f.color.size.Width }
func (f *Framebuffer) Height() uint32 { return f.color.size.Height }

// Color returns the color attachment.
func (f *Framebuffer) Color() *Texture { return f.color }

// DepthStencil returns the depth/stencil attachment, or nil.
func (f *Framebuffer) DepthStencil() *Texture { return f.depth }

// IsDestroyed reports whether Destroy has been called.
func (f *Framebuffer) IsDestroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

// Destroy releases the framebuffer. The attachments stay alive.
func (f *Framebuffer) Destroy() {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return
	}
	f.destroyed = true
	f.mu.Unlock()
	f.owner.track(-1)
}

// renderPassDescriptor clears every attachment with cs and stores the
// color result for the device compositor.
func (f *Framebuffer) renderPassDescriptor(cs xr.ClearState) *hal.RenderPassDescriptor {
	desc := &hal.RenderPassDescriptor{
		Label: "xr_clear_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.color.View(),
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: cs.Color,
		}},
	}
	if f.depth != nil {
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              f.depth.View(),
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   cs.Depth,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: uint32(cs.Stencil),
		}
	}
	return desc
}
