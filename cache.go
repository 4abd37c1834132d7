// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"errors"
	"fmt"
)

// FrameBufferEntry is the render target of one device texture: a
// framebuffer whose color and depth attachments render into the device's
// native textures.
type FrameBufferEntry struct {
	Identity    NativeTexture
	Framebuffer Framebuffer
	Color       Texture
	Depth       Texture
	ClearState  ClearState
	Width       uint32
	Height      uint32
}

func (e *FrameBufferEntry) matches(size Size) bool {
	return e.Width == size.Width && e.Height == size.Height
}

func (e *FrameBufferEntry) destroy() {
	if e.Framebuffer != nil {
		e.Framebuffer.Destroy()
	}
	if e.Color != nil {
		e.Color.Destroy()
	}
	if e.Depth != nil {
		e.Depth.Destroy()
	}
}

// FrameBufferCache maps device texture identities to framebuffer entries.
//
// The cache has a single owner and is not safe for concurrent use; the
// Lifecycle only touches it from the render domain under its own lock.
type FrameBufferCache struct {
	backend    GraphicsBackend
	binder     FramebufferBinder
	clearState ClearState
	entries    map[NativeTexture]*FrameBufferEntry
}

// NewFrameBufferCache creates an empty cache allocating through backend.
// New entries start with clearState.
func NewFrameBufferCache(backend GraphicsBackend, clearState ClearState) *FrameBufferCache {
	return &FrameBufferCache{
		backend:    backend,
		clearState: clearState,
		entries:    make(map[NativeTexture]*FrameBufferEntry),
	}
}

// SetBinder sets the tracker consulted before an entry is destroyed.
func (c *FrameBufferCache) SetBinder(b FramebufferBinder) {
	c.binder = b
}

// Len returns the number of cached entries.
func (c *FrameBufferCache) Len() int {
	return len(c.entries)
}

// Lookup returns the entry for a texture identity.
func (c *FrameBufferCache) Lookup(id NativeTexture) (*FrameBufferEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// GetOrCreate returns the entry for the view's color texture. An existing
// entry is reused while its size matches the view; otherwise a new entry is
// allocated and replaces it, unbinding the stale one first if it is bound.
func (c *FrameBufferCache) GetOrCreate(v View) (*FrameBufferEntry, error) {
	if e, ok := c.entries[v.ColorTexture]; ok && e.matches(v.ColorTextureSize) {
		return e, nil
	}

	e, err := c.create(v)
	if err != nil {
		return nil, err
	}
	if old, ok := c.entries[v.ColorTexture]; ok {
		Logger().Debug("xr: replacing resized framebuffer",
			"texture", uintptr(v.ColorTexture),
			"old", fmt.Sprintf("%dx%d", old.Width, old.Height),
			"new", fmt.Sprintf("%dx%d", e.Width, e.Height))
		c.release(old)
	}
	c.entries[v.ColorTexture] = e
	return e, nil
}

// Evict removes the entry for id, unbinding it first if it is bound.
// It reports whether an entry existed.
func (c *FrameBufferCache) Evict(id NativeTexture) bool {
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	c.release(e)
	delete(c.entries, id)
	Logger().Debug("xr: evicted framebuffer", "texture", uintptr(id))
	return true
}

// Clear releases every entry.
func (c *FrameBufferCache) Clear() {
	for id, e := range c.entries {
		c.release(e)
		delete(c.entries, id)
	}
}

// release destroys e, rebinding the back buffer first when e is the bound
// render target.
func (c *FrameBufferCache) release(e *FrameBufferEntry) {
	if c.binder != nil && e.Framebuffer != nil && c.binder.Bound() == e.Framebuffer {
		c.binder.Unbind(e.Framebuffer)
	}
	e.destroy()
}

func (c *FrameBufferCache) create(v View) (*FrameBufferEntry, error) {
	if v.ColorTextureSize.IsZero() {
		return nil, fmt.Errorf("%w: color texture is %dx%d",
			ErrInvalidViewSize, v.ColorTextureSize.Width, v.ColorTextureSize.Height)
	}
	if v.ColorTextureSize != v.DepthTextureSize {
		return nil, fmt.Errorf("%w: color %dx%d, depth %dx%d", ErrInvalidViewSize,
			v.ColorTextureSize.Width, v.ColorTextureSize.Height,
			v.DepthTextureSize.Width, v.DepthTextureSize.Height)
	}
	colorFormat, err := v.ColorTextureFormat.GPUFormat()
	if err != nil {
		return nil, err
	}
	depthFormat, err := v.DepthTextureFormat.GPUFormat()
	if err != nil {
		return nil, err
	}

	// The textures are created at the device's size and then pointed at the
	// device textures; overriding does not update the size, and the size
	// drives the viewport when rendering into the framebuffer.
	e := &FrameBufferEntry{
		Identity:   v.ColorTexture,
		ClearState: c.clearState,
		Width:      v.ColorTextureSize.Width,
		Height:     v.ColorTextureSize.Height,
	}
	if e.Color, err = c.backend.CreateTexture(v.ColorTextureSize, colorFormat, true); err != nil {
		return nil, fmt.Errorf("xr: create color texture: %w", err)
	}
	if e.Depth, err = c.backend.CreateTexture(v.DepthTextureSize, depthFormat, true); err != nil {
		e.destroy()
		return nil, fmt.Errorf("xr: create depth texture: %w", err)
	}

	// The textures must exist on the GPU before they can be overridden.
	if err := c.backend.Flush(); err != nil {
		e.destroy()
		return nil, fmt.Errorf("xr: flush: %w", err)
	}
	err = errors.Join(
		c.backend.OverrideInternal(e.Color, v.ColorTexture),
		c.backend.OverrideInternal(e.Depth, v.DepthTexture),
	)
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("xr: override textures: %w", err)
	}

	if e.Framebuffer, err = c.backend.CreateFramebuffer(e.Color, e.Depth); err != nil {
		e.destroy()
		return nil, fmt.Errorf("xr: create framebuffer: %w", err)
	}

	Logger().Debug("xr: created framebuffer",
		"texture", uintptr(v.ColorTexture), "width", e.Width, "height", e.Height)
	return e, nil
}
