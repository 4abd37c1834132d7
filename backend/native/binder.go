// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend"
)

type binder struct {
	mu    sync.Mutex
	owner *Backend
	bound xr.Framebuffer
}

func (s *binder) Bound() xr.Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

func (s *binder) Unbind(fb xr.Framebuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound == fb {
		s.bound = nil
	}
}

// Bind clears fb's attachments with an empty render pass and makes it the
// render target.
func (s *binder) Bind(fb xr.Framebuffer, cs xr.ClearState) error {
	f, ok := fb.(*Framebuffer)
	if !ok || f.owner != s.owner {
		return backend.ErrForeignResource
	}
	if f.IsDestroyed() || f.color.IsDestroyed() || (f.depth != nil && f.depth.IsDestroyed()) {
		return ErrTextureDestroyed
	}
	device, queue, err := s.owner.halDevice()
	if err != nil {
		return err
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "xr_clear_encoder",
	})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("xr_clear"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(f.renderPassDescriptor(cs))
	rp.End()
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(device, queue, []hal.CommandBuffer{cmdBuf}); err != nil {
		return err
	}

	s.mu.Lock()
	s.bound = fb
	s.mu.Unlock()
	return nil
}
