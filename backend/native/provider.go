// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// halContext hands the backend's own HAL device to device runtimes. It
// also exposes HalDevice and HalQueue, so NewFromProvider accepts it.
type halContext struct {
	device hal.Device
	queue  hal.Queue
}

var _ gpucontext.DeviceProvider = (*halContext)(nil)

func (c *halContext) Device() gpucontext.Device             { return halDevice{c.device} }
func (c *halContext) Queue() gpucontext.Queue               { return halQueue{c.queue} }
func (c *halContext) Adapter() gpucontext.Adapter           { return nil }
func (c *halContext) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

// HalDevice returns the hal.Device.
func (c *halContext) HalDevice() any { return c.device }

// HalQueue returns the hal.Queue.
func (c *halContext) HalQueue() any { return c.queue }

// halDevice is a borrowed device: the backend keeps ownership, so Destroy
// does nothing. Submissions are fenced synchronously, leaving Poll nothing
// to wait for.
type halDevice struct{ device hal.Device }

func (halDevice) Poll(bool) {}
func (halDevice) Destroy()  {}

type halQueue struct{ queue hal.Queue }
