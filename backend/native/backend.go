// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend"
	"github.com/gogpu/xr/internal/tick"
	"github.com/gogpu/xr/task"
)

// fenceTimeout bounds every wait on the GPU.
const fenceTimeout = 5 * time.Second

// init registers the native backend on package import.
func init() {
	backend.Register(backend.BackendNative, func() backend.RenderBackend {
		return New()
	})
}

// Backend is a render domain over a wgpu HAL device.
//
// Thread Safety: Backend is safe for concurrent use. Hooks and render work
// may be registered from any goroutine; Render runs on the render goroutine.
type Backend struct {
	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	provider gpucontext.DeviceProvider
	external bool
	window   uintptr
	live     int
	work     []*task.Future[struct{}]

	hooks  tick.Hooks
	binder binder
}

// New creates a backend that opens its own device on Init.
func New() *Backend {
	b := &Backend{}
	b.binder.owner = b
	return b
}

// NewWithDevice creates an initialized backend over device and queue.
// The backend does not destroy them on Close.
func NewWithDevice(device hal.Device, queue hal.Queue) *Backend {
	b := New()
	b.device = device
	b.queue = queue
	b.external = true
	return b
}

// NewFromProvider creates an initialized backend sharing the GPU device of
// provider, which must also expose HalDevice() and HalQueue().
func NewFromProvider(provider gpucontext.DeviceProvider) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	b := NewWithDevice(device, queue)
	b.provider = provider
	return b, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendNative
}

// Init opens a Vulkan device unless the backend already has one.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device != nil {
		return nil
	}

	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoGPU
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("native: open device: %w", err)
	}

	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	xr.Logger().Info("native: GPU device opened", "adapter", selected.Info.Name)
	return nil
}

// Close releases the device if the backend opened it. Pending render work
// is dropped.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.work = nil
	if b.external {
		return
	}
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
		b.queue = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
}

// SetNativeWindow sets the handle returned by NativeWindow.
func (b *Backend) SetNativeWindow(h uintptr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.window = h
}

// LiveResources returns the number of textures and framebuffers not yet
// destroyed.
func (b *Backend) LiveResources() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Ticks returns the number of completed renders.
func (b *Backend) Ticks() uint64 {
	return b.hooks.Ticks()
}

func (b *Backend) halDevice() (hal.Device, hal.Queue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return nil, nil, backend.ErrNotInitialized
	}
	return b.device, b.queue, nil
}

func (b *Backend) track(delta int) {
	b.mu.Lock()
	b.live += delta
	b.mu.Unlock()
}

// CreateTexture creates a single-sample 2D texture with a default view.
func (b *Backend) CreateTexture(size xr.Size, format gputypes.TextureFormat, renderTarget bool) (xr.Texture, error) {
	device, _, err := b.halDevice()
	if err != nil {
		return nil, err
	}
	if size.IsZero() {
		return nil, fmt.Errorf("native: texture size %dx%d: %w", size.Width, size.Height, xr.ErrInvalidViewSize)
	}

	usage := gputypes.TextureUsageCopySrc
	if renderTarget {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	label := fmt.Sprintf("xr_%v_%dx%d", format, size.Width, size.Height)
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: size.Width, Height: size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create texture view: %w", err)
	}

	b.track(1)
	return &Texture{
		owner:  b,
		device: device,
		tex:    tex,
		view:   view,
		size:   size,
		format: format,
	}, nil
}

// OverrideInternal records native as the device image the texture stands
// in for. The device runtime owns the image; the texture keeps its size.
func (b *Backend) OverrideInternal(tex xr.Texture, native xr.NativeTexture) error {
	t, ok := tex.(*Texture)
	if !ok || t.owner != b {
		return backend.ErrForeignResource
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrTextureDestroyed
	}
	t.native = native
	return nil
}

// CreateFramebuffer groups a color and an optional depth attachment.
func (b *Backend) CreateFramebuffer(attachments ...xr.Texture) (xr.Framebuffer, error) {
	fb := &Framebuffer{owner: b}
	for _, a := range attachments {
		t, ok := a.(*Texture)
		if !ok || t.owner != b {
			return nil, backend.ErrForeignResource
		}
		switch {
		case isDepthFormat(t.format) && fb.depth == nil:
			fb.depth = t
		case !isDepthFormat(t.format) && fb.color == nil:
			fb.color = t
		default:
			return nil, fmt.Errorf("native: unexpected %v attachment", t.format)
		}
	}
	if fb.color == nil {
		return nil, fmt.Errorf("native: framebuffer needs a color attachment")
	}
	if fb.depth != nil && fb.depth.size != fb.color.size {
		return nil, fmt.Errorf("native: attachment sizes differ: %w", xr.ErrInvalidViewSize)
	}
	b.track(1)
	return fb, nil
}

// Flush waits until the GPU has processed everything submitted so far.
func (b *Backend) Flush() error {
	device, queue, err := b.halDevice()
	if err != nil {
		return err
	}
	return submitAndWait(device, queue, nil)
}

// submitAndWait submits cmds and blocks until a fence signals their
// completion.
func submitAndWait(device hal.Device, queue hal.Queue, cmds []hal.CommandBuffer) error {
	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit(cmds, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("native: wait for GPU: %w", err)
	}
	if !ok {
		return ErrFenceTimeout
	}
	return nil
}

// RunAfterCurrentTick registers fn for the end of the current render.
func (b *Backend) RunAfterCurrentTick(fn func()) {
	b.hooks.AfterCurrentTick(fn)
}

// RunBeforeNextTick registers fn for the start of the next render.
func (b *Backend) RunBeforeNextTick(fn func()) {
	b.hooks.BeforeNextTick(fn)
}

// EnqueueRenderWork makes the current render wait for work.
func (b *Backend) EnqueueRenderWork(work *task.Future[struct{}]) {
	b.mu.Lock()
	b.work = append(b.work, work)
	b.mu.Unlock()
}

// DeviceProvider returns the GPU context handed to device runtimes: the
// provider the backend was created from, otherwise one over the backend's
// own device. It is nil before Init.
func (b *Backend) DeviceProvider() gpucontext.DeviceProvider {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.provider != nil {
		return b.provider
	}
	if b.device == nil {
		return nil
	}
	return &halContext{device: b.device, queue: b.queue}
}

// NativeWindow returns the handle set with SetNativeWindow.
func (b *Backend) NativeWindow() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.window
}

// Binder returns the backend's bound-target tracker.
func (b *Backend) Binder() backend.Binder {
	return &b.binder
}

// Render runs one tick.
func (b *Backend) Render(ctx context.Context) error {
	b.hooks.FireBefore()

	b.mu.Lock()
	work := b.work
	b.work = nil
	b.mu.Unlock()

	for _, w := range work {
		if _, err := w.Await(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}

	b.hooks.FireAfter()
	return nil
}

func isDepthFormat(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatDepth24PlusStencil8
}
