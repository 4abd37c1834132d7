// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/internal/tick"
	"github.com/gogpu/xr/task"
)

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() RenderBackend {
		return NewSoftwareBackend()
	})
}

// SoftwareBackend keeps textures in host memory. It has no GPU context:
// DeviceProvider returns nil and OverrideInternal only records the native
// identity.
//
// SoftwareBackend is safe for concurrent use; hooks and render work may be
// registered from any goroutine while Render runs on the render goroutine.
type SoftwareBackend struct {
	mu          sync.Mutex
	initialized bool
	window      uintptr
	nextID      uint64
	live        int
	work        []*task.Future[struct{}]

	hooks  tick.Hooks
	binder softwareBinder
}

// NewSoftwareBackend creates a new software backend.
func NewSoftwareBackend() *SoftwareBackend {
	b := &SoftwareBackend{}
	b.binder.owner = b
	return b
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init initializes the backend.
func (b *SoftwareBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
	return nil
}

// Close releases backend resources. Pending render work is dropped.
func (b *SoftwareBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	b.work = nil
}

// SetNativeWindow sets the handle returned by NativeWindow.
func (b *SoftwareBackend) SetNativeWindow(h uintptr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.window = h
}

// LiveResources returns the number of textures and framebuffers not yet
// destroyed.
func (b *SoftwareBackend) LiveResources() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Ticks returns the number of completed renders.
func (b *SoftwareBackend) Ticks() uint64 {
	return b.hooks.Ticks()
}

func (b *SoftwareBackend) allocate() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return 0, ErrNotInitialized
	}
	b.nextID++
	b.live++
	return b.nextID, nil
}

func (b *SoftwareBackend) release() {
	b.mu.Lock()
	b.live--
	b.mu.Unlock()
}

// CreateTexture allocates a texture in host memory.
func (b *SoftwareBackend) CreateTexture(size xr.Size, format gputypes.TextureFormat, _ bool) (xr.Texture, error) {
	if size.IsZero() {
		return nil, fmt.Errorf("backend: texture size %dx%d: %w", size.Width, size.Height, xr.ErrInvalidViewSize)
	}
	id, err := b.allocate()
	if err != nil {
		return nil, err
	}
	t := &SoftwareTexture{id: id, size: size, format: format, owner: b}
	n := int(size.Width) * int(size.Height)
	if isDepthFormat(format) {
		t.depth = make([]float32, n)
		t.stencil = make([]uint8, n)
	} else {
		t.pixels = make([]byte, n*4)
	}
	return t, nil
}

// OverrideInternal records native as the texture's device identity.
func (b *SoftwareBackend) OverrideInternal(tex xr.Texture, native xr.NativeTexture) error {
	t, ok := tex.(*SoftwareTexture)
	if !ok || t.owner != b {
		return ErrForeignResource
	}
	t.mu.Lock()
	t.native = native
	t.mu.Unlock()
	return nil
}

// CreateFramebuffer builds a framebuffer from a color and an optional
// depth attachment of equal size.
func (b *SoftwareBackend) CreateFramebuffer(attachments ...xr.Texture) (xr.Framebuffer, error) {
	fb := &SoftwareFramebuffer{owner: b}
	for _, a := range attachments {
		t, ok := a.(*SoftwareTexture)
		if !ok || t.owner != b {
			return nil, ErrForeignResource
		}
		switch {
		case t.depth != nil && fb.depth == nil:
			fb.depth = t
		case t.pixels != nil && fb.color == nil:
			fb.color = t
		default:
			return nil, fmt.Errorf("backend: unexpected %v attachment", t.format)
		}
	}
	if fb.color == nil {
		return nil, fmt.Errorf("backend: framebuffer needs a color attachment")
	}
	if fb.depth != nil && fb.depth.size != fb.color.size {
		return nil, fmt.Errorf("backend: attachment sizes differ: %w", xr.ErrInvalidViewSize)
	}
	id, err := b.allocate()
	if err != nil {
		return nil, err
	}
	fb.id = id
	return fb, nil
}

// Flush is a no-op: host textures exist as soon as they are created.
func (b *SoftwareBackend) Flush() error {
	return nil
}

// RunAfterCurrentTick registers fn for the end of the current render.
func (b *SoftwareBackend) RunAfterCurrentTick(fn func()) {
	b.hooks.AfterCurrentTick(fn)
}

// RunBeforeNextTick registers fn for the start of the next render.
func (b *SoftwareBackend) RunBeforeNextTick(fn func()) {
	b.hooks.BeforeNextTick(fn)
}

// EnqueueRenderWork makes the current render wait for work.
func (b *SoftwareBackend) EnqueueRenderWork(work *task.Future[struct{}]) {
	b.mu.Lock()
	b.work = append(b.work, work)
	b.mu.Unlock()
}

// DeviceProvider returns nil; the software backend has no GPU device.
func (b *SoftwareBackend) DeviceProvider() gpucontext.DeviceProvider {
	return nil
}

// NativeWindow returns the handle set with SetNativeWindow.
func (b *SoftwareBackend) NativeWindow() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.window
}

// Binder returns the backend's bound-target tracker.
func (b *SoftwareBackend) Binder() Binder {
	return &b.binder
}

// Render runs one tick.
func (b *SoftwareBackend) Render(ctx context.Context) error {
	b.hooks.FireBefore()

	b.mu.Lock()
	work := b.work
	b.work = nil
	b.mu.Unlock()

	// Work failures are reported by whoever enqueued the work; the render
	// only waits for completion.
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

// SoftwareTexture is a texture in host memory. Color textures hold four
// bytes per pixel in the order of their format; depth textures hold a depth
// and a stencil plane.
type SoftwareTexture struct {
	mu        sync.Mutex
	id        uint64
	size      xr.Size
	format    gputypes.TextureFormat
	native    xr.NativeTexture
	pixels    []byte
	depth     []float32
	stencil   []uint8
	destroyed bool
	owner     *SoftwareBackend
}

func (t *SoftwareTexture) Width() uint32                  { return t.size.Width }
func (t *SoftwareTexture) Height() uint32                 { return t.size.Height }
func (t *SoftwareTexture) Format() gputypes.TextureFormat { return t.format }

// Native returns the device texture this texture renders into, or zero.
func (t *SoftwareTexture) Native() xr.NativeTexture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.native
}

// Pixel returns the four bytes of the color pixel at (x, y) in the
// texture's channel order.
func (t *SoftwareTexture) Pixel(x, y int) [4]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var p [4]byte
	if t.pixels == nil {
		return p
	}
	i := (y*int(t.size.Width) + x) * 4
	copy(p[:], t.pixels[i:i+4])
	return p
}

// Depth returns the depth and stencil values at (x, y).
func (t *SoftwareTexture) Depth(x, y int) (float32, uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.depth == nil {
		return 0, 0
	}
	i := y*int(t.size.Width) + x
	return t.depth[i], t.stencil[i]
}

// Destroy releases the texture memory. It is safe to call twice.
func (t *SoftwareTexture) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	t.pixels, t.depth, t.stencil = nil, nil, nil
	t.mu.Unlock()
	t.owner.release()
}

func (t *SoftwareTexture) clear(cs xr.ClearState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.depth != nil {
		for i := range t.depth {
			t.depth[i] = cs.Depth
			t.stencil[i] = cs.Stencil
		}
		return
	}
	px := colorBytes(cs.Color, t.format)
	for i := 0; i < len(t.pixels); i += 4 {
		copy(t.pixels[i:i+4], px[:])
	}
}

// colorBytes quantizes c to 8 bits per channel in format's channel order.
func colorBytes(c gputypes.Color, format gputypes.TextureFormat) [4]byte {
	r := uint8(min(max(c.R, 0), 1)*255 + 0.5)
	g := uint8(min(max(c.G, 0), 1)*255 + 0.5)
	b := uint8(min(max(c.B, 0), 1)*255 + 0.5)
	a := uint8(min(max(c.A, 0), 1)*255 + 0.5)
	if format == gputypes.TextureFormatBGRA8Unorm {
		return [4]byte{b, g, r, a}
	}
	return [4]byte{r, g, b, a}
}

// SoftwareFramebuffer pairs a color attachment with an optional depth
// attachment. Destroying it leaves the attachments alive.
type SoftwareFramebuffer struct {
	mu        sync.Mutex
	id        uint64
	color     *SoftwareTexture
	depth     *SoftwareTexture
	destroyed bool
	owner     *SoftwareBackend
}

func (f *SoftwareFramebuffer) Width() uint32  { return f.color.size.Width }
func (f *SoftwareFramebuffer) Height() uint32 { return f.color.size.Height }

// Color returns the color attachment.
func (f *SoftwareFramebuffer) Color() *SoftwareTexture { return f.color }

// DepthStencil returns the depth attachment, or nil.
func (f *SoftwareFramebuffer) DepthStencil() *SoftwareTexture { return f.depth }

// Destroy releases the framebuffer. It is safe to call twice.
func (f *SoftwareFramebuffer) Destroy() {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return
	}
	f.destroyed = true
	f.mu.Unlock()
	f.owner.release()
}

// IsDestroyed reports whether Destroy has been called.
func (f *SoftwareFramebuffer) IsDestroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

type softwareBinder struct {
	mu    sync.Mutex
	owner *SoftwareBackend
	bound xr.Framebuffer
}

func (s *softwareBinder) Bound() xr.Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

func (s *softwareBinder) Unbind(fb xr.Framebuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound == fb {
		s.bound = nil
	}
}

func (s *softwareBinder) Bind(fb xr.Framebuffer, cs xr.ClearState) error {
	f, ok := fb.(*SoftwareFramebuffer)
	if !ok || f.owner != s.owner {
		return ErrForeignResource
	}
	if f.IsDestroyed() {
		return fmt.Errorf("backend: bind destroyed framebuffer %d", f.id)
	}
	f.color.clear(cs)
	if f.depth != nil {
		f.depth.clear(cs)
	}
	s.mu.Lock()
	s.bound = fb
	s.mu.Unlock()
	return nil
}
