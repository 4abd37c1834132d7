// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"context"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr/internal/tick"
	"github.com/gogpu/xr/runloop"
	"github.com/gogpu/xr/task"
)

// eventLog records backend and binder calls in order.
type eventLog struct {
	events []string
}

func fmtEvent(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func (l *eventLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

// index returns the position of event, or -1.
func (l *eventLog) index(event string) int {
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

type mockTexture struct {
	id     int
	size   Size
	format gputypes.TextureFormat
	log    *eventLog
}

func (t *mockTexture) Width() uint32                  { return t.size.Width }
func (t *mockTexture) Height() uint32                 { return t.size.Height }
func (t *mockTexture) Format() gputypes.TextureFormat { return t.format }
func (t *mockTexture) Destroy()                       { t.log.add("destroy-texture %d", t.id) }

type mockFramebuffer struct {
	id   int
	size Size
	log  *eventLog
}

func (f *mockFramebuffer) Width() uint32  { return f.size.Width }
func (f *mockFramebuffer) Height() uint32 { return f.size.Height }
func (f *mockFramebuffer) Destroy()       { f.log.add("destroy-fb %d", f.id) }

// mockBackend is a render domain driven by explicit ticks.
type mockBackend struct {
	log       *eventLog
	hooks     tick.Hooks
	nextID    int
	textures  int
	fbs       int
	flushes   int
	overrides map[int]NativeTexture
	work      []*task.Future[struct{}]
	createErr error
}

func newMockBackend(log *eventLog) *mockBackend {
	return &mockBackend{log: log, overrides: make(map[int]NativeTexture)}
}

func (b *mockBackend) CreateTexture(size Size, format gputypes.TextureFormat, _ bool) (Texture, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	b.nextID++
	b.textures++
	b.log.add("create-texture %d %dx%d", b.nextID, size.Width, size.Height)
	return &mockTexture{id: b.nextID, size: size, format: format, log: b.log}, nil
}

func (b *mockBackend) OverrideInternal(tex Texture, native NativeTexture) error {
	b.overrides[tex.(*mockTexture).id] = native
	return nil
}

func (b *mockBackend) CreateFramebuffer(attachments ...Texture) (Framebuffer, error) {
	b.nextID++
	b.fbs++
	b.log.add("create-fb %d", b.nextID)
	first := attachments[0].(*mockTexture)
	return &mockFramebuffer{id: b.nextID, size: first.size, log: b.log}, nil
}

func (b *mockBackend) Flush() error {
	b.flushes++
	return nil
}

func (b *mockBackend) RunAfterCurrentTick(fn func()) { b.hooks.AfterCurrentTick(fn) }
func (b *mockBackend) RunBeforeNextTick(fn func())   { b.hooks.BeforeNextTick(fn) }

func (b *mockBackend) EnqueueRenderWork(work *task.Future[struct{}]) {
	b.work = append(b.work, work)
}

func (b *mockBackend) DeviceProvider() gpucontext.DeviceProvider { return nil }
func (b *mockBackend) NativeWindow() uintptr                     { return 0x1 }

// tick runs one render: before hooks, render work (pumping the script loop
// for work scheduled there), after hooks.
func (b *mockBackend) tick(script *runloop.Loop) {
	b.hooks.FireBefore()
	for _, w := range b.work {
		for i := 0; i < 10 && !w.Completed(); i++ {
			_ = script.RunPending()
		}
	}
	b.work = nil
	b.hooks.FireAfter()
}

type mockBinder struct {
	bound Framebuffer
	log   *eventLog
}

func (b *mockBinder) Bound() Framebuffer { return b.bound }

func (b *mockBinder) Unbind(fb Framebuffer) {
	if b.bound == fb {
		b.log.add("unbind %d", fb.(*mockFramebuffer).id)
		b.bound = nil
	}
}

type mockEngine struct {
	mode    RenderingMode
	script  *runloop.Loop
	binder  *mockBinder
	renders int
}

func (e *mockEngine) ScheduleRender()                 { e.renders++ }
func (e *mockEngine) RenderingMode() RenderingMode    { return e.mode }
func (e *mockEngine) Framebuffers() FramebufferBinder { return e.binder }
func (e *mockEngine) ScriptScheduler() task.Scheduler { return e.script }
func (e *mockEngine) Dispatch(fn func())              { fn() }

type scriptedFrame struct {
	frame  *Frame
	evict  []NativeTexture
	status FrameStatus
}

type mockSession struct {
	frames       []scriptedFrame
	polls        int
	endRequested bool
	endAfter     int
	drainPolls   int
	pollErr      error
	drainErr     error
	depthNear    float32
	depthFar     float32
	planes       bool
	pointCloud   bool
}

func (s *mockSession) RequestEnd() { s.endRequested = true }

func (s *mockSession) NextFrame(onEvict EvictionFunc) (*Frame, FrameStatus, error) {
	s.polls++
	if s.endRequested {
		s.drainPolls++
		if s.drainErr != nil {
			return nil, FrameStatus{}, s.drainErr
		}
		return &Frame{}, FrameStatus{ShouldEnd: s.drainPolls >= s.endAfter}, nil
	}
	if s.pollErr != nil {
		return nil, FrameStatus{}, s.pollErr
	}
	sf := s.frames[0]
	if len(s.frames) > 1 {
		s.frames = s.frames[1:]
	}
	if onEvict != nil {
		for _, tex := range sf.evict {
			onEvict(tex)
		}
	}
	return sf.frame, sf.status, nil
}

func (s *mockSession) ViewSize(int) Size { return Size{Width: 800, Height: 600} }

func (s *mockSession) SetDepthRange(near, far float32) {
	s.depthNear, s.depthFar = near, far
}

func (s *mockSession) SetPlaneDetection(enabled bool) { s.planes = enabled }

func (s *mockSession) TrySetFeaturePointCloud(enabled bool) bool {
	s.pointCloud = enabled
	return true
}

type mockDevice struct {
	initFailures int
	initAttempts int
	initialized  bool
	neverInit    bool
	createErr    error
	createCalls  int
	session      *mockSession

	// deferCreate leaves the CreateSession future pending on pending.
	deferCreate bool
	pending     task.Promise[DeviceSession]
}

func (d *mockDevice) IsInitialized() bool { return d.initialized }

func (d *mockDevice) TryInitialize() bool {
	d.initAttempts++
	if !d.neverInit && d.initAttempts > d.initFailures {
		d.initialized = true
	}
	return d.initialized
}

func (d *mockDevice) CreateSession(context.Context, gpucontext.DeviceProvider, WindowProvider) *task.Future[DeviceSession] {
	d.createCalls++
	if d.createErr != nil {
		return task.Failed[DeviceSession](d.createErr)
	}
	if d.deferCreate {
		f, p := task.NewPromise[DeviceSession]()
		d.pending = p
		return f
	}
	return task.Resolved[DeviceSession](d.session)
}

func testView(tex NativeTexture, w, h uint32) View {
	return View{
		ColorTexture:       tex,
		ColorTextureSize:   Size{Width: w, Height: h},
		ColorTextureFormat: TextureFormatBGRA8SRGB,
		DepthTexture:       tex + 1000,
		DepthTextureSize:   Size{Width: w, Height: h},
		DepthTextureFormat: TextureFormatD24S8,
	}
}

func frameOf(views ...View) *Frame {
	return &Frame{Views: views, IsTracking: true}
}

// harness wires a lifecycle to mocks.
type harness struct {
	lc      *Lifecycle
	log     *eventLog
	backend *mockBackend
	device  *mockDevice
	session *mockSession
	engine  *mockEngine
	script  *runloop.Loop
	errs    []error
}

func newHarness(opts ...Option) *harness {
	h := &harness{log: &eventLog{}}
	h.backend = newMockBackend(h.log)
	h.session = &mockSession{}
	h.device = &mockDevice{session: h.session}
	h.script = runloop.New(runloop.WithErrorHandler(func(err error) {
		h.errs = append(h.errs, err)
	}))
	h.engine = &mockEngine{script: h.script, binder: &mockBinder{log: h.log}}
	h.lc = New(h.backend, h.device, opts...)
	h.lc.SetEngine(h.engine)
	return h
}

func (h *harness) tick() {
	h.backend.tick(h.script)
	_ = h.script.RunPending()
}

// start begins a session and runs the tick that creates it.
func (h *harness) start() error {
	f := h.lc.BeginSession()
	h.tick()
	_, err := f.Result()
	return err
}
