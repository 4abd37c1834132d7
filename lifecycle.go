// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/gogpu/xr/task"
)

// FrameFunc receives the frame of the current tick. The frame and the
// active render targets stay valid until the function returns; an error is
// raised on the engine's script scheduler.
type FrameFunc func(frame *Frame) error

// Lifecycle drives an XR device session for one engine.
//
// State machine over (session, frame):
//
//	NoSession --BeginSession--> Active/NoFrame --BeginFrame--> Active/FrameOpen
//	    ^                          |      ^                          |
//	    +-------EndSession---------+      +---------EndFrame---------+
//
// The session is mutated only through Lifecycle methods. The framebuffer
// cache is mutated only from the render domain (frame begin, eviction) or
// from EndSession, which the host runs there as well.
type Lifecycle struct {
	backend GraphicsBackend
	device  DeviceRuntime
	opts    options

	ctx    context.Context
	cancel context.CancelFunc

	// frameScheduled is set by DoFrame on the scripting domain and cleared
	// on the render domain before the frame begins.
	frameScheduled atomic.Bool

	mu        sync.Mutex
	engine    Engine
	creating  bool
	session   DeviceSession
	sessionID uuid.UUID
	state     SessionState
	frame     *Frame
	active    []*FrameBufferEntry
	cache     *FrameBufferCache
}

// New creates a lifecycle with no session.
func New(backend GraphicsBackend, device DeviceRuntime, opts ...Option) *Lifecycle {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifecycle{
		backend: backend,
		device:  device,
		opts:    o,
		ctx:     ctx,
		cancel:  cancel,
		cache:   NewFrameBufferCache(backend, o.clearState),
	}
}

// SetEngine binds the engine the lifecycle renders for.
func (l *Lifecycle) SetEngine(e Engine) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engine = e
	if e != nil {
		l.cache.SetBinder(e.Framebuffers())
	} else {
		l.cache.SetBinder(nil)
	}
}

// CancellationToken returns the context cancelled when the lifecycle is
// closed. Dependents chaining work on the lifecycle should guard it with
// this context.
func (l *Lifecycle) CancellationToken() context.Context {
	return l.ctx
}

// State returns the session state.
func (l *Lifecycle) State() SessionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// FrameOpen reports whether a frame is between BeginFrame and EndFrame.
func (l *Lifecycle) FrameOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame != nil
}

// SessionID returns the id of the active session, or uuid.Nil.
func (l *Lifecycle) SessionID() uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// CacheLen returns the number of cached framebuffer entries.
func (l *Lifecycle) CacheLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache.Len()
}

// ActiveRenderTargets returns the render targets of the open frame in view
// order, so index i is the target of eye i. It is empty between frames.
func (l *Lifecycle) ActiveRenderTargets() []*FrameBufferEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.active)
}

// Dispatch posts fn onto the render domain.
func (l *Lifecycle) Dispatch(fn func()) {
	l.mu.Lock()
	e := l.engine
	l.mu.Unlock()
	invariant(e != nil, "Dispatch", "no engine bound")
	e.Dispatch(fn)
}

// BeginSession creates the device session.
//
// The device is initialized first, on the calling goroutine, by retrying
// until it reports success (see WithInitTimeout). Session creation itself
// waits for the end of the current render so the GPU context is not in
// use, then runs asynchronously. The returned future fails with the
// device's error if creation fails, or with context.Canceled if the
// lifecycle is closed first.
func (l *Lifecycle) BeginSession() *task.Future[struct{}] {
	l.markCreating()

	if err := l.initializeDevice(); err != nil {
		l.mu.Lock()
		l.creating = false
		l.mu.Unlock()
		return task.Failed[struct{}](err)
	}

	ctx := l.ctx
	self := weak.Make(l)
	device := l.device
	gpu := l.backend.DeviceProvider()
	window := WindowProvider(l.backend.NativeWindow)

	afterRender := task.FromHook(l.backend.RunAfterCurrentTick)
	created := task.ThenFuture(afterRender, task.Inline, ctx, func(struct{}) *task.Future[DeviceSession] {
		return device.CreateSession(ctx, gpu, window)
	})
	// Not bound to ctx: a session that arrives after Close must still be ended.
	return task.Handle(created, task.Inline, context.Background(), func(s DeviceSession, err error) (struct{}, error) {
		l := self.Value()
		if l == nil {
			if err == nil && s != nil {
				s.RequestEnd()
			}
			return struct{}{}, ErrClosed
		}
		return struct{}{}, l.attachSession(s, err)
	})
}

func (l *Lifecycle) markCreating() {
	l.mu.Lock()
	defer l.mu.Unlock()
	invariant(l.session == nil, "BeginSession", "a session is already active")
	invariant(!l.creating, "BeginSession", "a session is already being created")
	invariant(l.frame == nil, "BeginSession", "a frame is open")
	l.creating = true
}

func (l *Lifecycle) initializeDevice() error {
	if l.device.IsInitialized() {
		return nil
	}
	var deadline time.Time
	if l.opts.initTimeout > 0 {
		deadline = time.Now().Add(l.opts.initTimeout)
	}
	attempts := 1
	for !l.device.TryInitialize() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w after %d attempts", ErrDeviceInitTimeout, attempts)
		}
		attempts++
		runtime.Gosched()
	}
	Logger().Debug("xr: device initialized", "attempts", attempts)
	return nil
}

func (l *Lifecycle) attachSession(s DeviceSession, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creating = false
	if err != nil {
		Logger().Warn("xr: session creation failed", "err", err)
		return err
	}
	if cerr := l.ctx.Err(); cerr != nil {
		if s != nil {
			s.RequestEnd()
		}
		Logger().Debug("xr: session arrived after close, ending it")
		return cerr
	}
	l.session = s
	l.sessionID = uuid.New()
	l.state = StateActive
	Logger().Info("xr: session started", "session", l.sessionID)
	return nil
}

// EndSession ends the active session and blocks until the device confirms.
//
// After requesting the end, it keeps polling and discarding frames until
// the device reports the end of the session. The framebuffer cache is
// cleared and the session released only after the device has stopped
// using its textures.
func (l *Lifecycle) EndSession() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	invariant(l.session != nil, "EndSession", "no active session")
	invariant(l.frame == nil, "EndSession", "a frame is open")
	return l.endSessionLocked()
}

func (l *Lifecycle) endSessionLocked() error {
	s := l.session
	l.state = StateEnding
	s.RequestEnd()

	var err error
	drained := 0
	for {
		_, status, perr := s.NextFrame(nil)
		if perr != nil {
			// A failing device cannot be drained any further.
			err = fmt.Errorf("xr: drain session: %w", perr)
			break
		}
		drained++
		if status.ShouldEnd {
			break
		}
	}

	l.cache.Clear()
	l.session = nil
	l.state = StateNoSession
	Logger().Info("xr: session ended", "session", l.sessionID, "drained", drained)
	l.sessionID = uuid.Nil
	return err
}

// DoFrame schedules onFrame for the next tick.
//
// Calls made while a frame is already scheduled are ignored. After the
// current render the engine is asked to render again; before that next
// render the frame begins, onFrame runs (on the render domain in automatic
// mode, on the script scheduler in manual mode), and the frame ends after
// the render. Scheduling the next render is independent of the frame
// sequence so the render domain can pipeline submissions.
//
// Errors from any step are raised on the engine's script scheduler.
//
// Builds with the xrdebug tag panic instead of ignoring a second call;
// callers that may request more than once per tick use RequestFrame.
func (l *Lifecycle) DoFrame(onFrame FrameFunc) {
	debugInvariant(l.RequestFrame(onFrame), "DoFrame", "a frame is already scheduled")
}

// RequestFrame is DoFrame without the debug check. It reports whether
// onFrame was scheduled; false means an earlier request is still pending
// and onFrame is dropped.
func (l *Lifecycle) RequestFrame(onFrame FrameFunc) bool {
	l.mu.Lock()
	engine := l.engine
	l.mu.Unlock()
	invariant(engine != nil, "DoFrame", "no engine bound")

	if !l.frameScheduled.CompareAndSwap(false, true) {
		return false
	}

	ctx := l.ctx
	self := weak.Make(l)
	script := engine.ScriptScheduler()

	afterRender := task.FromHook(l.backend.RunAfterCurrentTick)
	scheduled := task.Then(afterRender, task.Inline, ctx, func(struct{}) (struct{}, error) {
		engine.ScheduleRender()
		return struct{}{}, nil
	})
	task.Raise(scheduled, script, ctx)

	beforeRender := task.FromHook(l.backend.RunBeforeNextTick)
	framed := task.Then(beforeRender, task.Inline, ctx, func(struct{}) (struct{}, error) {
		l := self.Value()
		if l == nil {
			return struct{}{}, ErrClosed
		}
		return struct{}{}, l.runFrame(ctx, engine, onFrame)
	})
	task.Raise(framed, script, ctx)
	return true
}

// runFrame runs on the render domain, before the render.
func (l *Lifecycle) runFrame(ctx context.Context, engine Engine, onFrame FrameFunc) error {
	l.frameScheduled.Store(false)

	l.mu.Lock()
	if l.session == nil {
		l.mu.Unlock()
		return nil
	}
	frame, err := l.beginFrameLocked()
	l.mu.Unlock()
	if err != nil {
		return err
	}

	sched := task.Inline
	if engine.RenderingMode() == RenderingModeManual {
		sched = engine.ScriptScheduler()
	}
	work := task.Run(sched, ctx, func() (struct{}, error) {
		return struct{}{}, onFrame(frame)
	})
	l.backend.EnqueueRenderWork(work)
	task.Raise(work, engine.ScriptScheduler(), ctx)

	self := weak.Make(l)
	l.backend.RunAfterCurrentTick(func() {
		if ctx.Err() != nil {
			return
		}
		l := self.Value()
		if l == nil {
			return
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.frame == frame {
			l.endFrameLocked()
		}
	})
	return nil
}

func (l *Lifecycle) beginFrame() (*Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.beginFrameLocked()
}

// beginFrameLocked polls the device for the next frame and resolves a
// render target for each of its views.
func (l *Lifecycle) beginFrameLocked() (*Frame, error) {
	invariant(l.engine != nil, "BeginFrame", "no engine bound")
	invariant(l.session != nil, "BeginFrame", "no active session")
	invariant(l.frame == nil, "BeginFrame", "a frame is already open")

	frame, status, err := l.session.NextFrame(func(tex NativeTexture) {
		l.cache.Evict(tex)
	})
	if err != nil {
		return nil, fmt.Errorf("xr: poll frame: %w", err)
	}
	if status.ShouldEnd {
		return nil, ErrSessionEndedUnexpectedly
	}
	if frame == nil {
		return nil, ErrNoFrame
	}

	targets := make([]*FrameBufferEntry, 0, len(frame.Views))
	for i, v := range frame.Views {
		e, err := l.cache.GetOrCreate(v)
		if err != nil {
			return nil, fmt.Errorf("xr: view %d: %w", i, err)
		}
		targets = append(targets, e)
	}
	l.frame = frame
	l.active = targets
	return frame, nil
}

func (l *Lifecycle) endFrame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.endFrameLocked()
}

func (l *Lifecycle) endFrameLocked() {
	invariant(l.frame != nil, "EndFrame", "no open frame")
	l.active = nil
	l.frame = nil
}

// Close cancels the lifecycle's token and ends any active session.
//
// Unlike EndSession, Close tolerates having no session, and it force-ends
// an open frame first so that no framebuffer is destroyed while bound.
// Pending continuations observe the cancelled token and do nothing.
func (l *Lifecycle) Close() error {
	l.cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil {
		return nil
	}
	if l.frame != nil {
		l.endFrameLocked()
	}
	return l.endSessionLocked()
}

// ViewSize returns the device's render size for a view index.
func (l *Lifecycle) ViewSize(index int) Size {
	return l.activeSession("ViewSize").ViewSize(index)
}

// SetDepthRange forwards the near and far clip planes to the device.
func (l *Lifecycle) SetDepthRange(near, far float32) {
	l.activeSession("SetDepthRange").SetDepthRange(near, far)
}

// SetPlaneDetection toggles plane detection on the device.
func (l *Lifecycle) SetPlaneDetection(enabled bool) {
	l.activeSession("SetPlaneDetection").SetPlaneDetection(enabled)
}

// TrySetFeaturePointCloud toggles the feature point cloud and reports
// whether the device accepted the change.
func (l *Lifecycle) TrySetFeaturePointCloud(enabled bool) bool {
	return l.activeSession("TrySetFeaturePointCloud").TrySetFeaturePointCloud(enabled)
}

func (l *Lifecycle) activeSession(op string) DeviceSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	invariant(l.session != nil, op, "no active session")
	return l.session
}
