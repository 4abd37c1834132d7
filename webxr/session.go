// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webxr

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/task"
)

// Session modes.
const (
	ModeImmersiveVR = "immersive-vr"
	ModeImmersiveAR = "immersive-ar"
	ModeInline      = "inline"
)

// Event types.
const (
	EventEnd                = "end"
	EventInputSourcesChange = "inputsourceschange"
)

// Reference space types.
const (
	SpaceViewer       = "viewer"
	SpaceLocal        = "local"
	SpaceLocalFloor   = "local-floor"
	SpaceBoundedFloor = "bounded-floor"
	SpaceUnbounded    = "unbounded"
)

var (
	// ErrUnsupportedMode is returned when requesting a non-immersive session.
	ErrUnsupportedMode = errors.New("webxr: unsupported session mode")

	// ErrSessionEnded is returned by operations on an ended session.
	ErrSessionEnded = errors.New("webxr: session has ended")

	// ErrNoFrame is returned when a frame-scoped call happens between frames.
	ErrNoFrame = errors.New("webxr: no frame in progress")

	// ErrUnsupportedSpace is returned for an unknown reference space type.
	ErrUnsupportedSpace = errors.New("webxr: unsupported reference space")
)

// IsSessionSupported reports whether RequestSession accepts mode.
func IsSessionSupported(mode string) bool {
	return mode == ModeImmersiveVR || mode == ModeImmersiveAR
}

// Event is delivered to session event listeners.
type Event struct {
	Type    string
	Session *Session
	// Added and Removed are set for EventInputSourcesChange.
	Added   []*InputSource
	Removed []*InputSource
}

// Listener handles session events.
type Listener func(Event)

// ListenerID identifies a registered listener.
type ListenerID uint64

// FrameCallback is an animation frame callback. t is the time since the
// session started.
type FrameCallback func(t time.Duration, f *Frame) error

// Viewport is a rectangle in normalized layer coordinates.
type Viewport struct {
	X, Y, Width, Height float32
}

// Layer is the render layer of a session. The whole device frame is one
// layer, so the viewport is the unit square over a 1x1 framebuffer.
type Layer struct {
	Viewport          Viewport
	FramebufferWidth  uint32
	FramebufferHeight uint32
}

// RenderState is the session's render configuration.
type RenderState struct {
	DepthNear float32
	DepthFar  float32
	BaseLayer Layer
}

// RenderStateInit holds the fields to change in UpdateRenderState; nil
// fields keep their value.
type RenderStateInit struct {
	DepthNear *float32
	DepthFar  *float32
}

// WorldTrackingState configures world understanding features.
type WorldTrackingState struct {
	PlaneDetection bool
}

// ReferenceSpace is a coordinate system. Every space is the identity.
type ReferenceSpace struct {
	Type      string
	Transform RigidTransform
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	events task.Scheduler
}

// WithEventScheduler sets where event listeners run. By default they run
// inline on the domain that raised the event.
func WithEventScheduler(s task.Scheduler) SessionOption {
	return func(o *sessionOptions) {
		o.events = s
	}
}

type animationFrame struct {
	handle uint32
	fn     FrameCallback
}

type listener struct {
	id ListenerID
	fn Listener
}

// Session is an immersive session over an xr.Lifecycle.
type Session struct {
	lc     *xr.Lifecycle
	mode   string
	events task.Scheduler
	start  time.Time

	mu           sync.Mutex
	nextHandle   uint32
	callbacks    []animationFrame
	ended        bool
	nextListener ListenerID
	listeners    map[string][]listener
	renderState  RenderState
	inputs       *InputSourceTracker
	planes       *PlaneTracker
}

// RequestSession begins a device session on lc. The future resolves once
// the device session exists.
func RequestSession(lc *xr.Lifecycle, mode string, opts ...SessionOption) *task.Future[*Session] {
	if !IsSessionSupported(mode) {
		return task.Failed[*Session](fmt.Errorf("%w: %q", ErrUnsupportedMode, mode))
	}
	o := sessionOptions{events: task.Inline}
	for _, opt := range opts {
		opt(&o)
	}
	begun := lc.BeginSession()
	return task.Then(begun, task.Inline, lc.CancellationToken(), func(struct{}) (*Session, error) {
		return newSession(lc, mode, o), nil
	})
}

func newSession(lc *xr.Lifecycle, mode string, o sessionOptions) *Session {
	xr.Logger().Info("webxr: session started", "mode", mode, "session", lc.SessionID())
	return &Session{
		lc:        lc,
		mode:      mode,
		events:    o.events,
		start:     time.Now(),
		listeners: make(map[string][]listener),
		renderState: RenderState{
			DepthNear: 0.1,
			DepthFar:  1000,
			BaseLayer: Layer{
				Viewport:          Viewport{Width: 1, Height: 1},
				FramebufferWidth:  1,
				FramebufferHeight: 1,
			},
		},
		inputs: NewInputSourceTracker(),
		planes: NewPlaneTracker(),
	}
}

// Mode returns the mode the session was requested with.
func (s *Session) Mode() string { return s.mode }

// Ended reports whether End has been called.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// RequestAnimationFrame runs fn during the next frame and returns a handle
// for CancelAnimationFrame. Handles increase; zero means the session has
// ended.
func (s *Session) RequestAnimationFrame(fn FrameCallback) uint32 {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return 0
	}
	s.nextHandle++
	handle := s.nextHandle
	s.callbacks = append(s.callbacks, animationFrame{handle: handle, fn: fn})
	s.mu.Unlock()

	// Dropped when a frame is already pending; that frame runs fn too.
	s.lc.RequestFrame(s.onFrame)
	return handle
}

// CancelAnimationFrame drops a pending callback.
func (s *Session) CancelAnimationFrame(handle uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = slices.DeleteFunc(s.callbacks, func(a animationFrame) bool {
		return a.handle == handle
	})
}

func (s *Session) onFrame(raw *xr.Frame) error {
	s.mu.Lock()
	callbacks := s.callbacks
	s.callbacks = nil
	added, removed := s.inputs.Update(raw)
	s.planes.Update(raw)
	s.mu.Unlock()

	if len(added) > 0 || len(removed) > 0 {
		s.emit(Event{Type: EventInputSourcesChange, Added: added, Removed: removed})
	}

	f := &Frame{raw: raw, session: s}
	t := time.Since(s.start)
	var errs []error
	for _, cb := range callbacks {
		if err := cb.fn(t, f); err != nil {
			errs = append(errs, err)
		}
	}
	f.done = true
	return errors.Join(errs...)
}

// AddEventListener registers fn for events of type typ.
func (s *Session) AddEventListener(typ string, fn Listener) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListener++
	s.listeners[typ] = append(s.listeners[typ], listener{id: s.nextListener, fn: fn})
	return s.nextListener
}

// RemoveEventListener unregisters a listener.
func (s *Session) RemoveEventListener(typ string, id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[typ] = slices.DeleteFunc(s.listeners[typ], func(l listener) bool {
		return l.id == id
	})
}

func (s *Session) emit(ev Event) {
	ev.Session = s
	s.mu.Lock()
	ls := slices.Clone(s.listeners[ev.Type])
	s.mu.Unlock()
	if len(ls) == 0 {
		return
	}
	s.events.Schedule(func() error {
		for _, l := range ls {
			l.fn(ev)
		}
		return nil
	})
}

// End ends the session on the render domain and then emits EventEnd.
// Pending animation frames are dropped.
func (s *Session) End() *task.Future[struct{}] {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return task.Failed[struct{}](ErrSessionEnded)
	}
	s.ended = true
	s.callbacks = nil
	s.mu.Unlock()

	f, p := task.NewPromise[struct{}]()
	var end func()
	end = func() {
		// A frame scheduled before End may still be open; end after it.
		if s.lc.FrameOpen() {
			s.lc.Dispatch(end)
			return
		}
		err := s.lc.EndSession()
		s.emit(Event{Type: EventEnd})
		_ = p.Complete(struct{}{}, err)
	}
	s.lc.Dispatch(end)
	return f
}

// RenderState returns the current render state.
func (s *Session) RenderState() RenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderState
}

// UpdateRenderState changes the clip planes and forwards them to the device.
func (s *Session) UpdateRenderState(init RenderStateInit) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	if init.DepthNear != nil {
		s.renderState.DepthNear = *init.DepthNear
	}
	if init.DepthFar != nil {
		s.renderState.DepthFar = *init.DepthFar
	}
	near, far := s.renderState.DepthNear, s.renderState.DepthFar
	s.mu.Unlock()

	s.lc.SetDepthRange(near, far)
	return nil
}

// UpdateWorldTrackingState toggles plane detection.
func (s *Session) UpdateWorldTrackingState(state WorldTrackingState) error {
	if s.Ended() {
		return ErrSessionEnded
	}
	s.lc.SetPlaneDetection(state.PlaneDetection)
	return nil
}

// TrySetFeaturePointCloudEnabled toggles the feature point cloud and
// reports whether the device supports it.
func (s *Session) TrySetFeaturePointCloudEnabled(enabled bool) bool {
	if s.Ended() {
		return false
	}
	return s.lc.TrySetFeaturePointCloud(enabled)
}

// RequestReferenceSpace returns a reference space of a supported type.
func (s *Session) RequestReferenceSpace(typ string) (ReferenceSpace, error) {
	switch typ {
	case SpaceViewer, SpaceLocal, SpaceLocalFloor, SpaceBoundedFloor, SpaceUnbounded:
		return ReferenceSpace{Type: typ, Transform: IdentityTransform()}, nil
	default:
		return ReferenceSpace{}, fmt.Errorf("%w: %q", ErrUnsupportedSpace, typ)
	}
}

// InputSources returns the input sources tracked as of the last frame.
func (s *Session) InputSources() []*InputSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs.Sources()
}

// RenderTargetForEye returns the render target of eye in the open frame.
func (s *Session) RenderTargetForEye(eye string) (*xr.FrameBufferEntry, error) {
	i, err := IndexForEye(eye)
	if err != nil {
		return nil, err
	}
	targets := s.lc.ActiveRenderTargets()
	if len(targets) == 0 {
		return nil, ErrNoFrame
	}
	if i >= len(targets) {
		return nil, fmt.Errorf("%w: no view for %q", ErrInvalidEye, eye)
	}
	return targets[i], nil
}
