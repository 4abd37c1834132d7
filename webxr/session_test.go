// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webxr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend"
	"github.com/gogpu/xr/device/sim"
	"github.com/gogpu/xr/runloop"
	"github.com/gogpu/xr/task"
	"github.com/gogpu/xr/webxr"
)

type engine struct {
	b      *backend.SoftwareBackend
	script *runloop.Loop
}

func (e *engine) ScheduleRender()                    {}
func (e *engine) RenderingMode() xr.RenderingMode    { return xr.RenderingModeAutomatic }
func (e *engine) Framebuffers() xr.FramebufferBinder { return e.b.Binder() }
func (e *engine) ScriptScheduler() task.Scheduler    { return e.script }
func (e *engine) Dispatch(fn func())                 { e.b.RunBeforeNextTick(fn) }

type fixture struct {
	t      *testing.T
	b      *backend.SoftwareBackend
	script *runloop.Loop
	rt     *sim.Runtime
	lc     *xr.Lifecycle
	raised []error
}

func newFixture(t *testing.T, opts ...sim.Option) *fixture {
	t.Helper()
	f := &fixture{t: t, b: backend.NewSoftwareBackend()}
	if err := f.b.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(f.b.Close)

	f.script = runloop.New(runloop.WithErrorHandler(func(err error) { f.raised = append(f.raised, err) }))
	opts = append([]sim.Option{sim.WithEyeSize(xr.Size{Width: 32, Height: 32})}, opts...)
	f.rt = sim.New(opts...)
	f.lc = xr.New(f.b, f.rt)
	f.lc.SetEngine(&engine{b: f.b, script: f.script})
	t.Cleanup(func() { _ = f.lc.Close() })
	return f
}

func (f *fixture) tick() {
	f.t.Helper()
	if err := f.b.Render(context.Background()); err != nil {
		f.t.Fatalf("Render: %v", err)
	}
	_ = f.script.RunPending()
}

func (f *fixture) session(mode string) *webxr.Session {
	f.t.Helper()
	req := webxr.RequestSession(f.lc, mode)
	f.tick()
	s, err := req.Result()
	if err != nil {
		f.t.Fatalf("RequestSession: %v", err)
	}
	return s
}

func TestRequestSessionModes(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr error
	}{
		{webxr.ModeImmersiveVR, nil},
		{webxr.ModeImmersiveAR, nil},
		{webxr.ModeInline, webxr.ErrUnsupportedMode},
		{"", webxr.ErrUnsupportedMode},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			f := newFixture(t)
			if got := webxr.IsSessionSupported(tt.mode); got != (tt.wantErr == nil) {
				t.Errorf("IsSessionSupported(%q) = %v", tt.mode, got)
			}
			req := webxr.RequestSession(f.lc, tt.mode)
			f.tick()
			s, err := req.Result()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RequestSession(%q) error = %v, want %v", tt.mode, err, tt.wantErr)
			}
			if err == nil && s.Mode() != tt.mode {
				t.Errorf("Mode() = %q", s.Mode())
			}
			if err != nil && f.rt.SessionsCreated() != 0 {
				t.Error("a device session was created for an unsupported mode")
			}
		})
	}
}

func TestRequestSessionDeviceFailure(t *testing.T) {
	boom := errors.New("no headset")
	f := newFixture(t, sim.WithCreateError(boom))
	req := webxr.RequestSession(f.lc, webxr.ModeImmersiveVR)
	f.tick()
	if _, err := req.Result(); !errors.Is(err, boom) {
		t.Errorf("RequestSession error = %v, want %v", err, boom)
	}
}

func TestAnimationFrames(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)

	var frames []*webxr.Frame
	record := func(_ time.Duration, fr *webxr.Frame) error {
		frames = append(frames, fr)
		return nil
	}
	h1 := s.RequestAnimationFrame(record)
	h2 := s.RequestAnimationFrame(record)
	if h1 == 0 || h2 <= h1 {
		t.Fatalf("handles = %d, %d; want increasing and non-zero", h1, h2)
	}

	f.tick()
	if len(frames) != 2 || frames[0] != frames[1] {
		t.Fatalf("got %d callbacks, want 2 sharing one frame", len(frames))
	}
	f.tick()
	if len(frames) != 2 {
		t.Errorf("callbacks ran again without a new request")
	}

	h3 := s.RequestAnimationFrame(record)
	s.CancelAnimationFrame(h3)
	f.tick()
	if len(frames) != 2 {
		t.Errorf("cancelled callback ran")
	}
	if len(f.raised) != 0 {
		t.Errorf("raised = %v", f.raised)
	}
}

func TestAnimationFrameLoop(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)

	var count int
	var last time.Duration
	var loop webxr.FrameCallback
	loop = func(now time.Duration, fr *webxr.Frame) error {
		if now < last {
			t.Errorf("time went backwards: %v < %v", now, last)
		}
		last = now
		count++

		pose, err := fr.ViewerPose(webxr.ReferenceSpace{})
		if err != nil {
			return err
		}
		for _, v := range pose.Views {
			target, err := s.RenderTargetForEye(v.Eye)
			if err != nil {
				return err
			}
			if target.Framebuffer.Width() != 32 {
				t.Errorf("target width = %d", target.Framebuffer.Width())
			}
		}
		s.RequestAnimationFrame(loop)
		return nil
	}
	s.RequestAnimationFrame(loop)

	for range 5 {
		f.tick()
	}
	if count != 5 {
		t.Errorf("frame loop ran %d times, want 5", count)
	}
	if got := f.lc.CacheLen(); got != 6 {
		t.Errorf("CacheLen() = %d, want 6", got)
	}
	if len(f.raised) != 0 {
		t.Errorf("raised = %v", f.raised)
	}
}

func TestFrameCallbackErrorsAreRaised(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)

	e1, e2 := errors.New("first"), errors.New("second")
	s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error { return e1 })
	s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error { return nil })
	s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error { return e2 })
	f.tick()

	if len(f.raised) != 1 {
		t.Fatalf("raised = %v, want one joined error", f.raised)
	}
	if !errors.Is(f.raised[0], e1) || !errors.Is(f.raised[0], e2) {
		t.Errorf("raised %v, want both callback errors", f.raised[0])
	}
}

func TestAnimationFrameAfterFailedFrame(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)
	dev := f.rt.LastSession()

	runs := 0
	count := func(time.Duration, *webxr.Frame) error {
		runs++
		return nil
	}

	dev.Resize(xr.Size{})
	s.RequestAnimationFrame(count)
	f.tick()
	if len(f.raised) != 1 || !errors.Is(f.raised[0], xr.ErrInvalidViewSize) {
		t.Fatalf("raised = %v, want one ErrInvalidViewSize", f.raised)
	}
	if runs != 0 {
		t.Fatalf("callback ran %d times during a failed frame", runs)
	}

	dev.Resize(xr.Size{Width: 32, Height: 32})
	s.RequestAnimationFrame(count)
	f.tick()
	if runs != 2 {
		t.Errorf("callbacks run after recovery = %d, want 2", runs)
	}

	s.RequestAnimationFrame(count)
	f.tick()
	if runs != 3 {
		t.Errorf("callbacks run on the following frame = %d, want 3", runs)
	}
	if len(f.raised) != 1 {
		t.Errorf("unexpected errors after recovery: %v", f.raised[1:])
	}
}

func TestInputSourcesChangeEvent(t *testing.T) {
	f := newFixture(t, sim.WithControllers(true))
	s := f.session(webxr.ModeImmersiveVR)

	var events []webxr.Event
	s.AddEventListener(webxr.EventInputSourcesChange, func(ev webxr.Event) {
		events = append(events, ev)
	})
	frame := func(time.Duration, *webxr.Frame) error { return nil }

	s.RequestAnimationFrame(frame)
	f.tick()
	if len(events) != 1 || len(events[0].Added) != 2 || len(events[0].Removed) != 0 {
		t.Fatalf("events = %+v, want one with two added", events)
	}
	if events[0].Session != s {
		t.Error("event session not set")
	}
	if got := s.InputSources(); len(got) != 2 || got[0].ID != sim.LeftControllerID {
		t.Errorf("InputSources() = %+v", got)
	}

	s.RequestAnimationFrame(frame)
	f.tick()
	if len(events) != 1 {
		t.Errorf("event fired with no change")
	}

	f.rt.LastSession().SetControllersTracked(false)
	s.RequestAnimationFrame(frame)
	f.tick()
	if len(events) != 2 || len(events[1].Removed) != 2 {
		t.Fatalf("events = %+v, want a second with two removed", events)
	}
	if got := s.InputSources(); len(got) != 0 {
		t.Errorf("InputSources() = %+v, want none", got)
	}
}

func TestRemoveEventListener(t *testing.T) {
	f := newFixture(t, sim.WithHands(true))
	s := f.session(webxr.ModeImmersiveAR)

	var fired int
	id := s.AddEventListener(webxr.EventInputSourcesChange, func(webxr.Event) { fired++ })
	s.RemoveEventListener(webxr.EventInputSourcesChange, id)

	s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error { return nil })
	f.tick()
	if fired != 0 {
		t.Errorf("removed listener fired %d times", fired)
	}
}

func TestWorldTracking(t *testing.T) {
	f := newFixture(t, sim.WithFeaturePointCloud(true))
	s := f.session(webxr.ModeImmersiveAR)

	if err := s.UpdateWorldTrackingState(webxr.WorldTrackingState{PlaneDetection: true}); err != nil {
		t.Fatal(err)
	}
	if !s.TrySetFeaturePointCloudEnabled(true) {
		t.Fatal("TrySetFeaturePointCloudEnabled(true) = false")
	}

	var planes []*webxr.Plane
	var points []xr.FeaturePoint
	s.RequestAnimationFrame(func(_ time.Duration, fr *webxr.Frame) error {
		planes = fr.DetectedPlanes()
		points = fr.FeaturePoints()
		return nil
	})
	f.tick()

	if len(planes) != 2 || planes[0].ID != sim.FloorPlaneID {
		t.Errorf("DetectedPlanes() = %+v", planes)
	}
	if len(points) == 0 {
		t.Error("FeaturePoints() empty with the point cloud enabled")
	}

	// Planes persist across frames that report no change.
	s.RequestAnimationFrame(func(_ time.Duration, fr *webxr.Frame) error {
		planes = fr.DetectedPlanes()
		return nil
	})
	f.tick()
	if len(planes) != 2 {
		t.Errorf("DetectedPlanes() on a later frame = %d planes, want 2", len(planes))
	}
}

func TestUpdateRenderState(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)

	rs := s.RenderState()
	if rs.BaseLayer.Viewport != (webxr.Viewport{Width: 1, Height: 1}) {
		t.Errorf("Viewport = %+v", rs.BaseLayer.Viewport)
	}
	if rs.BaseLayer.FramebufferWidth != 1 || rs.BaseLayer.FramebufferHeight != 1 {
		t.Errorf("framebuffer = %dx%d, want 1x1", rs.BaseLayer.FramebufferWidth, rs.BaseLayer.FramebufferHeight)
	}

	far := float32(50)
	if err := s.UpdateRenderState(webxr.RenderStateInit{DepthFar: &far}); err != nil {
		t.Fatal(err)
	}
	if got := s.RenderState(); got.DepthNear != rs.DepthNear || got.DepthFar != 50 {
		t.Errorf("RenderState() = %+v", got)
	}
	if n, fa := f.rt.LastSession().DepthRange(); n != rs.DepthNear || fa != 50 {
		t.Errorf("device depth range = %v, %v", n, fa)
	}
}

func TestReferenceSpaces(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)

	for _, typ := range []string{webxr.SpaceViewer, webxr.SpaceLocal, webxr.SpaceLocalFloor, webxr.SpaceBoundedFloor, webxr.SpaceUnbounded} {
		space, err := s.RequestReferenceSpace(typ)
		if err != nil {
			t.Errorf("RequestReferenceSpace(%q): %v", typ, err)
			continue
		}
		if space.Transform != webxr.IdentityTransform() {
			t.Errorf("%q transform is not the identity", typ)
		}
	}
	if _, err := s.RequestReferenceSpace("stage"); !errors.Is(err, webxr.ErrUnsupportedSpace) {
		t.Errorf("RequestReferenceSpace(stage) error = %v", err)
	}
}

func TestRenderTargetForEyeOutsideFrame(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)

	if _, err := s.RenderTargetForEye(webxr.EyeLeft); !errors.Is(err, webxr.ErrNoFrame) {
		t.Errorf("error = %v, want ErrNoFrame", err)
	}
	if _, err := s.RenderTargetForEye("center"); !errors.Is(err, webxr.ErrInvalidEye) {
		t.Errorf("error = %v, want ErrInvalidEye", err)
	}

	var noneErr error
	s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error {
		_, noneErr = s.RenderTargetForEye(webxr.EyeNone)
		return nil
	})
	f.tick()
	if !errors.Is(noneErr, webxr.ErrInvalidEye) {
		t.Errorf("EyeNone on a stereo frame error = %v, want ErrInvalidEye", noneErr)
	}
}

func TestEnd(t *testing.T) {
	f := newFixture(t)
	s := f.session(webxr.ModeImmersiveVR)

	var ended int
	s.AddEventListener(webxr.EventEnd, func(webxr.Event) { ended++ })

	ran := false
	s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error {
		ran = true
		return nil
	})
	done := s.End()
	if s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error { return nil }) != 0 {
		t.Error("RequestAnimationFrame after End returned a handle")
	}

	for range 3 {
		f.tick()
	}
	if _, err := done.Result(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if ran {
		t.Error("a callback pending at End ran")
	}
	if ended != 1 {
		t.Errorf("end event fired %d times, want 1", ended)
	}
	if f.lc.State() != xr.StateNoSession {
		t.Errorf("State() = %v, want %v", f.lc.State(), xr.StateNoSession)
	}
	if got := f.b.LiveResources(); got != 0 {
		t.Errorf("LiveResources() = %d, want 0", got)
	}

	if _, err := s.End().Result(); !errors.Is(err, webxr.ErrSessionEnded) {
		t.Errorf("second End error = %v, want ErrSessionEnded", err)
	}
	if err := s.UpdateRenderState(webxr.RenderStateInit{}); !errors.Is(err, webxr.ErrSessionEnded) {
		t.Errorf("UpdateRenderState after End error = %v", err)
	}
	if len(f.raised) != 0 {
		t.Errorf("raised = %v", f.raised)
	}
}

func TestEventScheduler(t *testing.T) {
	f := newFixture(t, sim.WithHands(true))
	events := runloop.New()
	req := webxr.RequestSession(f.lc, webxr.ModeImmersiveVR, webxr.WithEventScheduler(events))
	f.tick()
	s, err := req.Result()
	if err != nil {
		t.Fatal(err)
	}

	var fired int
	s.AddEventListener(webxr.EventInputSourcesChange, func(webxr.Event) { fired++ })
	s.RequestAnimationFrame(func(time.Duration, *webxr.Frame) error { return nil })
	f.tick()
	if fired != 0 {
		t.Fatal("listener ran before its scheduler was pumped")
	}
	if err := events.RunPending(); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("listener fired %d times, want 1", fired)
	}
}
