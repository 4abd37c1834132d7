// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"math"
	"sync"
	"time"

	"github.com/gogpu/xr"
)

// Eye indices of the simulated headset.
const (
	EyeLeft  = 0
	EyeRight = 1
)

// Input source ids reported by the simulated runtime.
const (
	LeftHandID xr.InputSourceID = iota + 1
	RightHandID
	LeftControllerID
	RightControllerID
)

// Plane ids reported when plane detection is on.
const (
	FloorPlaneID xr.PlaneID = iota + 1
	TablePlaneID
)

const headHeight = 1.6

type swapchain struct {
	size  xr.Size
	color []xr.NativeTexture
	depth []xr.NativeTexture
}

// Session is a simulated xr.DeviceSession.
type Session struct {
	mu   sync.Mutex
	rt   *Runtime
	opts options

	frame   uint64
	eyes    [2]swapchain
	resize  *xr.Size
	evicted int

	endRequested bool
	exitPending  bool
	drained      int

	near, far float32

	planeDetection   bool
	planesReported   bool
	pointCloud       bool
	trackControllers bool
	tracking         bool
}

var _ xr.DeviceSession = (*Session)(nil)

// RequestEnd asks the runtime to end the session. Later polls drain the
// runtime until it reports ShouldEnd.
func (s *Session) RequestEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endRequested = true
}

// Exit makes the next poll report the end of the session, as when the user
// quits from the headset's system menu.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitPending = true
}

// Resize changes the eye size from the next poll on. The old swapchain
// images are evicted then.
func (s *Session) Resize(size xr.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize = &size
}

// SetTracking sets whether the headset pose is tracked.
func (s *Session) SetTracking(tracked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = tracked
}

// SetControllersTracked sets whether controllers report as tracked.
func (s *Session) SetControllersTracked(tracked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackControllers = tracked
}

// Frames returns the number of frames produced, drain polls excluded.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Evicted returns the number of identities evicted so far.
func (s *Session) Evicted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}

// DepthRange returns the clip planes last set with SetDepthRange.
func (s *Session) DepthRange() (near, far float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.near, s.far
}

// NextFrame polls the simulated runtime.
func (s *Session) NextFrame(onEvict xr.EvictionFunc) (*xr.Frame, xr.FrameStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endRequested {
		s.drained++
		return &xr.Frame{}, xr.FrameStatus{ShouldEnd: s.drained >= s.opts.endFrames}, nil
	}
	if s.exitPending {
		return nil, xr.FrameStatus{ShouldEnd: true}, nil
	}

	if s.resize != nil {
		for i := range s.eyes {
			s.evictAll(s.eyes[i], onEvict)
			s.eyes[i] = s.rt.allocate(*s.resize)
		}
		s.resize = nil
	}

	s.frame++
	idx := int((s.frame - 1) % uint64(s.opts.swapchainLength))
	if s.opts.recycleEvery > 0 && s.frame > 1 && s.frame%uint64(s.opts.recycleEvery) == 0 {
		for i := range s.eyes {
			s.recycle(&s.eyes[i], idx, onEvict)
		}
	}

	yaw := float64(s.frame) * s.opts.yawStep
	head := xr.Pose{
		Position:    xr.Vector3{Y: headHeight},
		Orientation: yawQuaternion(yaw),
	}

	frame := &xr.Frame{IsTracking: s.tracking}
	for eye, sc := range s.eyes {
		frame.Views = append(frame.Views, s.view(eye, sc, idx, head, yaw))
	}
	frame.InputSources = s.inputSources(head, yaw)

	now := time.Now()
	switch {
	case s.planeDetection && !s.planesReported:
		frame.UpdatedPlanes = detectedPlanes(now)
		s.planesReported = true
	case !s.planeDetection && s.planesReported:
		frame.RemovedPlanes = []xr.PlaneID{FloorPlaneID, TablePlaneID}
		s.planesReported = false
	}
	if s.pointCloud {
		frame.FeaturePointCloud = featurePoints(s.frame)
	}
	return frame, xr.FrameStatus{}, nil
}

func (s *Session) evictAll(sc swapchain, onEvict xr.EvictionFunc) {
	for _, id := range sc.color {
		s.evicted++
		if onEvict != nil {
			onEvict(id)
		}
	}
}

// recycle replaces image idx of sc with a fresh identity.
func (s *Session) recycle(sc *swapchain, idx int, onEvict xr.EvictionFunc) {
	old := sc.color[idx]
	sc.color[idx] = s.rt.nextIdentity()
	sc.depth[idx] = s.rt.nextIdentity()
	s.evicted++
	if onEvict != nil {
		onEvict(old)
	}
}

func (s *Session) view(eye int, sc swapchain, idx int, head xr.Pose, yaw float64) xr.View {
	offset := s.opts.ipd / 2
	if eye == EyeLeft {
		offset = -offset
	}
	pos := head.Position
	pos.X += float32(offset * math.Cos(yaw))
	pos.Z -= float32(offset * math.Sin(yaw))

	aspect := float64(sc.size.Width) / float64(sc.size.Height)
	return xr.View{
		Space:              xr.Space{Pose: xr.Pose{Position: pos, Orientation: head.Orientation}},
		ProjectionMatrix:   perspective(s.opts.fovY, aspect, float64(s.near), float64(s.far)),
		ColorTexture:       sc.color[idx],
		ColorTextureSize:   sc.size,
		ColorTextureFormat: s.opts.colorFormat,
		DepthTexture:       sc.depth[idx],
		DepthTextureSize:   sc.size,
		DepthTextureFormat: xr.TextureFormatD24S8,
	}
}

func (s *Session) inputSources(head xr.Pose, yaw float64) []xr.InputSource {
	var sources []xr.InputSource
	for _, h := range []xr.Handedness{xr.HandednessLeft, xr.HandednessRight} {
		side := float32(-0.2)
		if h == xr.HandednessRight {
			side = 0.2
		}
		grip := xr.Space{Pose: xr.Pose{
			Position:    xr.Vector3{X: side, Y: headHeight - 0.4, Z: -0.3},
			Orientation: head.Orientation,
		}}

		if s.opts.hands {
			src := xr.InputSource{
				ID:                     LeftHandID + xr.InputSourceID(h),
				Handedness:             h,
				TrackedThisFrame:       true,
				JointsTrackedThisFrame: true,
				AimSpace:               grip,
				GripSpace:              grip,
			}
			for j := range src.HandJoints {
				src.HandJoints[j] = handJoint(grip.Pose, h, j)
			}
			sources = append(sources, src)
		}
		if s.opts.controllers && s.trackControllers {
			sources = append(sources, xr.InputSource{
				ID:                      LeftControllerID + xr.InputSourceID(h),
				Handedness:              h,
				TrackedThisFrame:        true,
				GamepadTrackedThisFrame: true,
				AimSpace:                grip,
				GripSpace:               grip,
				Gamepad:                 controllerState(s.frame, yaw),
			})
		}
	}
	return sources
}

// ViewSize returns the render size of eye index, or zero for an unknown
// index.
func (s *Session) ViewSize(index int) xr.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.eyes) {
		return xr.Size{}
	}
	if s.resize != nil {
		return *s.resize
	}
	return s.eyes[index].size
}

// SetDepthRange sets the clip planes used for projection matrices.
func (s *Session) SetDepthRange(near, far float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.near, s.far = near, far
}

// SetPlaneDetection toggles plane detection.
func (s *Session) SetPlaneDetection(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planeDetection = enabled
}

// TrySetFeaturePointCloud toggles the feature point cloud when the runtime
// supports one.
func (s *Session) TrySetFeaturePointCloud(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opts.pointCloud {
		return false
	}
	s.pointCloud = enabled
	return true
}
