// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import "time"

// Size is a texture or view size in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (s Size) IsZero() bool {
	return s.Width == 0 || s.Height == 0
}

// Vector3 is a position in meters.
type Vector3 struct {
	X, Y, Z float32
}

// Quaternion is a rotation.
type Quaternion struct {
	X, Y, Z, W float32
}

// IdentityQuaternion is the rotation that leaves vectors unchanged.
var IdentityQuaternion = Quaternion{W: 1}

// Pose is a rigid transform: a position and an orientation.
type Pose struct {
	Position    Vector3
	Orientation Quaternion
}

// Space is a tracked coordinate space.
type Space struct {
	Pose Pose
}

// JointSpace is a tracked hand joint.
type JointSpace struct {
	Space
	Radius float32
}

// NativeTexture identifies a texture owned by the device runtime. The same
// identity may come back on later frames (swapchain reuse) or be evicted by
// the device at any poll.
type NativeTexture uintptr

// View is one eye or camera of a frame.
type View struct {
	Space            Space
	ProjectionMatrix [16]float32

	ColorTexture       NativeTexture
	ColorTextureSize   Size
	ColorTextureFormat TextureFormat

	DepthTexture       NativeTexture
	DepthTextureSize   Size
	DepthTextureFormat TextureFormat

	IsFirstPersonObserver bool
}

// Handedness is the hand an input source is held in.
type Handedness int

const (
	HandednessLeft Handedness = iota
	HandednessRight
)

// String returns the WebXR handedness string.
func (h Handedness) String() string {
	switch h {
	case HandednessLeft:
		return "left"
	case HandednessRight:
		return "right"
	default:
		return "none"
	}
}

// HandJointCount is the number of tracked joints per hand.
const HandJointCount = 25

// GamepadButton is the state of one controller button.
type GamepadButton struct {
	Pressed bool
	Touched bool
	Value   float32
}

// Gamepad is the button and axis state of a controller.
type Gamepad struct {
	Buttons []GamepadButton
	Axes    []float32
}

// InputSourceID identifies an input source across frames.
type InputSourceID uint64

// InputSource is a controller or tracked hand.
type InputSource struct {
	ID         InputSourceID
	Handedness Handedness

	TrackedThisFrame        bool
	JointsTrackedThisFrame  bool
	GamepadTrackedThisFrame bool

	AimSpace   Space
	GripSpace  Space
	HandJoints [HandJointCount]JointSpace
	Gamepad    Gamepad
}

// PlaneID identifies a detected plane across frames.
type PlaneID uint64

// Plane is a detected real-world surface.
type Plane struct {
	ID     PlaneID
	Center Pose
	// Polygon holds x, z pairs in the plane's local space.
	Polygon     []float32
	LastUpdated time.Time
}

// FeaturePoint is one point of the device's feature point cloud.
type FeaturePoint struct {
	Position   Vector3
	Confidence float32
	ID         int32
}

// Frame is the snapshot of one tick, taken by polling the device once.
// It is frozen: nothing in it changes until EndFrame discards it.
type Frame struct {
	// Views are ordered by eye: index 0 renders into ActiveRenderTargets()[0].
	Views             []View
	InputSources      []InputSource
	UpdatedPlanes     []Plane
	RemovedPlanes     []PlaneID
	FeaturePointCloud []FeaturePoint
	IsTracking        bool
}

// FrameStatus carries the session signals reported by a device poll.
type FrameStatus struct {
	ShouldEnd     bool
	ShouldRestart bool
}
