// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"math"
	"time"

	"github.com/gogpu/xr"
)

// yawQuaternion rotates by rad about +Y.
func yawQuaternion(rad float64) xr.Quaternion {
	s, c := math.Sincos(rad / 2)
	return xr.Quaternion{Y: float32(s), W: float32(c)}
}

// perspective returns a column-major OpenGL-style projection matrix.
func perspective(fovY, aspect, near, far float64) [16]float32 {
	f := 1 / math.Tan(fovY/2)
	var m [16]float32
	m[0] = float32(f / aspect)
	m[5] = float32(f)
	m[10] = float32((far + near) / (near - far))
	m[11] = -1
	m[14] = float32(2 * far * near / (near - far))
	return m
}

// handJoint places joint j on a flat hand in front of the grip: the wrist
// first, then four joints per finger from the thumb out.
func handJoint(grip xr.Pose, h xr.Handedness, j int) xr.JointSpace {
	if j == 0 {
		return xr.JointSpace{Space: xr.Space{Pose: grip}, Radius: 0.02}
	}
	finger := (j - 1) / 4
	segment := (j - 1) % 4
	spread := float32(finger-2) * 0.02
	if h == xr.HandednessLeft {
		spread = -spread
	}
	pos := grip.Position
	pos.X += spread
	pos.Z -= 0.04 + float32(segment)*0.025
	return xr.JointSpace{
		Space:  xr.Space{Pose: xr.Pose{Position: pos, Orientation: grip.Orientation}},
		Radius: 0.01,
	}
}

// controllerState reports trigger, squeeze, touchpad and thumbstick buttons
// and the touchpad and thumbstick axes.
func controllerState(frame uint64, yaw float64) xr.Gamepad {
	trigger := float32(0.5 + 0.5*math.Sin(float64(frame)/30))
	stick := float32(math.Sin(yaw))
	return xr.Gamepad{
		Buttons: []xr.GamepadButton{
			{Pressed: trigger > 0.9, Touched: trigger > 0.1, Value: trigger},
			{},
			{},
			{Touched: stick != 0},
		},
		Axes: []float32{0, 0, stick, 0},
	}
}

func detectedPlanes(now time.Time) []xr.Plane {
	return []xr.Plane{
		{
			ID:          FloorPlaneID,
			Center:      xr.Pose{Orientation: xr.IdentityQuaternion},
			Polygon:     []float32{-2, -2, 2, -2, 2, 2, -2, 2},
			LastUpdated: now,
		},
		{
			ID:          TablePlaneID,
			Center:      xr.Pose{Position: xr.Vector3{Y: 0.75, Z: -1}, Orientation: xr.IdentityQuaternion},
			Polygon:     []float32{-0.6, -0.4, 0.6, -0.4, 0.6, 0.4, -0.6, 0.4},
			LastUpdated: now,
		},
	}
}

// featurePoints returns a ring of points on the floor that turns with the
// frame count.
func featurePoints(frame uint64) []xr.FeaturePoint {
	const n = 8
	points := make([]xr.FeaturePoint, n)
	base := float64(frame) / 100
	for i := range points {
		s, c := math.Sincos(base + 2*math.Pi*float64(i)/n)
		points[i] = xr.FeaturePoint{
			Position:   xr.Vector3{X: float32(1.5 * c), Z: float32(1.5 * s)},
			Confidence: 0.9,
			ID:         int32(i),
		}
	}
	return points
}
