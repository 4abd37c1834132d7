// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webxr

import (
	"errors"
	"fmt"

	"github.com/gogpu/xr"
)

// Eye names.
const (
	EyeLeft  = "left"
	EyeRight = "right"
	EyeNone  = "none"
)

// ErrInvalidEye is returned for a view index or eye name with no mapping.
var ErrInvalidEye = errors.New("webxr: invalid eye")

// EyeForIndex returns the eye rendered by view index i.
func EyeForIndex(i int) (string, error) {
	switch i {
	case 0:
		return EyeLeft, nil
	case 1:
		return EyeRight, nil
	case 2:
		return EyeNone, nil
	default:
		return "", fmt.Errorf("%w: view index %d", ErrInvalidEye, i)
	}
}

// IndexForEye returns the view index rendering eye.
func IndexForEye(eye string) (int, error) {
	switch eye {
	case EyeLeft:
		return 0, nil
	case EyeRight:
		return 1, nil
	case EyeNone:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidEye, eye)
	}
}

// RigidTransform is a position and orientation with the equivalent
// column-major 4x4 matrix.
type RigidTransform struct {
	// Position is x, y, z, 1.
	Position [4]float32
	// Orientation is the quaternion x, y, z, w.
	Orientation [4]float32
	Matrix      [16]float32
}

// IdentityTransform leaves points unchanged.
func IdentityTransform() RigidTransform {
	return NewRigidTransform(xr.Pose{Orientation: xr.IdentityQuaternion})
}

// NewRigidTransform returns the transform of a pose.
func NewRigidTransform(p xr.Pose) RigidTransform {
	q := p.Orientation
	t := RigidTransform{
		Position:    [4]float32{p.Position.X, p.Position.Y, p.Position.Z, 1},
		Orientation: [4]float32{q.X, q.Y, q.Z, q.W},
	}

	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	t.Matrix = [16]float32{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		p.Position.X, p.Position.Y, p.Position.Z, 1,
	}
	return t
}

// ViewSpaceTransform returns the inverse of a space's transform, mapping
// world coordinates into the space.
func ViewSpaceTransform(s xr.Space) RigidTransform {
	return NewRigidTransform(inversePose(s.Pose))
}

// Inverse returns the transform undoing t.
func (t RigidTransform) Inverse() RigidTransform {
	return NewRigidTransform(inversePose(t.Pose()))
}

// Pose returns the pose t was built from.
func (t RigidTransform) Pose() xr.Pose {
	return xr.Pose{
		Position:    xr.Vector3{X: t.Position[0], Y: t.Position[1], Z: t.Position[2]},
		Orientation: xr.Quaternion{X: t.Orientation[0], Y: t.Orientation[1], Z: t.Orientation[2], W: t.Orientation[3]},
	}
}

// Apply transforms point v.
func (t RigidTransform) Apply(v xr.Vector3) xr.Vector3 {
	m := &t.Matrix
	return xr.Vector3{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12],
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13],
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14],
	}
}

func inversePose(p xr.Pose) xr.Pose {
	conj := xr.Quaternion{X: -p.Orientation.X, Y: -p.Orientation.Y, Z: -p.Orientation.Z, W: p.Orientation.W}
	neg := xr.Vector3{X: -p.Position.X, Y: -p.Position.Y, Z: -p.Position.Z}
	return xr.Pose{Position: rotate(conj, neg), Orientation: conj}
}

// rotate applies unit quaternion q to v.
func rotate(q xr.Quaternion, v xr.Vector3) xr.Vector3 {
	// v' = v + 2w(u x v) + 2u x (u x v), u = (x, y, z)
	cx := q.Y*v.Z - q.Z*v.Y
	cy := q.Z*v.X - q.X*v.Z
	cz := q.X*v.Y - q.Y*v.X
	return xr.Vector3{
		X: v.X + 2*(q.W*cx+q.Y*cz-q.Z*cy),
		Y: v.Y + 2*(q.W*cy+q.Z*cx-q.X*cz),
		Z: v.Z + 2*(q.W*cz+q.X*cy-q.Y*cx),
	}
}
