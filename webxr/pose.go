// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webxr

import (
	"errors"

	"github.com/gogpu/xr"
)

// ErrNoViews is returned for a frame without views.
var ErrNoViews = errors.New("webxr: frame has no views")

// View is one eye of a viewer pose.
type View struct {
	Eye              string
	ProjectionMatrix [16]float32
	// Transform places the view in the world.
	Transform RigidTransform

	IsFirstPersonObserver bool
}

// ViewerPose is the headset pose of a frame.
type ViewerPose struct {
	// Transform maps world coordinates into the space of the first view.
	Transform RigidTransform
	Views     []View
	// EmulatedPosition is set when the device lost positional tracking.
	EmulatedPosition bool
}

// NewViewerPose builds the viewer pose of a frame.
func NewViewerPose(f *xr.Frame) (*ViewerPose, error) {
	if len(f.Views) == 0 {
		return nil, ErrNoViews
	}
	pose := &ViewerPose{
		Transform:        ViewSpaceTransform(f.Views[0].Space),
		Views:            make([]View, 0, len(f.Views)),
		EmulatedPosition: !f.IsTracking,
	}
	for i, v := range f.Views {
		eye, err := EyeForIndex(i)
		if err != nil {
			return nil, err
		}
		pose.Views = append(pose.Views, View{
			Eye:                   eye,
			ProjectionMatrix:      v.ProjectionMatrix,
			Transform:             NewRigidTransform(v.Space.Pose),
			IsFirstPersonObserver: v.IsFirstPersonObserver,
		})
	}
	return pose, nil
}
