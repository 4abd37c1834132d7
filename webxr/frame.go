// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webxr

import (
	"github.com/gogpu/xr"
)

// Frame is the frame passed to animation frame callbacks. It is valid only
// while the callbacks run.
type Frame struct {
	raw     *xr.Frame
	session *Session
	done    bool
}

// Session returns the session the frame belongs to.
func (f *Frame) Session() *Session { return f.session }

// ViewerPose returns the headset pose. Every reference space shares the
// device's origin, so the pose is the same for all of them.
func (f *Frame) ViewerPose(ReferenceSpace) (*ViewerPose, error) {
	if f.done {
		return nil, ErrNoFrame
	}
	return NewViewerPose(f.raw)
}

// InputSources returns the input sources tracked in this frame.
func (f *Frame) InputSources() []*InputSource {
	return f.session.InputSources()
}

// DetectedPlanes returns the planes known as of this frame.
func (f *Frame) DetectedPlanes() []*Plane {
	f.session.mu.Lock()
	defer f.session.mu.Unlock()
	return f.session.planes.Planes()
}

// FeaturePoints returns the feature point cloud of this frame.
func (f *Frame) FeaturePoints() []xr.FeaturePoint {
	return f.raw.FeaturePointCloud
}

// Raw returns the device frame.
func (f *Frame) Raw() *xr.Frame { return f.raw }
