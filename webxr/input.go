// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webxr

import (
	"cmp"
	"slices"

	"github.com/gogpu/xr"
)

// Fixed input source properties reported for every tracked source.
const (
	TargetRayModeTrackedPointer = "tracked-pointer"
	GenericProfile              = "generic-trigger-squeeze-touchpad-thumbstick"
)

// HandJointNames names the hand joints in device order.
var HandJointNames = [xr.HandJointCount]string{
	"wrist",
	"thumb-metacarpal",
	"thumb-phalanx-proximal",
	"thumb-phalanx-distal",
	"thumb-tip",
	"index-finger-metacarpal",
	"index-finger-phalanx-proximal",
	"index-finger-phalanx-intermediate",
	"index-finger-phalanx-distal",
	"index-finger-tip",
	"middle-finger-metacarpal",
	"middle-finger-phalanx-proximal",
	"middle-finger-phalanx-intermediate",
	"middle-finger-phalanx-distal",
	"middle-finger-tip",
	"ring-finger-metacarpal",
	"ring-finger-phalanx-proximal",
	"ring-finger-phalanx-intermediate",
	"ring-finger-phalanx-distal",
	"ring-finger-tip",
	"pinky-finger-metacarpal",
	"pinky-finger-phalanx-proximal",
	"pinky-finger-phalanx-intermediate",
	"pinky-finger-phalanx-distal",
	"pinky-finger-tip",
}

// Joint is one tracked hand joint.
type Joint struct {
	Name      string
	Transform RigidTransform
	Radius    float32
}

// Hand holds the joints of a tracked hand.
type Hand struct {
	Joints [xr.HandJointCount]Joint
}

// Joint returns the joint called name.
func (h *Hand) Joint(name string) (Joint, bool) {
	i := slices.Index(HandJointNames[:], name)
	if i < 0 {
		return Joint{}, false
	}
	return h.Joints[i], true
}

// InputSource is a controller or hand as scripts see it.
type InputSource struct {
	ID             xr.InputSourceID
	Handedness     string
	TargetRayMode  string
	Profiles       []string
	TargetRaySpace RigidTransform
	GripSpace      RigidTransform
	// Hand is nil unless joints were tracked this frame.
	Hand *Hand
	// Gamepad is nil unless the gamepad was tracked this frame.
	Gamepad *xr.Gamepad
}

// InputSourceTracker keeps the input sources visible to scripts across
// frames.
type InputSourceTracker struct {
	sources map[xr.InputSourceID]*InputSource
}

// NewInputSourceTracker returns an empty tracker.
func NewInputSourceTracker() *InputSourceTracker {
	return &InputSourceTracker{sources: make(map[xr.InputSourceID]*InputSource)}
}

// Update refreshes the tracked sources from f. It returns the sources that
// appeared and disappeared; both are empty when the set did not change.
func (t *InputSourceTracker) Update(f *xr.Frame) (added, removed []*InputSource) {
	seen := make(map[xr.InputSourceID]bool, len(f.InputSources))
	for i := range f.InputSources {
		src := &f.InputSources[i]
		if !src.TrackedThisFrame {
			continue
		}
		seen[src.ID] = true

		dto, ok := t.sources[src.ID]
		if !ok {
			dto = &InputSource{
				ID:            src.ID,
				Handedness:    src.Handedness.String(),
				TargetRayMode: TargetRayModeTrackedPointer,
				Profiles:      []string{GenericProfile},
			}
			t.sources[src.ID] = dto
			added = append(added, dto)
		}
		update(dto, src)
	}

	for id, dto := range t.sources {
		if !seen[id] {
			delete(t.sources, id)
			removed = append(removed, dto)
		}
	}
	sortByID(added)
	sortByID(removed)
	return added, removed
}

// Sources returns the tracked sources ordered by id.
func (t *InputSourceTracker) Sources() []*InputSource {
	out := make([]*InputSource, 0, len(t.sources))
	for _, dto := range t.sources {
		out = append(out, dto)
	}
	sortByID(out)
	return out
}

func update(dto *InputSource, src *xr.InputSource) {
	dto.TargetRaySpace = NewRigidTransform(src.AimSpace.Pose)
	dto.GripSpace = NewRigidTransform(src.GripSpace.Pose)

	dto.Hand = nil
	if src.JointsTrackedThisFrame {
		h := &Hand{}
		for i, j := range src.HandJoints {
			h.Joints[i] = Joint{
				Name:      HandJointNames[i],
				Transform: NewRigidTransform(j.Pose),
				Radius:    j.Radius,
			}
		}
		dto.Hand = h
	}

	dto.Gamepad = nil
	if src.GamepadTrackedThisFrame {
		gp := xr.Gamepad{
			Buttons: slices.Clone(src.Gamepad.Buttons),
			Axes:    slices.Clone(src.Gamepad.Axes),
		}
		dto.Gamepad = &gp
	}
}

func sortByID(s []*InputSource) {
	slices.SortFunc(s, func(a, b *InputSource) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
