// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webxr

import (
	"cmp"
	"slices"
	"time"

	"github.com/gogpu/xr"
)

// Plane is a detected surface as scripts see it.
type Plane struct {
	ID        xr.PlaneID
	Transform RigidTransform
	// Polygon is the outline in the plane's space; y is always zero.
	Polygon         []xr.Vector3
	LastChangedTime time.Time
}

// PlaneTracker keeps the set of detected planes across frames.
type PlaneTracker struct {
	planes map[xr.PlaneID]*Plane
}

// NewPlaneTracker returns an empty tracker.
func NewPlaneTracker() *PlaneTracker {
	return &PlaneTracker{planes: make(map[xr.PlaneID]*Plane)}
}

// Update applies the plane changes of f.
func (t *PlaneTracker) Update(f *xr.Frame) {
	for _, id := range f.RemovedPlanes {
		delete(t.planes, id)
	}
	for _, p := range f.UpdatedPlanes {
		poly := make([]xr.Vector3, 0, len(p.Polygon)/2)
		for i := 0; i+1 < len(p.Polygon); i += 2 {
			poly = append(poly, xr.Vector3{X: p.Polygon[i], Z: p.Polygon[i+1]})
		}
		t.planes[p.ID] = &Plane{
			ID:              p.ID,
			Transform:       NewRigidTransform(p.Center),
			Polygon:         poly,
			LastChangedTime: p.LastUpdated,
		}
	}
}

// Planes returns the detected planes ordered by id.
func (t *PlaneTracker) Planes() []*Plane {
	out := make([]*Plane, 0, len(t.planes))
	for _, p := range t.planes {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Plane) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
