// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sim provides a simulated XR device runtime.
//
// The simulated headset renders two eyes from a rotating swapchain of
// device textures, turns slowly about the vertical axis, and can report
// tracked hands, controllers, detected planes and a feature point cloud.
// Resizing the eyes or recycling swapchain images evicts the old texture
// identities through the poll's eviction callback, the same way a real
// runtime invalidates its images.
//
//	rt := sim.New(sim.WithEyeSize(xr.Size{Width: 1440, Height: 1600}), sim.WithHands(true))
//	lc := xr.New(backend, rt)
package sim
