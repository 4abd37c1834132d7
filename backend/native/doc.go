// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native provides a GPU render domain using gogpu/wgpu HAL.
//
// Importing the package registers the "native" backend, which opens a
// Vulkan device on Init. A backend sharing an existing device is created
// with NewFromProvider; tests and headless tools pass a device directly
// with NewWithDevice.
//
//	import _ "github.com/gogpu/xr/backend/native"
package native
