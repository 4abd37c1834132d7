// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !xrdebug

package xr

const debugInvariants = false
