// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xr

import (
	"errors"
	"fmt"
)

// Errors returned by the lifecycle and the framebuffer cache.
var (
	// ErrUnsupportedFormat is returned for a device texture format that has
	// no GPU equivalent. It aborts the frame and is not recoverable for the
	// session that produced it.
	ErrUnsupportedFormat = errors.New("xr: unsupported texture format")

	// ErrInvalidViewSize is returned for a view with a zero dimension or
	// mismatched color and depth sizes.
	ErrInvalidViewSize = errors.New("xr: invalid view size")

	// ErrDeviceInitTimeout is returned when the device did not initialize
	// within the configured bound.
	ErrDeviceInitTimeout = errors.New("xr: device initialization timed out")

	// ErrSessionEndedUnexpectedly is returned when the device reports the
	// end of the session outside EndSession.
	ErrSessionEndedUnexpectedly = errors.New("xr: device ended the session")

	// ErrNoFrame is returned when a device poll succeeds without a frame.
	ErrNoFrame = errors.New("xr: device returned no frame")

	// ErrClosed is returned by continuations that find their lifecycle gone.
	ErrClosed = errors.New("xr: lifecycle is closed")
)

// InvariantError reports a programming error in the use of a Lifecycle.
// It is raised with panic, never returned.
type InvariantError struct {
	Op     string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("xr: %s: invariant violated: %s", e.Op, e.Reason)
}

// invariant panics with an InvariantError when cond is false.
// These checks stay on in every build.
func invariant(cond bool, op, reason string) {
	if !cond {
		panic(&InvariantError{Op: op, Reason: reason})
	}
}

// debugInvariant panics like invariant in xrdebug builds and returns cond
// otherwise, letting the caller degrade to a no-op.
func debugInvariant(cond bool, op, reason string) bool {
	if !cond && debugInvariants {
		panic(&InvariantError{Op: op, Reason: reason})
	}
	return cond
}
