// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package wallclock

import (
	"context"
	"time"
)

type (
	// WallClock abstracts the subset of packages context and time used for
	// timeouts, retries and token refresh scheduling.
	WallClock interface {
		WithTimeoutCause(
			parent context.Context,
			timeout time.Duration,
			cause error,
		) (context.Context, context.CancelFunc)
		After(d time.Duration) <-chan time.Time
		AfterFunc(d time.Duration, f func()) Timer
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// Timer abstracts the functionality of time.Timer.
	Timer interface {
		Reset(d time.Duration) bool
		Stop() bool
	}

	wallClock struct{}
)

// WithTimeoutCause indirects context.WithTimeoutCause.
func (wallClock) WithTimeoutCause(
	parent context.Context,
	timeout time.Duration,
	cause error,
) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(parent, timeout, cause)
}

// After indirects time.After.
func (wallClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// AfterFunc indirects time.AfterFunc.
func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Now indirects time.Now.
func (wallClock) Now() time.Time {
	return time.Now()
}

// Since indirects time.Since.
func (wallClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Instance is a WallClock singleton used for indirect time-based references to
// packages context and time. Test code can set the instance to interpose on
// functions and control apparent time.
var Instance WallClock = wallClock{}
