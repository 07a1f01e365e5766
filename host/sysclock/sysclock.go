// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysclock provides the host's monotonic clock as a hal.Clock.
package sysclock

import "time"

// Clock counts milliseconds since New was called, backed by the system
// monotonic clock so it is immune to wall-time adjustments.
type Clock struct {
	t0 time.Time
}

// New returns a Clock starting at zero.
func New() *Clock {
	return &Clock{t0: time.Now()}
}

// Millis implements hal.Clock.
func (c *Clock) Millis() uint64 {
	return uint64(time.Since(c.t0) / time.Millisecond)
}

// Warped returns a Clock that runs mult times faster than real time, for
// simulation runs.
type Warped struct {
	t0   time.Time
	mult float64
}

// NewWarped returns a Warped clock.
func NewWarped(mult float64) *Warped {
	return &Warped{t0: time.Now(), mult: mult}
}

// Millis implements hal.Clock.
func (c *Warped) Millis() uint64 {
	return uint64(float64(time.Since(c.t0)/time.Millisecond) * c.mult)
}
