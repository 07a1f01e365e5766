// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hal defines the hardware contracts the oven controller runs
// against.
//
// The controller never touches hardware directly; it is handed a Clock, a
// Sensor, an Actuator and a Memory at construction time. Real backends live
// under host/, fakes live in hal/haltest.
package hal

import "io"

// Clock is a monotonic millisecond source.
//
// Values are non-decreasing and must not wrap for the duration of any
// plausible run. A host implementation widens the system monotonic clock; a
// constrained target widens a 32-bit tick counter.
type Clock interface {
	Millis() uint64
}

// Sensor reports the oven temperature in °C.
//
// Implementations smooth their readings with a moving average of at least 100
// samples drawn at 10ms intervals or faster, and never return NaN. Reads are
// observations only and have no side effects on the process.
type Sensor interface {
	Temperature() float64
}

// Actuator drives the heater.
//
// SetDuty accepts a duty cycle in [0, 100]; implementations clamp
// out-of-range values and convert the scalar into an on/off pattern over a
// fixed 250ms window. Calls are idempotent and cheap.
type Actuator interface {
	SetDuty(duty float64) error
}

// Memory is a byte-addressed persistent memory of known length.
//
// It is the backing device for the profile catalog. Writes must be durable
// once WriteAt returns; there is no separate commit operation.
type Memory interface {
	io.ReaderAt
	io.WriterAt
	// Len returns the usable size in bytes.
	Len() int
}
