// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package control implements the setpoint envelope generator and the PID
// inner loop.
//
// The envelope advances the PID's reference along a bounded ramp toward the
// phase's end temperature. Driving the reference instead of stepping it is
// what keeps the heater out of saturation through the ramp portions; once the
// ramp lands, holding is a pure regulation problem for the PID.
package control

import (
	"math"
	"time"

	"github.com/vlreflow/oven/profile"
)

// Envelope computes the instantaneous setpoint for one phase.
//
// It is created at phase start with the temperature captured at that instant
// and consumed by periodic calls to Advance. Once the setpoint reaches the
// end temperature the effective slope drops to zero and the envelope holds.
type Envelope struct {
	startTemp float64
	endTemp   float64
	slope     float64
	setpoint  float64
}

// NewEnvelope derives the effective slope for ph from the temperature
// captured at phase start.
//
// A nonzero configured slope is used with its sign corrected to point at the
// end temperature. With a zero slope and a positive duration the slope is
// derived so the ramp lands exactly when the duration expires. Otherwise the
// sign-matching maximum slope applies.
func NewEnvelope(ph profile.Phase, startTemp float64) *Envelope {
	delta := ph.EndTemp - startTemp
	var slope float64
	switch {
	case delta == 0:
		slope = 0
	case ph.Slope != 0:
		slope = math.Copysign(ph.Slope, delta)
	case ph.Duration > 0:
		slope = delta / float64(ph.Duration)
	default:
		slope = math.Copysign(profile.MaxSlope, delta)
	}
	return &Envelope{
		startTemp: startTemp,
		endTemp:   ph.EndTemp,
		slope:     slope,
		setpoint:  startTemp,
	}
}

// Advance recomputes the setpoint for the time elapsed since phase start and
// returns it. The setpoint never overshoots the end temperature: an ascent is
// capped at it, a descent floored. On first contact the effective slope is
// zeroed and the envelope holds there.
func (e *Envelope) Advance(elapsed time.Duration) float64 {
	if e.slope == 0 {
		return e.setpoint
	}
	sp := e.startTemp + e.slope*elapsed.Seconds()
	if (e.slope > 0 && sp >= e.endTemp) || (e.slope < 0 && sp <= e.endTemp) {
		sp = e.endTemp
		e.slope = 0
	}
	e.setpoint = sp
	return sp
}

// Setpoint returns the last computed setpoint.
func (e *Envelope) Setpoint() float64 {
	return e.setpoint
}

// Slope returns the current effective slope in °C/s, zero while holding.
func (e *Envelope) Slope() float64 {
	return e.slope
}

// Holding reports whether the ramp has landed on the end temperature.
func (e *Envelope) Holding() bool {
	return e.slope == 0
}
