// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package control

import (
	"time"

	"go.einride.tech/pid"
)

// Default tunings for the heater loop. Direct action: more output raises the
// measured temperature.
const (
	DefaultKP = 300.0
	DefaultKI = 0.05
	DefaultKD = 250.0
)

// PIDPeriod is the fixed sample period of the inner loop.
const PIDPeriod = 250 * time.Millisecond

// PID is the discrete inner loop producing the heater duty cycle.
//
// It wraps a positional-form controller with output clamping to [0, 100] and
// integral anti-windup: while the output is saturated the excess is bled back
// out of the integrator so the loop does not wind up against a pinned heater.
//
// The controller starts in manual mode with a zero output. Tunings can be
// changed only while manual; a run keeps the gains it started with.
type PID struct {
	ctl      pid.Controller
	min, max float64
	auto     bool
	output   float64
}

// NewPID returns a manual-mode PID with the given gains and a [0, 100]
// output range.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		ctl: pid.Controller{
			Config: pid.ControllerConfig{
				ProportionalGain: kp,
				IntegralGain:     ki,
				DerivativeGain:   kd,
			},
		},
		min: 0,
		max: 100,
	}
}

// SetTunings replaces the gains. It is a no-op while the loop is in
// automatic mode.
func (p *PID) SetTunings(kp, ki, kd float64) {
	if p.auto {
		return
	}
	p.ctl.Config.ProportionalGain = kp
	p.ctl.Config.IntegralGain = ki
	p.ctl.Config.DerivativeGain = kd
}

// Tunings returns the configured gains.
func (p *PID) Tunings() (kp, ki, kd float64) {
	return p.ctl.Config.ProportionalGain, p.ctl.Config.IntegralGain, p.ctl.Config.DerivativeGain
}

// SetAuto switches to automatic mode, resetting the controller state so the
// new run does not inherit stale error history.
func (p *PID) SetAuto() {
	if p.auto {
		return
	}
	p.ctl.Reset()
	p.auto = true
}

// SetManual switches to manual mode and forces the output to zero.
func (p *PID) SetManual() {
	p.auto = false
	p.output = 0
}

// Auto reports whether the loop is in automatic mode.
func (p *PID) Auto() bool {
	return p.auto
}

// Output returns the last computed duty cycle.
func (p *PID) Output() float64 {
	return p.output
}

// Compute runs one sample: it regulates input toward setpoint over the dt
// sample interval and returns the clamped duty cycle. In manual mode it
// returns zero without touching the controller state.
func (p *PID) Compute(setpoint, input float64, dt time.Duration) float64 {
	if !p.auto {
		return p.output
	}
	p.ctl.Update(pid.ControllerInput{
		ReferenceSignal:  setpoint,
		ActualSignal:     input,
		SamplingInterval: dt,
	})
	out := p.ctl.State.ControlSignal
	switch {
	case out > p.max:
		p.discharge(out - p.max)
		out = p.max
	case out < p.min:
		p.discharge(out - p.min)
		out = p.min
	}
	p.output = out
	return out
}

// discharge removes the saturation excess from the integrator, the
// positional-form equivalent of clamping the integral term.
func (p *PID) discharge(excess float64) {
	if ki := p.ctl.Config.IntegralGain; ki != 0 {
		p.ctl.State.ControlErrorIntegral -= excess / ki
	}
}
