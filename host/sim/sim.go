// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sim models the oven as a first-order thermal plant.
//
// The Plant implements both hal.Sensor and hal.Actuator, closing the loop
// without hardware: the heater adds energy in proportion to the duty cycle
// and the oven leaks heat toward ambient. Readings come straight off the
// continuous model, so they satisfy the smoothed-sensor contract without an
// explicit filter.
package sim

import (
	"sync"

	"github.com/vlreflow/oven/hal"
)

// Plant is a simulated oven.
type Plant struct {
	clock hal.Clock

	mu   sync.Mutex
	temp float64
	duty float64
	last uint64

	// Ambient is the temperature the oven decays toward, in °C.
	Ambient float64
	// Gain is the heating rate at full duty, in °C/s.
	Gain float64
	// Loss is the cooling coefficient toward ambient, per second.
	Loss float64
}

// New returns a Plant at ambient temperature with heater characteristics
// loosely matching a small reflow oven.
func New(clock hal.Clock, ambient float64) *Plant {
	return &Plant{
		clock:   clock,
		temp:    ambient,
		last:    clock.Millis(),
		Ambient: ambient,
		Gain:    3.5,
		Loss:    0.01,
	}
}

// Temperature implements hal.Sensor.
func (p *Plant) Temperature() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step()
	return p.temp
}

// SetDuty implements hal.Actuator.
func (p *Plant) SetDuty(duty float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step()
	if duty < 0 {
		duty = 0
	} else if duty > 100 {
		duty = 100
	}
	p.duty = duty
	return nil
}

// step integrates the model up to the current clock reading.
func (p *Plant) step() {
	now := p.clock.Millis()
	dt := float64(now-p.last) / 1000
	if dt <= 0 {
		return
	}
	p.last = now
	p.temp += (p.Gain*p.duty/100 - p.Loss*(p.temp-p.Ambient)) * dt
}
