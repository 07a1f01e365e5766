// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package reflow sequences a thermal profile through the heater.
//
// The Controller owns the run state: the active profile, the current phase,
// the envelope that advances the setpoint, and the PID that turns the
// tracking error into a duty cycle. It is single-threaded and cooperative;
// the host scheduler calls Tick as often as possible and all time-based work
// is paced internally by comparing the clock against last-action timestamps.
package reflow

import (
	"io"
	"time"

	"github.com/vlreflow/oven/control"
	"github.com/vlreflow/oven/hal"
	"github.com/vlreflow/oven/profile"
)

// Tick pacing. The envelope advances every EnvelopePeriod, the PID computes
// every control.PIDPeriod, and an idle temperature snapshot is emitted every
// idlePeriod while stopped.
const (
	EnvelopePeriod = 50 * time.Millisecond
	idlePeriod     = 500 * time.Millisecond
)

// NoProfile is the active profile index while a draft or nothing is loaded.
const NoProfile = -1

// Controller is the profile-driven temperature control engine.
//
// Construct it with New, hand it a profile with Activate or SetPhases, then
// drive it with Start, Stop and a steady stream of Tick calls. None of its
// methods block.
type Controller struct {
	clock  hal.Clock
	sensor hal.Sensor
	act    hal.Actuator
	pid    *control.PID
	ev     *Emitter

	prof    *profile.Profile
	profIdx int
	running bool

	phase        int
	env          *control.Envelope
	startTemp    float64
	processStart uint64
	phaseStart   uint64

	lastEnvelope uint64
	lastPID      uint64
	lastIdle     uint64
}

// Status is a snapshot of the run state for the local display.
type Status struct {
	ProfileName  string
	ProfileIndex int
	Running      bool
	PhaseName    string
	PhaseIndex   int
	PhaseElapsed time.Duration
	TotalElapsed time.Duration
	Temperature  float64
	Setpoint     float64
	Duty         float64
}

// New returns an idle Controller. Events are written to w; pass io.Discard
// to silence them.
func New(clock hal.Clock, sensor hal.Sensor, act hal.Actuator, pid *control.PID, w io.Writer) *Controller {
	return &Controller{
		clock:   clock,
		sensor:  sensor,
		act:     act,
		pid:     pid,
		ev:      NewEmitter(w),
		profIdx: NoProfile,
	}
}

// Emitter returns the controller's event emitter, shared with the console so
// records never interleave.
func (c *Controller) Emitter() *Emitter {
	return c.ev
}

// PID returns the inner loop, for tuning while stopped.
func (c *Controller) PID() *control.PID {
	return c.pid
}

// Activate makes p the active profile and stops the controller first. idx is
// the catalog index p was loaded from, or NoProfile for a draft.
func (c *Controller) Activate(p *profile.Profile, idx int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.Stop()
	c.prof = p
	c.profIdx = idx
	c.ev.Profile(idx)
	return nil
}

// SetPhases replaces the active phase list with a draft, or clears it when p
// is nil. The controller is stopped first either way. Drafts are not catalog
// entries, so the active index becomes NoProfile.
func (c *Controller) SetPhases(p *profile.Profile) {
	c.Stop()
	c.prof = p
	c.profIdx = NoProfile
}

// Profile returns the active profile, which may be a draft not present in
// the catalog. Nil when nothing is loaded.
func (c *Controller) Profile() *profile.Profile {
	return c.prof
}

// ProfileIndex returns the catalog index of the active profile, or NoProfile.
func (c *Controller) ProfileIndex() int {
	return c.profIdx
}

// Running reports whether a profile is executing.
func (c *Controller) Running() bool {
	return c.running
}

// PhaseIndex returns the current phase index. It is meaningful only while
// running.
func (c *Controller) PhaseIndex() int {
	return c.phase
}

// Setpoint returns the instantaneous PID setpoint.
func (c *Controller) Setpoint() float64 {
	if c.env == nil {
		return 0
	}
	return c.env.Setpoint()
}

// Start begins executing the active profile from its first phase. It returns
// false when no profile is loaded.
func (c *Controller) Start() bool {
	if c.running {
		return true
	}
	if c.prof == nil || len(c.prof.Phases) == 0 {
		return false
	}
	now := c.clock.Millis()
	c.processStart = now
	c.lastEnvelope = now
	c.lastPID = now
	c.running = true
	c.pid.SetAuto()
	c.ev.Oven(true)
	c.startPhase(0)
	return true
}

// Stop halts execution: the duty cycle is forced to zero and the PID set to
// manual before Stop returns. Safe to call while already stopped.
func (c *Controller) Stop() {
	c.pid.SetManual()
	_ = c.act.SetDuty(0)
	if !c.running {
		return
	}
	c.running = false
	c.ev.Oven(false)
}

// Tick performs one cooperative scheduling slice. Call it as often as
// possible; it gates its own work on elapsed time. Within a tick, sensor
// reads precede the PID computation, which precedes the actuator write.
func (c *Controller) Tick() {
	now := c.clock.Millis()
	if !c.running {
		if now-c.lastIdle >= uint64(idlePeriod/time.Millisecond) {
			c.lastIdle = now
			c.ev.Temp(c.sensor.Temperature())
		}
		return
	}
	if now-c.lastEnvelope >= uint64(EnvelopePeriod/time.Millisecond) {
		c.lastEnvelope = now
		c.env.Advance(time.Duration(now-c.phaseStart) * time.Millisecond)
	}
	if now-c.lastPID >= uint64(control.PIDPeriod/time.Millisecond) {
		c.lastPID = now
		t := c.sensor.Temperature()
		out := c.pid.Compute(c.env.Setpoint(), t, control.PIDPeriod)
		_ = c.act.SetDuty(out)
		c.ev.PID(now-c.processStart, t, c.env.Slope(), c.env.Setpoint(), out)
	}
	// Termination is only evaluated during hold, after the ramp has landed
	// and the effective slope dropped to zero.
	if c.running && c.env.Holding() && c.phaseDone(now) {
		c.nextPhase()
	}
}

// Status returns a display snapshot.
func (c *Controller) Status() Status {
	s := Status{
		ProfileIndex: c.profIdx,
		Running:      c.running,
		Temperature:  c.sensor.Temperature(),
		Duty:         c.pid.Output(),
	}
	if c.prof != nil {
		s.ProfileName = c.prof.Name
	}
	if c.running {
		now := c.clock.Millis()
		s.PhaseIndex = c.phase
		s.PhaseName = c.prof.Phases[c.phase].Name
		s.PhaseElapsed = time.Duration(now-c.phaseStart) * time.Millisecond
		s.TotalElapsed = time.Duration(now-c.processStart) * time.Millisecond
		s.Setpoint = c.env.Setpoint()
	}
	return s
}

// startPhase captures the phase-start temperature and timestamp and arms the
// envelope for phase i.
func (c *Controller) startPhase(i int) {
	c.phase = i
	c.startTemp = c.sensor.Temperature()
	c.phaseStart = c.clock.Millis()
	ph := c.prof.Phases[i]
	c.env = control.NewEnvelope(ph, c.startTemp)
	c.ev.Phase(ph)
}

// phaseDone evaluates the phase terminator. Only called while holding.
func (c *Controller) phaseDone(now uint64) bool {
	ph := c.prof.Phases[c.phase]
	switch {
	case ph.Duration > 0:
		return now-c.phaseStart >= uint64(ph.Duration)*1000
	case ph.Duration == 0:
		t := c.sensor.Temperature()
		if c.startTemp <= ph.EndTemp {
			return t >= ph.EndTemp
		}
		return t <= ph.EndTemp
	default:
		// Negative duration holds until Stop.
		return false
	}
}

// nextPhase advances to the following phase or completes the run.
func (c *Controller) nextPhase() {
	if c.phase+1 < len(c.prof.Phases) {
		c.startPhase(c.phase + 1)
		return
	}
	c.running = false
	c.pid.SetManual()
	_ = c.act.SetDuty(0)
	c.ev.Oven(false)
}
