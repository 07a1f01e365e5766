// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package profile defines thermal profiles and their validation rules.
//
// A profile is an ordered list of phases. Each phase names a target
// temperature and how to get there: a slope in °C/s, a fixed duration, or
// both. Profiles are value types; the catalog in package store identifies
// them by insertion index.
package profile

import (
	"errors"
	"fmt"
)

const (
	// MaxSlope is the steepest setpoint slope a phase may request, in °C/s.
	MaxSlope = 100.0
	// MaxPhases is the fixed capacity of a profile's phase list.
	MaxPhases = 16
	// MaxNameLen is the longest profile name, in bytes.
	MaxNameLen = 19
	// MaxPhaseNameLen is the longest phase name, in bytes.
	MaxPhaseNameLen = 10
)

// ErrTooManyPhases is returned when a profile would exceed MaxPhases.
var ErrTooManyPhases = errors.New("profile: too many phases")

// Phase is a single segment of a thermal profile.
type Phase struct {
	// Name is a short label, at most MaxPhaseNameLen bytes of printable
	// ASCII.
	Name string
	// EndTemp is the target temperature in °C. When Duration is zero the
	// phase completes once the oven crosses it.
	EndTemp float64
	// Slope is the requested setpoint slope in °C/s. With zero the envelope
	// derives the slope from Duration when Duration is positive, and ramps
	// at the sign-matching maximum slope otherwise. A nonzero slope is used
	// with its sign corrected to point at EndTemp.
	Slope float64
	// Duration in seconds. Positive terminates the phase after exactly that
	// long regardless of temperature, zero terminates on reaching EndTemp,
	// negative holds indefinitely.
	Duration int32
}

// Validate reports whether the phase respects the model limits.
func (p *Phase) Validate() error {
	if err := checkName(p.Name, MaxPhaseNameLen); err != nil {
		return fmt.Errorf("profile: phase %v", err)
	}
	if p.Slope > MaxSlope || p.Slope < -MaxSlope {
		return fmt.Errorf("profile: slope %g exceeds ±%g", p.Slope, float64(MaxSlope))
	}
	return nil
}

// Profile is a named, ordered sequence of phases.
type Profile struct {
	Name   string
	Phases []Phase
}

// New returns a zero-initialized draft with n phases.
func New(name string, n int) (*Profile, error) {
	if n < 1 {
		return nil, errors.New("profile: phase count must be at least 1")
	}
	if n > MaxPhases {
		return nil, ErrTooManyPhases
	}
	p := &Profile{Name: name, Phases: make([]Phase, n)}
	if err := checkName(name, MaxNameLen); err != nil {
		return nil, fmt.Errorf("profile: %v", err)
	}
	return p, nil
}

// Validate checks the profile on load or on host submission. It rejects an
// empty or malformed name, an empty or oversized phase list, and any invalid
// phase.
func (p *Profile) Validate() error {
	if err := checkName(p.Name, MaxNameLen); err != nil {
		return fmt.Errorf("profile: %v", err)
	}
	if len(p.Phases) < 1 {
		return errors.New("profile: no phases")
	}
	if len(p.Phases) > MaxPhases {
		return ErrTooManyPhases
	}
	for i := range p.Phases {
		if err := p.Phases[i].Validate(); err != nil {
			return fmt.Errorf("%v (phase %d)", err, i)
		}
	}
	return nil
}

// Equal reports whether two profiles are field-for-field identical.
func (p *Profile) Equal(o *Profile) bool {
	if p.Name != o.Name || len(p.Phases) != len(o.Phases) {
		return false
	}
	for i := range p.Phases {
		if p.Phases[i] != o.Phases[i] {
			return false
		}
	}
	return true
}

func checkName(s string, max int) error {
	if len(s) == 0 {
		return errors.New("name is empty")
	}
	if len(s) > max {
		return fmt.Errorf("name %q longer than %d bytes", s, max)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return fmt.Errorf("name %q is not printable ASCII", s)
		}
	}
	return nil
}
