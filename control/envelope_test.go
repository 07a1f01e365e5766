// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package control

import (
	"math"
	"testing"
	"time"

	"github.com/vlreflow/oven/profile"
)

func TestEnvelopeAscent(t *testing.T) {
	// 25°C start, ramp to 100°C at 2°C/s: lands at 37.5s.
	e := NewEnvelope(profile.Phase{Name: "R", EndTemp: 100, Slope: 2}, 25)
	if e.Slope() != 2 {
		t.Fatalf("slope %g", e.Slope())
	}
	if sp := e.Advance(10 * time.Second); sp != 45 {
		t.Fatalf("setpoint at 10s: %g", sp)
	}
	if e.Holding() {
		t.Fatal("holding too early")
	}
	if sp := e.Advance(40 * time.Second); sp != 100 {
		t.Fatalf("setpoint clamped: %g", sp)
	}
	if !e.Holding() || e.Slope() != 0 {
		t.Fatal("expected hold after landing")
	}
	// Held setpoint stays pinned at the end temperature.
	if sp := e.Advance(400 * time.Second); sp != 100 {
		t.Fatalf("held setpoint %g", sp)
	}
}

func TestEnvelopeMonotonicBounded(t *testing.T) {
	e := NewEnvelope(profile.Phase{Name: "R", EndTemp: 100, Slope: 3}, 25)
	prev := 25.0
	for s := 1; s < 60; s++ {
		sp := e.Advance(time.Duration(s) * time.Second)
		if sp < prev {
			t.Fatalf("setpoint not monotonic at %ds: %g < %g", s, sp, prev)
		}
		if sp < 25 || sp > 100 {
			t.Fatalf("setpoint out of bounds at %ds: %g", s, sp)
		}
		prev = sp
	}
}

func TestEnvelopeDescent(t *testing.T) {
	// 200°C start, descend to 100°C. Configured slope sign is corrected to
	// point at the end temperature.
	e := NewEnvelope(profile.Phase{Name: "C", EndTemp: 100, Slope: 4}, 200)
	if e.Slope() != -4 {
		t.Fatalf("slope %g", e.Slope())
	}
	if sp := e.Advance(10 * time.Second); sp != 160 {
		t.Fatalf("setpoint at 10s: %g", sp)
	}
	// Floors at the end temperature, never below.
	if sp := e.Advance(100 * time.Second); sp != 100 {
		t.Fatalf("setpoint floored: %g", sp)
	}
	if !e.Holding() {
		t.Fatal("expected hold")
	}
}

func TestEnvelopeDerivedSlope(t *testing.T) {
	// No slope, 50s duration, 50°C to 150°C: 2°C/s, halfway at 25s.
	e := NewEnvelope(profile.Phase{Name: "S", EndTemp: 150, Duration: 50}, 50)
	if e.Slope() != 2 {
		t.Fatalf("derived slope %g", e.Slope())
	}
	if sp := e.Advance(25 * time.Second); math.Abs(sp-100) > 1e-9 {
		t.Fatalf("setpoint at 25s: %g", sp)
	}
}

func TestEnvelopeMaxSlope(t *testing.T) {
	// No slope and no duration: sign-matching maximum slope.
	e := NewEnvelope(profile.Phase{Name: "H", EndTemp: 150, Duration: -1}, 50)
	if e.Slope() != profile.MaxSlope {
		t.Fatalf("slope %g", e.Slope())
	}
	e = NewEnvelope(profile.Phase{Name: "H", EndTemp: 50, Duration: -1}, 150)
	if e.Slope() != -profile.MaxSlope {
		t.Fatalf("slope %g", e.Slope())
	}
}

func TestEnvelopeFlat(t *testing.T) {
	// Start already at the end temperature: immediate hold.
	e := NewEnvelope(profile.Phase{Name: "H", EndTemp: 80, Slope: 2}, 80)
	if !e.Holding() {
		t.Fatal("expected immediate hold")
	}
	if sp := e.Advance(5 * time.Second); sp != 80 {
		t.Fatalf("setpoint %g", sp)
	}
}
