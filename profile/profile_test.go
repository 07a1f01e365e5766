// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package profile

import "testing"

func TestValidate(t *testing.T) {
	good := Profile{
		Name: "PbFree - Reflow",
		Phases: []Phase{
			{Name: "Preheat-1", EndTemp: 150, Slope: 2, Duration: 0},
			{Name: "Cooling", EndTemp: 50, Slope: -3, Duration: 0},
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}

	data := []struct {
		name string
		p    Profile
	}{
		{"empty name", Profile{Phases: []Phase{{Name: "a", EndTemp: 1}}}},
		{"no phases", Profile{Name: "x"}},
		{"long name", Profile{Name: "12345678901234567890", Phases: []Phase{{Name: "a"}}}},
		{"non ascii", Profile{Name: "héllo", Phases: []Phase{{Name: "a"}}}},
		{"phase name empty", Profile{Name: "x", Phases: []Phase{{EndTemp: 1}}}},
		{"phase name long", Profile{Name: "x", Phases: []Phase{{Name: "12345678901"}}}},
		{"slope high", Profile{Name: "x", Phases: []Phase{{Name: "a", Slope: 101}}}},
		{"slope low", Profile{Name: "x", Phases: []Phase{{Name: "a", Slope: -101}}}},
	}
	for _, d := range data {
		if err := d.p.Validate(); err == nil {
			t.Fatalf("%s: expected error", d.name)
		}
	}
}

func TestValidateMaxPhases(t *testing.T) {
	p := Profile{Name: "x"}
	for i := 0; i < MaxPhases+1; i++ {
		p.Phases = append(p.Phases, Phase{Name: "a"})
	}
	if err := p.Validate(); err != ErrTooManyPhases {
		t.Fatalf("got %v", err)
	}
	p.Phases = p.Phases[:MaxPhases]
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	p, err := New("draft", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Phases) != 3 {
		t.Fatalf("phases %d", len(p.Phases))
	}
	for _, ph := range p.Phases {
		if ph != (Phase{}) {
			t.Fatalf("phase not zeroed: %+v", ph)
		}
	}
	if _, err := New("draft", 0); err == nil {
		t.Fatal("expected error for 0 phases")
	}
	if _, err := New("draft", MaxPhases+1); err != ErrTooManyPhases {
		t.Fatalf("got %v", err)
	}
	if _, err := New("", 1); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestEqual(t *testing.T) {
	a := Profile{Name: "x", Phases: []Phase{{Name: "a", EndTemp: 100, Slope: 2, Duration: 0}}}
	b := Profile{Name: "x", Phases: []Phase{{Name: "a", EndTemp: 100, Slope: 2, Duration: 0}}}
	if !a.Equal(&b) {
		t.Fatal("expected equal")
	}
	b.Phases[0].Duration = 1
	if a.Equal(&b) {
		t.Fatal("expected not equal")
	}
}
