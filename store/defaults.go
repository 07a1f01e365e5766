// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import "github.com/vlreflow/oven/profile"

// Defaults returns the factory catalog: a plain oven program and a lead-free
// reflow ramp.
func Defaults() []profile.Profile {
	return []profile.Profile{
		{
			Name: "Oven Controller",
			Phases: []profile.Phase{
				{Name: "Heating", EndTemp: 50, Slope: 2, Duration: 0},
				{Name: "Hot", EndTemp: 50, Slope: 0, Duration: -1},
			},
		},
		{
			Name: "PbFree - Reflow",
			Phases: []profile.Phase{
				{Name: "Preheat-1", EndTemp: 50, Slope: 2, Duration: 0},
				{Name: "Preheat-2", EndTemp: 150, Slope: 2, Duration: 0},
				{Name: "Soak-1", EndTemp: 200, Slope: 0, Duration: 100},
				{Name: "Soak-2", EndTemp: 217, Slope: 1, Duration: 0},
				{Name: "Reflow-1", EndTemp: 245, Slope: 2, Duration: 20},
				{Name: "Reflow-2", EndTemp: 217, Slope: 0, Duration: 20},
				{Name: "Cooling", EndTemp: 100, Slope: -3, Duration: 0},
				{Name: "Done(HOT)", EndTemp: 50, Slope: -10, Duration: 0},
			},
		},
	}
}

// RegisterDefaults appends the factory catalog. The store should be freshly
// formatted; existing records are kept and the defaults land after them.
func (s *Store) RegisterDefaults() error {
	for _, p := range Defaults() {
		p := p
		if err := s.Append(&p); err != nil {
			return err
		}
	}
	return nil
}
