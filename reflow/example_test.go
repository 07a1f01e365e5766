// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package reflow_test

import (
	"fmt"
	"io"

	"github.com/vlreflow/oven/control"
	"github.com/vlreflow/oven/hal/haltest"
	"github.com/vlreflow/oven/profile"
	"github.com/vlreflow/oven/reflow"
)

// Drive a one-phase ramp against fake hardware.
func Example() {
	clk := &haltest.Clock{}
	sen := &haltest.Sensor{T: 25}
	act := &haltest.Actuator{}
	pid := control.NewPID(control.DefaultKP, control.DefaultKI, control.DefaultKD)
	ctl := reflow.New(clk, sen, act, pid, io.Discard)

	p := &profile.Profile{
		Name:   "Demo",
		Phases: []profile.Phase{{Name: "Ramp", EndTemp: 100, Slope: 2, Duration: 0}},
	}
	if err := ctl.Activate(p, 0); err != nil {
		fmt.Println(err)
		return
	}
	ctl.Start()
	for i := 0; i < 100; i++ {
		clk.Advance(10)
		ctl.Tick()
	}
	fmt.Printf("setpoint after 1s: %.0f\n", ctl.Setpoint())
	// Output: setpoint after 1s: 27
}
