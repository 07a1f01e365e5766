// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssr drives a solid-state relay on a GPIO pin with
// time-proportioned control.
//
// The relay is switched over a fixed 250ms window: a duty cycle of 40 keeps
// the pin high for 100ms of every window. Mains-synchronized SSRs switch at
// zero crossings, so the window only needs to be long relative to a mains
// cycle, not precise.
package ssr

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Window is the time-proportioning period.
const Window = 250 * time.Millisecond

// Dev implements hal.Actuator on a gpio.PinOut.
type Dev struct {
	pin gpio.PinOut

	mu   sync.Mutex
	duty float64

	stop chan struct{}
	done chan struct{}
}

// New returns a Dev switching pin and starts its proportioning loop with the
// heater off.
func New(pin gpio.PinOut) (*Dev, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, err
	}
	d := &Dev{
		pin:  pin,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go d.run()
	return d, nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return "ssr{" + d.pin.Name() + "}"
}

// SetDuty implements hal.Actuator. Out-of-range values are clamped.
func (d *Dev) SetDuty(duty float64) error {
	if duty < 0 {
		duty = 0
	} else if duty > 100 {
		duty = 100
	}
	d.mu.Lock()
	d.duty = duty
	d.mu.Unlock()
	return nil
}

// Halt implements conn.Resource. It stops the loop and leaves the relay off.
func (d *Dev) Halt() error {
	close(d.stop)
	<-d.done
	return d.pin.Out(gpio.Low)
}

func (d *Dev) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		duty := d.duty
		d.mu.Unlock()
		on := time.Duration(duty / 100 * float64(Window))
		if on > 0 {
			if err := d.pin.Out(gpio.High); err == nil {
				if !d.sleep(on) {
					return
				}
			}
		}
		if on < Window {
			_ = d.pin.Out(gpio.Low)
			if !d.sleep(Window - on) {
				return
			}
		}
	}
}

func (d *Dev) sleep(t time.Duration) bool {
	select {
	case <-time.After(t):
		return true
	case <-d.stop:
		return false
	}
}
