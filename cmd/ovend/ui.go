// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/eiannone/keyboard"
	log "github.com/sirupsen/logrus"

	"github.com/vlreflow/oven/reflow"
)

// key is a front-panel key event.
type key int

const (
	keyUp key = iota
	keyDown
	keyOK
	keyCancel
)

// startKeypad maps terminal arrows/enter/esc onto the four-key front panel.
func startKeypad(out chan<- key) error {
	if err := keyboard.Open(); err != nil {
		return err
	}
	go func() {
		for {
			ch, k, err := keyboard.GetKey()
			if err != nil {
				log.Debugf("keypad: %v", err)
				return
			}
			var ev key
			switch {
			case k == keyboard.KeyArrowUp:
				ev = keyUp
			case k == keyboard.KeyArrowDown:
				ev = keyDown
			case k == keyboard.KeyEnter:
				ev = keyOK
			case k == keyboard.KeyEsc, ch == 'q':
				ev = keyCancel
			default:
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()
	return nil
}

func stopKeypad() {
	_ = keyboard.Close()
}

// renderPanel paints the 20x4 front-panel layout: profile and run flag,
// phase and its elapsed time, total elapsed time, temperature and setpoint.
func renderPanel(s reflow.Status) {
	state := "OFF"
	if s.Running {
		state = "ON"
	}
	fmt.Print("\x1b[H\x1b[2J")
	fmt.Printf("%-16.16s %3s\n", s.ProfileName, state)
	fmt.Printf("%-10.10s  %7.1fs\n", s.PhaseName, s.PhaseElapsed.Seconds())
	fmt.Printf("total     %8.1fs\n", s.TotalElapsed.Seconds())
	fmt.Printf("%6.1fC  set %6.1fC\n", s.Temperature, s.Setpoint)
}
