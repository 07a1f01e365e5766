// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package reflow

import (
	"fmt"
	"io"
	"sync"

	"github.com/vlreflow/oven/profile"
)

// Emitter writes line-oriented bracketed event records.
//
// Each event is one line; a record is never interleaved with another. The
// host tool tails these to observe controller state.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEmitter returns an Emitter writing to w. Pass io.Discard to silence
// events.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

func (e *Emitter) emit(format string, args ...interface{}) {
	e.mu.Lock()
	fmt.Fprintf(e.w, format+"\n", args...)
	e.mu.Unlock()
}

// Oven reports a change of the running flag.
func (e *Emitter) Oven(on bool) {
	v := 0
	if on {
		v = 1
	}
	e.emit("oven[on=%d]", v)
}

// Phase reports a phase start with its configured slope and duration.
func (e *Emitter) Phase(ph profile.Phase) {
	e.emit("phase[nam=%q,end=%.2f,m=%.2f,t=%d]", ph.Name, ph.EndTemp, ph.Slope, ph.Duration)
}

// PID reports one inner-loop computation: process elapsed milliseconds,
// measured temperature, effective slope, setpoint and duty output.
func (e *Emitter) PID(pdt uint64, tmp, slp, spt, out float64) {
	e.emit("pid[pdt=%d,tmp=%.2f,slp=%.2f,spt=%.2f,out=%.2f]", pdt, tmp, slp, spt, out)
}

// Profile reports a change of the active profile index.
func (e *Emitter) Profile(idx int) {
	e.emit("profile[idx=%d]", idx)
}

// Temp reports the idle temperature snapshot.
func (e *Emitter) Temp(tmp float64) {
	e.emit("temp[tmp=%.2f]", tmp)
}
