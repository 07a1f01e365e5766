// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package haltest implements fakes for package hal.
package haltest

import (
	"errors"
	"sync"
)

// Clock implements hal.Clock with a manually advanced time base.
//
// Modify it from the test to simulate the passage of time.
type Clock struct {
	sync.Mutex
	MS uint64
}

// Millis implements hal.Clock.
func (c *Clock) Millis() uint64 {
	c.Lock()
	defer c.Unlock()
	return c.MS
}

// Advance moves the clock forward by ms milliseconds.
func (c *Clock) Advance(ms uint64) {
	c.Lock()
	c.MS += ms
	c.Unlock()
}

// Sensor implements hal.Sensor and returns T, or Fn() when Fn is set.
type Sensor struct {
	sync.Mutex
	T  float64
	Fn func() float64
}

// Temperature implements hal.Sensor.
func (s *Sensor) Temperature() float64 {
	s.Lock()
	defer s.Unlock()
	if s.Fn != nil {
		return s.Fn()
	}
	return s.T
}

// Set replaces the reading returned by Temperature.
func (s *Sensor) Set(t float64) {
	s.Lock()
	s.T = t
	s.Unlock()
}

// Actuator implements hal.Actuator and records every duty cycle written.
type Actuator struct {
	sync.Mutex
	Ops []float64
}

// SetDuty implements hal.Actuator.
func (a *Actuator) SetDuty(duty float64) error {
	a.Lock()
	a.Ops = append(a.Ops, duty)
	a.Unlock()
	return nil
}

// Last returns the most recent duty cycle, or 0 if none was written.
func (a *Actuator) Last() float64 {
	a.Lock()
	defer a.Unlock()
	if len(a.Ops) == 0 {
		return 0
	}
	return a.Ops[len(a.Ops)-1]
}

// Memory implements hal.Memory backed by a byte slice.
type Memory struct {
	sync.Mutex
	B []byte
}

// NewMemory returns a zero-filled memory of n bytes.
func NewMemory(n int) *Memory {
	return &Memory{B: make([]byte, n)}
}

// Len implements hal.Memory.
func (m *Memory) Len() int {
	m.Lock()
	defer m.Unlock()
	return len(m.B)
}

// ReadAt implements io.ReaderAt.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	m.Lock()
	defer m.Unlock()
	if off < 0 || off > int64(len(m.B)) {
		return 0, errors.New("haltest: read out of range")
	}
	n := copy(p, m.B[off:])
	if n != len(p) {
		return n, errors.New("haltest: short read")
	}
	return n, nil
}

// WriteAt implements io.WriterAt.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	m.Lock()
	defer m.Unlock()
	if off < 0 || off > int64(len(m.B)) {
		return 0, errors.New("haltest: write out of range")
	}
	n := copy(m.B[off:], p)
	if n != len(p) {
		return n, errors.New("haltest: short write")
	}
	return n, nil
}
