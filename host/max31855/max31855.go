// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package max31855 reads a MAX31855 thermocouple converter over SPI.
//
// The chip streams a 32-bit frame with the cold-junction compensated
// thermocouple temperature in the top 14 bits, 0.25°C per LSB. The driver
// samples it every 5ms on its own goroutine and serves the moving average of
// the last 128 samples, so Temperature satisfies the smoothed-sensor
// contract.
//
// Datasheet
//
// https://www.analog.com/media/en/technical-documentation/data-sheets/MAX31855.pdf
package max31855

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	samplePeriod = 5 * time.Millisecond
	windowSize   = 128

	faultMask = 0x00010000
)

// Dev is a handle to a MAX31855.
type Dev struct {
	c spi.Conn

	mu     sync.Mutex
	window [windowSize]float64
	sum    float64
	pos    int

	stop chan struct{}
	done chan struct{}
}

// New connects to the device on p, takes a first reading and starts the
// sampler.
func New(p spi.Port) (*Dev, error) {
	c, err := p.Connect(5*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		c:    c,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	t, err := d.read()
	if err != nil {
		return nil, err
	}
	for i := range d.window {
		d.window[i] = t
	}
	d.sum = t * windowSize
	go d.run()
	return d, nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return "max31855"
}

// Temperature implements hal.Sensor. It returns the windowed average and
// never NaN: fault frames are dropped and the last good samples carry the
// average.
func (d *Dev) Temperature() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sum / windowSize
}

// Halt implements conn.Resource. It stops the sampler.
func (d *Dev) Halt() error {
	close(d.stop)
	<-d.done
	return nil
}

func (d *Dev) run() {
	defer close(d.done)
	t := time.NewTicker(samplePeriod)
	defer t.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-t.C:
		}
		v, err := d.read()
		if err != nil {
			continue
		}
		d.mu.Lock()
		d.sum += v - d.window[d.pos]
		d.window[d.pos] = v
		d.pos = (d.pos + 1) % windowSize
		d.mu.Unlock()
	}
}

// read performs one 4-byte transaction and decodes the thermocouple
// temperature.
func (d *Dev) read() (float64, error) {
	var w, r [4]byte
	if err := d.c.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	raw := binary.BigEndian.Uint32(r[:])
	if raw&faultMask != 0 {
		return 0, errors.New("max31855: thermocouple fault")
	}
	// Top 14 bits, sign extended, 0.25°C per LSB.
	return float64(int32(raw)>>18) * 0.25, nil
}
