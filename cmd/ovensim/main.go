// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ovensim runs the controller closed-loop against the simulated plant with
// the console on stdio, optionally faster than real time.
//
// Example:
//
//	ovensim -speed 20
//	> p sel 1
//	> p on
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vlreflow/oven/console"
	"github.com/vlreflow/oven/control"
	"github.com/vlreflow/oven/hal"
	"github.com/vlreflow/oven/hal/haltest"
	"github.com/vlreflow/oven/host/filemem"
	"github.com/vlreflow/oven/host/sim"
	"github.com/vlreflow/oven/host/sysclock"
	"github.com/vlreflow/oven/reflow"
	"github.com/vlreflow/oven/store"
)

type stdio struct {
	io.Reader
	io.Writer
}

func mainImpl() error {
	speed := flag.Float64("speed", 1, "simulation speed multiplier")
	storePath := flag.String("store", "", "persist the catalog to this file (default in-memory)")
	ambient := flag.Float64("ambient", 25, "ambient temperature in °C")
	level := flag.String("level", "warn", "log level")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	var clock hal.Clock
	if *speed == 1 {
		clock = sysclock.New()
	} else {
		clock = sysclock.NewWarped(*speed)
	}

	var mem hal.Memory
	if *storePath != "" {
		f, err := filemem.Open(*storePath, 4096)
		if err != nil {
			return err
		}
		defer f.Close()
		mem = f
	} else {
		mem = haltest.NewMemory(4096)
	}
	st := store.New(mem)
	if !st.ValidateSignature() {
		if err := st.Format(); err != nil {
			return err
		}
		if err := st.RegisterDefaults(); err != nil {
			return err
		}
	}

	plant := sim.New(clock, *ambient)
	pid := control.NewPID(control.DefaultKP, control.DefaultKI, control.DefaultKD)
	transport := stdio{os.Stdin, os.Stdout}
	ctl := reflow.New(clock, plant, plant, pid, transport)
	cons := console.New(ctl, st, transport, transport)

	if p, err := st.LoadProfile(0); err == nil {
		if err := ctl.Activate(p, 0); err != nil {
			return err
		}
	}

	for {
		ctl.Tick()
		cons.Poll()
		time.Sleep(time.Millisecond)
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "ovensim: %s.\n", err)
		os.Exit(1)
	}
}
