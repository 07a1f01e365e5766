// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ovend runs the oven controller against real or simulated hardware.
//
// The console protocol is served on a serial port (or stdio), Prometheus
// metrics on an HTTP listener, and an optional terminal status panel with
// keyboard control stands in for the front-panel display and keypad.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/vlreflow/oven/console"
	"github.com/vlreflow/oven/control"
	"github.com/vlreflow/oven/hal"
	"github.com/vlreflow/oven/host/filemem"
	"github.com/vlreflow/oven/host/max31855"
	"github.com/vlreflow/oven/host/sim"
	"github.com/vlreflow/oven/host/ssr"
	"github.com/vlreflow/oven/host/sysclock"
	"github.com/vlreflow/oven/reflow"
	"github.com/vlreflow/oven/store"
)

var (
	mTemp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oven_temperature_celsius",
		Help: "Measured oven temperature.",
	})
	mSetpoint = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oven_setpoint_celsius",
		Help: "Instantaneous PID setpoint.",
	})
	mDuty = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oven_duty_cycle_percent",
		Help: "Heater duty cycle.",
	})
	mRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oven_running",
		Help: "1 while a profile is executing.",
	})
	mPhase = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oven_phase_index",
		Help: "Index of the executing phase.",
	})
)

// stdio bundles stdin/stdout into the console transport.
type stdio struct {
	io.Reader
	io.Writer
}

func mainImpl() error {
	cfgPath := flag.String("config", "", "YAML config file")
	simulate := flag.Bool("sim", false, "run against a simulated oven instead of hardware")
	serialPort := flag.String("serial", "", "serial port for the console (default stdio)")
	baud := flag.Int("baud", 0, "serial baud rate")
	storePath := flag.String("store", "", "profile store file")
	storeSize := flag.Int("store-size", 0, "profile store size in bytes")
	metricsAddr := flag.String("metrics", "", "Prometheus listen address")
	ui := flag.Bool("ui", false, "render the status panel and read the keyboard")
	yes := flag.Bool("yes", false, "reformat a blank or foreign store without asking")
	level := flag.String("level", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	cfg := defaultConfig()
	if *cfgPath != "" {
		if err := loadConfig(*cfgPath, &cfg); err != nil {
			return err
		}
	}
	if *serialPort != "" {
		cfg.SerialPort = *serialPort
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *storeSize != 0 {
		cfg.StoreSize = *storeSize
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	clock := sysclock.New()
	var (
		sensor hal.Sensor
		act    hal.Actuator
		pins   console.PinReader
	)
	if *simulate {
		plant := sim.New(clock, 25)
		sensor, act = plant, plant
		log.Info("running against simulated plant")
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		sp, err := spireg.Open(cfg.SPIPort)
		if err != nil {
			return err
		}
		therm, err := max31855.New(sp)
		if err != nil {
			return err
		}
		pin := gpioreg.ByName(cfg.SSRPin)
		if pin == nil {
			return fmt.Errorf("no GPIO pin %q", cfg.SSRPin)
		}
		relay, err := ssr.New(pin)
		if err != nil {
			return err
		}
		sensor, act = therm, relay
		pins = func(n int) (bool, error) {
			p := gpioreg.ByName(strconv.Itoa(n))
			if p == nil {
				return false, fmt.Errorf("no GPIO pin %d", n)
			}
			return bool(p.Read()), nil
		}
	}

	mem, err := filemem.Open(cfg.StorePath, cfg.StoreSize)
	if err != nil {
		return err
	}
	defer mem.Close()
	st := store.New(mem)

	pid := control.NewPID(cfg.PID.KP, cfg.PID.KI, cfg.PID.KD)

	var transport io.ReadWriter
	if cfg.SerialPort != "" {
		port, err := serial.Open(cfg.SerialPort, &serial.Mode{
			BaudRate: cfg.Baud,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return err
		}
		defer port.Close()
		transport = port
		log.Infof("console on %s @%d", cfg.SerialPort, cfg.Baud)
	} else {
		transport = stdio{os.Stdin, os.Stdout}
		if *ui {
			log.Warn("-ui disabled: console is on stdio")
			*ui = false
		}
	}

	ctl := reflow.New(clock, sensor, act, pid, transport)
	cons := console.New(ctl, st, transport, transport)
	if pins != nil {
		cons.SetPinReader(pins)
	}
	resetReq := false
	cons.SetResetFunc(func() { resetReq = true })

	boot := func() {
		if !st.ValidateSignature() {
			if *yes {
				log.Warn("store signature invalid, reformatting")
				if err := st.Format(); err != nil {
					log.Errorf("format: %v", err)
					return
				}
				if err := st.RegisterDefaults(); err != nil {
					log.Errorf("defaults: %v", err)
					return
				}
			} else {
				cons.Ask("store signature invalid, reformat and install defaults?", func(confirmed bool) {
					if !confirmed {
						log.Warn("booting with empty active profile")
						return
					}
					if err := st.Format(); err != nil {
						log.Errorf("format: %v", err)
						return
					}
					if err := st.RegisterDefaults(); err != nil {
						log.Errorf("defaults: %v", err)
						return
					}
					activate(ctl, st, 0)
				})
				return
			}
		}
		if st.Count() > 0 {
			activate(ctl, st, 0)
		}
	}
	boot()

	if cfg.MetricsAddr != "" {
		prometheus.MustRegister(mTemp, mSetpoint, mDuty, mRunning, mPhase)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				log.Errorf("metrics: %v", err)
			}
		}()
		log.Infof("metrics on %s/metrics", cfg.MetricsAddr)
	}

	keys := make(chan key, 8)
	if *ui {
		if err := startKeypad(keys); err != nil {
			return err
		}
		defer stopKeypad()
	}

	var lastPanel uint64
	for {
		ctl.Tick()
		cons.Poll()

		select {
		case k := <-keys:
			handleKey(k, ctl, st, cons)
		default:
		}

		if now := clock.Millis(); now-lastPanel >= 250 {
			lastPanel = now
			s := ctl.Status()
			mTemp.Set(s.Temperature)
			mSetpoint.Set(s.Setpoint)
			mDuty.Set(s.Duty)
			if s.Running {
				mRunning.Set(1)
				mPhase.Set(float64(s.PhaseIndex))
			} else {
				mRunning.Set(0)
			}
			if *ui {
				renderPanel(s)
			}
		}

		if resetReq {
			resetReq = false
			log.Info("soft reset")
			ctl.SetPhases(nil)
			boot()
		}
		time.Sleep(time.Millisecond)
	}
}

// activate loads catalog entry idx into the controller.
func activate(ctl *reflow.Controller, st *store.Store, idx int) {
	p, err := st.LoadProfile(idx)
	if err != nil {
		log.Errorf("load profile %d: %v", idx, err)
		return
	}
	if err := ctl.Activate(p, idx); err != nil {
		log.Errorf("activate %d: %v", idx, err)
	}
}

// handleKey maps the front-panel keys: Up/Down cycle the catalog while idle,
// OK starts (or confirms a pending prompt), Cancel stops (or rejects).
func handleKey(k key, ctl *reflow.Controller, st *store.Store, cons *console.Console) {
	switch k {
	case keyOK:
		if cons.Asking() {
			cons.Answer(true)
			return
		}
		if !ctl.Start() {
			log.Warn("no active profile")
		}
	case keyCancel:
		if cons.Asking() {
			cons.Answer(false)
			return
		}
		ctl.Stop()
	case keyUp, keyDown:
		if ctl.Running() {
			return
		}
		n := st.Count()
		if n == 0 {
			return
		}
		idx := ctl.ProfileIndex()
		if k == keyUp {
			idx++
		} else {
			idx--
		}
		if idx < 0 {
			idx = n - 1
		}
		if idx >= n {
			idx = 0
		}
		activate(ctl, st, idx)
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "ovend: %s.\n", err)
		os.Exit(1)
	}
}
