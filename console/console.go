// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package console implements the line-framed host command protocol.
//
// The Console reads commands from a transport (serial port, stdio), mutates
// the catalog or drives the controller, and writes line-oriented responses.
// It is cooperative: the host loop calls Poll between controller ticks and
// every command runs to completion within one Poll. Failures are reported as
// CONSOLEERROR records with a reason code, never recovered silently.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vlreflow/oven/profile"
	"github.com/vlreflow/oven/reflow"
	"github.com/vlreflow/oven/store"
)

// CONSOLEERROR reason codes.
const (
	ErrArgsCount     = "ARGSCOUNT"
	ErrArgOutOfRange = "ARGOUTOFRANGE"
	ErrArgInvalidOpt = "ARGINVALIDOPT"
	ErrNoMemory      = "NOMEMORY"
)

// dumpLen is the window size of the "e d" command.
const dumpLen = 64

// PinReader reads the level of a digital input for the "i" command.
type PinReader func(pin int) (bool, error)

// Console dispatches host commands and streams responses.
type Console struct {
	ctl *reflow.Controller
	st  *store.Store
	w   io.Writer

	lines chan string

	// pin watch state for the "i" command.
	readPin  PinReader
	watching bool
	watchPin int
	watchVal bool

	// pending confirm prompt.
	ask   string
	askCb func(bool)

	resetFn func()
}

// New returns a Console reading commands from r and writing responses to w.
// A goroutine owns r; dispatching happens only inside Poll.
func New(ctl *reflow.Controller, st *store.Store, r io.Reader, w io.Writer) *Console {
	c := &Console{
		ctl:   ctl,
		st:    st,
		w:     w,
		lines: make(chan string, 8),
	}
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
		close(c.lines)
	}()
	return c
}

// SetPinReader installs the digital-input backend for the "i" command.
func (c *Console) SetPinReader(fn PinReader) {
	c.readPin = fn
}

// SetResetFunc installs the handler for the "rst" command.
func (c *Console) SetResetFunc(fn func()) {
	c.resetFn = fn
}

// Ask starts a cooperative confirm prompt. The question is printed now and
// again for every line that is not a y/n answer, and cb is invoked with the answer when a y/n line arrives (or Answer is called
// by the keypad). Command dispatch is suspended until then; control keeps
// ticking because Poll never blocks.
func (c *Console) Ask(question string, cb func(bool)) {
	c.ask = question
	c.askCb = cb
	fmt.Fprintf(c.w, "%s [y/n]\n", question)
}

// Asking reports whether a confirm prompt is pending.
func (c *Console) Asking() bool {
	return c.askCb != nil
}

// Answer resolves a pending prompt, e.g. from the OK/Cancel keys.
func (c *Console) Answer(yes bool) {
	if c.askCb == nil {
		return
	}
	cb := c.askCb
	c.ask, c.askCb = "", nil
	cb(yes)
}

// Poll services the console: it emits pin-watch transitions and dispatches
// any completely received command lines. It never blocks.
func (c *Console) Poll() {
	c.pollWatch()
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return
			}
			c.Exec(line)
		default:
			return
		}
	}
}

// Exec dispatches one command line as if it had arrived on the transport.
func (c *Console) Exec(line string) {
	// Any input ends a running pin watch.
	c.watching = false
	if c.askCb != nil {
		switch strings.TrimSpace(strings.ToLower(line)) {
		case "y", "yes":
			c.Answer(true)
		case "n", "no":
			c.Answer(false)
		default:
			fmt.Fprintf(c.w, "%s [y/n]\n", c.ask)
		}
		return
	}
	args := strings.Fields(line)
	if len(args) == 0 {
		return
	}
	c.dispatch(args)
}

func (c *Console) dispatch(args []string) {
	switch args[0] {
	case "?":
		c.help()
	case "i":
		c.cmdInput(args)
	case "p":
		c.cmdProfile(args)
	case "e":
		c.cmdStore(args)
	case "rst":
		if c.resetFn != nil {
			c.resetFn()
		}
	default:
		c.fail(ErrArgInvalidOpt)
	}
}

func (c *Console) help() {
	fmt.Fprint(c.w, `? - this help
i <pin> - stream digital input transitions until next input
p cur - print active profile index
p ls - list profile names
p sel <idx> - activate profile (stops controller)
p get <idx> - dump profile
p nw <name> <n> - create empty n-phase profile and activate it
p on - start controller
p off - stop controller
e inf - store info
e fmt - reformat store and rewrite defaults
e d <off> - dump 64 bytes at offset
rst - soft reset
`)
}

func (c *Console) cmdInput(args []string) {
	if len(args) != 2 {
		c.fail(ErrArgsCount)
		return
	}
	pin, err := strconv.Atoi(args[1])
	if err != nil {
		c.fail(ErrArgInvalidOpt)
		return
	}
	if c.readPin == nil {
		c.fail(ErrArgInvalidOpt)
		return
	}
	v, err := c.readPin(pin)
	if err != nil {
		c.fail(ErrArgOutOfRange)
		return
	}
	c.watching = true
	c.watchPin = pin
	c.watchVal = v
	c.emitPin(pin, v)
}

func (c *Console) pollWatch() {
	if !c.watching || c.readPin == nil {
		return
	}
	v, err := c.readPin(c.watchPin)
	if err != nil {
		c.watching = false
		return
	}
	if v != c.watchVal {
		c.watchVal = v
		c.emitPin(c.watchPin, v)
	}
}

func (c *Console) emitPin(pin int, v bool) {
	n := 0
	if v {
		n = 1
	}
	fmt.Fprintf(c.w, "in[%d]=%d;\n", pin, n)
}

func (c *Console) cmdProfile(args []string) {
	if len(args) < 2 {
		c.fail(ErrArgsCount)
		return
	}
	switch args[1] {
	case "cur":
		fmt.Fprintf(c.w, "%d\n", c.ctl.ProfileIndex())
	case "ls":
		for _, n := range c.st.Names() {
			fmt.Fprintf(c.w, "%s\n", n)
		}
	case "sel":
		c.cmdSelect(args)
	case "get":
		c.cmdGet(args)
	case "nw":
		c.cmdNew(args)
	case "on":
		if len(args) != 2 {
			c.fail(ErrArgsCount)
			return
		}
		if !c.ctl.Start() {
			c.fail(ErrArgInvalidOpt)
			return
		}
		c.ok()
	case "off":
		if len(args) != 2 {
			c.fail(ErrArgsCount)
			return
		}
		c.ctl.Stop()
		c.ok()
	default:
		c.fail(ErrArgInvalidOpt)
	}
}

func (c *Console) cmdSelect(args []string) {
	if len(args) != 3 {
		c.fail(ErrArgsCount)
		return
	}
	idx, err := strconv.Atoi(args[2])
	if err != nil {
		c.fail(ErrArgInvalidOpt)
		return
	}
	if idx < 0 || idx >= c.st.Count() {
		c.fail(ErrArgOutOfRange)
		return
	}
	p, err := c.st.LoadProfile(idx)
	if err != nil {
		c.fail(ErrArgInvalidOpt)
		return
	}
	if err := c.ctl.Activate(p, idx); err != nil {
		c.fail(ErrArgInvalidOpt)
		return
	}
	c.ok()
}

func (c *Console) cmdGet(args []string) {
	if len(args) != 3 {
		c.fail(ErrArgsCount)
		return
	}
	idx, err := strconv.Atoi(args[2])
	if err != nil {
		c.fail(ErrArgInvalidOpt)
		return
	}
	p, err := c.st.LoadProfile(idx)
	if err != nil {
		c.fail(ErrArgOutOfRange)
		return
	}
	fmt.Fprintf(c.w, "profile[idx=%d,nam=%q,n=%d]\n", idx, p.Name, len(p.Phases))
	for _, ph := range p.Phases {
		fmt.Fprintf(c.w, "phase[nam=%q,end=%.2f,m=%.2f,t=%d]\n", ph.Name, ph.EndTemp, ph.Slope, ph.Duration)
	}
}

func (c *Console) cmdNew(args []string) {
	if len(args) != 4 {
		c.fail(ErrArgsCount)
		return
	}
	n, err := strconv.Atoi(args[3])
	if err != nil {
		c.fail(ErrArgInvalidOpt)
		return
	}
	p, err := profile.New(args[2], n)
	if err != nil {
		if errors.Is(err, profile.ErrTooManyPhases) {
			c.fail(ErrNoMemory)
		} else {
			c.fail(ErrArgInvalidOpt)
		}
		return
	}
	// A draft's phases are zeroed, which Validate would reject, so install
	// it directly instead of going through Activate.
	c.ctl.SetPhases(p)
	c.ctl.Emitter().Profile(reflow.NoProfile)
	c.ok()
}

func (c *Console) cmdStore(args []string) {
	if len(args) < 2 {
		c.fail(ErrArgsCount)
		return
	}
	switch args[1] {
	case "inf":
		i := c.st.Info()
		sig := 0
		if i.SigOK {
			sig = 1
		}
		fmt.Fprintf(c.w, "eeprom[sigOk=%d,len=%d,freestart=%d]\n", sig, i.Len, i.FreeStart)
	case "fmt":
		if c.ctl.Running() {
			c.fail(ErrArgInvalidOpt)
			return
		}
		if err := c.st.Format(); err != nil {
			c.fail(ErrNoMemory)
			return
		}
		if err := c.st.RegisterDefaults(); err != nil {
			c.fail(ErrNoMemory)
			return
		}
		if p, err := c.st.LoadProfile(0); err == nil {
			_ = c.ctl.Activate(p, 0)
		}
		c.ok()
	case "d":
		if len(args) != 3 {
			c.fail(ErrArgsCount)
			return
		}
		off, err := strconv.Atoi(args[2])
		if err != nil {
			c.fail(ErrArgInvalidOpt)
			return
		}
		b, err := c.st.Dump(off, dumpLen)
		if err != nil {
			c.fail(ErrArgOutOfRange)
			return
		}
		c.hexdump(off, b)
	default:
		c.fail(ErrArgInvalidOpt)
	}
}

func (c *Console) hexdump(off int, b []byte) {
	for i := 0; i < len(b); i += 16 {
		end := i + 16
		if end > len(b) {
			end = len(b)
		}
		row := b[i:end]
		var hex, asc strings.Builder
		for _, v := range row {
			fmt.Fprintf(&hex, "%02x ", v)
			if v >= 0x20 && v <= 0x7e {
				asc.WriteByte(v)
			} else {
				asc.WriteByte('.')
			}
		}
		fmt.Fprintf(c.w, "%04x: %-48s|%s|\n", off+i, hex.String(), asc.String())
	}
}

func (c *Console) ok() {
	fmt.Fprintln(c.w, "ok")
}

func (c *Console) fail(code string) {
	fmt.Fprintf(c.w, "CONSOLEERROR %s\n", code)
}
