/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:build rp2040

package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"glitch/src/glitch"
	"glitch/src/support"
	"glitch/src/target"
)

// Dispatcher drives the verb table of spec §6.1 against a Controller, the
// clock administrative seam, and the target link. It never returns an
// error itself: command faults are reported through OK:/ERROR: lines (or
// the API-mode ack byte) and the dispatcher moves on to the next line.
type Dispatcher struct {
	Ctrl   *glitch.Controller
	Clock  glitch.ClockController
	Target *target.Link
	Out    io.Writer

	apiMode bool
}

var verbs = []string{"SET", "GET", "TRIGGER", "ARM", "GLITCH", "STATUS", "RESET", "CLOCK", "ERROR", "API"}
var paramNames = []string{"PAUSE", "WIDTH", "GAP", "COUNT"}

// HandleLine tokenizes and dispatches a single command line, writing its
// response to Out.
func (d *Dispatcher) HandleLine(line string) {
	if d.apiMode {
		fmt.Fprint(d.Out, ".")
	}
	toks := Tokenize(line)
	if len(toks) == 0 {
		return
	}
	verb, err := MatchPrefix(toks[0], verbs...)
	if err != nil {
		d.fail(fmt.Sprintf("unknown verb %q", toks[0]))
		return
	}

	args := toks[1:]
	switch verb {
	case "SET":
		d.handleSet(args)
	case "GET":
		d.handleGet(args)
	case "TRIGGER":
		d.handleTrigger(args)
	case "ARM":
		d.handleArm(args)
	case "GLITCH":
		d.handleGlitch()
	case "STATUS":
		d.handleStatus()
	case "RESET":
		d.handleReset()
	case "CLOCK":
		d.handleClock(args)
	case "ERROR":
		d.reply(d.Ctrl.LastError())
	case "API":
		d.handleAPI(args)
	}
}

func (d *Dispatcher) ok(detail string) {
	if d.apiMode {
		fmt.Fprint(d.Out, "+")
		if detail != "" {
			fmt.Fprintf(d.Out, "%s\n", detail)
		}
		return
	}
	if detail == "" {
		fmt.Fprint(d.Out, "OK:\n")
	} else {
		fmt.Fprintf(d.Out, "OK: %s\n", detail)
	}
}

func (d *Dispatcher) fail(msg string) {
	if d.apiMode {
		fmt.Fprint(d.Out, "!")
		return
	}
	fmt.Fprintf(d.Out, "ERROR: %s\n", msg)
}

// reply is for query verbs (GET/ERROR) that always print their answer,
// even in API mode, since "human-oriented output is suppressed except
// for explicit query replies" per the design note.
func (d *Dispatcher) reply(msg string) {
	fmt.Fprintf(d.Out, "%s\n", msg)
}

func (d *Dispatcher) handleSet(args []string) {
	if len(args) != 2 {
		d.fail("SET requires a parameter name and a value")
		return
	}
	name, err := MatchPrefix(args[0], paramNames...)
	if err != nil {
		d.fail(fmt.Sprintf("unknown parameter %q", args[0]))
		return
	}
	value, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		d.fail(fmt.Sprintf("invalid integer %q", args[1]))
		return
	}

	switch name {
	case "PAUSE":
		err = d.Ctrl.SetPause(uint32(value))
	case "WIDTH":
		err = d.Ctrl.SetWidth(uint32(value))
	case "GAP":
		err = d.Ctrl.SetGap(uint32(value))
	case "COUNT":
		err = d.Ctrl.SetCount(uint32(value))
	}
	if err != nil {
		d.fail(err.Error())
		return
	}
	d.ok("")
}

func (d *Dispatcher) handleGet(args []string) {
	if len(args) != 1 {
		d.fail("GET requires a parameter name")
		return
	}
	name, err := MatchPrefix(args[0], paramNames...)
	if err != nil {
		d.fail(fmt.Sprintf("unknown parameter %q", args[0]))
		return
	}
	p := d.Ctrl.Parameters()
	switch name {
	case "PAUSE":
		d.reply(fmt.Sprintf("PAUSE %d (%d us)", p.PauseCycles, support.CyclesToMicros(uint64(p.PauseCycles))))
	case "WIDTH":
		d.reply(fmt.Sprintf("WIDTH %d (%d us)", p.WidthCycles, support.CyclesToMicros(uint64(p.WidthCycles))))
	case "GAP":
		d.reply(fmt.Sprintf("GAP %d (%d us)", p.GapCycles, support.CyclesToMicros(uint64(p.GapCycles))))
	case "COUNT":
		d.reply(fmt.Sprintf("COUNT %d", p.Count))
	}
}

func (d *Dispatcher) handleTrigger(args []string) {
	if len(args) == 0 {
		d.fail("TRIGGER requires an argument")
		return
	}
	kind, err := MatchPrefix(args[0], "NONE", "GPIO", "UART")
	if err != nil {
		d.fail(fmt.Sprintf("unknown trigger %q", args[0]))
		return
	}
	switch kind {
	case "NONE":
		err = d.Ctrl.SetTrigger(glitch.TriggerNone, glitch.EdgeRising, 0)
	case "GPIO":
		if len(args) != 2 {
			d.fail("TRIGGER GPIO requires RISING or FALLING")
			return
		}
		edgeName, err2 := MatchPrefix(args[1], "RISING", "FALLING")
		if err2 != nil {
			d.fail(fmt.Sprintf("unknown edge %q", args[1]))
			return
		}
		edge := glitch.EdgeRising
		if edgeName == "FALLING" {
			edge = glitch.EdgeFalling
		}
		err = d.Ctrl.SetTrigger(glitch.TriggerGpioEdge, edge, 0)
	case "UART":
		if len(args) != 2 {
			d.fail("TRIGGER UART requires a hex byte")
			return
		}
		v, err2 := strconv.ParseUint(args[1], 16, 32)
		if err2 != nil {
			d.fail(fmt.Sprintf("invalid hex byte %q", args[1]))
			return
		}
		err = d.Ctrl.SetTrigger(glitch.TriggerUartByte, glitch.EdgeRising, uint32(v))
	}
	if err != nil {
		d.fail(err.Error())
		return
	}
	d.ok("")
}

func (d *Dispatcher) handleArm(args []string) {
	if len(args) != 1 {
		d.fail("ARM requires ON or OFF")
		return
	}
	onoff, err := MatchPrefix(args[0], "ON", "OFF")
	if err != nil {
		d.fail(fmt.Sprintf("unknown argument %q", args[0]))
		return
	}
	if onoff == "OFF" {
		d.Ctrl.Disarm()
		d.ok("")
		return
	}
	if err := d.Ctrl.Arm(); err != nil {
		d.fail(err.Error())
		return
	}
	d.ok("")
}

// resetPulseDuration is how long RESET asserts the target reset pin.
const resetPulseDuration = 10 * time.Millisecond

func (d *Dispatcher) handleReset() {
	d.Ctrl.Reset()
	target.PulseReset(resetPulseDuration)
	d.ok("")
}

func (d *Dispatcher) handleGlitch() {
	if err := d.Ctrl.ManualFire(); err != nil {
		d.fail(err.Error())
		return
	}
	d.ok("")
}

func (d *Dispatcher) handleStatus() {
	p := d.Ctrl.Parameters()
	hz := 0.0
	if d.Clock != nil {
		hz = d.Clock.MeasureClockHz()
	}
	captured := 0
	if d.Target != nil {
		captured = len(d.Target.Capture())
	}
	d.reply(fmt.Sprintf(
		"STATE %s FIRED %d TRIGGER %s EDGE %s CLOCK_HZ %.1f PAUSE %d WIDTH %d GAP %d COUNT %d TARGET_CAPTURE %d",
		d.Ctrl.State(), d.Ctrl.FiredCount(), p.TriggerVariant, p.TriggerEdge, hz,
		p.PauseCycles, p.WidthCycles, p.GapCycles, p.Count, captured))
}

func (d *Dispatcher) handleClock(args []string) {
	if d.Clock == nil {
		d.fail("no clock generator attached")
		return
	}
	// BoostFactor defaults to 2 (nominal doubled frequency per spec §4.4):
	// boost is opt-in at clock-enable time, not a separately exposed CLI
	// argument, so CLOCK ... ON always arms a boost burst on fire.
	cfg := glitch.ClockConfig{FrequencyHz: 0, BoostFactor: 2}
	for _, a := range args {
		if onoff, err := MatchPrefix(a, "ON", "OFF"); err == nil {
			if onoff == "OFF" {
				cfg.BoostFactor = 1
				cfg.FrequencyHz = 0
			}
			continue
		}
		hz, err := strconv.ParseFloat(a, 64)
		if err != nil {
			d.fail(fmt.Sprintf("invalid argument %q", a))
			return
		}
		cfg.FrequencyHz = hz
	}
	if err := d.Clock.ConfigureClock(cfg); err != nil {
		d.fail(err.Error())
		return
	}
	d.ok("")
}

func (d *Dispatcher) handleAPI(args []string) {
	if len(args) != 1 {
		d.fail("API requires ON or OFF")
		return
	}
	onoff, err := MatchPrefix(args[0], "ON", "OFF")
	if err != nil {
		d.fail(fmt.Sprintf("unknown argument %q", args[0]))
		return
	}
	d.apiMode = onoff == "ON"
	d.ok("")
}
