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

package glitch

import (
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"glitch/src/refclock"
	"glitch/src/support"
)

// buildClockProgram emits a free-running square wave at the baseline
// half-period (held permanently in OSR) and, on the first sample where
// FireSignal reads high, switches to the boosted half-period (held in ISR)
// for exactly the budget of half-periods loaded into Y at session start,
// then reverts to baseline automatically. Latching on a single JMP_PIN
// sample rather than on how long FireSignal stays asserted means the
// trigger program only needs to pulse FireSignal once; Y alone bounds the
// boosted run to exactly the requested count regardless of pin timing.
//
// FIFO load order, once per session (the SM is restarted to reload it):
// boosted_half_period, half_periods, baseline_half_period.
//
// The budget is consumed one half-period (one phase, high or low) at a
// time, not one full period at a time: each of base_lo's fire check,
// boost_hi's exit check, and boost_lo's loop check spends exactly one Y
// unit per phase, so a budget of N lands on exactly N boosted phases
// regardless of parity, falling back to a baseline phase to finish the
// current high/low pair whenever the budget runs out mid-pair. Each check
// tests Y for zero before decrementing it, so an exhausted budget stays at
// 0 and a FireSignal that is still high on later passes does not restart
// the boost.
func buildClockProgram() []uint16 {
	asm := pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// setup, runs once per session
		asm.Pull(false, true).Encode(),                  // 0: pull block (boosted half-period)
		asm.Mov(pio.MovDestISR, pio.MovSrcOSR).Encode(), // 1: isr = boosted (persists)
		asm.Pull(false, true).Encode(),                  // 2: pull block (half-period budget)
		asm.Mov(pio.MovDestY, pio.MovSrcOSR).Encode(),   // 3: y = budget
		asm.Pull(false, true).Encode(),                  // 4: pull block (baseline, persists: never pulled again)
		// .wrap_target
		// base_hi:
		asm.Mov(pio.MovDestX, pio.MovSrcOSR).Encode(), // 5: x = baseline
		asm.Set(pio.SetDestPins, 1).Encode(),          // 6: set pins, 1
		asm.Jmp(7, pio.JmpXNZeroDec).Encode(),         // 7: jmp x--, (hold base high)
		asm.Set(pio.SetDestPins, 0).Encode(),          // 8: set pins, 0
		// base_lo:
		asm.Mov(pio.MovDestX, pio.MovSrcOSR).Encode(), // 9: x = baseline
		asm.Jmp(10, pio.JmpXNZeroDec).Encode(),        // 10: jmp x--, (hold base low)
		asm.Jmp(13, pio.JmpPin).Encode(),               // 11: FireSignal high? check budget
		asm.Jmp(5, pio.JmpAlways).Encode(),             // 12: not fired, stay baseline (wrap)
		asm.Jmp(5, pio.JmpYZero).Encode(),              // 13: exhausted, stay baseline (wrap)
		asm.Jmp(15, pio.JmpYNZeroDec).Encode(),         // 14: consume 1 (this high phase), enter boost
		// boost_hi:
		asm.Mov(pio.MovDestX, pio.MovSrcISR).Encode(), // 15: x = boosted
		asm.Set(pio.SetDestPins, 1).Encode(),          // 16: set pins, 1
		asm.Jmp(17, pio.JmpXNZeroDec).Encode(),        // 17: jmp x--, (hold boost high)
		asm.Set(pio.SetDestPins, 0).Encode(),          // 18: set pins, 0
		asm.Jmp(9, pio.JmpYZero).Encode(),             // 19: exhausted mid-pair: finish low phase at baseline
		asm.Jmp(21, pio.JmpYNZeroDec).Encode(),        // 20: consume 1 (this low phase), continue boosted
		// boost_lo:
		asm.Mov(pio.MovDestX, pio.MovSrcISR).Encode(), // 21: x = boosted
		asm.Jmp(22, pio.JmpXNZeroDec).Encode(),        // 22: jmp x--, (hold boost low)
		asm.Jmp(5, pio.JmpYZero).Encode(),              // 23: exhausted, resume baseline (wrap)
		asm.Jmp(15, pio.JmpYNZeroDec).Encode(),         // 24: consume 1 (next high phase), loop boost_hi
	}
}

// ClockConfig describes the glitch clock generator's requested frequency
// and boosted-phase multiplier, per spec §4.4. BoostFactor of 1 disables
// boosting: the generator free-runs at Frequency regardless of FireSignal.
type ClockConfig struct {
	FrequencyHz float64
	BoostFactor float64
}

// clockGenerator owns the glitch clock generator's state machine and
// (optionally) the external si5351 reference, which Configure sets to the
// same requested frequency on its own output. The state machine's
// half-periods are always derived from the system clock.
type clockGenerator struct {
	blk    *pio.PIO
	sm     pio.StateMachine
	offset uint8
	outPin machine.Pin
	ref    *refclock.Reference

	cfg     ClockConfig
	enabled bool
}

// newClockGenerator claims a state machine on blk, a PIO block distinct
// from the pulse/trigger block: the clock program never shares a local
// IRQ flag with them, it only needs FireSignal's pad level, which any PIO
// block's JMP_PIN can read regardless of which block drives the pin. The
// pad's sync-bypass is set once here (not per-arm) since FireSignal's
// role as this generator's fire input is permanent for the board's life.
func newClockGenerator(blk *pio.PIO, outPin, fireSignalPin machine.Pin, ref *refclock.Reference) (*clockGenerator, error) {
	sm, err := blk.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	offset, err := blk.AddProgram(buildClockProgram(), -1)
	if err != nil {
		return nil, err
	}
	outPin.Configure(machine.PinConfig{Mode: blk.PinMode()})
	sharePinAsInput(blk, fireSignalPin)

	g := &clockGenerator{blk: blk, sm: sm, offset: offset, outPin: outPin, ref: ref}

	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(offset+5, offset+24)
	cfg.SetSetPins(outPin, 1)
	cfg.SetJmpPin(fireSignalPin)
	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(outPin, 1, true)
	return g, nil
}

// halfPeriodCycles converts a target frequency to the value loaded into the
// clock program's per-phase down-counters. It is always derived from
// SystemClockHz; an attached reference oscillator does not change it.
func halfPeriodCycles(hz float64) uint32 {
	if hz <= 0 {
		return 1
	}
	cycles := float64(support.SystemClockHz) / (2 * hz)
	if cycles < 1 {
		return 1
	}
	return uint32(cycles)
}

// Configure stores cfg and, if a reference oscillator is attached, locks it
// to the requested frequency; the PIO program's own divider always runs
// off the system clock regardless, since the si5351 (when present) instead
// drives an auxiliary board-level reference rather than this state
// machine's clock input.
func (g *clockGenerator) Configure(cfg ClockConfig) error {
	g.cfg = cfg
	if g.ref != nil {
		if _, err := g.ref.SetFrequency(cfg.FrequencyHz); err != nil {
			return err
		}
	}
	return nil
}

func (g *clockGenerator) Enable(on bool) {
	g.enabled = on
	g.sm.SetEnabled(on)
}

// LoadClockBoost restarts the clock generator's session with a fresh
// budget of halfPeriods boosted half-periods, armed to trigger on the next
// FireSignal sample. It does nothing while the generator is disabled, and
// forces the budget to 0 (no boosting ever triggers) when BoostFactor is at
// most 1. Restarting the state machine is what
// makes the setup pulls (instructions 0-4) run again to pick up the new
// budget; the brief resulting baseline discontinuity happens once per arm,
// not per fire.
func (g *clockGenerator) LoadClockBoost(halfPeriods uint32) {
	if !g.enabled {
		return
	}
	if g.cfg.BoostFactor <= 1 {
		halfPeriods = 0
	}
	boosted := halfPeriodCycles(g.cfg.FrequencyHz * maxFloat(g.cfg.BoostFactor, 1))
	baseline := halfPeriodCycles(g.cfg.FrequencyHz)

	g.sm.SetEnabled(false)
	g.sm.ClearFIFOs()
	g.sm.Restart()
	g.sm.TxPut(boosted)
	g.sm.TxPut(halfPeriods)
	g.sm.TxPut(baseline)
	g.sm.Exec(pio.EncodeJmp(g.offset, pio.JmpAlways))
	g.sm.SetEnabled(true)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// measureWindow is how long MeasureClockHz samples the output pin before
// extrapolating a frequency, a diagnostic self-check rather than a
// precision measurement.
const measureWindow = 10 * time.Millisecond

// measureHz counts rising edges on pin over measureWindow and extrapolates
// to a per-second rate, using the jitter-free microsecond timer for the
// window boundaries.
func measureHz(pin machine.Pin) float64 {
	start := support.Micros()
	deadline := start + uint64(measureWindow/time.Microsecond)
	edges := 0
	prev := pin.Get()
	for support.Micros() < deadline {
		cur := pin.Get()
		if cur && !prev {
			edges++
		}
		prev = cur
	}
	elapsed := support.Micros() - start
	if elapsed == 0 {
		return 0
	}
	return float64(edges) * 1e6 / float64(elapsed)
}

// MeasureClockHz samples the clock generator's output pin and reports the
// observed frequency, for the STATUS report's "measured, not just
// requested" field.
func (g *clockGenerator) MeasureClockHz() float64 {
	if !g.enabled {
		return 0
	}
	return measureHz(g.outPin)
}
