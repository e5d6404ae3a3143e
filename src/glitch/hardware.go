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
	pio "github.com/tinygo-org/pio/rp2-pio"

	"glitch/src/board"
	"glitch/src/refclock"
)

// pioEngine is the rp2040 implementation of engine. The pulse engine, the
// automatic trigger, and the manual-fire helper all live on PIO block 0:
// the pulse engine's "wait irq" and the trigger programs' "irq set" must
// share one block's local IRQ flags. The clock generator lives on PIO
// block 1 instead: it only needs to sample FireSignal's pad level via
// JMP_PIN, which works across blocks, and keeping it off block 0 leaves
// that block's 32 instruction slots for the three IRQ-coupled programs
// (pulse plus whichever automatic trigger variant is resident) without
// contending for space.
type pioEngine struct {
	blk    *pio.PIO
	clkBlk *pio.PIO
	pulse  *pulseEngine
	trig   *triggerResources
	clk    *clockGenerator
	armed  armedSignal
}

// NewHardware claims and programs the pulse, automatic trigger,
// manual-fire, and clock generator state machines across both PIO blocks
// and returns the concrete engine/ClockController implementation
// cmd/glitchctl wires into NewController.
func NewHardware(ref *refclock.Reference) (*pioEngine, error) {
	return newPIOEngine(ref)
}

// newPIOEngine claims and programs the pulse, automatic trigger, and
// manual-fire state machines on PIO block 0, and the clock generator on
// PIO block 1.
func newPIOEngine(ref *refclock.Reference) (*pioEngine, error) {
	blk := pio.PIO0
	clkBlk := pio.PIO1

	pulse, err := newPulseEngine(blk, board.GlitchOutPin, board.GlitchOutInvertedPin)
	if err != nil {
		return nil, err
	}
	trig, err := newTriggerResources(blk, board.TriggerInPin, board.TargetUARTRXPin, board.FireSignalPin)
	if err != nil {
		return nil, err
	}
	clk, err := newClockGenerator(clkBlk, board.ClockOutPin, board.FireSignalPin, ref)
	if err != nil {
		return nil, err
	}

	return &pioEngine{
		blk:    blk,
		clkBlk: clkBlk,
		pulse:  pulse,
		trig:   trig,
		clk:    clk,
		armed:  newArmedSignal(board.ArmedSignalPin),
	}, nil
}

func (e *pioEngine) ClearFireSignal()                 { e.trig.ClearFireSignal() }
func (e *pioEngine) DisableTrigger()                  { e.trig.DisableTrigger() }
func (e *pioEngine) UnloadTrigger()                   { e.trig.UnloadTrigger() }
func (e *pioEngine) EnableTrigger()                   { e.trig.EnableTrigger() }
func (e *pioEngine) ClearFireIRQ()                    { e.trig.ClearFireIRQ() }
func (e *pioEngine) ManualFire()                      { e.trig.ManualFire() }
func (e *pioEngine) ResetPulseEngine()                { e.pulse.reset() }
func (e *pioEngine) LoadPulseFIFO(words [4]uint32)    { e.pulse.loadFIFO(words) }
func (e *pioEngine) EnablePulse()                     { e.pulse.enable() }
func (e *pioEngine) DisablePulse()                    { e.pulse.disable() }
func (e *pioEngine) PulseFIFOEmpty() bool             { return e.pulse.fifoEmpty() }
func (e *pioEngine) LoadClockBoost(halfPeriods uint32) { e.clk.LoadClockBoost(halfPeriods) }
func (e *pioEngine) SetArmedSignal(on bool)           { e.armed.Set(on) }

func (e *pioEngine) LoadTrigger(variant TriggerVariant, edge Edge, triggerByte byte) error {
	return e.trig.LoadTrigger(variant, edge, triggerByte)
}

// ConfigureClock stores and (if a reference oscillator is present) locks
// the glitch clock generator to cfg, and enables its output.
func (e *pioEngine) ConfigureClock(cfg ClockConfig) error {
	if err := e.clk.Configure(cfg); err != nil {
		return err
	}
	e.clk.Enable(true)
	return nil
}

// MeasureClockHz reports the clock generator's actual observed output
// rate, for the STATUS verb.
func (e *pioEngine) MeasureClockHz() float64 { return e.clk.MeasureClockHz() }
