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

	pio "github.com/tinygo-org/pio/rp2-pio"
)

// fireIRQIndex is the shared PIO interrupt flag the trigger programs raise
// and the pulse engine waits on. It is independent of FireSignal, the pad
// level: the trigger program both raises FireSignal and asserts this flag
// in the same pass.
const fireIRQIndex = 0

// buildPulseProgram assembles the pulse engine: block on FIRE-IRQ, delay
// PAUSE cycles, then emit COUNT (WIDTH-high, GAP-low) pulses on the
// pins-group SET destination, using ISR to hold width_adj and OSR to hold
// gap_adj across the whole burst (both persist once loaded since neither
// register is pulled again after setup).
//
// FIFO load order, exactly four words per arming: pause, count_minus_1,
// width_adj, gap_adj.
func buildPulseProgram() []uint16 {
	asm := pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.WaitIRQ(true, false, fireIRQIndex).Encode(), // 0: wait 1 irq 0
		asm.Pull(false, true).Encode(),                  // 1: pull block (pause)
		asm.Mov(pio.MovDestX, pio.MovSrcOSR).Encode(),   // 2: mov x, osr
		// pause_loop:
		asm.Jmp(3, pio.JmpXNZeroDec).Encode(), // 3: jmp x--, pause_loop (self)
		asm.Pull(false, true).Encode(),        // 4: pull block (count_minus_1)
		asm.Mov(pio.MovDestY, pio.MovSrcOSR).Encode(), // 5: mov y, osr
		asm.Pull(false, true).Encode(),                // 6: pull block (width_adj)
		asm.Mov(pio.MovDestISR, pio.MovSrcOSR).Encode(), // 7: mov isr, osr
		asm.Pull(false, true).Encode(),                  // 8: pull block (gap_adj, stays in osr)
		// pulse_loop:
		asm.Set(pio.SetDestPins, 1).Encode(),          // 9: set pins, 1
		asm.Mov(pio.MovDestX, pio.MovSrcISR).Encode(), // 10: mov x, isr (width_adj)
		// width_delay:
		asm.Jmp(11, pio.JmpXNZeroDec).Encode(), // 11: jmp x--, width_delay (self)
		asm.Set(pio.SetDestPins, 0).Encode(),   // 12: set pins, 0
		asm.Mov(pio.MovDestX, pio.MovSrcOSR).Encode(), // 13: mov x, osr (gap_adj)
		// gap_delay:
		asm.Jmp(14, pio.JmpXNZeroDec).Encode(), // 14: jmp x--, gap_delay (self)
		asm.Jmp(9, pio.JmpYNZeroDec).Encode(),  // 15: jmp y--, pulse_loop
		// .wrap (back to index 0, waits for next FIRE-IRQ)
	}
}

const pulseProgramOrigin = -1

// pulsePinCount is the width of the pulse program's "set pins" group:
// normalPin and invertedPin, which board.GlitchOutInvertedPin keeps
// immediately adjacent to board.GlitchOutPin so one SET instruction drives
// both from a single consecutive pin range.
const pulsePinCount = 2

func pulseProgramDefaultConfig(offset uint8, normalPin machine.Pin) pio.StateMachineConfig {
	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(offset, offset+15)
	cfg.SetSetPins(normalPin, pulsePinCount)
	cfg.SetOutShift(true, false, 32)
	return cfg
}

// pulseEngine owns the pulse engine state machine. invertedPin is driven by
// the same "set pins" instructions as normalPin (both transition on the
// same clock edge, no skew) with its pad's GPIOx_CTRL.OUTOVER field set to
// invert, so it carries the opposite polarity without a second program or
// CPU involvement, per spec §4.1.
type pulseEngine struct {
	sm          pio.StateMachine
	offset      uint8
	normalPin   machine.Pin
	invertedPin machine.Pin
}

func newPulseEngine(blk *pio.PIO, normalPin, invertedPin machine.Pin) (*pulseEngine, error) {
	sm, err := blk.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	offset, err := blk.AddProgram(buildPulseProgram(), pulseProgramOrigin)
	if err != nil {
		return nil, err
	}

	normalPin.Configure(machine.PinConfig{Mode: blk.PinMode()})
	invertedPin.Configure(machine.PinConfig{Mode: blk.PinMode()})
	invertPadOutput(invertedPin)

	cfg := pulseProgramDefaultConfig(offset, normalPin)
	p := &pulseEngine{sm: sm, offset: offset, normalPin: normalPin, invertedPin: invertedPin}
	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(normalPin, pulsePinCount, true)
	sm.SetPinsConsecutive(normalPin, pulsePinCount, false)
	return p, nil
}

// reset configures, clears, and restarts the state machine, leaving it
// disabled, per arm step 7.
func (p *pulseEngine) reset() {
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	p.sm.Exec(pio.EncodeJmp(p.offset, pio.JmpAlways))
}

// loadFIFO pushes the four parameter words in load order. The FIFO holds
// exactly four 32bit words; TxPut blocks on a full FIFO which cannot
// happen here since the state machine is disabled (not draining) and the
// FIFO was just cleared by reset.
func (p *pulseEngine) loadFIFO(words [4]uint32) {
	for _, w := range words {
		p.sm.TxPut(w)
	}
}

func (p *pulseEngine) enable()  { p.sm.SetEnabled(true) }
func (p *pulseEngine) disable() { p.sm.SetEnabled(false) }

// fifoEmpty reports whether the pulse engine's FIFO has drained, the
// auto-disarm completion signal (spec §4.3's FIFO-empty polling).
func (p *pulseEngine) fifoEmpty() bool { return p.sm.IsTxFIFOEmpty() }
