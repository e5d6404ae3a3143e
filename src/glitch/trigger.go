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

	"glitch/src/board"
	"glitch/src/support"
)

// uartByteClkDiv returns the state machine clock divider that makes one
// PIO instruction cover one oversampleFactor-th of a target UART bit.
func uartByteClkDiv() (uint16, uint8) {
	div := float64(support.SystemClockHz) / float64(oversampleFactor*board.TargetUARTBaud)
	intPart := uint16(div)
	frac := uint8((div - float64(intPart)) * 256)
	return intPart, frac
}

// stabilityTicks is the spacing, in state machine cycles, between the three
// samples of the active level the GPIO edge trigger takes before it fires:
// each sampling wait is followed by stabilityTicks-1 delay cycles.
const stabilityTicks = 32

// buildGpioEdgeProgram waits for the idle level, then samples the active
// level three times, stabilityTicks cycles apart, before firing. Each sample
// is a wait on the active level, so a return to the idle level between
// samples does not restart the sequence: the next wait simply blocks until
// the level is active again, and three separate short spikes can satisfy
// all three samples. Once fired it spins in place holding FireSignal high rather than re-arming:
// the trigger is one-shot per arming (invariant: at most once before
// disarm), and Disarm/Arm are what reload this program for the next use.
func buildGpioEdgeProgram(edge Edge) []uint16 {
	idle, active := true, false
	if edge == EdgeRising {
		idle, active = false, true
	}
	asm := pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Set(pio.SetDestPins, 0).Encode(),       // 0: set pins, 0 (FireSignal low)
		asm.WaitPin(idle, 0).Encode(),               // 1: wait for idle level
		asm.WaitPin(active, 0).Delay(stabilityTicks - 1).Encode(), // 2: edge + settle
		asm.WaitPin(active, 0).Delay(stabilityTicks - 1).Encode(), // 3: confirm
		asm.WaitPin(active, 0).Delay(stabilityTicks - 1).Encode(), // 4: confirm again
		asm.Set(pio.SetDestPins, 1).Encode(), // 5: set pins, 1 (FireSignal high)
		asm.IRQSet(false, fireIRQIndex).Encode(), // 6: irq set 0
		asm.Jmp(7, pio.JmpAlways).Encode(),       // 7: spin, fired once
	}
}

// oversampleFactor is how many PIO clock ticks the UART byte-match trigger
// spends per target UART bit, per spec §4.2.2.
const oversampleFactor = 8

// buildUartByteProgram bit-bangs a receiver on the shared target RX pad
// (sharePinAsInput must have been used to grant this block visibility) and
// compares the received byte against a target loaded once via the FIFO at
// load time. A mismatch clears the input register and returns to idle to
// await the next start bit, matching the fresh-ISR requirement spec §4.2.2
// calls for; an earlier draft jumped straight back to start without the
// clear, letting each new byte's sampled bits accumulate on top of the
// previous attempt's residue. Once the byte matches it spins holding
// FireSignal high rather than resuming the receiver, matching
// buildGpioEdgeProgram's one-shot-per-arming contract.
func buildUartByteProgram() []uint16 {
	asm := pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, true).Encode(),                // 0: pull block (target byte, top byte set)
		asm.Mov(pio.MovDestY, pio.MovSrcOSR).Encode(), // 1: mov y, osr (persists)
		// .wrap_target
		// start:
		asm.WaitPin(false, 0).Encode(), // 2: wait for start bit (idle high -> low)
		asm.Set(pio.SetDestX, 7).Delay(oversampleFactor + oversampleFactor/2 - 2).Encode(), // 3: x=7, settle to first bit center
		// bitloop:
		asm.In(pio.InSrcPins, 1).Delay(oversampleFactor - 1).Encode(), // 4: in pins, 1
		asm.Jmp(4, pio.JmpXNZeroDec).Encode(),                         // 5: jmp x--, bitloop
		asm.Mov(pio.MovDestX, pio.MovSrcISR).Encode(),                 // 6: mov x, isr
		asm.Jmp(11, pio.JmpXNotEqY).Encode(),                          // 7: jmp x!=y, mismatch
		// match (fall through):
		asm.Set(pio.SetDestPins, 1).Encode(),     // 8: set pins, 1 (FireSignal high)
		asm.IRQSet(false, fireIRQIndex).Encode(), // 9: irq set 0
		asm.Jmp(10, pio.JmpAlways).Encode(),      // 10: spin, fired once
		// mismatch:
		asm.Mov(pio.MovDestISR, pio.MovSrcNull).Encode(), // 11: mov isr, null (clear residue)
		asm.Jmp(2, pio.JmpAlways).Encode(),               // 12: jmp start
	}
}

// buildManualFireProgram is the one-shot helper: raise FireSignal, assert
// FIRE-IRQ, then sit disabled. ManualFire restarts and re-enables this
// state machine for each call rather than leaving it free-running.
func buildManualFireProgram() []uint16 {
	asm := pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Set(pio.SetDestPins, 1).Encode(),     // 0: set pins, 1
		asm.IRQSet(false, fireIRQIndex).Encode(), // 1: irq set 0
		asm.Jmp(2, pio.JmpAlways).Encode(),       // 2: halt (spin)
	}
}

// triggerResources owns the one PIO block's worth of automatic-trigger
// state machine: claimed once at construction, reprogrammed on every Arm
// per variant. A separate, permanently-resident state machine on the same
// block handles manual fires so ManualFire never contends with whatever
// automatic trigger program is currently loaded.
type triggerResources struct {
	blk           *pio.PIO
	triggerSM     pio.StateMachine
	triggerOffset uint8
	triggerLen    uint8
	triggerLoaded bool

	manualSM     pio.StateMachine
	manualOffset uint8

	triggerPin    machine.Pin
	uartRxPin     machine.Pin
	fireSignalPin machine.Pin
}

func newTriggerResources(blk *pio.PIO, triggerPin, uartRxPin, fireSignalPin machine.Pin) (*triggerResources, error) {
	triggerSM, err := blk.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	manualSM, err := blk.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	manualOffset, err := blk.AddProgram(buildManualFireProgram(), -1)
	if err != nil {
		return nil, err
	}

	triggerPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	fireSignalPin.Configure(machine.PinConfig{Mode: blk.PinMode()})

	t := &triggerResources{
		blk: blk, triggerSM: triggerSM,
		manualSM: manualSM, manualOffset: manualOffset,
		triggerPin: triggerPin, uartRxPin: uartRxPin, fireSignalPin: fireSignalPin,
	}

	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(manualOffset, manualOffset+2)
	cfg.SetSetPins(fireSignalPin, 1)
	manualSM.Init(manualOffset, cfg)
	manualSM.SetPindirsConsecutive(fireSignalPin, 1, true)
	return t, nil
}

func (t *triggerResources) ClearFireSignal() {
	t.manualSM.SetPinsConsecutive(t.fireSignalPin, 1, false)
}

func (t *triggerResources) ClearFireIRQ() {
	t.blk.ClearIRQ(uint32(1) << fireIRQIndex)
}

func (t *triggerResources) DisableTrigger() {
	if t.triggerLoaded {
		t.triggerSM.SetEnabled(false)
		t.triggerSM.ClearFIFOs()
	}
}

func (t *triggerResources) EnableTrigger() {
	if t.triggerLoaded {
		t.triggerSM.SetEnabled(true)
	}
}

func (t *triggerResources) UnloadTrigger() {
	if t.triggerLoaded {
		t.blk.RemoveProgram(t.triggerOffset, t.triggerLen)
		t.triggerLoaded = false
	}
}

// LoadTrigger assembles and loads the program for variant, rewiring the
// shared RX pad's pin-sync bypass as needed. TriggerNone leaves the block
// with no resident automatic trigger, matching manual-fire-only operation.
func (t *triggerResources) LoadTrigger(variant TriggerVariant, edge Edge, triggerByte byte) error {
	switch variant {
	case TriggerNone:
		return nil
	case TriggerGpioEdge:
		offset, err := t.blk.AddProgram(buildGpioEdgeProgram(edge), -1)
		if err != nil {
			return err
		}
		t.triggerOffset, t.triggerLen, t.triggerLoaded = offset, 8, true
		cfg := pio.DefaultStateMachineConfig()
		cfg.SetWrap(offset, offset+7)
		cfg.SetSetPins(t.fireSignalPin, 1)
		cfg.SetInPins(t.triggerPin)
		t.triggerSM.Init(offset, cfg)
		t.triggerSM.SetPindirsConsecutive(t.fireSignalPin, 1, true)
		return nil
	case TriggerUartByte:
		sharePinAsInput(t.blk, t.uartRxPin)
		offset, err := t.blk.AddProgram(buildUartByteProgram(), -1)
		if err != nil {
			return err
		}
		t.triggerOffset, t.triggerLen, t.triggerLoaded = offset, 13, true
		cfg := pio.DefaultStateMachineConfig()
		cfg.SetWrap(offset+2, offset+12)
		cfg.SetSetPins(t.fireSignalPin, 1)
		cfg.SetInPins(t.uartRxPin)
		// shiftRight=true: the classic PIO UART-RX idiom shifts each sampled
		// bit into the top of the ISR, landing the assembled byte in ISR's
		// top byte, which is why the comparison value below is loaded
		// pre-shifted into bits 31:24 rather than as a plain low-byte value.
		cfg.SetInShift(true, false, 8)
		intPart, frac := uartByteClkDiv()
		cfg.SetClkDivIntFrac(intPart, frac)
		t.triggerSM.Init(offset, cfg)
		t.triggerSM.SetPindirsConsecutive(t.fireSignalPin, 1, true)
		t.triggerSM.TxPut(uint32(triggerByte) << 24)
		return nil
	default:
		return errNoInstrRoom
	}
}

// ManualFire restarts and runs the resident manual-fire helper once, waits
// a microsecond for it to raise FireSignal and FIRE-IRQ, then disables it.
func (t *triggerResources) ManualFire() {
	t.manualSM.SetEnabled(false)
	t.manualSM.Restart()
	t.manualSM.Exec(pio.EncodeJmp(t.manualOffset, pio.JmpAlways))
	t.manualSM.SetEnabled(true)
	time.Sleep(time.Microsecond)
	t.manualSM.SetEnabled(false)
}
