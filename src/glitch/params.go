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

// Package glitch implements the cooperating PIO state machines that detect
// a trigger condition, emit a timed glitch pulse train, and drive a target
// clock with an optional boosted burst while the pulse is live.
package glitch

import "errors"

// pulseOverheadCycles is the fixed number of cycles subtracted from
// width_cycles/gap_cycles before the values are pushed into the pulse
// engine FIFO, to account for the pulse loop's instruction overhead.
//
// In pulse.go the high phase is: set pins,1; mov x,isr; jmp x-- (self),
// which lasts width_adj+3 cycles; the low phase is: set pins,0; mov x,osr;
// jmp x-- (self); jmp y--, which lasts gap_adj+4 cycles. Subtracting 2
// therefore leaves the realised high phase one cycle longer, and the
// realised low phase two cycles longer, than requested.
const pulseOverheadCycles = 2

// TriggerVariant selects which trigger source is armed.
type TriggerVariant uint8

const (
	TriggerNone TriggerVariant = iota
	TriggerGpioEdge
	TriggerUartByte
)

func (v TriggerVariant) String() string {
	switch v {
	case TriggerNone:
		return "NONE"
	case TriggerGpioEdge:
		return "GPIO"
	case TriggerUartByte:
		return "UART"
	default:
		return "UNKNOWN"
	}
}

// Edge selects which transition a GPIO edge trigger fires on.
type Edge uint8

const (
	EdgeRising Edge = iota
	EdgeFalling
)

func (e Edge) String() string {
	if e == EdgeFalling {
		return "FALLING"
	}
	return "RISING"
}

// Parameters is the user-writable glitch configuration. All fields may be
// mutated only while the controller is Disarmed.
type Parameters struct {
	PauseCycles    uint32
	WidthCycles    uint32
	GapCycles      uint32
	Count          uint32
	TriggerVariant TriggerVariant
	TriggerEdge    Edge
	TriggerByte    byte
}

// DefaultParameters matches the values RESET restores.
func DefaultParameters() Parameters {
	return Parameters{
		PauseCycles:    0,
		WidthCycles:    10,
		GapCycles:      0,
		Count:          1,
		TriggerVariant: TriggerNone,
		TriggerEdge:    EdgeRising,
		TriggerByte:    0,
	}
}

var (
	errWidthZero = errors.New("glitch: width must be at least 1 cycle")
	errCountZero = errors.New("glitch: count must be at least 1")
	errByteRange = errors.New("glitch: trigger byte must be 0..255")
)

// SetPause validates and stores pause_cycles. Any non-negative value is
// accepted; there is no floor since a pause of zero cycles is meaningful
// (fire immediately after trigger acceptance).
func (p *Parameters) SetPause(cycles uint32) error {
	p.PauseCycles = cycles
	return nil
}

// SetWidth validates and stores width_cycles. Width must be positive.
func (p *Parameters) SetWidth(cycles uint32) error {
	if cycles == 0 {
		return errWidthZero
	}
	p.WidthCycles = cycles
	return nil
}

// SetGap validates and stores gap_cycles. Zero is a valid gap (back to back
// pulses).
func (p *Parameters) SetGap(cycles uint32) error {
	p.GapCycles = cycles
	return nil
}

// SetCount validates and stores the pulse count. Count must be at least 1.
func (p *Parameters) SetCount(count uint32) error {
	if count == 0 {
		return errCountZero
	}
	p.Count = count
	return nil
}

// SetTriggerByte validates and stores the byte the UART trigger compares
// against.
func (p *Parameters) SetTriggerByte(b uint32) error {
	if b > 0xff {
		return errByteRange
	}
	p.TriggerByte = byte(b)
	return nil
}

// compensatedWidthGap applies the pulse loop's fixed per-iteration overhead
// to width/gap, saturating width to a floor of 1 cycle and gap to a floor
// of 0 rather than underflowing.
// This is the "saturate to floor, never below 0" behavior the data model
// requires for width and gap.
func compensatedWidthGap(widthCycles, gapCycles uint32) (widthAdj, gapAdj uint32) {
	widthAdj = saturatingSub(widthCycles, pulseOverheadCycles)
	if widthAdj == 0 {
		widthAdj = 1
	}
	gapAdj = saturatingSub(gapCycles, pulseOverheadCycles)
	return widthAdj, gapAdj
}

func saturatingSub(a, b uint32) uint32 {
	if a <= b {
		return 0
	}
	return a - b
}

// fifoWords computes the four words the pulse engine FIFO expects, in load
// order: pause, count-1, width_adj, gap_adj.
func (p Parameters) fifoWords() [4]uint32 {
	widthAdj, gapAdj := compensatedWidthGap(p.WidthCycles, p.GapCycles)
	return [4]uint32{p.PauseCycles, p.Count - 1, widthAdj, gapAdj}
}
