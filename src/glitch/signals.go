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
	"device/rp"
	"machine"
	"runtime/volatile"
	"unsafe"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

// sharePinAsInput sets blk's input-synchronizer bypass bit for pin, the
// explicit "share this pad as input to block X" step. It is applied to the
// shared UART RX pad each time LoadTrigger loads the UART byte-match
// program, and to FireSignal once when the clock generator is constructed;
// nothing clears the bit again.
func sharePinAsInput(blk *pio.PIO, pin machine.Pin) {
	mask := uint32(1) << uint(pin)
	blk.SetInputSyncBypassMasked(mask, mask)
}

// ioBank0CtrlStride is the byte offset between consecutive pins'
// IO_BANK0 GPIOx_CTRL registers (each pin's block is STATUS then CTRL, 4
// bytes apiece). device/rp only exposes GPIO0's registers by name; every
// other pin's is found by indexing off of it.
const ioBank0CtrlStride = 8

// outoverInvert is the GPIOx_CTRL.OUTOVER encoding that drives the pad with
// the peripheral's output signal inverted, regardless of which peripheral
// function is selected.
const outoverInvert = 1

func gpioCtrl(pin machine.Pin) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(unsafe.Pointer(&rp.IO_BANK0.GPIO0_CTRL)) + uintptr(pin)*ioBank0CtrlStride))
}

// invertPadOutput sets pin's GPIOx_CTRL.OUTOVER field so its pad mirrors,
// bit-inverted, whatever its assigned peripheral function drives onto it.
// Used to give the pulse engine's inverted-polarity output pin a hardware
// invert of the normal-polarity pin's signal without a second PIO program:
// both pins sit in the same "set pins" group and transition on the same
// clock edge, with no skew, per spec §4.1.
func invertPadOutput(pin machine.Pin) {
	gpioCtrl(pin).ReplaceBits(outoverInvert, rp.IO_BANK0_GPIO0_CTRL_OUTOVER_Msk>>rp.IO_BANK0_GPIO0_CTRL_OUTOVER_Pos, rp.IO_BANK0_GPIO0_CTRL_OUTOVER_Pos)
}

// armedSignal drives the ArmedSignal pad directly from the CPU; no PIO
// program ever writes it.
type armedSignal struct {
	pin machine.Pin
}

func newArmedSignal(pin machine.Pin) armedSignal {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return armedSignal{pin: pin}
}

func (a armedSignal) Set(on bool) {
	a.pin.Set(on)
}
