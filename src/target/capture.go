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

package target

import (
	"errors"
	"unsafe"

	"device/rp"
)

// captureSizeBits sizes the ring at 256 bytes (2^8): generous for a target
// response following a single glitch attempt without costing much RAM
// across a long unattended campaign.
const captureSizeBits = 8
const captureSize = 1 << captureSizeBits

var errNoDMAChannel = errors.New("target: no DMA channel available for capture")

// Capture free-runs a DMA channel from the target UART's RX data register
// into a fixed-size ring buffer, so the most recent bytes the target sent
// are always available for readback without the CPU polling the UART.
type Capture struct {
	ch  DmaChannel
	buf [captureSize]byte
}

// NewCapture claims a DMA channel and starts it pulling from the target
// UART's receive register into the capture ring.
func NewCapture() (*Capture, error) {
	ch, ok := ClaimChannel()
	if !ok {
		return nil, errNoDMAChannel
	}
	c := &Capture{ch: ch}

	hw := ch.HW()
	hw.CTRL_TRIG.ClearBits(rp.DMA_CH0_CTRL_TRIG_EN_Msk)
	hw.READ_ADDR.Set(uartRxDataRegisterAddress())
	hw.WRITE_ADDR.Set(uint32(uintptr(unsafe.Pointer(&c.buf[0]))))
	hw.TRANS_COUNT.Set(0xffffffff) // free-runs: ring wrap means this never exhausts in practice

	cc := DefaultRingCaptureConfig(ch.ChannelIndex(), captureSizeBits)
	cc.SetEnable(true)
	hw.CTRL_TRIG.Set(cc.CTRL)

	return c, nil
}

// Snapshot returns a copy of the ring buffer's current contents, oldest
// byte first, reconstructed from the DMA write pointer's current ring
// offset.
func (c *Capture) Snapshot() []byte {
	writeAddr := c.ch.HW().WRITE_ADDR.Get()
	base := uint32(uintptr(unsafe.Pointer(&c.buf[0])))
	offset := int(writeAddr - base)

	out := make([]byte, captureSize)
	copy(out, c.buf[offset:])
	copy(out[captureSize-offset:], c.buf[:offset])
	return out
}

func uartRxDataRegisterAddress() uint32 {
	return uint32(uintptr(unsafe.Pointer(&rp.UART0.UARTDR)))
}
