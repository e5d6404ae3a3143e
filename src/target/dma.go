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

// Package target drives the glitch target's reset/power pins and captures
// its UART responses into a free-running DMA ring buffer, so a read-back
// is always available without the CPU having to babysit the UART FIFO.
package target

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"
)

var _DMA = &dmaArbiter{}

type dmaArbiter struct {
	claimedChannels uint16
}

// ClaimChannel returns a DMA channel that can be used for the capture ring.
func ClaimChannel() (channel DmaChannel, ok bool) {
	return _DMA.claimChannel()
}

func (arb *dmaArbiter) claimChannel() (channel DmaChannel, ok bool) {
	for i := uint8(0); i < 12; i++ {
		ch := arb.Channel(i)
		if ch.TryClaim() {
			return ch, true
		}
	}
	return DmaChannel{}, false
}

func (arb *dmaArbiter) Channel(channel uint8) DmaChannel {
	if channel > 11 {
		panic("invalid DMA channel")
	}
	var dmaChannels = (*[12]dmaChannelHW)(unsafe.Pointer(rp.DMA))
	return DmaChannel{hw: &dmaChannels[channel], arb: arb, idx: channel}
}

type DmaChannel struct {
	hw  *dmaChannelHW
	arb *dmaArbiter
	idx uint8
}

func (ch DmaChannel) TryClaim() bool {
	ch.mustValid()
	if ch.IsClaimed() {
		return false
	}
	ch.arb.claimedChannels |= 1 << ch.idx
	return true
}

func (ch DmaChannel) Unclaim() {
	ch.mustValid()
	ch.arb.claimedChannels &^= 1 << ch.idx
}

func (ch DmaChannel) IsClaimed() bool {
	ch.mustValid()
	return ch.arb.claimedChannels&(1<<ch.idx) != 0
}

func (ch DmaChannel) IsValid() bool {
	return ch.hw != nil && ch.arb == _DMA
}

func (ch DmaChannel) ChannelIndex() uint8 { return ch.idx }

func (ch DmaChannel) HW() *dmaChannelHW { return ch.hw }

func (ch DmaChannel) mustValid() {
	if !ch.IsValid() {
		panic("use of unclaimed DMA channel")
	}
}

//goland:noinspection GoSnakeCaseUsage
type dmaChannelHW struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	_           [12]volatile.Register32 // aliases
}

func (ch DmaChannel) Busy() bool {
	return ch.HW().CTRL_TRIG.Get()&rp.DMA_CH0_CTRL_TRIG_BUSY != 0
}

type DmaTxSize uint32

const (
	DmaTxSize8 DmaTxSize = iota
	DmaTxSize16
	DmaTxSize32
)

// dreqUART0RX is the target UART's receive data request signal, the only
// DREQ this package drives a DMA channel from.
const dreqUART0RX = 0x15

type dmaChannelConfig struct {
	CTRL uint32
}

// DefaultRingCaptureConfig builds a config for a free-running, paced,
// write-ring DMA channel: increment the write pointer within a
// 2^sizeBits-byte ring, never increment the read pointer (it always
// re-reads the UART's single data register), and re-trigger itself
// (chain to itself) forever.
func DefaultRingCaptureConfig(channel uint8, sizeBits uint32) (cc dmaChannelConfig) {
	cc.SetRing(true, sizeBits)
	cc.SetIRQQuiet(true)
	cc.SetReadIncrement(false)
	cc.SetWriteIncrement(true)
	cc.SetChainTo(channel)
	cc.SetTREQ_SEL(dreqUART0RX)
	cc.SetTransferDataSize(DmaTxSize8)
	return cc
}

func (cc *dmaChannelConfig) SetTREQ_SEL(dreq uint32) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Msk)) | (dreq << rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Pos)
}

func (cc *dmaChannelConfig) SetChainTo(chainTo uint8) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Msk)) | (uint32(chainTo) << rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Pos)
}

func (cc *dmaChannelConfig) SetTransferDataSize(size DmaTxSize) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Msk)) | (uint32(size) << rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Pos)
}

// SetRing configures either the read or write address to wrap within a
// 2^sizeBits-byte aligned region.
func (cc *dmaChannelConfig) SetRing(write bool, sizeBits uint32) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_RING_SIZE_Msk)) |
		(sizeBits << rp.DMA_CH0_CTRL_TRIG_RING_SIZE_Pos)
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_RING_SEL_Pos, write)
}

func (cc *dmaChannelConfig) SetReadIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_READ_Pos, incr)
}

func (cc *dmaChannelConfig) SetWriteIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_WRITE_Pos, incr)
}

func (cc *dmaChannelConfig) SetIRQQuiet(irqQuiet bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_IRQ_QUIET_Pos, irqQuiet)
}

func (cc *dmaChannelConfig) SetEnable(enable bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_EN_Pos, enable)
}

func setBitPos(cc *uint32, pos uint32, bit bool) {
	if bit {
		*cc = *cc | (1 << pos)
	} else {
		*cc = *cc &^ (1 << pos)
	}
}
