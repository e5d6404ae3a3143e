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

// Package board holds the fixed pin layout and peripheral bring-up this
// firmware depends on. Exact pin numbers are configuration constants that
// external host scripts depend on being stable across firmware versions.
package board

import "machine"

// Pin layout (spec §6.4). Numbers are GP indices on the RP2040.
const (
	GlitchOutPin         = machine.Pin(6) // normal-polarity pulse output
	GlitchOutInvertedPin = machine.Pin(7) // inverted-polarity pulse output, pad-level invert
	TriggerInPin         = machine.Pin(8) // GPIO edge trigger input, pulled up
	TargetUARTRXPin      = machine.Pin(9) // shared with the UART byte-match PIO program
	TargetUARTTXPin      = machine.Pin(12)
	FireSignalPin        = machine.Pin(13) // driven by the resident trigger program
	ArmedSignalPin       = machine.Pin(14) // driven by the CPU
	ClockOutPin          = machine.Pin(15) // clock generator output

	TargetResetPin = machine.Pin(16)
	TargetPowerPin = machine.Pin(17)

	RefClockSDAPin = machine.Pin(4) // optional si5351 reference oscillator
	RefClockSCLPin = machine.Pin(5)
)

// TargetUARTBaud is the target-facing UART's fixed baud rate. The UART
// byte-match trigger derives its 8x oversample divider from this value,
// per the open question in the design notes: baud is not exposed as an
// independent trigger parameter, it tracks the target UART configuration.
const TargetUARTBaud = 115200
