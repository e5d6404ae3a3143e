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

import "machine"

// Link bundles the target-facing UART and its background response
// capture into the one handle the command surface talks to.
type Link struct {
	uart    *machine.UART
	capture *Capture
}

// Open wraps an already-configured target UART with a free-running
// response capture. Reset/power bring-up happens separately via
// PulseReset/SetPower, since those touch pins outside the UART.
func Open(uart *machine.UART) (*Link, error) {
	capture, err := NewCapture()
	if err != nil {
		return nil, err
	}
	return &Link{uart: uart, capture: capture}, nil
}

// Write sends data to the target over its UART.
func (l *Link) Write(data []byte) (int, error) {
	return l.uart.Write(data)
}

// Capture returns the most recent bytes the target has sent, oldest first.
func (l *Link) Capture() []byte {
	return l.capture.Snapshot()
}
