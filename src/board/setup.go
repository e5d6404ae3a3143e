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

package board

import (
	"fmt"
	"machine"
	"time"

	"glitch/src/refclock"
)

// Peripherals bundles the bring-up targets the rest of the firmware drives.
type Peripherals struct {
	Host     *machine.USBCDC
	Target   *machine.UART
	RefClock *refclock.Reference // nil if no si5351 answered the bus
}

// Setup brings up the host command surface, the target UART, and (best
// effort) the optional reference clock chip. It never fails outright: a
// missing reference clock is reported but does not prevent boot, matching
// the ambient stack's "peripheral init fault is reported, feature
// unavailable" error-handling policy.
func Setup() (*Peripherals, error) {
	time.Sleep(100 * time.Millisecond)

	host := machine.USBCDC
	if err := host.Configure(machine.UARTConfig{}); err != nil {
		return nil, fmt.Errorf("board: usb cdc configure: %w", err)
	}

	target := machine.UART0
	if err := target.Configure(machine.UARTConfig{
		BaudRate: TargetUARTBaud,
		TX:       TargetUARTTXPin,
		RX:       TargetUARTRXPin,
	}); err != nil {
		return nil, fmt.Errorf("board: target uart configure: %w", err)
	}

	TargetResetPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	TargetResetPin.Low()
	TargetPowerPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	TargetPowerPin.High()

	p := &Peripherals{Host: host, Target: target}

	ref, err := refclock.Open(machine.I2C0)
	if err != nil {
		fmt.Printf("board: reference clock unavailable: %s\n", err)
	} else {
		p.RefClock = ref
	}

	return p, nil
}
