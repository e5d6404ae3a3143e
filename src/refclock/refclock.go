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

// Package refclock wraps an optional si5351 external clock generator that
// the glitch clock generator sets to its requested frequency on the
// si5351's own output; the glitch clock generator's PIO output always
// divides the core clock. Absent hardware is not an error: Open reports it
// and callers carry on without a reference.
package refclock

import (
	"errors"
	"fmt"

	"machine"

	"github.com/chiefMarlin/tinygo-drivers/si5351"
)

const refOscillatorHz = 25e6

// Reference is a precision external clock source that the glitch clock
// generator sets to its requested frequency. It is optional: Open returns an error rather
// than panicking when no device answers on the bus, so callers can proceed
// without one.
type Reference struct {
	dev si5351.Device
}

// Open configures the given I2C bus and probes for an si5351 device. It
// returns an error (not a panic) if the device is absent or unresponsive,
// since the reference clock is an optional enhancement, not a required
// peripheral.
func Open(bus *machine.I2C) (*Reference, error) {
	if err := bus.Configure(machine.I2CConfig{}); err != nil {
		return nil, fmt.Errorf("refclock: i2c configure: %w", err)
	}

	dev := si5351.New(bus)
	connected, err := dev.Connected()
	if err != nil {
		return nil, fmt.Errorf("refclock: probe: %w", err)
	}
	if !connected {
		return nil, errors.New("refclock: no si5351 on bus")
	}
	if err := dev.Configure(); err != nil {
		return nil, fmt.Errorf("refclock: configure: %w", err)
	}
	return &Reference{dev: dev}, nil
}

// SetFrequency drives clock output 0 at the requested frequency, computing
// PLL and multisynth divider parameters to the precision described in
// computeDividers. It returns the frequency actually realized.
func (r *Reference) SetFrequency(target float64) (float64, error) {
	cfg, err := computeDividers(refOscillatorHz, 0, target)
	if err != nil {
		return 0, err
	}

	if err := r.dev.ConfigurePLL(si5351.PLL_A, uint8(cfg.a0), cfg.b0, cfg.c0); err != nil {
		return 0, fmt.Errorf("refclock: configure pll: %w", err)
	}
	div := cfg.a1 * cfg.r
	if err := r.dev.ConfigureMultisynth(0, si5351.PLL_A, div, cfg.b1, cfg.c1); err != nil {
		return 0, fmt.Errorf("refclock: configure multisynth: %w", err)
	}
	if err := r.dev.EnableOutputs(); err != nil {
		return 0, fmt.Errorf("refclock: enable outputs: %w", err)
	}
	return cfg.f, nil
}
