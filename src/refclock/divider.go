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

package refclock

import (
	"errors"
	"fmt"
	"math"

	"glitch/src/support"
)

// dividerConfig holds the PLL and multisynth fractional divider parameters
// for an si5351 clock generator output: f0 * (a0 + b0/c0) / ((a1 + b1/c1) * r)
type dividerConfig struct {
	f0, pll, f                float64
	a0, b0, c0, a1, b1, c1, r uint32
	eps                       float64
}

// computeDividers finds PLL and multisynth divider parameters that realize
// f as closely as possible starting from reference oscillator f0. If pll is
// zero a suitable PLL frequency is chosen automatically.
//
// This is the same fractional-divider search the si5351 and RP2040 PIO clock
// dividers both need: express a ratio as a+b/c with c bounded by the
// hardware's register width, using support.NearestFraction to pick the best
// c beneath that bound.
func computeDividers(f0, pll, f float64) (dividerConfig, error) {
	if f0 < 10e6 || f0 > 27e6 {
		return dividerConfig{}, errors.New("refclock: invalid reference oscillator frequency")
	}
	if f > 200e6 {
		return dividerConfig{}, errors.New("refclock: output frequency > 200MHz")
	}

	if f > 150e6 {
		pll = 4 * f
	} else if f >= 100e6 {
		pll = 6 * f
	} else if pll == 0 {
		if f < 5e6 {
			pll = 600e6
		} else {
			pll = 800e6
		}
	} else if pll < 600e6 || pll > 900e6 {
		return dividerConfig{}, errors.New("refclock: pll frequency out of range")
	}

	z := pll / f0
	if z < 15 || z > 90 {
		return dividerConfig{}, errors.New("refclock: pll feedback ratio out of range")
	}

	b, c, _ := support.NearestFraction(uint64(z*1e12), 1_000_000_000_000, 1<<20)
	r := dividerConfig{
		f0:  f0,
		pll: pll,
		f:   f,
		a0:  uint32(b / c),
		b0:  uint32(b % c),
		c0:  uint32(c),
	}

	z = f0 * (float64(r.a0) + float64(r.b0)/float64(r.c0)) / f
	if !near(z, 4, 1e-9) && !near(z, 6, 1e-9) && z < 8 {
		return dividerConfig{}, fmt.Errorf("refclock: output multisynth ratio too small: %.5g", z-6)
	}
	r.r = 1
	for z/float64(r.r) > 2048 && r.r <= 128 {
		r.r = r.r * 2
	}
	if r.r > 128 {
		return dividerConfig{}, errors.New("refclock: output divider too large, frequency too low")
	}
	b, c, _ = support.NearestFraction(uint64(z*1e12/float64(r.r)), 1_000_000_000_000, 1<<20)
	r.a1 = uint32(b / c)
	r.b1 = uint32(b % c)
	r.c1 = uint32(c)

	r.f = f0 * (float64(r.a0) + float64(r.b0)/float64(r.c0)) / ((float64(r.a1) + float64(r.b1)/float64(r.c1)) * float64(r.r))
	r.eps = f - r.f
	if math.Abs(r.eps)/f > 1e-9 {
		return dividerConfig{}, errors.New("refclock: residual frequency error out of range")
	}
	return r, nil
}

func near(a float64, b float64, eps float64) bool {
	return math.Abs(a-b) <= eps
}
