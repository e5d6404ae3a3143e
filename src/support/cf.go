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

package support

/*
Finds the best approximation c/d ≈ a/b such that d <= max_denominator

Returns c, d and the error a/b - c/d as floating point.

The method used is by creating terms of a continued fraction until the denominator
of the rational value of the confinued fraction would be too big.

This is used to turn a requested clock-generator frequency into the closest
divider the hardware can actually produce. The RP2040 PIO clock divider and
the si5351 multisynth divider are both of the form a+b/c with c bounded by a
fixed bit width; picking c at its maximum always fits but throws away
precision. Nearest fraction search finds the c beneath the limit that makes
the requested frequency and the realized frequency agree to within a small
fraction of a Hz instead of tens of Hz.
*/

func NearestFraction(a, b, max_denominator uint64) (c, d uint64, eps float64) {
	c, d = continuedFraction(a, b, 0, 1, max_denominator)
	eps = float64(a)/float64(b) - float64(c)/float64(d)
	return c, d, eps
}

/*
Finds a continued fraction approximation for a/b. Returns the rational value
of the continued fraction expressed as two integers.

We compute the continued fraction recursively. Any rational a/b can be written
as

	cf(a, b) = floor(a/b) + rem(a/b) / b

But that second term can be inverted so we have

	cf(a, b) = floor(a/b) + 1 / cf(b, rem(a/b))

It isn't obvious, but these continued fractions approximations are the best
rational approximations for the resulting denominator. The only tricks left is
when to quit and how to compute the rational representation as we back out of
the recursion. We decide to terminate when the denominator would exceed our limit,
but in order to know that, we have to accumulate two extra numbers e, f which should
start at 0 and 1, respectively.
*/
func continuedFraction(a, b, e, f, max_denominator uint64) (c, d uint64) {
	term := a / b
	denom := f + term*e
	if denom > max_denominator {
		return 1, 0
	} else {
		ax := a - term*b
		// a / b = term + ax / b
		if ax == 0 {
			return term, 1
		} else {
			// a / b = term + ax/b = term + 1 / cf(b, ax),
			// cx/dx = cf(b, ax)
			// a / b = term + dx / cx = (term*cx + dx) / cx
			cx, dx := continuedFraction(b, ax, denom, e, max_denominator)
			return term*cx + dx, cx
		}
	}
}
