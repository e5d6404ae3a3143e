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

// ClockController is the CLOCK-verb-facing seam: configuring the glitch
// clock generator's frequency/boost and sampling its actual output rate
// are administrative operations outside the arm/disarm lifecycle, so they
// live on their own small interface rather than engine.
type ClockController interface {
	ConfigureClock(cfg ClockConfig) error
	MeasureClockHz() float64
}
