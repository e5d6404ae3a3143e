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
	"time"

	"glitch/src/board"
)

// PulseReset drives the target reset pin active for duration, then
// restores it to its idle (inactive) level. Polarity here is active-high;
// a target with active-low reset needs an external inverting buffer
// rather than a firmware reconfiguration, since the pin layout is a
// stable contract external host scripts depend on.
func PulseReset(duration time.Duration) {
	board.TargetResetPin.High()
	time.Sleep(duration)
	board.TargetResetPin.Low()
}

// SetPower turns target power on or off.
func SetPower(on bool) {
	board.TargetPowerPin.Set(on)
}
