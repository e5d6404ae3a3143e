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
	"math"
	"testing"
)

var seed = int64(1)

func rand() float64 {
	seed = 25214903917*seed + 11
	return float64(seed&0xffff_ffff_ffff) / float64(1<<48)
}

func Test_accuracy(t *testing.T) {
	bands := [][]float64{ // representative target frequency ranges
		{1000000, 1000200},
		{3570000, 3570200},
		{10000000, 10000200},
		{25000000, 25000200},
		{50294400, 50294600},
		{144489900, 144490100},
	}
	for i := 0; i < len(bands); i++ {
		for f := bands[i][0]; f <= bands[i][1]; f += rand() * 0.2 {
			cfg, err := computeDividers(25e6, 0.0, f)
			if err != nil {
				t.Errorf("Error in computeDividers: %s", err)
			}
			if math.Abs(cfg.eps)/f > 1e-9 {
				t.Errorf("Big discrepancy: %.4f, %.2f vs %.2f", cfg.eps, cfg.f, f)
			}
		}
	}
}

func Test_range(t *testing.T) {
	for f := 1.0; f < 2300; f += 50 {
		_, err := computeDividers(25e6, 0.0, f)
		if err == nil {
			t.Errorf("Expected error in computeDividers due to low frequency: %.3f", f)
		}
	}
	for f := 2302.0; f < 200e6; f *= 1.2 {
		cfg, err := computeDividers(25e6, 0.0, f)
		if err != nil {
			t.Errorf("Error in computeDividers: %s", err)
		}
		if cfg.eps > 1e-3 {
			t.Errorf("Error in computeDividers: %.3f", cfg.eps)
		}
	}
}
