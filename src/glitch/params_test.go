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

package glitch

import "testing"

func TestSetWidthRejectsZero(t *testing.T) {
	p := DefaultParameters()
	if err := p.SetWidth(0); err != errWidthZero {
		t.Fatalf("SetWidth(0) = %v, want errWidthZero", err)
	}
}

func TestSetCountRejectsZero(t *testing.T) {
	p := DefaultParameters()
	if err := p.SetCount(0); err != errCountZero {
		t.Fatalf("SetCount(0) = %v, want errCountZero", err)
	}
}

func TestSetTriggerByteRange(t *testing.T) {
	p := DefaultParameters()
	if err := p.SetTriggerByte(0xff); err != nil {
		t.Fatalf("SetTriggerByte(0xff) = %v, want nil", err)
	}
	if err := p.SetTriggerByte(0x100); err != errByteRange {
		t.Fatalf("SetTriggerByte(0x100) = %v, want errByteRange", err)
	}
}

func TestCompensatedWidthGapSaturatesToFloor(t *testing.T) {
	tests := []struct {
		width, gap         uint32
		wantWidth, wantGap uint32
	}{
		{width: 150, gap: 1500, wantWidth: 150 - pulseOverheadCycles, wantGap: 1500 - pulseOverheadCycles},
		{width: 1, gap: 0, wantWidth: 1, wantGap: 0},
		{width: pulseOverheadCycles, gap: pulseOverheadCycles, wantWidth: 1, wantGap: 0},
	}
	for _, tt := range tests {
		gotWidth, gotGap := compensatedWidthGap(tt.width, tt.gap)
		if gotWidth != tt.wantWidth || gotGap != tt.wantGap {
			t.Errorf("compensatedWidthGap(%d, %d) = (%d, %d), want (%d, %d)",
				tt.width, tt.gap, gotWidth, gotGap, tt.wantWidth, tt.wantGap)
		}
	}
}

func TestFifoWordsLoadOrder(t *testing.T) {
	p := DefaultParameters()
	p.PauseCycles = 1500
	p.WidthCycles = 150
	p.GapCycles = 1500
	p.Count = 3

	words := p.fifoWords()
	want := [4]uint32{1500, 2, 150 - pulseOverheadCycles, 1500 - pulseOverheadCycles}
	if words != want {
		t.Fatalf("fifoWords() = %v, want %v", words, want)
	}
}
