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

// fakeEngine records calls and lets tests control PulseFIFOEmpty/LoadTrigger
// without touching real PIO hardware.
type fakeEngine struct {
	calls          []string
	armedSignal    bool
	fifoEmpty      bool
	loadTriggerErr error
	loadedFIFO     [4]uint32
}

func (f *fakeEngine) ClearFireSignal()  { f.calls = append(f.calls, "ClearFireSignal") }
func (f *fakeEngine) DisableTrigger()   { f.calls = append(f.calls, "DisableTrigger") }
func (f *fakeEngine) UnloadTrigger()    { f.calls = append(f.calls, "UnloadTrigger") }
func (f *fakeEngine) LoadTrigger(variant TriggerVariant, edge Edge, triggerByte byte) error {
	f.calls = append(f.calls, "LoadTrigger")
	return f.loadTriggerErr
}
func (f *fakeEngine) ClearFireIRQ()     { f.calls = append(f.calls, "ClearFireIRQ") }
func (f *fakeEngine) ResetPulseEngine() { f.calls = append(f.calls, "ResetPulseEngine") }
func (f *fakeEngine) LoadPulseFIFO(words [4]uint32) {
	f.calls = append(f.calls, "LoadPulseFIFO")
	f.loadedFIFO = words
}
func (f *fakeEngine) EnablePulse()   { f.calls = append(f.calls, "EnablePulse") }
func (f *fakeEngine) EnableTrigger() { f.calls = append(f.calls, "EnableTrigger") }
func (f *fakeEngine) LoadClockBoost(halfPeriods uint32) {
	f.calls = append(f.calls, "LoadClockBoost")
}
func (f *fakeEngine) SetArmedSignal(on bool) {
	f.calls = append(f.calls, "SetArmedSignal")
	f.armedSignal = on
}
func (f *fakeEngine) ManualFire()          { f.calls = append(f.calls, "ManualFire") }
func (f *fakeEngine) PulseFIFOEmpty() bool { return f.fifoEmpty }
func (f *fakeEngine) DisablePulse()        { f.calls = append(f.calls, "DisablePulse") }

func TestArmThenDisarmIsIdempotent(t *testing.T) {
	hw := &fakeEngine{}
	c := NewController(hw)

	if c.State() != Disarmed {
		t.Fatalf("initial state = %v, want Disarmed", c.State())
	}

	if err := c.Arm(); err != nil {
		t.Fatalf("Arm() = %v, want nil", err)
	}
	if c.State() != Armed {
		t.Fatalf("state after Arm = %v, want Armed", c.State())
	}
	if !hw.armedSignal {
		t.Fatal("ArmedSignal not raised after Arm")
	}

	// Disarm while Disarmed must have no observable effect (invariant 8).
	c.Disarm()
	before := len(hw.calls)
	c.Disarm()
	if len(hw.calls) == before {
		t.Fatal("second Disarm recorded no calls at all, test fixture broken")
	}
	if c.State() != Disarmed {
		t.Fatalf("state after double disarm = %v, want Disarmed", c.State())
	}
	if hw.armedSignal {
		t.Fatal("ArmedSignal still raised after Disarm")
	}
}

func TestArmWhileArmedFails(t *testing.T) {
	hw := &fakeEngine{}
	c := NewController(hw)
	if err := c.Arm(); err != nil {
		t.Fatalf("first Arm() = %v, want nil", err)
	}
	if err := c.Arm(); err != errAlreadyArmed {
		t.Fatalf("second Arm() = %v, want errAlreadyArmed", err)
	}
}

func TestManualFireRequiresArmedAndNoTrigger(t *testing.T) {
	hw := &fakeEngine{}
	c := NewController(hw)

	if err := c.ManualFire(); err != errNotArmed {
		t.Fatalf("ManualFire() while disarmed = %v, want errNotArmed", err)
	}

	if err := c.SetTrigger(TriggerGpioEdge, EdgeRising, 0); err != nil {
		t.Fatalf("SetTrigger() = %v", err)
	}
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm() = %v", err)
	}
	if err := c.ManualFire(); err != errManualFireOnly {
		t.Fatalf("ManualFire() with GPIO trigger armed = %v, want errManualFireOnly", err)
	}
}

func TestManualFireCompletesAndIncrementsCounter(t *testing.T) {
	hw := &fakeEngine{}
	c := NewController(hw)
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm() = %v", err)
	}
	if err := c.ManualFire(); err != nil {
		t.Fatalf("ManualFire() = %v", err)
	}
	if c.State() != Disarmed {
		t.Fatalf("state after manual fire = %v, want Disarmed", c.State())
	}
	if c.FiredCount() != 1 {
		t.Fatalf("FiredCount() = %d, want 1", c.FiredCount())
	}
	if hw.armedSignal {
		t.Fatal("ArmedSignal still high after manual fire completion")
	}
}

func TestTickAutoDisarmsOnFIFODrain(t *testing.T) {
	hw := &fakeEngine{}
	c := NewController(hw)
	if err := c.SetTrigger(TriggerGpioEdge, EdgeRising, 0); err != nil {
		t.Fatalf("SetTrigger() = %v", err)
	}
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm() = %v", err)
	}

	c.Tick() // fifo still loaded, nothing to observe yet
	if c.State() != Armed {
		t.Fatalf("state after no-op tick = %v, want Armed", c.State())
	}

	hw.fifoEmpty = true
	c.Tick()
	if c.State() != Disarmed {
		t.Fatalf("state after fifo-drain tick = %v, want Disarmed", c.State())
	}
	if c.FiredCount() != 1 {
		t.Fatalf("FiredCount() = %d, want 1", c.FiredCount())
	}
}

func TestParameterWriteRejectedWhileArmed(t *testing.T) {
	hw := &fakeEngine{}
	c := NewController(hw)
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm() = %v", err)
	}
	if err := c.SetWidth(100); err != errArmedParamWrite {
		t.Fatalf("SetWidth() while armed = %v, want errArmedParamWrite", err)
	}
}

func TestResetPulseFIFOLoadOrder(t *testing.T) {
	hw := &fakeEngine{}
	c := NewController(hw)
	if err := c.SetPause(10); err != nil {
		t.Fatal(err)
	}
	if err := c.SetWidth(150); err != nil {
		t.Fatal(err)
	}
	if err := c.SetGap(0); err != nil {
		t.Fatal(err)
	}
	if err := c.SetCount(3); err != nil {
		t.Fatal(err)
	}
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm() = %v", err)
	}
	want := [4]uint32{10, 2, 150 - pulseOverheadCycles, 0}
	if hw.loadedFIFO != want {
		t.Fatalf("loaded FIFO = %v, want %v", hw.loadedFIFO, want)
	}
}

func TestArmRejectedOnResourceExhaustion(t *testing.T) {
	hw := &fakeEngine{loadTriggerErr: errNoInstrRoom}
	c := NewController(hw)
	if err := c.SetTrigger(TriggerUartByte, EdgeRising, 0x0d); err != nil {
		t.Fatal(err)
	}
	if err := c.Arm(); err != errNoInstrRoom {
		t.Fatalf("Arm() = %v, want errNoInstrRoom", err)
	}
	if c.State() != Disarmed {
		t.Fatalf("state after failed arm = %v, want Disarmed", c.State())
	}
}
