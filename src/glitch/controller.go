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

import "errors"

// ArmState is the lifecycle state of a single glitch campaign. Fired is
// transient: completeFire increments FiredCount and moves on to Disarmed in
// the same step, so State, FiredCount and Tick never observe it.
type ArmState uint8

const (
	Disarmed ArmState = iota
	Armed
	Fired
)

func (s ArmState) String() string {
	switch s {
	case Disarmed:
		return "DISARMED"
	case Armed:
		return "ARMED"
	case Fired:
		return "FIRED"
	default:
		return "UNKNOWN"
	}
}

var (
	errAlreadyArmed    = errors.New("glitch: already armed")
	errNotArmed        = errors.New("glitch: manual fire requires armed state")
	errManualFireOnly  = errors.New("glitch: manual fire requires trigger variant NONE")
	errNoInstrRoom     = errors.New("glitch: no room for trigger program")
	errArmedParamWrite = errors.New("glitch: parameters are immutable while armed")
)

// engine is the hardware-facing seam the controller drives through the
// arm/disarm lifecycle. The rp2040 build provides pioEngine; tests provide
// a recording fake so the state machine logic here can be exercised on the
// host without touching real PIO hardware.
type engine interface {
	// ClearFireSignal drives the FireSignal pad LOW.
	ClearFireSignal()
	// DisableTrigger disables and clears the FIFO of any resident trigger
	// state machine; a no-op if none is resident.
	DisableTrigger()
	// UnloadTrigger removes any previously-resident trigger program from
	// instruction memory.
	UnloadTrigger()
	// LoadTrigger loads the PIO program for variant (a no-op for
	// TriggerNone) and reports resource exhaustion.
	LoadTrigger(variant TriggerVariant, edge Edge, triggerByte byte) error
	// ClearFireIRQ clears any pending FIRE-IRQ flag.
	ClearFireIRQ()
	// ResetPulseEngine configures, clears, and restarts the pulse engine
	// state machine, leaving it disabled.
	ResetPulseEngine()
	// LoadPulseFIFO pushes the four pulse parameter words in load order.
	LoadPulseFIFO(words [4]uint32)
	// EnablePulse enables the pulse engine state machine.
	EnablePulse()
	// EnableTrigger enables the resident trigger state machine, if any.
	EnableTrigger()
	// LoadClockBoost restarts the clock generator's session with a fresh
	// budget of halfPeriods boosted half-periods armed against the next
	// FireSignal sample, a no-op if the clock generator is disabled.
	LoadClockBoost(halfPeriods uint32)
	// SetArmedSignal drives the ArmedSignal pad.
	SetArmedSignal(on bool)
	// ManualFire spawns the one-shot FIRE-IRQ helper program, blocking
	// until it has run.
	ManualFire()
	// PulseFIFOEmpty reports whether the pulse engine's FIFO has fully
	// drained, the auto-disarm completion signal.
	PulseFIFOEmpty() bool
	// DisablePulse disables the pulse engine state machine.
	DisablePulse()
}

// Controller is the lifecycle authority over PIO resources and ArmState,
// per the arm/disarm sequence. It owns Parameters and holds them immutable
// while Armed.
type Controller struct {
	params    Parameters
	state     ArmState
	firedCnt  uint64
	lastError string
	hw        engine
}

// NewController returns a Controller driving the given hardware engine,
// starting Disarmed with default parameters.
func NewController(hw engine) *Controller {
	return &Controller{params: DefaultParameters(), hw: hw}
}

// State returns the current ArmState, first collapsing a transient Fired
// observation to Disarmed — the same collapse Tick performs.
func (c *Controller) State() ArmState {
	c.collapseFired()
	return c.state
}

// FiredCount returns the number of glitches completed since boot.
func (c *Controller) FiredCount() uint64 {
	c.collapseFired()
	return c.firedCnt
}

// Parameters returns a copy of the current parameters.
func (c *Controller) Parameters() Parameters {
	return c.params
}

// LastError returns the message from the most recently failed operation,
// or the empty string if none has failed yet, for the ERROR verb.
func (c *Controller) LastError() string {
	return c.lastError
}

func (c *Controller) fail(err error) error {
	c.lastError = err.Error()
	return err
}

// mutateParams runs fn against the parameters if Disarmed, rejecting the
// write while Armed or Fired per invariant 6 ("no writes while Armed").
// This repo chooses reject-with-error over defer-until-next-arm.
func (c *Controller) mutateParams(fn func(*Parameters) error) error {
	if c.state != Disarmed {
		return c.fail(errArmedParamWrite)
	}
	if err := fn(&c.params); err != nil {
		return c.fail(err)
	}
	return nil
}

func (c *Controller) SetPause(cycles uint32) error {
	return c.mutateParams(func(p *Parameters) error { return p.SetPause(cycles) })
}

func (c *Controller) SetWidth(cycles uint32) error {
	return c.mutateParams(func(p *Parameters) error { return p.SetWidth(cycles) })
}

func (c *Controller) SetGap(cycles uint32) error {
	return c.mutateParams(func(p *Parameters) error { return p.SetGap(cycles) })
}

func (c *Controller) SetCount(count uint32) error {
	return c.mutateParams(func(p *Parameters) error { return p.SetCount(count) })
}

// SetTrigger selects the trigger variant and its edge/byte argument. Like
// the other setters this is rejected while Armed.
func (c *Controller) SetTrigger(variant TriggerVariant, edge Edge, triggerByte uint32) error {
	return c.mutateParams(func(p *Parameters) error {
		if variant == TriggerUartByte {
			if err := p.SetTriggerByte(triggerByte); err != nil {
				return err
			}
		}
		p.TriggerVariant = variant
		p.TriggerEdge = edge
		return nil
	})
}

// Arm executes the Disarmed → Armed sequence (spec §4.3 steps 1-12).
func (c *Controller) Arm() error {
	if c.state == Armed {
		return c.fail(errAlreadyArmed)
	}
	c.collapseFired()
	if c.state == Armed {
		return c.fail(errAlreadyArmed)
	}

	c.hw.ClearFireSignal()
	c.hw.DisableTrigger()
	c.hw.UnloadTrigger()

	if err := c.hw.LoadTrigger(c.params.TriggerVariant, c.params.TriggerEdge, c.params.TriggerByte); err != nil {
		return c.fail(errNoInstrRoom)
	}

	c.hw.ClearFireIRQ()
	c.hw.ResetPulseEngine()
	c.hw.LoadPulseFIFO(c.params.fifoWords())
	c.hw.EnablePulse()
	c.hw.EnableTrigger()
	c.hw.LoadClockBoost(c.params.Count)
	c.hw.SetArmedSignal(true)

	c.state = Armed
	return nil
}

// Disarm executes the disarm sequence from any state. It is idempotent:
// calling it while already Disarmed has no observable effect.
func (c *Controller) Disarm() {
	c.hw.SetArmedSignal(false)
	c.hw.DisablePulse()
	c.hw.DisableTrigger()
	c.hw.ClearFireIRQ()
	c.state = Disarmed
}

// ManualFire spawns the manual-fire helper. Only valid from Armed with
// TriggerNone selected.
func (c *Controller) ManualFire() error {
	c.collapseFired()
	if c.state != Armed {
		return c.fail(errNotArmed)
	}
	if c.params.TriggerVariant != TriggerNone {
		return c.fail(errManualFireOnly)
	}
	c.hw.ManualFire()
	c.completeFire()
	return nil
}

// Tick polls for glitch completion and performs the auto-disarm transition.
// Call it regularly from the main loop; it is the only place ArmState
// advances from Armed to Fired/Disarmed for the automatic triggers.
func (c *Controller) Tick() {
	c.collapseFired()
	if c.state != Armed {
		return
	}
	if c.params.TriggerVariant == TriggerNone {
		return
	}
	if c.hw.PulseFIFOEmpty() {
		c.completeFire()
	}
}

// completeFire performs the Armed → Fired → Disarmed collapse: disables
// the state machines, increments FiredCount, and returns to Disarmed.
func (c *Controller) completeFire() {
	c.state = Fired
	c.hw.DisablePulse()
	c.hw.DisableTrigger()
	c.hw.SetArmedSignal(false)
	c.firedCnt++
	c.state = Disarmed
}

// collapseFired advances a transient Fired observation to Disarmed. In
// this implementation completeFire already performs the collapse inline,
// so Fired is never actually observed externally; collapseFired exists so
// State()/FiredCount()/Tick() share one idempotent entry point per the
// data model's "next read or poll collapses Fired -> Disarmed" contract.
func (c *Controller) collapseFired() {
	if c.state == Fired {
		c.state = Disarmed
	}
}

// Reset disarms and reverts parameters to their defaults, per the RESET
// verb. FiredCount is not reset; it is a monotonic since-boot counter.
func (c *Controller) Reset() {
	c.Disarm()
	c.params = DefaultParameters()
	c.lastError = ""
}
