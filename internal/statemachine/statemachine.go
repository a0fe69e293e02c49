// Package statemachine implements the SimulationMachine: the sixteen
// named states driving a simulation from CONNECT through DISCONNECT,
// the interrupt slot that lets PAUSE/RESUME/STOP/SUCCEED/FAIL/RESET/
// ABORT divert the nominal flow, and the watchdog-timed execution of
// each state.
package statemachine

import (
	"context"
	"fmt"

	"github.com/cloe-engine/cloe/internal/simcontext"
	"github.com/cloe-engine/cloe/internal/watchdog"
)

// StateID names one of the sixteen SimulationMachine states. StateNone
// is the terminal sentinel: a state function returning it ends Run.
type StateID string

const (
	StateConnect         StateID = "CONNECT"
	StateStart           StateID = "START"
	StateStepBegin       StateID = "STEP_BEGIN"
	StateStepSimulators  StateID = "STEP_SIMULATORS"
	StateStepControllers StateID = "STEP_CONTROLLERS"
	StateStepEnd         StateID = "STEP_END"
	StatePause           StateID = "PAUSE"
	StateResume          StateID = "RESUME"
	StateSuccess         StateID = "SUCCESS"
	StateFail            StateID = "FAIL"
	StateStop            StateID = "STOP"
	StateKeepAlive       StateID = "KEEP_ALIVE"
	StateReset           StateID = "RESET"
	StateAbort           StateID = "ABORT"
	StateDisconnect      StateID = "DISCONNECT"
	StateProbe           StateID = "PROBE"
	StateNone            StateID = ""
)

// StateFunc is one state's run function: `StateId run(ctx)` in the
// transition table, Go-rendered with the SimulationContext as an
// explicit argument instead of an implicit receiver.
type StateFunc func(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error)

// Machine holds the state table and the watchdog that times each
// state's execution.
type Machine struct {
	states   map[StateID]StateFunc
	watchdog *watchdog.Watchdog
	onLog    func(string)
}

// New builds a Machine with the canonical state table (states.go) and
// the supplied watchdog. onLog receives informational messages states
// emit (e.g. a dropped controller, an unreachable command action); a
// nil onLog discards them.
func New(wd *watchdog.Watchdog, onLog func(string)) *Machine {
	if onLog == nil {
		onLog = func(string) {}
	}
	m := &Machine{watchdog: wd, onLog: onLog}
	m.states = defaultStates(m)
	return m
}

// Run drives the machine from initial until a state function returns
// StateNone: a pending interrupt is handled before the nominal state
// runs, taking precedence every
// iteration.
func (m *Machine) Run(ctx context.Context, sc *simcontext.SimulationContext, initial StateID) (StateID, error) {
	id := initial
	for id != StateNone {
		if interrupt := sc.TakeInterrupt(); interrupt != simcontext.InterruptNone {
			id = m.handleInterrupt(id, interrupt, sc)
			continue
		}

		fn, ok := m.states[id]
		if !ok {
			return id, fmt.Errorf("statemachine: no state function registered for %q", id)
		}

		next, err := m.runState(ctx, id, fn, sc)
		if err != nil {
			return id, err
		}
		id = next
	}
	return id, nil
}

// handleInterrupt implements "Interrupt handling is stateful for PAUSE
// and RESUME ...; for STOP/SUCCEED/FAIL/RESET/ABORT the machine
// transitions directly."
func (m *Machine) handleInterrupt(nominal StateID, i simcontext.Interrupt, sc *simcontext.SimulationContext) StateID {
	switch i {
	case simcontext.InterruptPause:
		sc.SetPauseExecution(true)
		return StatePause
	case simcontext.InterruptResume:
		sc.SetPauseExecution(false)
		return StateResume
	case simcontext.InterruptStop:
		return StateStop
	case simcontext.InterruptSucceed:
		return StateSuccess
	case simcontext.InterruptFail:
		return StateFail
	case simcontext.InterruptReset:
		return StateReset
	case simcontext.InterruptAbort:
		return StateAbort
	default:
		return nominal
	}
}

// runState executes fn under watchdog supervision. A watchdog timeout
// in mode abort or kill is turned into a transition straight to ABORT,
// matching "On timeout ... mode abort, return ABORT as the next state".
func (m *Machine) runState(ctx context.Context, id StateID, fn StateFunc, sc *simcontext.SimulationContext) (StateID, error) {
	var next StateID
	var stateErr error

	wrapped := func(ctx context.Context) error {
		next, stateErr = fn(ctx, sc)
		return stateErr
	}

	if err := m.watchdog.Run(ctx, string(id), wrapped); err != nil {
		if _, ok := err.(*watchdog.TimeoutError); ok {
			m.onLog(err.Error())
			return StateAbort, nil
		}
		return StateNone, err
	}
	return next, stateErr
}
