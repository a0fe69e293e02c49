// Package simcontext defines the SimulationContext aggregate threaded
// through every SimulationMachine state: the assembled models, sync
// clock, trigger coordinator, and the mutable outcome/probe/interrupt
// state the states read and write as the machine runs.
package simcontext

import (
	"sync"

	"github.com/cloe-engine/cloe/internal/coordinator"
	"github.com/cloe-engine/cloe/internal/driver"
	"github.com/cloe-engine/cloe/internal/model"
	"github.com/cloe-engine/cloe/internal/plugin"
	"github.com/cloe-engine/cloe/internal/registrar"
	"github.com/cloe-engine/cloe/internal/simsync"
	"github.com/cloe-engine/cloe/internal/stack"
	"github.com/cloe-engine/cloe/internal/trigger"
)

// Interrupt is a pending asynchronous request to divert the machine
// off its nominal path (pause, resume, stop, succeed, fail, reset,
// abort). Only one is ever pending; a later one the running state
// hasn't observed yet replaces the earlier one except that ABORT can
// never be displaced.
type Interrupt string

const (
	InterruptNone    Interrupt = ""
	InterruptPause   Interrupt = "pause"
	InterruptResume  Interrupt = "resume"
	InterruptStop    Interrupt = "stop"
	InterruptSucceed Interrupt = "succeed"
	InterruptFail    Interrupt = "fail"
	InterruptReset   Interrupt = "reset"
	InterruptAbort   Interrupt = "abort"
)

// Participant pairs an enrolled Model with the role metadata the
// machine needs to order and address it: its kind, and for controllers
// the vehicle it drives.
type Participant struct {
	Model   model.Model
	Kind    string // "simulator", "controller", "component"
	Vehicle string // bound vehicle name, controllers only

	// Simulator is set alongside Model for Kind=="simulator", giving
	// PROBE access to the vehicle/component tree without a type
	// assertion back onto the generic model.Model interface.
	Simulator *model.Simulator
}

// SimulationContext is ctx in the transition table: the single mutable
// aggregate every state function reads and writes.
type SimulationContext struct {
	Stack       *stack.Stack
	Registry    *plugin.Registry
	Factory     *trigger.Factory
	Coordinator *coordinator.Coordinator
	Sync        *simsync.Sync
	Statistics  *simsync.Statistics
	Progress    *simsync.Progress
	Driver      driver.Adapter

	Participants []Participant

	// ProbeSimulation, when true, routes CONNECT to PROBE instead of
	// START (a dry-run that reports the assembled stack without
	// stepping it).
	ProbeSimulation bool

	// KeepAlive, when true, routes the terminal callbacks to
	// KEEP_ALIVE instead of straight to DISCONNECT.
	KeepAlive bool

	// PollingInterval governs PAUSE/KEEP_ALIVE sleep granularity and
	// how often suspension points re-check interrupts.
	PollingIntervalMillis int

	// ControllerRetrySleepMillis/ControllerRetryLimit govern
	// STEP_CONTROLLERS retry-on-stale-time behavior.
	ControllerRetrySleepMillis int
	ControllerRetryLimit       int
	AbortOnControllerFailure   bool

	mu              sync.Mutex
	outcome         Outcome
	pauseExecution  bool
	pendingInterrupt Interrupt
	errors          []string
	probe           map[string]any
	endpoints       []registrar.APIEndpoint
}

// New constructs a SimulationContext with outcome defaulted to Empty
// (the defensive "never reached a terminal state" sentinel).
func New(st *stack.Stack, reg *plugin.Registry, factory *trigger.Factory, coord *coordinator.Coordinator, sync *simsync.Sync) *SimulationContext {
	return &SimulationContext{
		Stack:       st,
		Registry:    reg,
		Factory:     factory,
		Coordinator: coord,
		Sync:        sync,
		Statistics:  &simsync.Statistics{},
		Progress:    simsync.New(),
		Driver:      driver.Null{},
		outcome:     OutcomeEmpty,
		probe:       map[string]any{},
	}
}

// Outcome returns the current terminal outcome (Empty until a state
// sets it).
func (c *SimulationContext) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// SetOutcome sets the outcome, but only if one hasn't already been
// set (matching "set outcome ... if not yet set" in the transition
// table — the first terminal state to run wins).
func (c *SimulationContext) SetOutcome(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcome == OutcomeEmpty {
		c.outcome = o
	}
}

// ForceOutcome overwrites the outcome unconditionally; used by ABORT,
// which always wins regardless of what earlier ran.
func (c *SimulationContext) ForceOutcome(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome = o
}

// PauseExecution reports whether the machine is currently in the
// paused state (set/cleared by PAUSE/RESUME interrupt handling).
func (c *SimulationContext) PauseExecution() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pauseExecution
}

func (c *SimulationContext) SetPauseExecution(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseExecution = v
}

// RaiseInterrupt records a pending interrupt. ABORT can never be
// displaced once set; any other interrupt overwrites whatever was
// pending (the machine only ever acts on the latest one).
func (c *SimulationContext) RaiseInterrupt(i Interrupt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingInterrupt == InterruptAbort {
		return
	}
	c.pendingInterrupt = i
}

// TakeInterrupt returns and clears the pending interrupt, or
// InterruptNone if none is pending.
func (c *SimulationContext) TakeInterrupt() Interrupt {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.pendingInterrupt
	c.pendingInterrupt = InterruptNone
	return i
}

// AddError appends a model-reported or internal error message to the
// context's error log, surfaced in the final SimulationResult.
func (c *SimulationContext) AddError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

// Errors returns a snapshot copy of the accumulated error log.
func (c *SimulationContext) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// SetProbe records one probe field (plugin table, component lists,
// trigger/event name sets, HTTP endpoints, signal metadata, driver
// report) for the PROBE state.
func (c *SimulationContext) SetProbe(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probe[key] = value
}

// Probe returns a snapshot copy of the accumulated probe data.
func (c *SimulationContext) Probe() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.probe))
	for k, v := range c.probe {
		out[k] = v
	}
	return out
}

// AddEndpoints records HTTP routes a model contributed during Enroll,
// for PROBE's http_endpoints listing and the dev server's route table.
func (c *SimulationContext) AddEndpoints(eps []registrar.APIEndpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoints = append(c.endpoints, eps...)
}

// Endpoints returns a snapshot copy of every registered HTTP route.
func (c *SimulationContext) Endpoints() []registrar.APIEndpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]registrar.APIEndpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// Simulators returns every participant of kind "simulator".
func (c *SimulationContext) Simulators() []Participant {
	return c.byKind("simulator")
}

// Controllers returns every participant of kind "controller".
func (c *SimulationContext) Controllers() []Participant {
	return c.byKind("controller")
}

func (c *SimulationContext) byKind(kind string) []Participant {
	var out []Participant
	for _, p := range c.Participants {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// RemoveController drops a persistently-failing controller from the
// participant list (the STEP_CONTROLLERS "remove the controller"
// outcome, chosen instead of ABORT when abort_on_controller_failure is
// false).
func (c *SimulationContext) RemoveController(name string) {
	out := c.Participants[:0]
	for _, p := range c.Participants {
		if p.Kind == "controller" && p.Model.Name() == name {
			continue
		}
		out = append(out, p)
	}
	c.Participants = out
}
