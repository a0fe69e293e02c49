// Package model defines the abstract Model participant and its four
// concrete roles (Simulator, Vehicle, Component, Controller).
package model

import (
	"context"
	"net/http"
	"time"
)

// Phase names the points in a Model's lifecycle, matching the Data
// Model's state sequence: constructed → connect → enroll(registrar) →
// start(sync) → process(sync)* → stop(sync) → disconnect → destroyed,
// with pause/resume/reset/abort available off that main path.
type Phase string

const (
	PhaseConstructed Phase = "constructed"
	PhaseConnected   Phase = "connected"
	PhaseStarted     Phase = "started"
	PhaseStopped     Phase = "stopped"
	PhaseDisconnected Phase = "disconnected"
	PhaseDestroyed   Phase = "destroyed"
)

// Sync is the minimal view of the simulation clock a Model needs; it is
// satisfied by *simsync.Sync without this package importing simsync
// (which would create an import cycle, since simsync has no need to
// know about models).
type Sync interface {
	Step() uint64
	Time() time.Duration
}

// Registrar is the narrow enrollment surface a Model receives during
// connect → enroll. Defined fully in internal/registrar; Model only
// needs the interface shape to stay decoupled from that package's
// concrete type.
type Registrar interface {
	RegisterEvent(name string) error
	RegisterAction(name string) error
	RegisterAPIHandler(path, method string, handler http.HandlerFunc) error
}

// Model is the interface every Simulator, Component, and Controller
// implements. Vehicles are not Models themselves (they are identified
// clones holding a map of Components) but share the Connected/
// Operational observability.
type Model interface {
	// Name identifies this model instance for logs and result records.
	Name() string

	Connect(ctx context.Context) error
	Enroll(r Registrar) error
	Start(ctx context.Context, sync Sync) error
	// Process advances the model by one cycle and reports the
	// simulation time it has now reached. STEP_CONTROLLERS compares
	// this against sync's current time to detect a stalled controller;
	// simulators and components report it too but only controllers are
	// retried on a stale result.
	Process(ctx context.Context, sync Sync) (time.Duration, error)
	Stop(ctx context.Context, sync Sync) error
	Disconnect(ctx context.Context) error

	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Reset(ctx context.Context) error
	Abort(ctx context.Context) error

	// Connected and Operational are the two observable booleans the
	// Data Model calls out explicitly.
	Connected() bool
	Operational() bool
}

// Base provides the bookkeeping every concrete model needs (phase
// tracking, connected/operational flags) so role types can embed it and
// implement only the behavior that differs. It does not implement
// Model's lifecycle calls themselves — those remain the concrete type's
// responsibility, since a no-op default would silently hide a plugin's
// missing implementation.
type Base struct {
	name        string
	phase       Phase
	connected   bool
	operational bool
}

// NewBase constructs a Base in the constructed phase.
func NewBase(name string) Base {
	return Base{name: name, phase: PhaseConstructed}
}

func (b *Base) Name() string       { return b.name }
func (b *Base) Phase() Phase       { return b.phase }
func (b *Base) Connected() bool    { return b.connected }
func (b *Base) Operational() bool  { return b.operational }

// SetPhase and the Mark* helpers are called by the concrete model's
// lifecycle methods as they succeed, keeping Connected()/Operational()
// observable without duplicating bookkeeping in every role type.
func (b *Base) SetPhase(p Phase)      { b.phase = p }
func (b *Base) MarkConnected(v bool)  { b.connected = v }
func (b *Base) MarkOperational(v bool) { b.operational = v }
