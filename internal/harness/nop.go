// Package harness runs the named end-to-end scenarios directly against
// the simulation engine (statemachine + simcontext), without going
// through the CLI. Scenarios that exercise Stack-loading errors are
// Stack.FromConf concerns rather than simulation-loop concerns and are
// not run here: the version mismatch is covered by internal/cli's
// TestCheckCommandVersionMismatch, and the include cycle has no test.
package harness

import (
	"context"
	"time"

	"github.com/cloe-engine/cloe/internal/model"
)

// NopSimulator is a Simulator that steps without touching any vehicle
// state; it stands in for the "nop" plugin binding the scenarios in
// §8 reference.
type NopSimulator struct {
	*model.Simulator
}

// NewNopSimulator constructs a NopSimulator named name.
func NewNopSimulator(name string) *NopSimulator {
	return &NopSimulator{Simulator: model.NewSimulator(name)}
}

func (s *NopSimulator) Connect(ctx context.Context) error {
	s.MarkConnected(true)
	s.SetPhase(model.PhaseConnected)
	return nil
}
func (s *NopSimulator) Enroll(r model.Registrar) error { return nil }
func (s *NopSimulator) Start(ctx context.Context, sync model.Sync) error {
	s.SetPhase(model.PhaseStarted)
	s.MarkOperational(true)
	return nil
}
func (s *NopSimulator) Process(ctx context.Context, sync model.Sync) (time.Duration, error) {
	return sync.Time(), nil
}
func (s *NopSimulator) Stop(ctx context.Context, sync model.Sync) error {
	s.SetPhase(model.PhaseStopped)
	s.MarkOperational(false)
	return nil
}
func (s *NopSimulator) Disconnect(ctx context.Context) error {
	s.SetPhase(model.PhaseDisconnected)
	s.MarkConnected(false)
	return nil
}
func (s *NopSimulator) Pause(ctx context.Context) error  { return nil }
func (s *NopSimulator) Resume(ctx context.Context) error { return nil }
func (s *NopSimulator) Reset(ctx context.Context) error {
	s.SetPhase(model.PhaseConstructed)
	s.MarkOperational(false)
	return nil
}
func (s *NopSimulator) Abort(ctx context.Context) error { return nil }

var _ model.Model = (*NopSimulator)(nil)

// NopController is a Controller whose Process always succeeds
// immediately (advances with the step, never stalling).
type NopController struct {
	*model.Controller
}

// NewNopController constructs a NopController bound to vehicle.
func NewNopController(name string, vehicle *model.Vehicle) *NopController {
	return &NopController{Controller: model.NewController(name, vehicle)}
}

func (c *NopController) Connect(ctx context.Context) error {
	c.MarkConnected(true)
	c.SetPhase(model.PhaseConnected)
	return nil
}
func (c *NopController) Enroll(r model.Registrar) error { return nil }
func (c *NopController) Start(ctx context.Context, sync model.Sync) error {
	c.SetPhase(model.PhaseStarted)
	c.MarkOperational(true)
	return nil
}
func (c *NopController) Process(ctx context.Context, sync model.Sync) (time.Duration, error) {
	return sync.Time(), nil
}
func (c *NopController) Stop(ctx context.Context, sync model.Sync) error {
	c.SetPhase(model.PhaseStopped)
	c.MarkOperational(false)
	return nil
}
func (c *NopController) Disconnect(ctx context.Context) error {
	c.SetPhase(model.PhaseDisconnected)
	c.MarkConnected(false)
	return nil
}
func (c *NopController) Pause(ctx context.Context) error  { return nil }
func (c *NopController) Resume(ctx context.Context) error { return nil }
func (c *NopController) Reset(ctx context.Context) error {
	c.SetPhase(model.PhaseConstructed)
	c.MarkOperational(false)
	return nil
}
func (c *NopController) Abort(ctx context.Context) error { return nil }

var _ model.Model = (*NopController)(nil)

// StallingController never progresses: Process always succeeds but
// reports a reached time behind the clock's current time, modeling §8
// scenario 5 (a controller that keeps retrying without making
// progress until the retry limit gives up on it).
type StallingController struct {
	*model.Controller
	Calls int
}

// NewStallingController constructs a StallingController bound to vehicle.
func NewStallingController(name string, vehicle *model.Vehicle) *StallingController {
	return &StallingController{Controller: model.NewController(name, vehicle)}
}

func (c *StallingController) Connect(ctx context.Context) error {
	c.MarkConnected(true)
	c.SetPhase(model.PhaseConnected)
	return nil
}
func (c *StallingController) Enroll(r model.Registrar) error { return nil }
func (c *StallingController) Start(ctx context.Context, sync model.Sync) error {
	c.SetPhase(model.PhaseStarted)
	c.MarkOperational(true)
	return nil
}
func (c *StallingController) Process(ctx context.Context, sync model.Sync) (time.Duration, error) {
	c.Calls++
	reached := sync.Time() - time.Nanosecond
	if reached < 0 {
		reached = 0
	}
	return reached, nil
}
func (c *StallingController) Stop(ctx context.Context, sync model.Sync) error {
	c.SetPhase(model.PhaseStopped)
	c.MarkOperational(false)
	return nil
}
func (c *StallingController) Disconnect(ctx context.Context) error {
	c.SetPhase(model.PhaseDisconnected)
	c.MarkConnected(false)
	return nil
}
func (c *StallingController) Pause(ctx context.Context) error  { return nil }
func (c *StallingController) Resume(ctx context.Context) error { return nil }
func (c *StallingController) Reset(ctx context.Context) error {
	c.SetPhase(model.PhaseConstructed)
	c.MarkOperational(false)
	return nil
}
func (c *StallingController) Abort(ctx context.Context) error { return nil }

var _ model.Model = (*StallingController)(nil)
