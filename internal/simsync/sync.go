// Package simsync implements SimulationSync (the logical step clock),
// SimulationStatistics, and SimulationProgress.
package simsync

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Sync is the per-cycle time-sync state every model advances through in
// lockstep. The invariant time = step * step_width holds after every
// IncrementStep call.
type Sync struct {
	step           atomic.Uint64
	stepWidth      time.Duration
	realtimeFactor float64 // <= 0 means "unlimited"
	eta            time.Duration
	cycleTime      time.Duration
}

// NewSync constructs a Sync with the given step width (must be > 0) and
// realtime factor. Starts at step 0.
func NewSync(stepWidth time.Duration, realtimeFactor float64) (*Sync, error) {
	if stepWidth <= 0 {
		return nil, fmt.Errorf("step_width must be > 0, got %s", stepWidth)
	}
	return &Sync{stepWidth: stepWidth, realtimeFactor: realtimeFactor}, nil
}

// Step returns the current step count.
func (s *Sync) Step() uint64 { return s.step.Load() }

// Time returns step * step_width, the invariant this type maintains.
func (s *Sync) Time() time.Duration {
	return time.Duration(s.step.Load()) * s.stepWidth
}

// StepWidth returns the configured cycle duration.
func (s *Sync) StepWidth() time.Duration { return s.stepWidth }

// RealtimeFactor returns the configured factor; <= 0 means unlimited.
func (s *Sync) RealtimeFactor() float64 { return s.realtimeFactor }

// Unlimited reports whether RealtimeFactor() <= 0.
func (s *Sync) Unlimited() bool { return s.realtimeFactor <= 0 }

// ETA returns the configured estimated time of arrival; zero means "no
// configured ETA".
func (s *Sync) ETA() time.Duration { return s.eta }

// SetETA updates the configured ETA (e.g. once the simulation script's
// expected run length is known).
func (s *Sync) SetETA(eta time.Duration) { s.eta = eta }

// CycleTime is the wall-clock duration the most recently completed cycle
// actually took, used by SimulationStatistics and the watchdog.
func (s *Sync) CycleTime() time.Duration { return s.cycleTime }

// IncrementStep advances the logical clock by one step and records how
// long the cycle that just completed took in wall-clock time.
func (s *Sync) IncrementStep(tookWallClock time.Duration) {
	s.step.Add(1)
	s.cycleTime = tookWallClock
}

// Reset returns the clock to step 0, keeping step_width and
// realtime_factor (the Open Question decision: RESET does not re-read
// the Stack, and by extension does not change these either).
func (s *Sync) Reset() {
	s.step.Store(0)
	s.cycleTime = 0
}
