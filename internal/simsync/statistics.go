package simsync

import "time"

// accumulator is a running count/min/max/mean/variance tracker using
// Welford's online algorithm, avoiding the need to retain every sample.
type accumulator struct {
	count    uint64
	min, max float64
	mean     float64
	m2       float64 // sum of squared distance from the mean
}

func (a *accumulator) Add(x float64) {
	a.count++
	if a.count == 1 {
		a.min, a.max = x, x
	} else {
		if x < a.min {
			a.min = x
		}
		if x > a.max {
			a.max = x
		}
	}
	delta := x - a.mean
	a.mean += delta / float64(a.count)
	delta2 := x - a.mean
	a.m2 += delta * delta2
}

// Variance returns the population variance, or 0 if fewer than 2 samples
// have been recorded.
func (a *accumulator) Variance() float64 {
	if a.count < 2 {
		return 0
	}
	return a.m2 / float64(a.count)
}

// Snapshot is the read-only view of an accumulator exposed in result
// records.
type Snapshot struct {
	Count    uint64
	Min, Max float64
	Mean     float64
	Variance float64
}

func (a *accumulator) Snapshot() Snapshot {
	return Snapshot{Count: a.count, Min: a.min, Max: a.max, Mean: a.mean, Variance: a.Variance()}
}

// Statistics holds six accumulators: engine,
// simulator, controller, and padding cycle times, overall cycle time,
// and controller retry counts.
type Statistics struct {
	Engine          accumulator
	Simulator       accumulator
	Controller      accumulator
	Padding         accumulator
	Cycle           accumulator
	ControllerRetry accumulator
}

// RecordCycle folds one cycle's component timings into every relevant
// accumulator.
func (s *Statistics) RecordCycle(engine, simulator, controller, padding, cycle time.Duration, controllerRetries int) {
	s.Engine.Add(engine.Seconds())
	s.Simulator.Add(simulator.Seconds())
	s.Controller.Add(controller.Seconds())
	s.Padding.Add(padding.Seconds())
	s.Cycle.Add(cycle.Seconds())
	s.ControllerRetry.Add(float64(controllerRetries))
}

// Snapshots is the serializable view of all six accumulators.
type Snapshots struct {
	Engine          Snapshot
	Simulator       Snapshot
	Controller      Snapshot
	Padding         Snapshot
	Cycle           Snapshot
	ControllerRetry Snapshot
}

func (s *Statistics) Snapshot() Snapshots {
	return Snapshots{
		Engine:          s.Engine.Snapshot(),
		Simulator:       s.Simulator.Snapshot(),
		Controller:      s.Controller.Snapshot(),
		Padding:         s.Padding.Snapshot(),
		Cycle:           s.Cycle.Snapshot(),
		ControllerRetry: s.ControllerRetry.Snapshot(),
	}
}
