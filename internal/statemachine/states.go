package statemachine

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/cloe-engine/cloe/internal/registrar"
	"github.com/cloe-engine/cloe/internal/simcontext"
	"github.com/cloe-engine/cloe/internal/trigger"
)

// defaultStates builds the canonical transition table (§4.5).
func defaultStates(m *Machine) map[StateID]StateFunc {
	return map[StateID]StateFunc{
		StateConnect:         m.stateConnect,
		StateStart:           m.stateStart,
		StateStepBegin:       m.stateStepBegin,
		StateStepSimulators:  m.stateStepSimulators,
		StateStepControllers: m.stateStepControllers,
		StateStepEnd:         m.stateStepEnd,
		StatePause:           m.statePause,
		StateResume:          m.stateResume,
		StateSuccess:         m.stateTerminal(simcontext.OutcomeSuccess, trigger.KindSuccess),
		StateFail:            m.stateTerminal(simcontext.OutcomeFailure, trigger.KindFailure),
		StateStop:            m.stateTerminal(simcontext.OutcomeStopped, trigger.KindStop),
		StateKeepAlive:       m.stateKeepAlive,
		StateReset:           m.stateReset,
		StateAbort:           m.stateAbort,
		StateDisconnect:      m.stateDisconnect,
		StateProbe:           m.stateProbe,
	}
}

// stateConnect runs pre-connect hooks, then connects and enrolls every
// participant in order, wiring each model's self-registered events and
// actions into the coordinator.
func (m *Machine) stateConnect(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	// Built-in lifecycle callbacks fire unconditionally from their named
	// state regardless of whether any model registered for them, so they
	// must exist before anything can be queued against them.
	for _, kind := range []trigger.Kind{
		trigger.KindStart, trigger.KindStop, trigger.KindPause, trigger.KindResume,
		trigger.KindSuccess, trigger.KindFailure, trigger.KindNext, trigger.KindTime,
	} {
		sc.Coordinator.RegisterCallback(kind)
	}

	for _, cmd := range sc.Stack.HookCommands().PreConnect {
		if err := runHook(ctx, cmd); err != nil {
			sc.AddError(fmt.Sprintf("pre-connect hook failed: %v", err))
			return StateAbort, nil
		}
	}

	for i := range sc.Participants {
		p := &sc.Participants[i]
		if err := p.Model.Connect(ctx); err != nil {
			sc.AddError(fmt.Sprintf("model %s: connect: %v", p.Model.Name(), err))
			return StateAbort, nil
		}

		reg := registrar.New(p.Model.Name(), sc.Factory)
		if err := p.Model.Enroll(reg); err != nil {
			sc.AddError(fmt.Sprintf("model %s: enroll: %v", p.Model.Name(), err))
			return StateAbort, nil
		}
		for _, ev := range reg.EnrolledEvents() {
			sc.Coordinator.RegisterCallback(trigger.Kind(ev))
		}
		sc.AddEndpoints(reg.EnrolledEndpoints())
	}

	if err := sc.Driver.Setup(ctx); err != nil {
		sc.AddError(fmt.Sprintf("driver setup: %v", err))
		return StateAbort, nil
	}

	if sc.ProbeSimulation {
		return StateProbe, nil
	}
	return StateStart, nil
}

// stateStart inserts the "start" seed trigger, distributes every
// trigger queued so far (the configured triggers loaded before CONNECT,
// plus the seed below) into its callback, fires the start callback
// once, starts every model, and advances the clock by one step.
func (m *Machine) stateStart(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	sc.Coordinator.QueueTrigger(trigger.NewTrigger(
		trigger.Event{Kind: trigger.KindStart, Name: "start", Args: nil},
		trigger.Action{Name: trigger.ActionNop},
		trigger.SourceFilesystem, "", sc.Sync.Step(), false, true,
	))
	sc.Coordinator.Distribute()
	if err := sc.Coordinator.Fire(trigger.KindStart, sc.Sync.Time().Seconds(), sc.Sync.Step(), m.actionExecuter(sc)); err != nil {
		return StateNone, err
	}

	for _, p := range sc.Participants {
		if err := p.Model.Start(ctx, sc.Sync); err != nil {
			sc.AddError(fmt.Sprintf("model %s: start: %v", p.Model.Name(), err))
			return StateAbort, nil
		}
	}
	sc.Sync.IncrementStep(0)

	if sc.PauseExecution() {
		return StatePause, nil
	}
	return StateStepBegin, nil
}

// stateStepBegin fires the LoopCallback and TimeCallback, then verifies
// every participant is still operational before proceeding to the step.
func (m *Machine) stateStepBegin(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	seconds := sc.Sync.Time().Seconds()
	step := sc.Sync.Step()

	if err := sc.Coordinator.Fire(trigger.KindNext, seconds, step, m.actionExecuter(sc)); err != nil {
		return StateNone, err
	}
	if err := sc.Coordinator.Fire(trigger.KindTime, seconds, step, m.actionExecuter(sc)); err != nil {
		return StateNone, err
	}

	for _, p := range sc.Participants {
		if !p.Model.Operational() {
			sc.AddError(fmt.Sprintf("model %s is no longer operational", p.Model.Name()))
			return StateStop, nil
		}
	}
	return StateStepSimulators, nil
}

// stateStepSimulators processes every simulator and requires the
// returned time to match the clock's own invariant.
func (m *Machine) stateStepSimulators(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	start := time.Now()
	for _, p := range sc.Simulators() {
		reached, err := p.Model.Process(ctx, sc.Sync)
		if err != nil {
			sc.AddError(fmt.Sprintf("simulator %s: process: %v", p.Model.Name(), err))
			return StateAbort, nil
		}
		if reached != sc.Sync.Time() {
			sc.AddError(fmt.Sprintf("simulator %s: process reached %s, expected %s", p.Model.Name(), reached, sc.Sync.Time()))
			return StateAbort, nil
		}
	}
	sc.Statistics.Simulator.Add(time.Since(start).Seconds())
	return StateStepControllers, nil
}

// stateStepControllers processes every controller, retrying on stale
// time up to the configured limit before either dropping the offending
// controller or aborting, per abort_on_controller_failure.
func (m *Machine) stateStepControllers(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	start := time.Now()
	retrySleep := time.Duration(sc.ControllerRetrySleepMillis) * time.Millisecond
	retryLimit := sc.ControllerRetryLimit
	required := sc.Sync.Time()

	for _, p := range sc.Controllers() {
		calls := 0
		for {
			calls++
			reached, err := p.Model.Process(ctx, sc.Sync)
			if err != nil {
				sc.AddError(fmt.Sprintf("controller %s: process: %v", p.Model.Name(), err))
				if sc.AbortOnControllerFailure {
					return StateAbort, nil
				}
				sc.RemoveController(p.Model.Name())
				break
			}
			if reached >= required {
				break
			}
			sc.Statistics.ControllerRetry.Add(1)
			if calls > retryLimit {
				sc.AddError(fmt.Sprintf("controller %s: controller not progressing", p.Model.Name()))
				if sc.AbortOnControllerFailure {
					return StateAbort, nil
				}
				sc.RemoveController(p.Model.Name())
				break
			}
			if retrySleep > 0 {
				time.Sleep(retrySleep)
			}
		}
	}
	sc.Statistics.Controller.Add(time.Since(start).Seconds())
	return StateStepEnd, nil
}

// stateStepEnd records the cycle time, paces to the target realtime
// factor, drains the trigger queue, and routes to PAUSE if requested.
func (m *Machine) stateStepEnd(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	cycleStart := time.Now()

	sc.Coordinator.Distribute()

	took := time.Since(cycleStart)
	var padding time.Duration
	if !sc.Sync.Unlimited() {
		target := time.Duration(float64(sc.Sync.StepWidth()) / sc.Sync.RealtimeFactor())
		if took < target {
			padding = target - took
			time.Sleep(padding)
		}
	}
	sc.Sync.IncrementStep(took + padding)
	sc.Statistics.Padding.Add(padding.Seconds())
	sc.Statistics.Cycle.Add((took + padding).Seconds())
	sc.Coordinator.ClearFingerprintsBefore(sc.Sync.Step())

	if sc.PauseExecution() {
		return StatePause, nil
	}
	return StateStepBegin, nil
}

// statePause fires the pause callback once on entry and sleeps until
// resumed or interrupted.
func (m *Machine) statePause(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	if err := sc.Coordinator.Fire(trigger.KindPause, sc.Sync.Time().Seconds(), sc.Sync.Step(), m.actionExecuter(sc)); err != nil {
		return StateNone, err
	}
	interval := time.Duration(sc.PollingIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	time.Sleep(interval)

	if sc.PauseExecution() {
		return StatePause, nil
	}
	return StateResume, nil
}

// stateResume fires the resume callback and returns to STEP_BEGIN.
func (m *Machine) stateResume(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	if err := sc.Coordinator.Fire(trigger.KindResume, sc.Sync.Time().Seconds(), sc.Sync.Step(), m.actionExecuter(sc)); err != nil {
		return StateNone, err
	}
	return StateStepBegin, nil
}

// stateTerminal returns a state function shared by SUCCESS/FAIL/STOP:
// set the outcome if not already set, fire the matching callback, and
// stop every operational model.
func (m *Machine) stateTerminal(outcome simcontext.Outcome, kind trigger.Kind) StateFunc {
	return func(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
		sc.SetOutcome(outcome)
		if err := sc.Coordinator.Fire(kind, sc.Sync.Time().Seconds(), sc.Sync.Step(), m.actionExecuter(sc)); err != nil {
			return StateNone, err
		}
		for _, p := range sc.Participants {
			if p.Model.Operational() {
				if err := p.Model.Stop(ctx, sc.Sync); err != nil {
					sc.AddError(fmt.Sprintf("model %s: stop: %v", p.Model.Name(), err))
				}
			}
		}
		if sc.KeepAlive {
			return StateKeepAlive, nil
		}
		return StateDisconnect, nil
	}
}

// stateKeepAlive idles until a terminating interrupt arrives; the top-
// level Run loop handles the actual transition once one is raised.
func (m *Machine) stateKeepAlive(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	interval := time.Duration(sc.PollingIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	time.Sleep(interval)
	return StateKeepAlive, nil
}

// stateReset stops then resets every model and resets the clock,
// returning to CONNECT on full success. No reset callback is fired:
// there is no reset event kind.
func (m *Machine) stateReset(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	for _, p := range sc.Participants {
		if err := p.Model.Stop(ctx, sc.Sync); err != nil {
			sc.AddError(fmt.Sprintf("model %s: stop (reset): %v", p.Model.Name(), err))
			return StateAbort, nil
		}
		if err := p.Model.Reset(ctx); err != nil {
			sc.AddError(fmt.Sprintf("model %s: reset: %v", p.Model.Name(), err))
			return StateAbort, nil
		}
	}
	sc.Sync.Reset()
	return StateConnect, nil
}

// stateAbort sets the outcome (NoStart if reached before START ever
// ran) and calls abort on every model, tolerating per-model failure.
func (m *Machine) stateAbort(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	if sc.Sync.Step() == 0 && sc.Outcome() == simcontext.OutcomeEmpty {
		sc.ForceOutcome(simcontext.OutcomeNoStart)
	} else {
		sc.ForceOutcome(simcontext.OutcomeAborted)
	}
	for _, p := range sc.Participants {
		if err := p.Model.Abort(ctx); err != nil {
			sc.AddError(fmt.Sprintf("model %s: abort: %v", p.Model.Name(), err))
		}
	}
	return StateDisconnect, nil
}

// stateDisconnect disconnects every model and runs post-disconnect
// hooks. This is the terminal state: Run returns StateNone after it.
func (m *Machine) stateDisconnect(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	for _, p := range sc.Participants {
		if err := p.Model.Disconnect(ctx); err != nil {
			sc.AddError(fmt.Sprintf("model %s: disconnect: %v", p.Model.Name(), err))
		}
	}
	for _, cmd := range sc.Stack.HookCommands().PostDisconnect {
		if err := runHook(ctx, cmd); err != nil {
			sc.AddError(fmt.Sprintf("post-disconnect hook failed: %v", err))
		}
	}
	return StateNone, nil
}

// stateProbe populates ctx.probe and sets outcome=Probing without ever
// stepping the simulation.
func (m *Machine) stateProbe(ctx context.Context, sc *simcontext.SimulationContext) (StateID, error) {
	sc.SetOutcome(simcontext.OutcomeProbing)

	plugins := sc.Registry.Manifests()
	sc.SetProbe("plugins", plugins)

	vehicles := map[string][]string{}
	for _, p := range sc.Simulators() {
		if p.Simulator == nil {
			continue
		}
		for _, v := range p.Simulator.Vehicles() {
			var components []string
			for _, c := range v.Components() {
				components = append(components, c.Name())
			}
			vehicles[v.Name()] = components
		}
	}
	sc.SetProbe("vehicles", vehicles)
	sc.SetProbe("http_endpoints", sc.Endpoints())

	report, err := sc.Driver.Report(ctx)
	if err == nil && report != nil {
		sc.SetProbe("driver", report)
	}

	return StateDisconnect, nil
}

func runHook(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	return cmd.Run()
}
