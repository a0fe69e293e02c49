package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloe-engine/cloe/internal/coordinator"
	"github.com/cloe-engine/cloe/internal/model"
	"github.com/cloe-engine/cloe/internal/plugin"
	"github.com/cloe-engine/cloe/internal/simcontext"
	"github.com/cloe-engine/cloe/internal/simsync"
	"github.com/cloe-engine/cloe/internal/stack"
	"github.com/cloe-engine/cloe/internal/statemachine"
	"github.com/cloe-engine/cloe/internal/trigger"
	"github.com/cloe-engine/cloe/internal/watchdog"
)

// buildContext assembles the SimulationContext every scenario below
// shares: an empty Stack (hooks/security defaults only, no Conf
// loaded — these scenarios construct participants and triggers
// directly rather than through Stack.FromConf), a fresh Coordinator
// and Factory, and a Sync at the 20ms step width the §8 scenarios use.
func buildContext(t *testing.T, participants []simcontext.Participant) (*simcontext.SimulationContext, *statemachine.Machine) {
	t.Helper()

	st := stack.New(nil, nil, nil, nil)
	factory := trigger.NewFactory()
	coord := coordinator.New(false, func(msg string) { t.Fatalf("coordinator logic error: %s", msg) })

	sync, err := simsync.NewSync(20*time.Millisecond, 1.0)
	require.NoError(t, err)

	registry := plugin.NewRegistry(nil, func() int64 { return 0 })
	sc := simcontext.New(st, registry, factory, coord, sync)
	sc.Participants = participants
	sc.ControllerRetryLimit = 1000
	sc.ControllerRetrySleepMillis = 0

	wd := watchdog.New(watchdog.ModeOff, 0, 0, nil, nil)
	machine := statemachine.New(wd, func(string) {})

	return sc, machine
}

// queueConfigTrigger mirrors internal/simulation.loadConfiguredTriggers:
// a trigger parsed from the compact event/action string pair and queued
// with Source=Filesystem, exactly as a Stack's "triggers" array would
// produce at load time.
func queueConfigTrigger(t *testing.T, sc *simcontext.SimulationContext, factory *trigger.Factory, event, action string) {
	t.Helper()
	ev, err := factory.MakeEvent(event)
	require.NoError(t, err)
	ac, err := factory.MakeAction(action)
	require.NoError(t, err)
	sc.Coordinator.QueueTrigger(trigger.NewTrigger(ev, ac, trigger.SourceFilesystem, "", 0, false, false))
}

// TestScenario1EmptyRun exercises §8 scenario 1: a single simulator and
// controller with a "start"→"succeed" trigger reaches Success on the
// first distributed cycle, with exactly one "succeed" history entry.
func TestScenario1EmptyRun(t *testing.T) {
	vehicle := model.NewVehicle("v")
	sim := NewNopSimulator("nop")
	sim.AddVehicle(vehicle)
	ctrl := NewNopController("nop", vehicle)

	sc, machine := buildContext(t, []simcontext.Participant{
		{Model: sim, Kind: "simulator", Simulator: sim.Simulator},
		{Model: ctrl, Kind: "controller", Vehicle: "v"},
	})
	queueConfigTrigger(t, sc, sc.Factory, "start", "succeed")

	final, err := machine.Run(context.Background(), sc, statemachine.StateConnect)
	require.NoError(t, err)
	assert.Equal(t, statemachine.StateNone, final)
	assert.Equal(t, simcontext.OutcomeSuccess, sc.Outcome())
	assert.GreaterOrEqual(t, sc.Sync.Step(), uint64(1))

	var succeeded int
	for _, e := range sc.Coordinator.History().Entries() {
		if e.Trigger.Action.Name == trigger.ActionSucceed {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

// TestScenario2TimeBoundedStop exercises §8 scenario 2: a "time=1.0"→
// "stop" trigger halts the run once logical time reaches 1 second,
// landing within one step_width of the threshold and mapping to exit
// code 8.
func TestScenario2TimeBoundedStop(t *testing.T) {
	vehicle := model.NewVehicle("v")
	sim := NewNopSimulator("nop")
	sim.AddVehicle(vehicle)
	ctrl := NewNopController("nop", vehicle)

	sc, machine := buildContext(t, []simcontext.Participant{
		{Model: sim, Kind: "simulator", Simulator: sim.Simulator},
		{Model: ctrl, Kind: "controller", Vehicle: "v"},
	})
	queueConfigTrigger(t, sc, sc.Factory, "time=1.0", "stop")

	final, err := machine.Run(context.Background(), sc, statemachine.StateConnect)
	require.NoError(t, err)
	assert.Equal(t, statemachine.StateNone, final)
	assert.Equal(t, simcontext.OutcomeStopped, sc.Outcome())
	assert.Equal(t, 8, sc.Outcome().ExitCode())

	stepWidth := sc.Sync.StepWidth()
	assert.GreaterOrEqual(t, sc.Sync.Time(), time.Second)
	assert.Less(t, sc.Sync.Time(), time.Second+stepWidth)
}

// TestScenario5ControllerStallAbort exercises §8 scenario 5 with
// abort_on_controller_failure=true: a controller that never reports
// progress is retried controller_retry_limit times, then aborts the
// run with the "controller not progressing" error after exactly
// retry_limit+1 Process calls.
func TestScenario5ControllerStallAbort(t *testing.T) {
	vehicle := model.NewVehicle("v")
	sim := NewNopSimulator("nop")
	sim.AddVehicle(vehicle)
	stalling := NewStallingController("stalling", vehicle)

	sc, machine := buildContext(t, []simcontext.Participant{
		{Model: sim, Kind: "simulator", Simulator: sim.Simulator},
		{Model: stalling, Kind: "controller", Vehicle: "v"},
	})
	sc.ControllerRetryLimit = 1000
	sc.AbortOnControllerFailure = true

	final, err := machine.Run(context.Background(), sc, statemachine.StateConnect)
	require.NoError(t, err)
	assert.Equal(t, statemachine.StateNone, final)
	assert.Equal(t, simcontext.OutcomeAborted, sc.Outcome())
	assert.Equal(t, 1001, stalling.Calls)

	found := false
	for _, e := range sc.Errors() {
		if e == "controller stalling: controller not progressing" {
			found = true
		}
	}
	assert.True(t, found, "expected a \"controller not progressing\" error, got %v", sc.Errors())
}

// TestScenario5ControllerStallRemove exercises the
// abort_on_controller_failure=false branch: the stalling controller is
// dropped from the participant list after retry_limit+1 calls and the
// run continues (here reaching Success via a start→succeed trigger,
// proving the simulator kept stepping without the removed controller).
func TestScenario5ControllerStallRemove(t *testing.T) {
	vehicle := model.NewVehicle("v")
	sim := NewNopSimulator("nop")
	sim.AddVehicle(vehicle)
	stalling := NewStallingController("stalling", vehicle)

	sc, machine := buildContext(t, []simcontext.Participant{
		{Model: sim, Kind: "simulator", Simulator: sim.Simulator},
		{Model: stalling, Kind: "controller", Vehicle: "v"},
	})
	sc.ControllerRetryLimit = 1000
	sc.AbortOnControllerFailure = false
	queueConfigTrigger(t, sc, sc.Factory, "time=1.0", "succeed")

	final, err := machine.Run(context.Background(), sc, statemachine.StateConnect)
	require.NoError(t, err)
	assert.Equal(t, statemachine.StateNone, final)
	assert.Equal(t, simcontext.OutcomeSuccess, sc.Outcome())
	assert.Equal(t, 1001, stalling.Calls)
	assert.Empty(t, sc.Controllers())
}

// TestScenario6Probe exercises §8 scenario 6: ProbeSimulation routes
// CONNECT straight to PROBE, setting outcome=Probing without stepping
// any participant.
func TestScenario6Probe(t *testing.T) {
	vehicle := model.NewVehicle("v")
	sim := NewNopSimulator("nop")
	sim.AddVehicle(vehicle)
	ctrl := NewNopController("nop", vehicle)

	sc, machine := buildContext(t, []simcontext.Participant{
		{Model: sim, Kind: "simulator", Simulator: sim.Simulator},
		{Model: ctrl, Kind: "controller", Vehicle: "v"},
	})
	sc.ProbeSimulation = true

	final, err := machine.Run(context.Background(), sc, statemachine.StateConnect)
	require.NoError(t, err)
	assert.Equal(t, statemachine.StateNone, final)
	assert.Equal(t, simcontext.OutcomeProbing, sc.Outcome())
	assert.Equal(t, 0, sc.Outcome().ExitCode())
	assert.Equal(t, uint64(0), sc.Sync.Step())
}
