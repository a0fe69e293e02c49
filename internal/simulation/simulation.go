// Package simulation is the entry point: it assembles a
// SimulationContext from a loaded Stack, registers OS signal handling,
// runs the SimulationMachine, and gathers the SimulationResult.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/cloe-engine/cloe/internal/confval"
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

// Options configures one simulation run.
type Options struct {
	Stack           *stack.Stack
	Registry        *plugin.Registry
	ProbeOnly       bool
	WatchdogMode    watchdog.Mode
	PollingInterval time.Duration
	DefaultTimeout  time.Duration

	// OnProgress, if set, is called at roughly PollingInterval while the
	// state machine runs, reporting the logical step and time reached so
	// far. It is called from a background goroutine, never concurrently
	// with itself.
	OnProgress func(step uint64, t time.Duration)
}

// Run assembles a SimulationContext from opts, drives it to completion,
// and returns the gathered result. The process-wide simulation UUID
// (a fresh one when simUUID is empty) is exported as
// CLOE_SIMULATION_UUID so interpolated output paths stay consistent
// with this run; the returned Result does not carry it.
func Run(ctx context.Context, opts Options, simUUID string) (*simcontext.Result, error) {
	logger := slog.With("sim_uuid", simUUID)

	if simUUID == "" {
		simUUID = uuid.NewString()
	}
	_ = os.Setenv("CLOE_SIMULATION_UUID", simUUID)

	factory := trigger.NewFactory()
	coord := coordinator.New(readIgnoreDuplicates(opts.Stack), func(msg string) {
		logger.Error("coordinator logic error", "error", msg)
	})

	stepWidth, rtf := readSyncParams(opts.Stack)
	sync, err := simsync.NewSync(stepWidth, rtf)
	if err != nil {
		return nil, fmt.Errorf("simulation sync: %w", err)
	}

	sc := simcontext.New(opts.Stack, opts.Registry, factory, coord, sync)
	sc.ProbeSimulation = opts.ProbeOnly
	sc.PollingIntervalMillis = int(opts.PollingInterval.Milliseconds())
	sc.ControllerRetryLimit, sc.ControllerRetrySleepMillis, sc.AbortOnControllerFailure = readControllerRetryParams(opts.Stack)
	sc.KeepAlive = readKeepAlive(opts.Stack)

	participants, err := assembleParticipants(opts.Stack, opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("assemble participants: %w", err)
	}
	sc.Participants = participants

	if err := loadConfiguredTriggers(opts.Stack, factory, coord); err != nil {
		return nil, fmt.Errorf("load triggers: %w", err)
	}

	wd := watchdog.New(opts.WatchdogMode, opts.PollingInterval, opts.DefaultTimeout,
		func(msg string) { logger.Warn("watchdog", "message", msg) },
		func() {
			logger.Error("watchdog kill: terminating process")
			os.Exit(1)
		},
	)
	machine := statemachine.New(wd, func(msg string) { logger.Info("state machine", "message", msg) })

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	go watchSignals(sigCtx, sc, logger)

	if opts.OnProgress != nil {
		progressCtx, stopProgress := context.WithCancel(ctx)
		defer stopProgress()
		go reportProgress(progressCtx, sync, opts.PollingInterval, opts.OnProgress)
	}

	start := time.Now()
	_, runErr := machine.Run(ctx, sc, statemachine.StateConnect)
	elapsed := time.Since(start)

	if sc.Outcome() == simcontext.OutcomeEmpty {
		sc.ForceOutcome(simcontext.OutcomeEmpty)
		sc.AddError("state machine exited without reaching a terminal state")
	}

	result := &simcontext.Result{
		Outcome:    sc.Outcome(),
		Errors:     sc.Errors(),
		Elapsed:    elapsed,
		Step:       sync.Step(),
		Time:       sync.Time(),
		Statistics: sc.Statistics.Snapshot(),
		Triggers:   coord.History().Entries(),
		Probe:      sc.Probe(),
	}

	if runErr != nil {
		return result, fmt.Errorf("state machine: %w", runErr)
	}
	return result, nil
}

// watchSignals pushes an ABORT interrupt once ctx is done: on the first
// SIGINT/SIGTERM, or when the parent context ends. Only that first
// signal has an effect; later deliveries while Run is active are
// absorbed by the signal context, and there is no escalation to forced
// model aborts or to the default handler.
func watchSignals(ctx context.Context, sc *simcontext.SimulationContext, logger *slog.Logger) {
	<-ctx.Done()
	logger.Warn("signal received, raising abort interrupt")
	sc.RaiseInterrupt(simcontext.InterruptAbort)
}

// reportProgress polls sync at interval until ctx is cancelled, which
// Run does unconditionally on return so this goroutine never outlives
// the simulation it reports on.
func reportProgress(ctx context.Context, sync *simsync.Sync, interval time.Duration, onProgress func(uint64, time.Duration)) {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			onProgress(sync.Step(), sync.Time())
		}
	}
}

func readIgnoreDuplicates(st *stack.Stack) bool {
	v, err := st.Conf().Get("/engine/triggers_ignore_duplicates")
	if err != nil {
		return false
	}
	b, _ := v.(confval.Bool)
	return bool(b)
}

// readSyncParams reads model_step_width, a count of nanoseconds per the
// Data Model's Duration representation (e.g. 20_000_000 for 20ms), and
// realtime_factor. A float value is read as seconds (e.g. 0.02 for
// 20ms), for a config that expresses the width that way instead.
func readSyncParams(st *stack.Stack) (time.Duration, float64) {
	stepWidth := 20 * time.Millisecond
	rtf := 1.0
	if v, err := st.Conf().Get("/simulation/model_step_width"); err == nil {
		if i, ok := v.(confval.Int); ok {
			stepWidth = time.Duration(int64(i))
		} else if f, ok := v.(confval.Float); ok {
			stepWidth = time.Duration(float64(f) * float64(time.Second))
		}
	}
	if v, err := st.Conf().Get("/simulation/realtime_factor"); err == nil {
		if f, ok := v.(confval.Float); ok {
			rtf = float64(f)
		} else if i, ok := v.(confval.Int); ok {
			rtf = float64(i)
		}
	}
	return stepWidth, rtf
}

func readControllerRetryParams(st *stack.Stack) (limit int, sleepMillis int, abortOnFailure bool) {
	limit, sleepMillis = 3, 10
	if v, err := st.Conf().Get("/simulation/controller_retry_limit"); err == nil {
		if i, ok := v.(confval.Int); ok {
			limit = int(i)
		}
	}
	if v, err := st.Conf().Get("/simulation/controller_retry_sleep"); err == nil {
		if i, ok := v.(confval.Int); ok {
			sleepMillis = int(i)
		}
	}
	if v, err := st.Conf().Get("/simulation/abort_on_controller_failure"); err == nil {
		if b, ok := v.(confval.Bool); ok {
			abortOnFailure = bool(b)
		}
	}
	return
}

// loadConfiguredTriggers parses the Stack's "triggers" array (each
// resolved through factory, same as a trigger submitted over the
// network) and queues the result with Source=Filesystem, matching the
// Data Model's Trigger Source taxonomy for triggers that were present
// in the merged config rather than spawned or re-armed at runtime. A
// malformed entry marked optional is dropped with a warning logged
// instead of failing the whole run.
func loadConfiguredTriggers(st *stack.Stack, factory *trigger.Factory, coord *coordinator.Coordinator) error {
	root := st.Conf().Root()
	triggersConf, _ := root["triggers"].(confval.Array)
	for i, tv := range triggersConf {
		tm, ok := tv.(confval.Map)
		if !ok {
			continue
		}
		t, err := factory.FromConf(tm, trigger.SourceFilesystem, 0)
		if err != nil {
			if trigger.IsOptional(tm) {
				slog.Warn("dropping optional trigger", "index", i, "error", err)
				continue
			}
			return fmt.Errorf("triggers[%d]: %w", i, err)
		}
		coord.QueueTrigger(t)
	}
	return nil
}

func readKeepAlive(st *stack.Stack) bool {
	v, err := st.Conf().Get("/simulation/keep_alive")
	if err != nil {
		return false
	}
	b, _ := v.(confval.Bool)
	return bool(b)
}

// assembleParticipants builds the model tree from the Stack's
// simulators/vehicles/controllers arrays, resolving each entry's
// "binding" field against a loaded plugin's factory and each vehicle's
// "from.simulator" field to its owning simulator.
func assembleParticipants(st *stack.Stack, registry *plugin.Registry) ([]simcontext.Participant, error) {
	root := st.Conf().Root()
	var out []simcontext.Participant

	vehiclesByName := map[string]*model.Vehicle{}
	vehicleOwner := map[string]string{} // vehicle name -> owning simulator's "from"

	vehiclesConf, _ := root["vehicles"].(confval.Array)
	for _, v := range vehiclesConf {
		vm, ok := v.(confval.Map)
		if !ok {
			continue
		}
		name, _ := vm["name"].(confval.String)
		var from string
		if fromMap, ok := vm["from"].(confval.Map); ok {
			if sim, ok := fromMap["simulator"].(confval.String); ok {
				from = string(sim)
			}
		}
		vehicle := model.NewVehicle(string(name))

		componentsConf, _ := vm["components"].(confval.Array)
		for _, c := range componentsConf {
			cm, ok := c.(confval.Map)
			if !ok {
				continue
			}
			cname, _ := cm["name"].(confval.String)
			binding, _ := cm["binding"].(confval.String)
			comp, err := instantiateComponent(registry, string(cname), string(binding))
			if err != nil {
				return nil, err
			}
			vehicle.AddComponent(comp)
		}
		vehiclesByName[string(name)] = vehicle
		vehicleOwner[string(name)] = from
	}

	simulatorsConf, _ := root["simulators"].(confval.Array)
	for _, sv := range simulatorsConf {
		sm, ok := sv.(confval.Map)
		if !ok {
			continue
		}
		binding, _ := sm["binding"].(confval.String)
		name, ok := sm["name"].(confval.String)
		if !ok || name == "" {
			name = binding
		}
		m, err := instantiateNamed(registry, string(name), string(binding))
		if err != nil {
			return nil, err
		}
		sim, ok := asSimulator(m)
		if !ok {
			sim = model.NewSimulator(string(name))
		}
		for vn, vehicle := range vehiclesByName {
			if vehicleOwner[vn] == string(binding) || vehicleOwner[vn] == string(name) {
				sim.AddVehicle(vehicle)
			}
		}
		out = append(out, simcontext.Participant{Model: m, Kind: "simulator", Simulator: sim})
	}

	controllersConf, _ := root["controllers"].(confval.Array)
	for _, cv := range controllersConf {
		cm, ok := cv.(confval.Map)
		if !ok {
			continue
		}
		binding, _ := cm["binding"].(confval.String)
		name, ok := cm["name"].(confval.String)
		if !ok || name == "" {
			name = binding
		}
		vehicleName, _ := cm["vehicle"].(confval.String)
		m, err := instantiateNamed(registry, string(name), string(binding))
		if err != nil {
			return nil, err
		}
		out = append(out, simcontext.Participant{Model: m, Kind: "controller", Vehicle: string(vehicleName)})
	}

	return out, nil
}

// asSimulator recovers the embedded *model.Simulator from a plugin's
// concrete type, if it exposes one; a plugin type may alternatively
// embed model.Simulator directly (by pointer or by value), in which case
// reflection below finds the embedded field without the plugin needing
// its own accessor.
func asSimulator(m model.Model) (*model.Simulator, bool) {
	type simulatorEmbedder interface {
		AsSimulator() *model.Simulator
	}
	if se, ok := m.(simulatorEmbedder); ok {
		return se.AsSimulator(), true
	}
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	f := v.Elem().FieldByName("Simulator")
	if !f.IsValid() {
		return nil, false
	}
	if f.Kind() == reflect.Struct && f.CanAddr() {
		f = f.Addr()
	}
	sim, ok := f.Interface().(*model.Simulator)
	return sim, ok && sim != nil
}

func instantiateNamed(registry *plugin.Registry, name, binding string) (model.Model, error) {
	_, factory, ok := registry.Lookup(binding)
	if !ok {
		return nil, fmt.Errorf("no loaded plugin provides binding %q (needed by %q)", binding, name)
	}
	produced := factory()
	m, ok := produced.(model.Model)
	if !ok {
		return nil, fmt.Errorf("plugin %q factory did not produce a model.Model", binding)
	}
	return m, nil
}

func instantiateComponent(registry *plugin.Registry, name, binding string) (*model.Component, error) {
	_, factory, ok := registry.Lookup(binding)
	if !ok {
		return model.NewComponent(name), nil // tolerate a component with no resolvable plugin during probe/dry runs
	}
	produced := factory()
	if c, ok := produced.(*model.Component); ok {
		return c, nil
	}
	return model.NewComponent(name), nil
}
