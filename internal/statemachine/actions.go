package statemachine

import (
	"fmt"
	"os/exec"

	"github.com/cloe-engine/cloe/internal/confval"
	"github.com/cloe-engine/cloe/internal/simcontext"
	"github.com/cloe-engine/cloe/internal/trigger"
)

// actionExecuter builds the trigger.Executer the coordinator runs for
// every fired trigger: it dispatches on the built-in action catalogue
// (§4.3a), applying each action's effect to sc. Plugin-contributed
// action names are not handled here — the Stack only ever constructs a
// Trigger with a name the factory resolved, and the built-in factory
// never produces a name this switch doesn't recognize.
func (m *Machine) actionExecuter(sc *simcontext.SimulationContext) trigger.Executer {
	return func(t trigger.Trigger) (trigger.CallbackResult, error) {
		switch t.Action.Name {
		case trigger.ActionSucceed:
			sc.RaiseInterrupt(simcontext.InterruptSucceed)
		case trigger.ActionFail:
			sc.RaiseInterrupt(simcontext.InterruptFail)
		case trigger.ActionStop:
			sc.RaiseInterrupt(simcontext.InterruptStop)
		case trigger.ActionPause:
			sc.RaiseInterrupt(simcontext.InterruptPause)
		case trigger.ActionReset:
			sc.RaiseInterrupt(simcontext.InterruptReset)
		case trigger.ActionNop:
			// no effect; used for seed/marker triggers
		case trigger.ActionLog:
			msg, _ := t.Action.Args["message"].(confval.String)
			m.onLog(fmt.Sprintf("trigger %s: %s", t.Label, string(msg)))
		case trigger.ActionCommand:
			if !sc.Stack.Security().EnableCommandAction {
				return trigger.ResultOk, fmt.Errorf("command action disabled by /engine/security/enable_command_action")
			}
			cmdStr, _ := t.Action.Args["command"].(confval.String)
			if err := exec.Command("sh", "-c", string(cmdStr)).Run(); err != nil {
				return trigger.ResultOk, fmt.Errorf("command action: %w", err)
			}
		case trigger.ActionEvent:
			evName, _ := t.Action.Args["event"].(confval.String)
			evArg, _ := t.Action.Args["arg"].(confval.String)
			spawned, err := makeSpawnedTrigger(sc, string(evName), string(evArg))
			if err != nil {
				return trigger.ResultOk, err
			}
			sc.Coordinator.QueueSpawned(spawned)
		default:
			return trigger.ResultOk, fmt.Errorf("unrecognized action %q", t.Action.Name)
		}
		return trigger.ResultOk, nil
	}
}

func makeSpawnedTrigger(sc *simcontext.SimulationContext, eventName, eventArg string) (trigger.Trigger, error) {
	s := eventName
	if eventArg != "" {
		s = eventName + "=" + eventArg
	}
	event, err := sc.Factory.MakeEvent(s)
	if err != nil {
		return trigger.Trigger{}, err
	}
	action, err := sc.Factory.MakeAction(trigger.ActionNop)
	if err != nil {
		return trigger.Trigger{}, err
	}
	return trigger.NewTrigger(event, action, trigger.SourceTrigger, "", sc.Sync.Step(), false, false), nil
}
