package trigger

import (
	"strconv"

	"github.com/cloe-engine/cloe/internal/confval"
)

// registerBuiltins installs the catalogue named in §4.3a: the lifecycle
// events (start/stop/pause/resume/success/failure), the "time=<seconds>"
// threshold event (plus its "virtual_time" alias), "next" (fires once
// the following cycle, at STEP_BEGIN), and the built-in actions.
func registerBuiltins(f *Factory) {
	lifecycleEvents := []Kind{KindStart, KindStop, KindPause, KindResume, KindSuccess, KindFailure, KindNext}
	for _, k := range lifecycleEvents {
		k := k
		_ = f.RegisterEvent(string(k), func(arg string) (Event, error) {
			return Event{Kind: k, Name: string(k), Args: confval.Map{}}, nil
		}, false)
	}

	makeTimeEvent := func(name string) EventMaker {
		return func(arg string) (Event, error) {
			seconds, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return Event{}, &InvalidTriggerError{Reason: "time event requires a numeric seconds argument: " + err.Error()}
			}
			return Event{
				Kind: KindTime,
				Name: name,
				Args: confval.Map{"seconds": confval.Float(seconds)},
			}, nil
		}
	}
	_ = f.RegisterEvent("time", makeTimeEvent("time"), false)
	_ = f.RegisterEvent("virtual_time", makeTimeEvent("virtual_time"), false)

	builtinActions := []string{ActionSucceed, ActionFail, ActionStop, ActionPause, ActionReset, ActionNop}
	for _, name := range builtinActions {
		name := name
		_ = f.RegisterAction(name, func(arg string) (Action, error) {
			return Action{Name: name, Args: confval.Map{}}, nil
		}, false)
	}

	_ = f.RegisterAction(ActionLog, func(arg string) (Action, error) {
		return Action{Name: ActionLog, Args: confval.Map{"message": confval.String(arg)}}, nil
	}, false)

	_ = f.RegisterAction(ActionCommand, func(arg string) (Action, error) {
		return Action{Name: ActionCommand, Args: confval.Map{"command": confval.String(arg)}}, nil
	}, false)

	_ = f.RegisterAction(ActionEvent, func(arg string) (Action, error) {
		evName, evArg := ParseEventString(arg)
		return Action{Name: ActionEvent, Args: confval.Map{"event": confval.String(evName), "arg": confval.String(evArg)}}, nil
	}, false)
}
