package trigger

import (
	"strings"

	"github.com/cloe-engine/cloe/internal/confval"
)

// Action is a parsed trigger action: a name plus an argument object. The
// built-in catalogue (§4.3a): succeed, fail, stop, pause, reset, log,
// command, event (re-emit another event as an action, for chaining),
// nop.
type Action struct {
	Name string
	Args confval.Map
}

const (
	ActionSucceed = "succeed"
	ActionFail    = "fail"
	ActionStop    = "stop"
	ActionPause   = "pause"
	ActionReset   = "reset"
	ActionLog     = "log"
	ActionCommand = "command"
	ActionEvent   = "event"
	ActionNop     = "nop"
)

// ParseActionString splits the compact "name=arg" syntax the same way
// ParseEventString does for events.
func ParseActionString(s string) (name, arg string) {
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// BuiltinActionFromString constructs a built-in Action from its compact
// string form. Unknown names return ok=false so the caller's factory
// chain can try plugin-contributed actions next.
func BuiltinActionFromString(s string) (Action, bool) {
	name, arg := ParseActionString(s)
	switch name {
	case ActionSucceed, ActionFail, ActionStop, ActionPause, ActionReset, ActionNop:
		return Action{Name: name, Args: confval.Map{}}, true
	case ActionLog:
		return Action{Name: name, Args: confval.Map{"message": confval.String(arg)}}, true
	case ActionCommand:
		return Action{Name: name, Args: confval.Map{"command": confval.String(arg)}}, true
	case ActionEvent:
		evName, evArg := ParseEventString(arg)
		return Action{Name: name, Args: confval.Map{"event": confval.String(evName), "arg": confval.String(evArg)}}, true
	default:
		return Action{}, false
	}
}
