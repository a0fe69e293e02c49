package trigger

import "fmt"

// InvalidTriggerError reports a malformed trigger Conf — the
// TriggerInvalid subtype of TriggerError.
type InvalidTriggerError struct {
	Reason string
}

func (e *InvalidTriggerError) Error() string {
	return fmt.Sprintf("invalid trigger: %s", e.Reason)
}

// UnknownEventError reports a reference to an event name no factory
// (built-in or plugin) has registered — TriggerUnknownEvent.
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event %q", e.Name)
}

// UnknownActionError reports a reference to an action name no factory
// has registered — TriggerUnknownAction.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}
