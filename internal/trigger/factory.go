package trigger

import (
	"fmt"

	"github.com/cloe-engine/cloe/internal/confval"
)

// EventMaker builds an Event from the compact string argument (the part
// after the first '='). Events and actions are only built from this
// compact form; a structured object is not accepted.
type EventMaker func(arg string) (Event, error)

// ActionMaker builds an Action from a compact string argument.
type ActionMaker func(arg string) (Action, error)

// Factory resolves event and action names (built-in or plugin-
// contributed) into constructors, and is the object Trigger
// construction from Conf goes through.
type Factory struct {
	events  map[string]EventMaker
	actions map[string]ActionMaker
}

// NewFactory returns a Factory pre-populated with the built-in event and
// action catalogue (§4.3a).
func NewFactory() *Factory {
	f := &Factory{events: map[string]EventMaker{}, actions: map[string]ActionMaker{}}
	registerBuiltins(f)
	return f
}

// RegisterEvent adds (or, with clobber, replaces) an event constructor
// under name. Plugins and the built-in catalogue both go through this.
func (f *Factory) RegisterEvent(name string, maker EventMaker, allowClobber bool) error {
	if _, exists := f.events[name]; exists && !allowClobber {
		return fmt.Errorf("duplicate event factory for %q", name)
	}
	f.events[name] = maker
	return nil
}

// RegisterAction adds (or, with clobber, replaces) an action constructor.
func (f *Factory) RegisterAction(name string, maker ActionMaker, allowClobber bool) error {
	if _, exists := f.actions[name]; exists && !allowClobber {
		return fmt.Errorf("duplicate action factory for %q", name)
	}
	f.actions[name] = maker
	return nil
}

// MakeEvent resolves the compact-string form of an event ("name" or
// "name=arg") through the registered factory for name.
func (f *Factory) MakeEvent(s string) (Event, error) {
	name, arg := ParseEventString(s)
	maker, ok := f.events[name]
	if !ok {
		return Event{}, &UnknownEventError{Name: name}
	}
	return maker(arg)
}

// MakeAction resolves the compact-string form of an action.
func (f *Factory) MakeAction(s string) (Action, error) {
	name, arg := ParseActionString(s)
	maker, ok := f.actions[name]
	if !ok {
		return Action{}, &UnknownActionError{Name: name}
	}
	return maker(arg)
}

// FromConf constructs a Trigger from its Conf representation: the map
// must contain "event" and "action" string fields (compact form);
// "label", "sticky", "conceal", and "optional" are optional. When
// optional is true and construction fails, the caller should log a
// warning and drop the trigger rather than propagating the error — this
// function itself just reports the error either way so that policy stays
// with the caller (the stack/coordinator wiring).
func (f *Factory) FromConf(m confval.Map, source Source, atStep uint64) (Trigger, error) {
	eventStr, ok := stringField(m, "event")
	if !ok {
		return Trigger{}, &InvalidTriggerError{Reason: "missing required field \"event\""}
	}
	actionStr, ok := stringField(m, "action")
	if !ok {
		return Trigger{}, &InvalidTriggerError{Reason: "missing required field \"action\""}
	}

	event, err := f.MakeEvent(eventStr)
	if err != nil {
		return Trigger{}, err
	}
	action, err := f.MakeAction(actionStr)
	if err != nil {
		return Trigger{}, err
	}

	label, _ := stringField(m, "label")
	sticky, _ := boolField(m, "sticky")
	conceal, _ := boolField(m, "conceal")

	return NewTrigger(event, action, source, label, atStep, sticky, conceal), nil
}

// EventNames returns every registered event name, in no particular
// order (map iteration order); the dev server's events route returns
// it as is.
func (f *Factory) EventNames() []string {
	out := make([]string, 0, len(f.events))
	for name := range f.events {
		out = append(out, name)
	}
	return out
}

// ActionNames returns every registered action name.
func (f *Factory) ActionNames() []string {
	out := make([]string, 0, len(f.actions))
	for name := range f.actions {
		out = append(out, name)
	}
	return out
}

// IsOptional reports the Conf's "optional" flag, used by callers that
// implement the "log a warning and drop" behavior for optional triggers.
func IsOptional(m confval.Map) bool {
	v, _ := boolField(m, "optional")
	return v
}

func stringField(m confval.Map, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(confval.String)
	return string(s), ok
}

func boolField(m confval.Map, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(confval.Bool)
	return bool(b), ok
}
