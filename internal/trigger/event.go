// Package trigger implements cloe's Event/Action/Callback/Trigger model:
// the vocabulary the coordinator dispatches and the factories that parse
// it out of Stack configuration or network input.
package trigger

import (
	"strings"

	"github.com/cloe-engine/cloe/internal/confval"
)

// Kind is the discriminator an Event produces at construction time; it
// routes the event to exactly one Callback.
type Kind string

// Built-in event kinds (§4.3a of the requirements: lifecycle events plus
// the virtual_time alias for time).
const (
	KindStart       Kind = "start"
	KindStop        Kind = "stop"
	KindPause       Kind = "pause"
	KindResume      Kind = "resume"
	KindSuccess     Kind = "success"
	KindFailure     Kind = "failure"
	KindTime        Kind = "time"
	KindNext        Kind = "next"
	KindVirtualTime Kind = "time" // alias: "virtual_time" and "time" share a Callback
)

// Event is a parsed trigger event: its Kind plus the argument object
// used both for matching (e.g. the threshold in "time=30") and for
// binding substitution in the paired action.
type Event struct {
	Kind Kind
	Name string // the name as written in config, before alias resolution (e.g. "virtual_time")
	Args confval.Map
}

// Matches reports whether this event's arguments are satisfied by the
// current simulation state. Built-in kinds with no arguments (start,
// stop, pause, resume, success, failure, next) always match once their
// Kind fires; "time" matches once currentSeconds has reached the
// configured threshold.
func (e Event) Matches(currentSeconds float64) bool {
	switch e.Kind {
	case KindTime:
		threshold, ok := e.Args["seconds"]
		if !ok {
			return false
		}
		f, ok := threshold.(confval.Float)
		if !ok {
			if i, ok := threshold.(confval.Int); ok {
				f = confval.Float(i)
			} else {
				return false
			}
		}
		return currentSeconds >= float64(f)
	default:
		return true
	}
}

// ParseEventString parses either compact form syntax: a bare name
// ("start") or "name=arg" (e.g. "time=30"), splitting on the first '='.
// If no '=' appears, the part after is the empty string and is handed to
// the factory's string-make for that event name.
func ParseEventString(s string) (name, arg string) {
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
