package trigger

import (
	"github.com/google/uuid"
)

// Source records which registrar inserted a trigger, per the Data Model:
// FILESYSTEM (parsed from the configured triggers list), NETWORK (the
// HTTP request handler), MODEL (a plugin's own scripting/driver),
// TRIGGER (spawned by another trigger's action), INSTANCE (a sticky
// trigger's re-armed clone).
type Source string

const (
	SourceFilesystem Source = "filesystem"
	SourceNetwork    Source = "network"
	SourceModel      Source = "model"
	SourceTrigger    Source = "trigger"
	SourceInstance   Source = "instance"
)

// Trigger pairs an Event and an Action with the bookkeeping the
// coordinator needs: a stable ID, its source, an optional label, the
// simulation step it was inserted at, and the sticky/conceal flags.
type Trigger struct {
	ID      string
	Event   Event
	Action  Action
	Source  Source
	Label   string
	Since   uint64 // simulation step at insertion
	Sticky  bool   // re-arm (clone) after firing instead of being removed
	Conceal bool   // omit from the trigger history log
}

// NewTrigger allocates a fresh ID for a newly constructed trigger. IDs
// are content-independent (unlike confval fingerprints used for
// at-most-one dedup) since two textually identical triggers inserted at
// different times are genuinely different triggers.
func NewTrigger(event Event, action Action, source Source, label string, since uint64, sticky, conceal bool) Trigger {
	return Trigger{
		ID:      uuid.NewString(),
		Event:   event,
		Action:  action,
		Source:  source,
		Label:   label,
		Since:   since,
		Sticky:  sticky,
		Conceal: conceal,
	}
}

// Rearm produces the sticky re-armed clone of t: a new ID and
// Source=INSTANCE (per the Open Question decision recorded in
// DESIGN.md), everything else carried over unchanged.
func (t Trigger) Rearm(atStep uint64) Trigger {
	clone := t
	clone.ID = uuid.NewString()
	clone.Source = SourceInstance
	clone.Since = atStep
	return clone
}
