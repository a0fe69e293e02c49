package trigger

import "fmt"

// CallbackResult is the executer's verdict on a fired trigger. Unpin
// typically comes from an action that decides its own sticky trigger is
// done (e.g. a counting action that only wants N more firings) and
// removes it from the callback regardless of its Sticky flag.
type CallbackResult int

const (
	ResultOk CallbackResult = iota
	ResultUnpin
)

// Executer runs a single trigger's action against the current
// simulation. The coordinator supplies the concrete function (closing
// over the simulation context); this package only defines the shape so
// Callback stays free of a dependency on the simulation package.
type Executer func(t Trigger) (CallbackResult, error)

// Callback holds every enrolled Trigger for one Kind and knows how to
// run them. AliasCallback lets more than one name (e.g. "time" and
// "virtual_time") share a single canonical Callback.
type Callback interface {
	Kind() Kind
	Insert(t Trigger)
	// Fire evaluates every held trigger against currentSeconds, runs the
	// executer for each that matches, removes non-sticky matches, and
	// re-arms sticky matches (returning their clones so the coordinator
	// can insert them back into distribution for the next cycle).
	Fire(currentSeconds float64, atStep uint64, exec Executer) (rearmed []Trigger, err error)
	Len() int
}

// directCallback is the canonical, trigger-holding implementation of
// Callback for one event kind.
type directCallback struct {
	kind     Kind
	triggers []Trigger
}

// NewDirectCallback constructs the canonical callback for kind.
func NewDirectCallback(kind Kind) Callback {
	return &directCallback{kind: kind}
}

func (c *directCallback) Kind() Kind { return c.kind }

func (c *directCallback) Insert(t Trigger) {
	c.triggers = append(c.triggers, t)
}

func (c *directCallback) Len() int { return len(c.triggers) }

func (c *directCallback) Fire(currentSeconds float64, atStep uint64, exec Executer) ([]Trigger, error) {
	var remaining []Trigger
	var rearmed []Trigger
	for _, t := range c.triggers {
		if !t.Event.Matches(currentSeconds) {
			remaining = append(remaining, t)
			continue
		}
		result, err := exec(t)
		if err != nil {
			return rearmed, fmt.Errorf("execute trigger %s (%s): %w", t.ID, t.Label, err)
		}
		if t.Sticky && result != ResultUnpin {
			rearmed = append(rearmed, t.Rearm(atStep))
		}
		// non-sticky matched triggers, and unpinned sticky ones, are
		// dropped (not appended to remaining)
	}
	c.triggers = remaining
	return rearmed, nil
}

// AliasCallback delegates every operation to a canonical Callback,
// letting a second name route to the same underlying trigger set (e.g.
// "virtual_time" aliasing "time").
type AliasCallback struct {
	alias     Kind
	canonical Callback
}

// NewAliasCallback builds an alias for kind that delegates to canonical.
func NewAliasCallback(kind Kind, canonical Callback) Callback {
	return &AliasCallback{alias: kind, canonical: canonical}
}

func (a *AliasCallback) Kind() Kind                      { return a.alias }
func (a *AliasCallback) Insert(t Trigger)                { a.canonical.Insert(t) }
func (a *AliasCallback) Len() int                         { return a.canonical.Len() }
func (a *AliasCallback) Fire(s float64, step uint64, e Executer) ([]Trigger, error) {
	return a.canonical.Fire(s, step, e)
}
