package coordinator

import (
	"fmt"

	"github.com/cloe-engine/cloe/internal/confval"
	"github.com/cloe-engine/cloe/internal/trigger"
)

// Coordinator owns the single shared trigger ingress queue, the
// Callback registry triggers distribute into, and the fired-trigger
// history. One Coordinator exists per simulation.
type Coordinator struct {
	queue               *queue
	history             *History
	fingerprints        *fingerprintHistory
	callbacks           map[trigger.Kind]trigger.Callback
	ignoreDuplicates    bool
	onLogicError        func(msg string)
}

// New builds an empty Coordinator. ignoreDuplicates records the Stack's
// engine.triggers_ignore_duplicates setting; Fire does not consult it:
// a trigger whose fingerprint already fired this step is skipped
// silently either way, so duplicates execute at most once per step and
// are never logged.
// onLogicError receives messages for conditions that are a logic
// error (programmer bug), not a user error — by default this
// panics, since such a condition indicates an engine bug, not bad user
// input.
func New(ignoreDuplicates bool, onLogicError func(msg string)) *Coordinator {
	if onLogicError == nil {
		onLogicError = func(msg string) { panic("cloe: " + msg) }
	}
	return &Coordinator{
		queue:            newQueue(),
		history:          newHistory(),
		fingerprints:     newFingerprintHistory(),
		callbacks:        map[trigger.Kind]trigger.Callback{},
		ignoreDuplicates: ignoreDuplicates,
		onLogicError:     onLogicError,
	}
}

// RegisterCallback enrolls the canonical Callback for kind. Enrollment
// happens once per kind, during connect → enroll(Registrar); Register
// returns the callback so the enrolling component can fire it directly
// when it observes its event.
func (c *Coordinator) RegisterCallback(kind trigger.Kind) trigger.Callback {
	if existing, ok := c.callbacks[kind]; ok {
		return existing
	}
	cb := trigger.NewDirectCallback(kind)
	c.callbacks[kind] = cb
	return cb
}

// RegisterAlias enrolls alias as a second name routing to kind's
// canonical callback (kind must already be registered).
func (c *Coordinator) RegisterAlias(alias, kind trigger.Kind) (trigger.Callback, error) {
	canonical, ok := c.callbacks[kind]
	if !ok {
		return nil, fmt.Errorf("cannot alias %q to unregistered kind %q", alias, kind)
	}
	cb := trigger.NewAliasCallback(alias, canonical)
	c.callbacks[alias] = cb
	return cb, nil
}

// QueueTrigger enqueues t for distribution at the next STEP_END. Ingress
// may come from any thread: the filesystem parser, the network handler,
// a model's scripting driver, or — the two call sites the Open Question
// decision in DESIGN.md covers — an action spawning a new trigger
// (Source=TRIGGER, via QueueSpawned) or a sticky trigger's re-arm
// (Source=INSTANCE, via QueueRearmed).
func (c *Coordinator) QueueTrigger(t trigger.Trigger) {
	c.queue.Enqueue(t)
}

// QueueSpawned enqueues a trigger an action constructed at runtime,
// tagging it Source=TRIGGER.
func (c *Coordinator) QueueSpawned(t trigger.Trigger) {
	t.Source = trigger.SourceTrigger
	c.queue.Enqueue(t)
}

// QueueRearmed enqueues a sticky trigger's Rearm() clone, which already
// carries Source=INSTANCE from Trigger.Rearm.
func (c *Coordinator) QueueRearmed(t trigger.Trigger) {
	c.queue.Enqueue(t)
}

// Distribute drains the ingress queue and inserts each trigger into the
// Callback for its event kind. Called once per cycle, from STEP_END.
// Inserting a trigger whose event kind has no registered Callback is
// reported via onLogicError: it indicates a registrar enrolled an event
// kind's trigger syntax without registering the matching Callback, which
// is an engine bug, not a user error.
func (c *Coordinator) Distribute() {
	for _, t := range c.queue.Drain() {
		cb, ok := c.callbacks[t.Event.Kind]
		if !ok {
			c.onLogicError(fmt.Sprintf("no callback registered for event kind %q (trigger %s)", t.Event.Kind, t.ID))
			continue
		}
		cb.Insert(t)
	}
}

// Fire evaluates the Callback for kind against the current simulation
// time, applying at-most-one-per-fingerprint de-duplication: if the same
// (event, action) fingerprint already fired this step, the trigger is
// skipped silently whatever ignoreDuplicates says; duplicates are
// neither logged nor counted.
func (c *Coordinator) Fire(kind trigger.Kind, currentSeconds float64, atStep uint64, exec trigger.Executer) error {
	cb, ok := c.callbacks[kind]
	if !ok {
		return nil // no enrolled callback for this kind: nothing to fire
	}

	wrapped := func(t trigger.Trigger) (trigger.CallbackResult, error) {
		fp, err := fingerprintOf(t)
		if err != nil {
			return trigger.ResultOk, err
		}
		if c.fingerprints.AlreadyFired(atStep, fp) {
			return trigger.ResultUnpin, nil // already executed this step; drop silently
		}
		c.fingerprints.Record(atStep, fp)

		result, err := exec(t)
		if err != nil {
			return result, err
		}
		c.history.Append(t, atStep, currentSeconds)
		return result, nil
	}

	rearmed, err := cb.Fire(currentSeconds, atStep, wrapped)
	if err != nil {
		return err
	}
	for _, r := range rearmed {
		c.QueueRearmed(r)
	}
	return nil
}

func fingerprintOf(t trigger.Trigger) (string, error) {
	return confval.TriggerFingerprint(string(t.Event.Kind), mapOf(t.Event.Args), t.Action.Name, mapOf(t.Action.Args))
}

func mapOf(m confval.Map) confval.Map {
	if m == nil {
		return confval.Map{}
	}
	return m
}

// History exposes the fired-trigger log for result serialization.
func (c *Coordinator) History() *History { return c.history }

// QueueLen reports how many triggers are currently pending
// distribution, for diagnostics and tests.
func (c *Coordinator) QueueLen() int { return c.queue.Len() }

// ClearFingerprintsBefore bounds the fingerprint de-duplication map's
// memory over a long-running simulation.
func (c *Coordinator) ClearFingerprintsBefore(step uint64) {
	c.fingerprints.ClearBefore(step)
}
