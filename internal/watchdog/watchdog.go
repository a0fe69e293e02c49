// Package watchdog enforces per-state execution deadlines: when enabled,
// each state machine state runs on a worker goroutine the driver polls,
// and a timeout is handled per the configured Mode.
package watchdog

import (
	"context"
	"fmt"
	"time"
)

// Mode selects what happens when a state's deadline is exceeded.
type Mode string

const (
	ModeOff   Mode = "off"
	ModeLog   Mode = "log"
	ModeAbort Mode = "abort"
	ModeKill  Mode = "kill"
)

// TimeoutError reports that a named state exceeded its deadline: a
// typed error carrying the identifying context plus the limit hit.
type TimeoutError struct {
	State   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("state %q exceeded its %s timeout", e.State, e.Timeout)
}

// Watchdog holds the per-state timeout table plus defaults and runs
// states under deadline enforcement.
type Watchdog struct {
	mode            Mode
	pollingInterval time.Duration
	defaultTimeout  time.Duration
	perState        map[string]time.Duration
	onLog           func(msg string)
	onKill          func()
}

// New constructs a Watchdog. onKill is called (and expected not to
// return) when Mode is "kill" and a timeout fires; tests can supply a
// non-terminating stub.
func New(mode Mode, pollingInterval, defaultTimeout time.Duration, onLog func(string), onKill func()) *Watchdog {
	if onLog == nil {
		onLog = func(string) {}
	}
	if onKill == nil {
		onKill = func() {}
	}
	return &Watchdog{
		mode:            mode,
		pollingInterval: pollingInterval,
		defaultTimeout:  defaultTimeout,
		perState:        map[string]time.Duration{},
		onLog:           onLog,
		onKill:          onKill,
	}
}

// SetStateTimeout overrides the default timeout for a named state (""
// removes any override, falling back to the default).
func (w *Watchdog) SetStateTimeout(state string, d time.Duration) {
	if d <= 0 {
		delete(w.perState, state)
		return
	}
	w.perState[state] = d
}

func (w *Watchdog) timeoutFor(state string) time.Duration {
	if d, ok := w.perState[state]; ok {
		return d
	}
	return w.defaultTimeout
}

// Run executes fn, enforcing state's deadline when the watchdog is
// enabled (Mode != off). Returns fn's error directly when it completes
// in time. On timeout: mode log calls onLog and returns fn's eventual
// result once it completes (fn is not cancelled — there is no
// forcible-cancel hook into a model call); mode abort
// returns a *TimeoutError immediately, without waiting for fn; mode kill
// calls onKill, which is expected to terminate the process.
func (w *Watchdog) Run(ctx context.Context, state string, fn func(context.Context) error) error {
	if w.mode == ModeOff {
		return fn(ctx)
	}

	timeout := w.timeoutFor(state)
	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	ticker := time.NewTicker(w.pollingInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(timeout)
	firedTimeout := false

	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			if firedTimeout || time.Now().Before(deadline) {
				continue
			}
			firedTimeout = true
			switch w.mode {
			case ModeLog:
				w.onLog(fmt.Sprintf("state %q exceeded its %s timeout (continuing to wait)", state, timeout))
			case ModeAbort:
				return &TimeoutError{State: state, Timeout: timeout}
			case ModeKill:
				w.onKill()
				return &TimeoutError{State: state, Timeout: timeout}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
