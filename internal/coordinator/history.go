package coordinator

import (
	"sync"

	"github.com/cloe-engine/cloe/internal/trigger"
)

// HistoryEntry is one fired trigger recorded with the sim-time it fired
// at; retained in insertion order and never modified once appended.
type HistoryEntry struct {
	Trigger   trigger.Trigger
	AtStep    uint64
	AtSeconds float64
}

// History is the append-only log of fired triggers, serialized into the
// final result record. Concealed triggers are never appended.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func newHistory() *History { return &History{} }

// Append records a firing unless the trigger has Conceal set.
func (h *History) Append(t trigger.Trigger, atStep uint64, atSeconds float64) {
	if t.Conceal {
		return
	}
	h.mu.Lock()
	h.entries = append(h.entries, HistoryEntry{Trigger: t, AtStep: atStep, AtSeconds: atSeconds})
	h.mu.Unlock()
}

// Entries returns a snapshot copy of the history in insertion order.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// fingerprintHistory tracks, per cycle, which trigger fingerprints have
// already fired so a cycle's at-most-one-per-fingerprint rule can be
// enforced without re-scanning the full history on every check.
type fingerprintHistory struct {
	mu   sync.Mutex
	seen map[uint64]map[string]bool // step -> fingerprint -> fired
}

func newFingerprintHistory() *fingerprintHistory {
	return &fingerprintHistory{seen: map[uint64]map[string]bool{}}
}

// AlreadyFired reports whether fingerprint has already fired during
// step.
func (f *fingerprintHistory) AlreadyFired(step uint64, fingerprint string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[step][fingerprint]
}

// Record marks fingerprint as fired during step.
func (f *fingerprintHistory) Record(step uint64, fingerprint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[step] == nil {
		f.seen[step] = map[string]bool{}
	}
	f.seen[step][fingerprint] = true
}

// ClearBefore discards fingerprint records for steps older than step,
// bounding memory over a long-running simulation.
func (f *fingerprintHistory) ClearBefore(step uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.seen {
		if s < step {
			delete(f.seen, s)
		}
	}
}
