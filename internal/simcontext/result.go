package simcontext

import (
	"time"

	"github.com/cloe-engine/cloe/internal/coordinator"
	"github.com/cloe-engine/cloe/internal/simsync"
)

// Result is the SimulationResult gathered by DISCONNECT: everything an
// output-file writer or the HTTP server's /api/simulation endpoint
// needs to report on a finished (or still-running, for the live
// endpoint) run.
type Result struct {
	Outcome    Outcome
	Errors     []string
	Elapsed    time.Duration
	Step       uint64
	Time       time.Duration
	Statistics simsync.Snapshots
	Triggers   []coordinator.HistoryEntry
	Probe      map[string]any
}
