package simsync

import "time"

// Phase names the two progress phases: initialization and execution.
type Phase string

const (
	PhaseInitialization Phase = "initialization"
	PhaseExecution      Phase = "execution"
)

// phaseProgress tracks one phase's [beg, end) range and the percentage
// last reported, per the original's progress-reporting formula:
// 100*(cur-beg)/(end-beg), clamped to [0, 100].
type phaseProgress struct {
	beg, end       float64
	lastReportPct  float64
	lastReportTime time.Time
}

// Progress tracks both phases and decides when a new report is due:
// either >= 10% advanced or >= 10s elapsed since the last report.
type Progress struct {
	phases map[Phase]*phaseProgress
	eta    time.Duration
}

// New constructs a Progress with both phases uninitialized (callers must
// call Begin for each phase before reporting against it).
func New() *Progress {
	return &Progress{phases: map[Phase]*phaseProgress{}}
}

// Begin sets a phase's [beg, end) range and resets its report baseline.
func (p *Progress) Begin(phase Phase, beg, end float64, now time.Time) {
	p.phases[phase] = &phaseProgress{beg: beg, end: end, lastReportTime: now}
}

// Percent computes the clamped percentage for phase at the given current
// value. Returns 0 if the phase was never Begin'd or end == beg (a
// degenerate, already-complete range).
func (p *Progress) Percent(phase Phase, cur float64) float64 {
	pp, ok := p.phases[phase]
	if !ok || pp.end == pp.beg {
		return 0
	}
	pct := 100 * (cur - pp.beg) / (pp.end - pp.beg)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ShouldReport decides whether a progress report is due for phase, given
// the current value and time, per the >=10%-or->=10s rule. If it returns
// true, it also updates the phase's report baseline.
func (p *Progress) ShouldReport(phase Phase, cur float64, now time.Time) bool {
	pp, ok := p.phases[phase]
	if !ok {
		return false
	}
	pct := p.Percent(phase, cur)
	advanced := pct - pp.lastReportPct
	elapsed := now.Sub(pp.lastReportTime)
	if advanced >= 10 || elapsed >= 10*time.Second {
		pp.lastReportPct = pct
		pp.lastReportTime = now
		return true
	}
	return false
}

// SetETA records the overall simulation's estimated time of arrival.
func (p *Progress) SetETA(eta time.Duration) { p.eta = eta }

// ETA returns the last-set estimated time of arrival.
func (p *Progress) ETA() time.Duration { return p.eta }
