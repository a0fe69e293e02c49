// Package driver defines the simulation driver adapter: the interface
// through which an external scripting runtime (or, for headless runs,
// a no-op stand-in) can request alias/bind operations before START and
// receive a report for the Probe state.
package driver

import "context"

// Adapter is the simulation driver surface. A script-driven run
// implements this against a real scripting runtime (e.g. embedding an
// interpreter); Null is the no-op implementation used when no driver
// script is configured.
type Adapter interface {
	// Setup runs once, after all models have enrolled but before START,
	// giving the driver a chance to request Alias/Bind against the
	// registrar-published signal table.
	Setup(ctx context.Context) error

	// Report returns a free-form driver-specific summary for the Probe
	// state's ctx.probe output. Returning nil is valid (no report).
	Report(ctx context.Context) (map[string]any, error)

	// Name identifies the driver for logs and the result record.
	Name() string
}

// Null is the Adapter used when no driver script is configured: Setup
// and Report are no-ops.
type Null struct{}

func (Null) Setup(ctx context.Context) error                    { return nil }
func (Null) Report(ctx context.Context) (map[string]any, error) { return nil, nil }
func (Null) Name() string                                       { return "null" }

var _ Adapter = Null{}
