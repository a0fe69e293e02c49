package cli

import (
	"github.com/spf13/cobra"
)

// NewProbeCommand runs the simulation straight through CONNECT to
// PROBE without ever starting (the run/probe distinction is carried
// entirely by simulation.Options.ProbeOnly and the PROBE state itself).
func NewProbeCommand(opts *RootOptions) *cobra.Command {
	var writeOutput bool

	cmd := &cobra.Command{
		Use:   "probe FILES...",
		Short: "report on resolved models and plugins without starting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), cmd, opts, args, runFlags{
				writeOutput: writeOutput,
				progress:    false,
				probeOnly:   true,
			})
		},
	}
	cmd.Flags().BoolVar(&writeOutput, "write-output", false, "write the result record to the configured output path")
	return cmd
}
