package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cloe-engine/cloe/internal/confval"
	"github.com/cloe-engine/cloe/internal/schema"
	"github.com/cloe-engine/cloe/internal/simcontext"
	"github.com/cloe-engine/cloe/internal/simulation"
	"github.com/cloe-engine/cloe/internal/stack"
)

// NewRunCommand drives a full simulation from configuration files
// through to a terminal outcome, mapping the outcome to a process
// exit code per outcome.ExitCode().
func NewRunCommand(opts *RootOptions) *cobra.Command {
	var simUUID string
	var allowEmpty bool
	var writeOutput = true
	var progress = true
	var requireSuccess bool

	cmd := &cobra.Command{
		Use:   "run FILES...",
		Short: "run a simulation to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Strict {
				requireSuccess = true
			}
			return runSimulation(cmd.Context(), cmd, opts, args, runFlags{
				uuid:           simUUID,
				allowEmpty:     allowEmpty,
				writeOutput:    writeOutput,
				progress:       progress,
				requireSuccess: requireSuccess,
				probeOnly:      false,
			})
		},
	}
	cmd.Flags().StringVar(&simUUID, "uuid", "", "simulation UUID (default: generated)")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "allow a stack with no simulators/vehicles/controllers")
	cmd.Flags().BoolVar(&writeOutput, "write-output", true, "write the result record to the configured output path")
	cmd.Flags().BoolVar(&progress, "progress", true, "print progress to stderr while running")
	cmd.Flags().BoolVar(&requireSuccess, "require-success", false, "treat a Stopped outcome as a failure exit code")

	return cmd
}

type runFlags struct {
	uuid           string
	allowEmpty     bool
	writeOutput    bool
	progress       bool
	requireSuccess bool
	probeOnly      bool
}

func runSimulation(ctx context.Context, cmd *cobra.Command, opts *RootOptions, files []string, rf runFlags) error {
	st, registry, err := buildStack(ctx, opts, files)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}

	schemaReg, err := schema.NewRegistry()
	if err != nil {
		return WrapExitError(ExitCommandError, "compiling schema", err)
	}
	if !rf.allowEmpty {
		if err := st.Validate(schemaReg); err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
	}

	simUUID := rf.uuid
	if simUUID == "" {
		simUUID = uuid.NewString()
	}

	simOpts := simulation.Options{
		Stack:           st,
		Registry:        registry,
		ProbeOnly:       rf.probeOnly,
		WatchdogMode:    watchdogModeFromOpts(opts),
		PollingInterval: 50 * time.Millisecond,
		DefaultTimeout:  10 * time.Second,
	}
	if rf.progress {
		simOpts.OnProgress = func(step uint64, t time.Duration) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rstep=%d time=%s", step, t)
		}
	}

	result, runErr := simulation.Run(ctx, simOpts, simUUID)
	if result == nil {
		return WrapExitError(ExitCommandError, "running simulation", runErr)
	}

	if rf.writeOutput {
		if err := writeResultOutput(st, simUUID, result); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: writing output: %v\n", err)
		}
	}

	outcome := result.Outcome
	if rf.requireSuccess && outcome == simcontext.OutcomeStopped {
		outcome = simcontext.OutcomeFailure
	}

	printResult(cmd, opts, result)

	if runErr != nil {
		return WrapExitError(outcome.ExitCode(), "simulation ended with an error", runErr)
	}
	if code := outcome.ExitCode(); code != 0 {
		return NewExitError(code, fmt.Sprintf("simulation outcome: %s", result.Outcome))
	}
	return nil
}

func printResult(cmd *cobra.Command, opts *RootOptions, result *simcontext.Result) {
	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		_ = enc.Encode(result)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "outcome=%s step=%d time=%s elapsed=%s\n",
		result.Outcome, result.Step, result.Time, result.Elapsed)
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", e)
	}
}

// writeResultOutput writes result as JSON to the configured
// /output/path (default "cloe_output_<uuid>.json" in the working
// directory), refusing to overwrite an existing file unless
// /output/clobber is set, and auto-creating parent directories.
func writeResultOutput(st *stack.Stack, simUUID string, result *simcontext.Result) error {
	path := fmt.Sprintf("cloe_output_%s.json", simUUID)
	clobber := false
	if v, err := st.Conf().Get("/output/path"); err == nil {
		if s, ok := v.(confval.String); ok && s != "" {
			path = string(s)
		}
	}
	if v, err := st.Conf().Get("/output/clobber"); err == nil {
		if b, ok := v.(confval.Bool); ok {
			clobber = bool(b)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE
	if clobber {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open output file %s (set output.clobber to overwrite): %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
