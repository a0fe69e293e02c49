package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewShellCommand loads configuration and then hands control to the
// shell, either running each -c command in sequence or, with none
// given, reading commands from stdin until EOF. This is the CLI's call
// surface onto the embedded scripting runtime's job (interactively
// driving a loaded stack); the runtime's own language is out of scope
// here — commands are plain shell lines, not driver-script source.
func NewShellCommand(opts *RootOptions) *cobra.Command {
	var commands []string

	cmd := &cobra.Command{
		Use:   "shell [-c CMD]... FILES...",
		Short: "load configuration and run shell commands against it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := buildStack(cmd.Context(), opts, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			_ = st // configuration is loaded to validate paths/plugins resolve; commands run against the process environment

			simUUID := uuid.NewString()
			_ = os.Setenv("CLOE_SIMULATION_UUID", simUUID)

			if len(commands) > 0 {
				for _, c := range commands {
					if err := runShellLine(cmd, c); err != nil {
						return WrapExitError(ExitFailure, fmt.Sprintf("command %q", c), err)
					}
				}
				return nil
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				if line == "" {
					continue
				}
				if err := runShellLine(cmd, line); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "shell command to run (repeatable); with none given, reads commands from stdin")
	return cmd
}

func runShellLine(cmd *cobra.Command, line string) error {
	c := exec.CommandContext(cmd.Context(), "sh", "-c", line)
	c.Stdin = cmd.InOrStdin()
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	return c.Run()
}
