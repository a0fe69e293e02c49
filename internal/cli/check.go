package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloe-engine/cloe/internal/schema"
)

// NewCheckCommand loads and validates configuration files without
// running a simulation: schema validation plus the residual structural
// checks (reserved/duplicate names, unresolved references).
func NewCheckCommand(opts *RootOptions) *cobra.Command {
	var summarize bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check FILES...",
		Short: "validate configuration files without running",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := buildStack(cmd.Context(), opts, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}

			schemaReg, err := schema.NewRegistry()
			if err != nil {
				return WrapExitError(ExitCommandError, "compiling schema", err)
			}

			valErr := st.Validate(schemaReg)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				status := "ok"
				var msg string
				if valErr != nil {
					status = "invalid"
					msg = valErr.Error()
				}
				return enc.Encode(map[string]string{"status": status, "error": msg})
			}

			if valErr != nil {
				if summarize {
					fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), valErr.Error())
				}
				return NewExitError(ExitFailure, "configuration is invalid")
			}
			if summarize {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&summarize, "summarize", "s", false, "print only ok/invalid")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print result as JSON")
	return cmd
}
