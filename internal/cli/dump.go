package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewDumpCommand merges the given configuration files and prints the
// resulting tree, without validating completeness (unlike check).
func NewDumpCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump FILES...",
		Short: "print the merged configuration tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := buildStack(cmd.Context(), opts, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st.Conf().Root())
		},
	}
}
