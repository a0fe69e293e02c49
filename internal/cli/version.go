package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags; it defaults to "dev"
// for local builds.
var Version = "dev"

// NewVersionCommand reports the engine version, optionally as JSON.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	var asJSON bool
	var indent bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "print the engine version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(map[string]string{"version": Version})
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print as JSON")
	cmd.Flags().BoolVarP(&indent, "indent", "J", false, "indent JSON output")
	return cmd
}
