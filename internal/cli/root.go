package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloe-engine/cloe/internal/watchdog"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	LogLevel          string
	PluginPaths       []string
	IgnorePointers    []string
	NoBuiltinPlugins  bool
	NoSystemPlugins   bool
	NoSystemConfs     bool
	NoHooks           bool
	Interpolate       bool
	NoInterpolate     bool
	InterpolateUndef  bool
	Strict            bool
	Secure            bool
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the cloe root command and its subcommand tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Interpolate: true}

	cmd := &cobra.Command{
		Use:           "cloe",
		Short:         "cloe - co-simulation middleware for automated driving models",
		Long:          "cloe sequences simulators, vehicles, and controllers through a shared logical clock, dispatching triggers between them until the run reaches a terminal outcome.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			// --strict implies no-system-plugins/no-system-confs and
			// require-success; --secure implies --strict plus
			// no-hooks/no-interpolate. Layered this way so a user who
			// passes --secure never has to also spell out --strict.
			if opts.Secure {
				opts.Strict = true
				opts.NoHooks = true
				opts.NoInterpolate = true
			}
			if opts.Strict {
				opts.NoSystemPlugins = true
				opts.NoSystemConfs = true
			}
			if opts.NoInterpolate {
				opts.Interpolate = false
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.LogLevel, "log-level", "l", "info", "log level (trace|debug|info|warn|error|critical|off)")
	cmd.PersistentFlags().StringArrayVarP(&opts.PluginPaths, "plugin-path", "p", nil, "additional plugin search path (repeatable)")
	cmd.PersistentFlags().StringArrayVarP(&opts.IgnorePointers, "ignore", "i", nil, "configuration pointer to ignore (repeatable)")
	cmd.PersistentFlags().BoolVar(&opts.NoBuiltinPlugins, "no-builtin-plugins", false, "skip plugins linked into this binary")
	cmd.PersistentFlags().BoolVar(&opts.NoSystemPlugins, "no-system-plugins", false, "skip the system-wide plugin search path")
	cmd.PersistentFlags().BoolVar(&opts.NoSystemConfs, "no-system-confs", false, "skip the system-wide configuration directory")
	cmd.PersistentFlags().BoolVar(&opts.NoHooks, "no-hooks", false, "disable pre-connect/post-disconnect hook commands")
	cmd.PersistentFlags().BoolVar(&opts.NoInterpolate, "no-interpolate", false, "disable ${VAR} interpolation of include paths (the only values interpolated)")
	cmd.PersistentFlags().BoolVar(&opts.InterpolateUndef, "interpolate-undefined", false, "leave an undefined ${VAR} reference unexpanded instead of reporting an error")
	cmd.PersistentFlags().BoolVarP(&opts.Strict, "strict", "t", false, "imply no-system-plugins, no-system-confs, and require-success")
	cmd.PersistentFlags().BoolVar(&opts.Secure, "secure", false, "imply strict, no-hooks, and no-interpolate")

	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewUsageCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewProbeCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func watchdogModeFromOpts(opts *RootOptions) watchdog.Mode {
	if opts.Secure || opts.Strict {
		return watchdog.ModeAbort
	}
	return watchdog.ModeLog
}
