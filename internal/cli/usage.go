package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// usageTopics gives a one-line explanation for a handful of
// configuration pointers and trigger names users commonly look up;
// it is intentionally not exhaustive — flag-parsing polish and a full
// reference are out of scope.
var usageTopics = map[string]string{
	"/engine":              "engine-wide settings: working_dir, registry_path, plugin_path, security, watchdog_default_timeout",
	"/simulators":          "array of simulator entries, each {binding, name?, args?}",
	"/vehicles":            "array of vehicle entries, each {name, from?:{simulator,index?}, components?}",
	"/controllers":         "array of controller entries, each {binding, name?, vehicle?, args?}",
	"/triggers":            "array of trigger entries, each {event, action, label?, sticky?, conceal?}",
	"/simulation":          "run-level settings: model_step_width, realtime_factor, script, abort_on_failure, controller_retry_limit, controller_retry_sleep, abort_on_controller_failure, keep_alive",
	"start":                "event fired once, in the START state before the first cycle",
	"stop":                 "event fired when the simulation stops",
	"next":                 "event fired at the start of every cycle, before simulators and controllers step",
	"time=T":               "event fired once logical time reaches or passes T seconds",
	"fail":                 "action raising a FAIL interrupt",
	"succeed":               "action raising a SUCCEED interrupt",
}

// NewUsageCommand prints a short explanation of a configuration
// pointer or trigger keyword, or lists all known topics with no
// argument.
func NewUsageCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "usage [key|path]",
		Short: "explain a configuration pointer or trigger keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for k, v := range usageTopics {
					fmt.Fprintf(out, "%-20s %s\n", k, v)
				}
				return nil
			}
			if v, ok := usageTopics[args[0]]; ok {
				fmt.Fprintln(out, v)
				return nil
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("no usage entry for %q", args[0]))
		},
	}
}
