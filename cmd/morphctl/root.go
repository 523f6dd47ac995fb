// Command morphctl is a CLI front end for the morphetl converter
// registry, planner, executor, and workflow driver: list available
// converters, plan a conversion chain without running it, or run one end
// to end.
package main

import (
	"log/slog"
	"os"

	"github.com/carlodf/morphetl/converters"
	"github.com/carlodf/morphetl/internal/logging"
	"github.com/carlodf/morphetl/registry"
	"github.com/spf13/cobra"
)

// app bundles the state one invocation of the CLI needs, built fresh by
// newRootCmd so concurrent Execute calls (as in tests) never share
// mutable package-level state.
type app struct {
	quiet     bool
	logLevel  string
	logFormat string
	reg       *registry.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "morphctl",
		Short:         "Type-driven data transformation",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := a.logLevel
			if a.quiet {
				level = "error"
			}
			handler, err := logging.NewHandler(cmd.ErrOrStderr(), level, a.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(handler))
			a.reg = converters.NewRegistry()
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format: text, json")

	root.AddCommand(newListCmd(a))
	root.AddCommand(newPlanCmd(a))
	root.AddCommand(newConvertCmd(a))
	root.AddCommand(newCompletionsCmd(root))

	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
