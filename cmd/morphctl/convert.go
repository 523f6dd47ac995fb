package main

import (
	"fmt"
	"log/slog"

	"github.com/carlodf/morphetl/executor"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/planner"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	"github.com/carlodf/morphetl/workflow"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		outPath  string
		fromFlag string
		toFlag   string
		maxCost  float64
		maxDepth int
		memLimit int
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a file from one format to another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath := args[0]

			from := fromFlag
			if from == "" {
				f, err := formatFromPath(inPath)
				if err != nil {
					return fmt.Errorf("failed to read %q: %w", inPath, err)
				}
				from = f
			}

			var dest workflow.Sink
			to := toFlag
			if outPath != "" {
				if to == "" {
					f, err := formatFromPath(outPath)
					if err != nil {
						return err
					}
					to = f
				}
				dest = workflow.ToFile(outPath)
			} else {
				if to == "" {
					return fmt.Errorf("--to is required when writing to stdout")
				}
				dest = workflow.ToStdout()
			}

			pl := planner.New(a.reg)
			ex := executor.NewSimpleExecutor()
			execCtx := executor.NewExecutionContext(a.reg).
				WithMemoryLimit(memLimit).
				WithParallelism(workers)

			wf := workflow.Workflow{
				Name: "convert",
				Src:  workflow.FromFile(inPath, props.New().With("format", value.String(from))),
				Steps: []workflow.Step{
					workflow.ToTarget(pattern.New().EqStr("format", to), planner.Budget{MaxCost: maxCost, MaxDepth: maxDepth}),
				},
				Dest: dest,
			}

			result, err := workflow.Run(cmd.Context(), wf, pl, ex, execCtx)
			if err != nil {
				return fmt.Errorf("failed to read %q: %w", inPath, err)
			}

			slog.Info("converted",
				"input", inPath,
				"from", from,
				"to", to,
				"steps", result.Stats.StepsExecuted,
				"duration", result.Stats.Duration,
			)
			if outPath != "" && !a.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s\n", inPath, outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file path (defaults to stdout)")
	cmd.Flags().StringVar(&fromFlag, "from", "", "source format, overriding extension detection")
	cmd.Flags().StringVar(&toFlag, "to", "", "target format, overriding extension detection")
	cmd.Flags().Float64Var(&maxCost, "max-cost", 0, "maximum total plan cost (0 = unlimited)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum plan depth (0 = unlimited)")
	cmd.Flags().IntVar(&memLimit, "memory-limit", 0, "maximum size in bytes of the input file and of each step's output (0 = unlimited)")
	cmd.Flags().IntVar(&workers, "workers", 1, "parallelism for batch conversions")
	return cmd
}
