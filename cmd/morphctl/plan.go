package main

import (
	"fmt"

	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/planner"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	var fromFlag, toFlag string
	var maxCost float64
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "plan <input> <output>",
		Short: "Show the converter chain that would carry input to output, without running it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := fromFlag
			if from == "" {
				f, err := formatFromPath(args[0])
				if err != nil {
					return err
				}
				from = f
			}
			to := toFlag
			if to == "" {
				f, err := formatFromPath(args[1])
				if err != nil {
					return err
				}
				to = f
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Planning: %s -> %s\n", from, to)

			pl := planner.New(a.reg)
			start := props.New().With("format", value.String(from))
			target := pattern.New().EqStr("format", to)
			budget := planner.Budget{MaxCost: maxCost, MaxDepth: maxDepth}

			plan, err := pl.Plan(start, target, budget)
			if err != nil {
				return err
			}

			if plan.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "  (already matches, no conversion needed)")
				return nil
			}
			for i, step := range plan.Steps {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s (%s -> %s)\n", i+1, step.ConverterID, step.InputPort, step.OutputPort)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total cost: %g\n", plan.Cost)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "source format, overriding extension detection")
	cmd.Flags().StringVar(&toFlag, "to", "", "target format, overriding extension detection")
	cmd.Flags().Float64Var(&maxCost, "max-cost", 0, "maximum total plan cost (0 = unlimited)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum plan depth (0 = unlimited)")
	return cmd
}
