package main

import (
	"encoding/json"
	"fmt"

	"github.com/carlodf/morphetl/converter"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available converters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []converterEntry
			a.reg.Iter(func(c converter.Converter) bool {
				entries = append(entries, describeConverter(c))
				return true
			})

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Available converters:")
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-30s %s -> %s (cost %.1f)\n", e.ID, e.Inputs, e.Outputs, e.Cost)
				if e.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", e.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")
	return cmd
}

type converterEntry struct {
	ID          string  `json:"id"`
	Description string  `json:"description,omitempty"`
	Cost        float64 `json:"cost"`
	Inputs      string  `json:"inputs"`
	Outputs     string  `json:"outputs"`
}

func describeConverter(c converter.Converter) converterEntry {
	decl := c.Decl()
	return converterEntry{
		ID:          decl.ID,
		Description: decl.Description,
		Cost:        decl.EffectiveCost(),
		Inputs:      joinPortNames(decl.Inputs.Names()),
		Outputs:     joinPortNames(decl.Outputs.Names()),
	}
}

func joinPortNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += "," + n
	}
	return out
}
