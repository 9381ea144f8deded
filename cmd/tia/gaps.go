package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	gapsMin    float64
	gapsFocus  []string
	gapsFormat string
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Find coverage gaps",
	Long: `List files whose line coverage falls below the minimum, worst first,
each with a risk tier and a concrete suggestion.

Examples:
  tia gaps
  tia gaps --min=90
  tia gaps --focus=src/auth`,
	RunE: runGaps,
}

func init() {
	gapsCmd.Flags().Float64Var(&gapsMin, "min", 0, "Minimum coverage percent (0 uses the configured default)")
	gapsCmd.Flags().StringSliceVar(&gapsFocus, "focus", nil, "Restrict to paths containing one of these substrings")
	gapsCmd.Flags().StringVar(&gapsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(gapsCmd)
}

func runGaps(cmd *cobra.Command, args []string) error {
	logger := newLogger(gapsFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	gaps, err := eng.FindCoverageGaps(newContext(), gapsMin, gapsFocus)
	if err != nil {
		return err
	}
	if len(gaps) == 0 {
		fmt.Println("No coverage gaps below the threshold.")
		return nil
	}

	out, err := FormatResponse(gaps, OutputFormat(gapsFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
