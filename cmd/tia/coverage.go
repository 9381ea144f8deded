package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	coverageReport string
	coverageFormat string
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Normalize a coverage report",
	Long: `Parse a coverage artifact (istanbul coverage-final.json or lcov.info)
into the unified coverage model with per-file and total metrics.
Without --report the configured search paths are probed in order.

Examples:
  tia coverage
  tia coverage --report=coverage/lcov.info
  tia coverage --format=human`,
	RunE: runCoverage,
}

func init() {
	coverageCmd.Flags().StringVar(&coverageReport, "report", "", "Coverage artifact path (empty probes search paths)")
	coverageCmd.Flags().StringVar(&coverageFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	logger := newLogger(coverageFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	report, err := eng.AnalyzeCoverage(newContext(), coverageReport)
	if err != nil {
		return err
	}
	if report == nil {
		fmt.Println("No coverage report found.")
		return nil
	}

	out, err := FormatResponse(report, OutputFormat(coverageFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
