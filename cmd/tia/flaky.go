package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flakyDays   int
	flakyFormat string
)

var flakyCmd = &cobra.Command{
	Use:   "flaky",
	Short: "Detect flaky tests from run history",
	Long: `Analyze recorded run history and flag tests that both pass and fail
without code changes. Each flagged test comes with suspected causes
inferred from error text and timing variance, plus a fix
recommendation.

Examples:
  tia flaky
  tia flaky --days=7
  tia flaky --format=json`,
	RunE: runFlaky,
}

func init() {
	flakyCmd.Flags().IntVar(&flakyDays, "days", 0, "Trailing window in days (0 uses the configured default)")
	flakyCmd.Flags().StringVar(&flakyFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(flakyCmd)
}

func runFlaky(cmd *cobra.Command, args []string) error {
	logger := newLogger(flakyFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	flakies, err := eng.DetectFlakyTests(newContext(), flakyDays)
	if err != nil {
		return err
	}
	if len(flakies) == 0 {
		fmt.Println("No flaky tests detected.")
		return nil
	}

	out, err := FormatResponse(flakies, OutputFormat(flakyFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
