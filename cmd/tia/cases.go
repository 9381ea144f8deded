package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var casesFormat string

var casesCmd = &cobra.Command{
	Use:   "cases <test-file>",
	Short: "List the test cases in one file",
	Long: `Extract the individual test cases from a test file: name, line,
classified type (unit, integration, e2e, performance, snapshot), tags,
and run-history aggregates when available.

Examples:
  tia cases src/auth/login.test.ts
  tia cases tests/test_billing.py --format=json`,
	Args: cobra.ExactArgs(1),
	RunE: runCases,
}

func init() {
	casesCmd.Flags().StringVar(&casesFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(casesCmd)
}

func runCases(cmd *cobra.Command, args []string) error {
	logger := newLogger(casesFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	cases, err := eng.AnalyzeTestFile(newContext(), args[0])
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Printf("No test cases found in %s\n", args[0])
		return nil
	}

	out, err := FormatResponse(cases, OutputFormat(casesFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
