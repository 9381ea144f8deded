package main

import (
	"fmt"

	"tia/internal/discover"
	"tia/internal/impact"

	"github.com/spf13/cobra"
)

var (
	selectChanged      []string
	selectIncludeFlaky bool
	selectMaxTests     int
	selectTypes        []string
	selectFormat       string
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select tests for a changeset",
	Long: `Tier the suite into mustRun, shouldRun and canSkip based on how
strongly each test file is impacted by the changed files. Flaky and
quarantined tests are excluded unless --include-flaky is set.

Examples:
  tia select --changed=src/auth/login.ts
  tia select --changed=src/api.ts,src/db.ts --max-tests=50
  tia select --changed=src/api.ts --types=unit,integration`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().StringSliceVar(&selectChanged, "changed", nil, "Changed file paths")
	selectCmd.Flags().BoolVar(&selectIncludeFlaky, "include-flaky", false, "Keep flaky tests in selection")
	selectCmd.Flags().IntVar(&selectMaxTests, "max-tests", 0, "Cap selected tests; mustRun wins on overflow")
	selectCmd.Flags().StringSliceVar(&selectTypes, "types", nil, "Keep only these test types")
	selectCmd.Flags().StringVar(&selectFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	logger := newLogger(selectFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	var types []discover.TestType
	for _, t := range selectTypes {
		types = append(types, discover.TestType(t))
	}

	sel, err := eng.SelectTests(newContext(), impact.SelectOptions{
		ChangedFiles: selectChanged,
		IncludeFlaky: selectIncludeFlaky,
		MaxTests:     selectMaxTests,
		TestTypes:    types,
	})
	if err != nil {
		return err
	}

	out, err := FormatResponse(sel, OutputFormat(selectFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
