package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	impactedChanged []string
	impactedFormat  string
)

var impactedCmd = &cobra.Command{
	Use:   "impacted",
	Short: "Show test files impacted by changed files",
	Long: `Score every discovered test file against the changed files and list
the impacted ones, highest score first. Scoring is heuristic: content
references to a changed file weigh most, directory and module
proximity add smaller amounts.

Examples:
  tia impacted --changed=src/auth/login.ts
  tia impacted --changed=src/api.ts,src/db.ts --format=json`,
	RunE: runImpacted,
}

func init() {
	impactedCmd.Flags().StringSliceVar(&impactedChanged, "changed", nil, "Changed file paths")
	impactedCmd.Flags().StringVar(&impactedFormat, "format", "human", "Output format (json, human)")
	_ = impactedCmd.MarkFlagRequired("changed")
	rootCmd.AddCommand(impactedCmd)
}

func runImpacted(cmd *cobra.Command, args []string) error {
	logger := newLogger(impactedFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	impacted, err := eng.GetImpactedTests(newContext(), impactedChanged)
	if err != nil {
		return err
	}

	out, err := FormatResponse(impacted, OutputFormat(impactedFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
