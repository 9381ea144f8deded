package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthFormat string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Score overall test suite health",
	Long: `Compute the composite suite health score from coverage, flakiness and
slow-test counts, with recommendations for the biggest problems. The
score is recomputed fresh on every invocation.

Examples:
  tia health
  tia health --format=json`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	logger := newLogger(healthFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	h, err := eng.GetTestHealth(newContext())
	if err != nil {
		return err
	}

	out, err := FormatResponse(h, OutputFormat(healthFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
