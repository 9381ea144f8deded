package main

import (
	"tia/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tia",
	Short: "tia - Test Intelligence Analyzer",
	Long: `tia analyzes a repository's test suite: it discovers and classifies
tests across frameworks, selects the tests impacted by a changeset,
detects flaky tests from run history, normalizes coverage reports and
scores overall suite health.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("tia version {{.Version}}\n")
}
