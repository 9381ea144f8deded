package main

import (
	"fmt"

	"tia/internal/discover"
	"tia/internal/framework"

	"github.com/spf13/cobra"
)

var (
	discoverFramework string
	discoverInclude   []string
	discoverExclude   []string
	discoverFormat    string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover test files",
	Long: `Scan the repository for test files and count the test cases in each.

The test framework is autodetected from project manifests; override it
with --framework when detection guesses wrong.

Examples:
  tia discover
  tia discover --framework=pytest
  tia discover --include=src/ --exclude=fixtures`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverFramework, "framework", "", "Framework override (jest, vitest, mocha, pytest, gotest, junit)")
	discoverCmd.Flags().StringSliceVar(&discoverInclude, "include", nil, "Keep only paths containing one of these substrings")
	discoverCmd.Flags().StringSliceVar(&discoverExclude, "exclude", nil, "Drop paths containing any of these substrings")
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	logger := newLogger(discoverFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	var fw framework.Framework
	if discoverFramework != "" {
		parsed, ok := framework.Parse(discoverFramework)
		if !ok {
			return fmt.Errorf("unknown framework %q (valid: %v)", discoverFramework, framework.All())
		}
		fw = parsed
	}

	files, err := eng.DiscoverTests(newContext(), discover.Options{
		Framework: fw,
		Include:   discoverInclude,
		Exclude:   discoverExclude,
	})
	if err != nil {
		return err
	}

	out, err := FormatResponse(files, OutputFormat(discoverFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
