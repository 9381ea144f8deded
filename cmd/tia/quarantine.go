package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quarantineReason string

var quarantineCmd = &cobra.Command{
	Use:   "quarantine <testId>",
	Short: "Quarantine a test",
	Long: `Exclude a test from selection until it is released. Quarantine never
touches run history, so the test keeps accumulating evidence while it
sits out. The registry persists in the database; entries can also be
declared in .tia/quarantine.toml for review in version control.

Examples:
  tia quarantine 4f1c29aa50b3d2e8 --reason="fails under parallel runs"
  tia unquarantine 4f1c29aa50b3d2e8`,
	Args: cobra.ExactArgs(1),
	RunE: runQuarantine,
}

var unquarantineCmd = &cobra.Command{
	Use:   "unquarantine <testId>",
	Short: "Release a quarantined test",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnquarantine,
}

func init() {
	quarantineCmd.Flags().StringVar(&quarantineReason, "reason", "", "Why the test is quarantined")
	rootCmd.AddCommand(quarantineCmd)
	rootCmd.AddCommand(unquarantineCmd)
}

func runQuarantine(cmd *cobra.Command, args []string) error {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	if err := eng.QuarantineTest(args[0], quarantineReason); err != nil {
		return err
	}
	fmt.Printf("Quarantined %s\n", args[0])
	return nil
}

func runUnquarantine(cmd *cobra.Command, args []string) error {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	if err := eng.UnquarantineTest(args[0]); err != nil {
		return err
	}
	fmt.Printf("Released %s from quarantine\n", args[0])
	return nil
}
