package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyDays   int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history [testId]",
	Short: "Show recorded run history",
	Long: `Show run history for one test, or for every tracked test when no id
is given. History is a rolling window; old runs age out by count and
queries trim by the trailing day window.

Examples:
  tia history
  tia history 4f1c29aa50b3d2e8 --days=7
  tia history export history.tia.zst
  tia history import history.tia.zst`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export run history and quarantine to a compressed archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

var historyImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an exported history archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryImport,
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "Trailing window in days (0 uses the configured default)")
	historyCmd.Flags().StringVar(&historyFormat, "format", "json", "Output format (json, human)")
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := newLogger(historyFormat)
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	testId := ""
	if len(args) > 0 {
		testId = args[0]
	}

	histories := eng.GetTestHistory(testId, historyDays)
	if len(histories) == 0 {
		fmt.Println("No run history recorded.")
		return nil
	}

	out, err := FormatResponse(histories, OutputFormat(historyFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	db := mustGetDB(repoRoot, logger)

	if err := db.Export(args[0]); err != nil {
		return err
	}
	fmt.Printf("Exported history to %s\n", args[0])
	return nil
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	db := mustGetDB(repoRoot, logger)

	imported, err := db.Import(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d runs from %s\n", imported, args[0])
	return nil
}
