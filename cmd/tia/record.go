package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tia/internal/history"

	"github.com/spf13/cobra"
)

var recordFile string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record test run results",
	Long: `Append a batch of run results to history. Results are read as a JSON
array of {testId, passed, durationMs, error, timestamp} objects from
--file, or from stdin when --file is omitted.

Examples:
  tia record --file=results.json
  my-test-runner --report=tia | tia record`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordFile, "file", "", "Results file (JSON array); stdin when omitted")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	var data []byte
	var err error
	if recordFile != "" {
		data, err = os.ReadFile(recordFile)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read results: %w", err)
	}

	var results []history.RunResult
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("results must be a JSON array of run results: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results to record.")
		return nil
	}

	batchId := eng.RecordTestRun(results)
	fmt.Printf("Recorded %d results (batch %s)\n", len(results), batchId)
	return nil
}
