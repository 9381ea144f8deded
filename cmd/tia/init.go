package main

import (
	"fmt"
	"os"

	"tia/internal/config"
	"tia/internal/framework"
	"tia/internal/paths"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tia configuration",
	Long:  "Creates a .tia/ directory with default configuration in the current repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()

	configPath := paths.ConfigPath(repoRoot)
	if _, err := os.Stat(configPath); err == nil && !initForce {
		// Idempotent: already initialized is success
		fmt.Println("tia already initialized.")
		fmt.Printf("Configuration at: %s\n", configPath)
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = repoRoot
	if err := cfg.Save(repoRoot); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	fw := framework.Detect(repoRoot)
	fmt.Println("Initialized tia.")
	fmt.Printf("Configuration at: %s\n", configPath)
	fmt.Printf("Detected framework: %s\n", fw)
	return nil
}
