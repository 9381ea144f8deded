package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"tia/internal/config"
	"tia/internal/engine"
	"tia/internal/logging"
	"tia/internal/storage"
)

var (
	engineOnce   sync.Once
	sharedEngine *engine.Engine
	sharedDB     *storage.DB
	engineErr    error
)

// getEngine returns a shared engine instance, lazily initialized on
// first use.
func getEngine(repoRoot string, logger *logging.Logger) (*engine.Engine, error) {
	engineOnce.Do(func() {
		cfg, err := config.LoadConfig(repoRoot)
		if err != nil {
			logger.Warn("Failed to load config, using defaults", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = config.DefaultConfig()
		}

		db, err := storage.Open(repoRoot, logger)
		if err != nil {
			engineErr = fmt.Errorf("failed to open database: %w", err)
			return
		}
		sharedDB = db

		eng, err := engine.New(repoRoot, cfg, db, logger)
		if err != nil {
			engineErr = fmt.Errorf("failed to create engine: %w", err)
			return
		}
		sharedEngine = eng
	})

	return sharedEngine, engineErr
}

// mustGetEngine returns the shared engine or exits on error.
func mustGetEngine(repoRoot string, logger *logging.Logger) *engine.Engine {
	eng, err := getEngine(repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	return eng
}

// mustGetDB returns the shared database handle or exits on error.
func mustGetDB(repoRoot string, logger *logging.Logger) *storage.DB {
	mustGetEngine(repoRoot, logger)
	return sharedDB
}

// getRepoRoot returns the repository root directory.
func getRepoRoot() (string, error) {
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger creates a logger matching the output format.
func newLogger(format string) *logging.Logger {
	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logging.WarnLevel,
	})
}
