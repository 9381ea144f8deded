// Package config loads and validates the tia configuration.
// Configuration lives at <repoRoot>/.tia/config.json; a missing file
// yields the defaults rather than an error.
package config

import (
	"encoding/json"
	"os"

	"github.com/spf13/viper"

	"tia/internal/paths"
)

// Config represents the complete tia configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	// Framework is an optional explicit framework override; empty means
	// autodetect.
	Framework string `json:"framework,omitempty" mapstructure:"framework"`

	Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
	Selection SelectionConfig `json:"selection" mapstructure:"selection"`
	Flaky     FlakyConfig     `json:"flaky" mapstructure:"flaky"`
	Coverage  CoverageConfig  `json:"coverage" mapstructure:"coverage"`
	Health    HealthConfig    `json:"health" mapstructure:"health"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// DiscoveryConfig controls the test file walk.
type DiscoveryConfig struct {
	// Ignore lists directory names excluded from the walk.
	Ignore []string `json:"ignore" mapstructure:"ignore"`
	// MaxFiles caps the number of enumerated files per scan.
	MaxFiles int `json:"maxFiles" mapstructure:"maxFiles"`
	// Workers bounds the file-read worker pool.
	Workers int `json:"workers" mapstructure:"workers"`
	// MaxFileSizeBytes skips files larger than this during case analysis.
	MaxFileSizeBytes int `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// SelectionConfig controls test selection tiering.
type SelectionConfig struct {
	// MustRunThreshold: impact score above this lands in mustRun.
	MustRunThreshold int `json:"mustRunThreshold" mapstructure:"mustRunThreshold"`
	// ShouldRunThreshold: impact score above this (and at or below
	// MustRunThreshold) lands in shouldRun.
	ShouldRunThreshold int `json:"shouldRunThreshold" mapstructure:"shouldRunThreshold"`
}

// FlakyConfig controls flaky-test detection.
type FlakyConfig struct {
	// Threshold: a test with 0 < passRate < Threshold is flaky.
	Threshold float64 `json:"threshold" mapstructure:"threshold"`
	// MinRuns is the minimum qualifying runs before a verdict.
	MinRuns int `json:"minRuns" mapstructure:"minRuns"`
	// HistoryDays is the default trailing window.
	HistoryDays int `json:"historyDays" mapstructure:"historyDays"`
	// HistoryCapacity bounds the per-test run ring buffer.
	HistoryCapacity int `json:"historyCapacity" mapstructure:"historyCapacity"`
}

// CoverageConfig controls coverage normalization and gap analysis.
type CoverageConfig struct {
	// MinCoverage is the default gap-analysis threshold (percent).
	MinCoverage float64 `json:"minCoverage" mapstructure:"minCoverage"`
	// SearchPaths are probed in order when no report path is supplied.
	SearchPaths []string `json:"searchPaths" mapstructure:"searchPaths"`
}

// HealthConfig controls suite health scoring.
type HealthConfig struct {
	// SlowTestMs is the duration above which a test counts as slow.
	SlowTestMs int `json:"slowTestMs" mapstructure:"slowTestMs"`
	// BaselineCredit is the fixed floor credit added to the overall
	// score.
	BaselineCredit int `json:"baselineCredit" mapstructure:"baselineCredit"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Discovery: DiscoveryConfig{
			Ignore: []string{
				"node_modules", "dist", "build", "coverage", "vendor",
				".git", ".tia", "__pycache__", ".venv", "target", "out",
			},
			MaxFiles:         20000,
			Workers:          8,
			MaxFileSizeBytes: 1000000,
		},
		Selection: SelectionConfig{
			MustRunThreshold:   70,
			ShouldRunThreshold: 30,
		},
		Flaky: FlakyConfig{
			Threshold:       0.95,
			MinRuns:         5,
			HistoryDays:     30,
			HistoryCapacity: 100,
		},
		Coverage: CoverageConfig{
			MinCoverage: 80,
			SearchPaths: []string{
				"coverage/coverage-final.json",
				"coverage/lcov.info",
				"lcov.info",
				"coverage/coverage.json",
			},
		},
		Health: HealthConfig{
			SlowTestMs:     1000,
			BaselineCredit: 20,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .tia/config.json.
// A missing file yields the defaults; a malformed file is an error.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(paths.DataDir(repoRoot))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			cfg.RepoRoot = repoRoot
			return cfg, nil
		}
		return nil, err
	}

	// Start from defaults so partial files only override what they set.
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.RepoRoot = repoRoot
	return cfg, nil
}

// Save writes the configuration to .tia/config.json.
func (c *Config) Save(repoRoot string) error {
	if _, err := paths.EnsureDataDir(repoRoot); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(paths.ConfigPath(repoRoot), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Flaky.Threshold <= 0 || c.Flaky.Threshold > 1 {
		return &ConfigError{Field: "flaky.threshold", Message: "must be in (0, 1]"}
	}
	if c.Selection.ShouldRunThreshold >= c.Selection.MustRunThreshold {
		return &ConfigError{Field: "selection", Message: "shouldRunThreshold must be below mustRunThreshold"}
	}
	if c.Discovery.MaxFiles <= 0 {
		return &ConfigError{Field: "discovery.maxFiles", Message: "must be positive"}
	}
	if c.Flaky.HistoryCapacity <= 0 {
		return &ConfigError{Field: "flaky.historyCapacity", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
