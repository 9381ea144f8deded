package discover

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// TestType classifies a test case by its role in the suite.
type TestType string

const (
	TypeUnit        TestType = "unit"
	TypeIntegration TestType = "integration"
	TypeE2E         TestType = "e2e"
	TypePerformance TestType = "performance"
	TypeSnapshot    TestType = "snapshot"
)

// TestStatus is the last known execution status of a case.
type TestStatus string

const (
	StatusUnknown TestStatus = "unknown"
	StatusPassed  TestStatus = "passed"
	StatusFailed  TestStatus = "failed"
	StatusSkipped TestStatus = "skipped"
)

// TestFile describes one discovered test file. Files are recomputed on
// every scan, never mutated in place.
type TestFile struct {
	Path         string        `json:"path"`
	Framework    string        `json:"framework"`
	TestCount    int           `json:"testCount"`
	LastDuration time.Duration `json:"lastDuration,omitempty"`
}

// TestCase describes one test case found inside a test file.
type TestCase struct {
	// Id is a stable digest of file, line and name so run history can
	// be correlated across scans of an unchanged file.
	Id         string     `json:"id"`
	Name       string     `json:"name"`
	File       string     `json:"file"`
	Line       int        `json:"line"`
	Type       TestType   `json:"type"`
	Tags       []string   `json:"tags,omitempty"`
	Status     TestStatus `json:"status"`
	Duration   int64      `json:"durationMs,omitempty"`
	FlakyScore float64    `json:"flakyScore,omitempty"`
}

// CaseId derives the stable identity for a test case. It is a function
// of file path, line and name only; never of array position.
func CaseId(file string, line int, name string) string {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%s:%d:%s", file, line, name)))
	return hex.EncodeToString(sum[:16])
}
