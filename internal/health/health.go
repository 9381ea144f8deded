// Package health composes coverage, flakiness and slow-test signals
// into one suite health score with recommendations. Scores are
// recomputed fresh on every request, never cached.
package health

import (
	"fmt"
	"math"

	"tia/internal/coverage"
	"tia/internal/discover"
	"tia/internal/flaky"
)

// Fixed blend weights for the overall score.
const (
	coverageWeight = 0.5
	flakyWeight    = 0.3
	// flakyPenaltyPerTest is subtracted from the flaky sub-score for
	// each flaky test.
	flakyPenaltyPerTest = 10
	// slowTestFraction triggers the slow-suite recommendation when
	// exceeded.
	slowTestFraction = 0.10
)

// SuiteHealth is the composite health report.
type SuiteHealth struct {
	// OverallScore is in [0,100].
	OverallScore int `json:"overallScore"`
	// Coverage is the measured line coverage percent; 0 when no
	// coverage artifact is available.
	Coverage       float64  `json:"coverage"`
	FlakyTestCount int      `json:"flakyTestCount"`
	SlowTestCount  int      `json:"slowTestCount"`
	DuplicateTests int      `json:"duplicateTests"`
	// UncoveredCriticalPaths counts critical-risk coverage gaps.
	UncoveredCriticalPaths int      `json:"uncoveredCriticalPaths"`
	Recommendations        []string `json:"recommendations"`
}

// Inputs carries the signals the scorer blends.
type Inputs struct {
	// Report may be nil when no coverage artifact exists.
	Report *coverage.Report
	Flaky  []flaky.FlakyTest
	Cases  []discover.TestCase
	// MinCoverage is the threshold below which a recommendation fires.
	MinCoverage float64
	// SlowTestMs is the duration above which a case counts as slow.
	SlowTestMs int64
	// BaselineCredit is the fixed floor credit added to every score.
	BaselineCredit int
}

// Compute blends the inputs into a SuiteHealth.
// overall = round(coverage×0.5 + flakyPenalty×0.3 + baseline), clamped
// to [0,100], with flakyPenalty = max(0, 100 − 10×flakyCount).
func Compute(in Inputs) SuiteHealth {
	h := SuiteHealth{FlakyTestCount: len(in.Flaky)}

	if in.Report != nil {
		h.Coverage = in.Report.Totals.Lines.Percentage
		for _, fc := range in.Report.Files {
			if fc.Lines.Percentage < 50 {
				h.UncoveredCriticalPaths++
			}
		}
	}

	for _, tc := range in.Cases {
		if in.SlowTestMs > 0 && tc.Duration > in.SlowTestMs {
			h.SlowTestCount++
		}
	}
	h.DuplicateTests = countDuplicates(in.Cases)

	flakyPenalty := math.Max(0, 100-float64(flakyPenaltyPerTest*h.FlakyTestCount))
	raw := h.Coverage*coverageWeight + flakyPenalty*flakyWeight + float64(in.BaselineCredit)
	h.OverallScore = clamp(int(math.Round(raw)), 0, 100)

	h.Recommendations = recommend(h, in)
	return h
}

func recommend(h SuiteHealth, in Inputs) []string {
	var recs []string

	if in.Report == nil {
		recs = append(recs, "No coverage report found; produce one so coverage can be tracked.")
	} else if h.Coverage < in.MinCoverage {
		recs = append(recs, fmt.Sprintf(
			"Line coverage is %.1f%%, below the %.0f%% minimum; add tests for the largest gaps first.",
			h.Coverage, in.MinCoverage))
	}

	if h.FlakyTestCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d flaky test(s) detected; stabilize or quarantine them to restore trust in the suite.",
			h.FlakyTestCount))
	}

	if total := len(in.Cases); total > 0 {
		if float64(h.SlowTestCount)/float64(total) > slowTestFraction {
			recs = append(recs, fmt.Sprintf(
				"%d of %d tests are slow; split or parallelize them to keep feedback fast.",
				h.SlowTestCount, total))
		}
	}

	if h.DuplicateTests > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d duplicate test name(s) found; rename or merge them so failures are attributable.",
			h.DuplicateTests))
	}

	return recs
}

// countDuplicates counts case names appearing in more than one file.
func countDuplicates(cases []discover.TestCase) int {
	files := make(map[string]map[string]bool)
	for _, tc := range cases {
		if files[tc.Name] == nil {
			files[tc.Name] = make(map[string]bool)
		}
		files[tc.Name][tc.File] = true
	}
	dups := 0
	for _, fs := range files {
		if len(fs) > 1 {
			dups++
		}
	}
	return dups
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
