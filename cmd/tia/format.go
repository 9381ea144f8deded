package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"tia/internal/coverage"
	"tia/internal/discover"
	"tia/internal/flaky"
	"tia/internal/health"
	"tia/internal/impact"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case []discover.TestFile:
		return formatTestFilesHuman(v), nil
	case []discover.TestCase:
		return formatTestCasesHuman(v), nil
	case impact.Selection:
		return formatSelectionHuman(v), nil
	case []impact.ImpactedTest:
		return formatImpactedHuman(v), nil
	case []flaky.FlakyTest:
		return formatFlakyHuman(v), nil
	case []coverage.Gap:
		return formatGapsHuman(v), nil
	case health.SuiteHealth:
		return formatHealthHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatTestFilesHuman(files []discover.TestFile) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Test Files: %d\n", len(files)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	total := 0
	for _, f := range files {
		b.WriteString(fmt.Sprintf("  %s (%s, %d tests)\n", f.Path, f.Framework, f.TestCount))
		total += f.TestCount
	}
	b.WriteString(fmt.Sprintf("\nTotal test cases: %d\n", total))
	return b.String()
}

func formatTestCasesHuman(cases []discover.TestCase) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Test Cases: %d\n", len(cases)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, tc := range cases {
		b.WriteString(fmt.Sprintf("  %s:%d %s (%s)\n", tc.File, tc.Line, tc.Name, tc.Type))
		if len(tc.Tags) > 0 {
			b.WriteString(fmt.Sprintf("    Tags: %s\n", strings.Join(tc.Tags, ", ")))
		}
		if tc.Status != discover.StatusUnknown && tc.Status != "" {
			b.WriteString(fmt.Sprintf("    Last: %s", tc.Status))
			if tc.FlakyScore > 0 {
				b.WriteString(fmt.Sprintf(", flaky score %.0f", tc.FlakyScore))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatSelectionHuman(sel impact.Selection) string {
	var b strings.Builder

	b.WriteString("Test Selection\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Must run:   %d\n", len(sel.MustRun)))
	b.WriteString(fmt.Sprintf("Should run: %d\n", len(sel.ShouldRun)))
	b.WriteString(fmt.Sprintf("Can skip:   %d\n", len(sel.CanSkip)))
	b.WriteString(fmt.Sprintf("Saved:      %d tests\n", sel.TotalSaved))
	if sel.EstimatedDuration > 0 {
		b.WriteString(fmt.Sprintf("Estimated:  %dms\n", sel.EstimatedDuration))
	}
	b.WriteString(fmt.Sprintf("Confidence: %d%%\n", sel.Confidence))

	if len(sel.MustRun) > 0 {
		b.WriteString("\nMust run:\n")
		for _, tc := range sel.MustRun {
			b.WriteString(fmt.Sprintf("  %s: %s\n", tc.File, tc.Name))
		}
	}
	if len(sel.ShouldRun) > 0 {
		b.WriteString("\nShould run:\n")
		for _, tc := range sel.ShouldRun {
			b.WriteString(fmt.Sprintf("  %s: %s\n", tc.File, tc.Name))
		}
	}
	return b.String()
}

func formatImpactedHuman(impacted []impact.ImpactedTest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Impacted Test Files: %d\n", len(impacted)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, it := range impacted {
		b.WriteString(fmt.Sprintf("  %s (score %d)\n", it.File, it.ImpactScore))
		b.WriteString(fmt.Sprintf("    %s\n", it.Reason))
	}
	return b.String()
}

func formatFlakyHuman(flakies []flaky.FlakyTest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Flaky Tests: %d\n", len(flakies)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, f := range flakies {
		b.WriteString(fmt.Sprintf("  %s\n", f.TestId))
		b.WriteString(fmt.Sprintf("    Flaky score: %.0f, pass rate: %.0f%%\n", f.FlakyScore, f.PassRate*100))
		if len(f.SuspectedCauses) > 0 {
			causes := make([]string, len(f.SuspectedCauses))
			for i, c := range f.SuspectedCauses {
				causes[i] = string(c)
			}
			b.WriteString(fmt.Sprintf("    Suspected: %s\n", strings.Join(causes, ", ")))
		}
		if f.Recommendation != "" {
			b.WriteString(fmt.Sprintf("    Fix: %s\n", f.Recommendation))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatGapsHuman(gaps []coverage.Gap) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Coverage Gaps: %d\n", len(gaps)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, g := range gaps {
		b.WriteString(fmt.Sprintf("  [%s] %s (%.1f%%)\n", g.Risk, g.File, g.Percentage))
		b.WriteString(fmt.Sprintf("    %s\n", g.Suggestion))
	}
	return b.String()
}

func formatHealthHuman(h health.SuiteHealth) string {
	var b strings.Builder

	b.WriteString("Test Suite Health\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Overall score:  %d/100\n", h.OverallScore))
	b.WriteString(fmt.Sprintf("Line coverage:  %.1f%%\n", h.Coverage))
	b.WriteString(fmt.Sprintf("Flaky tests:    %d\n", h.FlakyTestCount))
	b.WriteString(fmt.Sprintf("Slow tests:     %d\n", h.SlowTestCount))
	b.WriteString(fmt.Sprintf("Duplicate names: %d\n", h.DuplicateTests))

	if len(h.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for i, rec := range h.Recommendations {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, rec))
		}
	}
	return b.String()
}
