package main

import (
	"strings"
	"testing"

	"tia/internal/discover"
	"tia/internal/flaky"
	"tia/internal/health"
	"tia/internal/impact"
)

func TestFormatJSON(t *testing.T) {
	out, err := FormatResponse(map[string]int{"a": 1}, FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	if !strings.Contains(out, `"a": 1`) {
		t.Errorf("Unexpected JSON output: %s", out)
	}
}

func TestFormatUnsupported(t *testing.T) {
	if _, err := FormatResponse(nil, OutputFormat("yaml")); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestFormatSelectionHuman(t *testing.T) {
	sel := impact.Selection{
		MustRun: []discover.TestCase{
			{Name: "covers the change", File: "src/user.test.ts"},
		},
		CanSkip:    make([]discover.TestCase, 3),
		TotalSaved: 3,
		Confidence: 75,
	}
	out, err := FormatResponse(sel, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	for _, want := range []string{"Must run:   1", "Saved:      3", "Confidence: 75%", "src/user.test.ts"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatFlakyHuman(t *testing.T) {
	flakies := []flaky.FlakyTest{
		{
			TestId:          "t1",
			FlakyScore:      80,
			PassRate:        0.6,
			SuspectedCauses: []flaky.Cause{flaky.CauseTiming},
			Recommendation:  "Add explicit waits.",
		},
	}
	out, err := FormatResponse(flakies, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	for _, want := range []string{"t1", "80", "60%", "Add explicit waits."} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatHealthHuman(t *testing.T) {
	h := health.SuiteHealth{
		OverallScore:    72,
		Coverage:        64.5,
		FlakyTestCount:  2,
		Recommendations: []string{"Stabilize the flaky tests."},
	}
	out, err := FormatResponse(h, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	for _, want := range []string{"72/100", "64.5%", "Stabilize the flaky tests."} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}
