package engine

import (
	"context"
	"testing"
	"time"

	"tia/internal/config"
	"tia/internal/discover"
	"tia/internal/history"
	"tia/internal/impact"
	"tia/internal/logging"
	"tia/internal/testutil"
)

var jestPackageJSON = `{"name":"app","devDependencies":{"jest":"^29.0.0"}}`

func newTestEngine(t *testing.T, files map[string]string) *Engine {
	t.Helper()
	root := testutil.TempRepo(t, files)
	cfg := config.DefaultConfig()
	cfg.RepoRoot = root
	e, err := New(root, cfg, nil, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestDiscoverAndAnalyze(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json": jestPackageJSON,
		"src/user.ts":  "export function getUser() {}",
		"src/user.test.ts": `import { getUser } from './user';
it('returns the user', () => {});
it.skip('handles missing user', () => {});
`,
	})
	ctx := context.Background()

	files, err := e.DiscoverTests(ctx, discover.Options{})
	if err != nil {
		t.Fatalf("DiscoverTests failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 test file, got %d", len(files))
	}
	if files[0].Path != "src/user.test.ts" {
		t.Errorf("Path = %q", files[0].Path)
	}
	if files[0].TestCount != 2 {
		t.Errorf("TestCount = %d, want 2", files[0].TestCount)
	}

	cases, err := e.AnalyzeTestFile(ctx, "src/user.test.ts")
	if err != nil {
		t.Fatalf("AnalyzeTestFile failed: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("Expected 2 cases, got %d", len(cases))
	}
	if cases[0].Name != "returns the user" {
		t.Errorf("Name = %q", cases[0].Name)
	}
}

func TestAnalyzeAnnotatesFromHistory(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json":     jestPackageJSON,
		"src/user.test.ts": "it('works', () => {});\n",
	})
	ctx := context.Background()

	cases, err := e.AnalyzeTestFile(ctx, "src/user.test.ts")
	if err != nil {
		t.Fatalf("AnalyzeTestFile failed: %v", err)
	}
	id := cases[0].Id

	now := time.Now().UTC()
	e.RecordTestRun([]history.RunResult{
		{TestId: id, Timestamp: now.Add(-2 * time.Minute), Passed: true, Duration: 100},
		{TestId: id, Timestamp: now.Add(-time.Minute), Passed: false, Duration: 300, Error: "timeout"},
	})

	cases, err = e.AnalyzeTestFile(ctx, "src/user.test.ts")
	if err != nil {
		t.Fatalf("AnalyzeTestFile failed: %v", err)
	}
	tc := cases[0]
	if tc.Status != discover.StatusFailed {
		t.Errorf("Status = %q, want failed", tc.Status)
	}
	if tc.Duration != 200 {
		t.Errorf("Duration = %d, want mean 200", tc.Duration)
	}
	if tc.FlakyScore != 100 {
		t.Errorf("FlakyScore = %v, want 100 for alternating runs", tc.FlakyScore)
	}
}

func TestGetImpactedTests(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json": jestPackageJSON,
		"src/user.ts":  "export function getUser() {}",
		"src/user.test.ts": `import { getUser } from './user';
it('works', () => {});
`,
		"src/other.test.ts": "it('unrelated', () => {});\n",
	})

	impacted, err := e.GetImpactedTests(context.Background(), []string{"src/user.ts"})
	if err != nil {
		t.Fatalf("GetImpactedTests failed: %v", err)
	}
	if len(impacted) != 2 {
		t.Fatalf("Expected 2 impacted files, got %d", len(impacted))
	}
	// user.test.ts references and shares a directory with the change.
	if impacted[0].File != "src/user.test.ts" {
		t.Errorf("Top impacted = %q", impacted[0].File)
	}
	if impacted[0].ImpactScore <= impacted[1].ImpactScore {
		t.Errorf("Scores not descending: %d <= %d",
			impacted[0].ImpactScore, impacted[1].ImpactScore)
	}
}

func TestSelectTestsTiersAndExclusions(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json": jestPackageJSON,
		"src/user.ts":  "export function getUser() {}",
		"src/user.test.ts": `import { getUser } from './user';
it('covers the change', () => {});
`,
		"lib/util.test.ts": "it('far away', () => {});\n",
	})
	ctx := context.Background()

	sel, err := e.SelectTests(ctx, impact.SelectOptions{
		ChangedFiles: []string{"src/user.ts"},
	})
	if err != nil {
		t.Fatalf("SelectTests failed: %v", err)
	}
	if len(sel.MustRun) != 1 || sel.MustRun[0].File != "src/user.test.ts" {
		t.Fatalf("MustRun = %+v", sel.MustRun)
	}
	if len(sel.CanSkip) != 1 || sel.CanSkip[0].File != "lib/util.test.ts" {
		t.Fatalf("CanSkip = %+v", sel.CanSkip)
	}

	// Quarantine the high-impact test; it must drop out of mustRun
	// even though its score is unchanged.
	if err := e.QuarantineTest(sel.MustRun[0].Id, "flaky on CI"); err != nil {
		t.Fatalf("QuarantineTest failed: %v", err)
	}
	sel, err = e.SelectTests(ctx, impact.SelectOptions{
		ChangedFiles: []string{"src/user.ts"},
	})
	if err != nil {
		t.Fatalf("SelectTests failed: %v", err)
	}
	if len(sel.MustRun) != 0 {
		t.Errorf("MustRun after quarantine = %+v", sel.MustRun)
	}
	if len(sel.CanSkip) != 2 {
		t.Errorf("CanSkip after quarantine = %d entries, want 2", len(sel.CanSkip))
	}

	// Release restores selection.
	if err := e.UnquarantineTest(sel.CanSkip[0].Id); err != nil {
		t.Fatalf("UnquarantineTest failed: %v", err)
	}
}

func TestSelectTestsEmptyChangeset(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json":     jestPackageJSON,
		"src/user.test.ts": "it('works', () => {});\n",
	})

	sel, err := e.SelectTests(context.Background(), impact.SelectOptions{})
	if err != nil {
		t.Fatalf("SelectTests failed: %v", err)
	}
	if sel.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100 with no changed files", sel.Confidence)
	}
}

func TestDetectFlakyTests(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json":     jestPackageJSON,
		"src/user.test.ts": "it('works', () => {});\n",
	})

	now := time.Now().UTC()
	var runs []history.RunResult
	for i := 0; i < 10; i++ {
		runs = append(runs, history.RunResult{
			TestId:    "flappy",
			Timestamp: now.Add(time.Duration(-10+i) * time.Minute),
			Passed:    i%2 == 0,
			Duration:  100,
		})
	}
	e.RecordTestRun(runs)

	flakies, err := e.DetectFlakyTests(context.Background(), 0)
	if err != nil {
		t.Fatalf("DetectFlakyTests failed: %v", err)
	}
	if len(flakies) != 1 || flakies[0].TestId != "flappy" {
		t.Fatalf("flakies = %+v", flakies)
	}
	if flakies[0].FlakyScore != 100 {
		t.Errorf("FlakyScore = %v, want 100", flakies[0].FlakyScore)
	}
}

func TestGetTestHistoryWindow(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json": jestPackageJSON,
	})

	now := time.Now().UTC()
	e.RecordTestRun([]history.RunResult{
		{TestId: "t1", Timestamp: now.AddDate(0, 0, -60), Passed: true},
		{TestId: "t1", Timestamp: now, Passed: true},
	})

	got := e.GetTestHistory("t1", 30)
	if len(got["t1"]) != 1 {
		t.Errorf("Expected 1 run inside the 30-day window, got %d", len(got["t1"]))
	}
}

func TestAnalyzeCoverageMissing(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json": jestPackageJSON,
	})
	report, err := e.AnalyzeCoverage(context.Background(), "")
	if err != nil {
		t.Fatalf("AnalyzeCoverage failed: %v", err)
	}
	if report != nil {
		t.Errorf("Expected nil report without an artifact, got %+v", report)
	}
}

func TestGetTestHealth(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json":     jestPackageJSON,
		"src/user.test.ts": "it('works', () => {});\n",
	})

	h, err := e.GetTestHealth(context.Background())
	if err != nil {
		t.Fatalf("GetTestHealth failed: %v", err)
	}
	// No coverage artifact, no flaky tests:
	// 0×0.5 + 100×0.3 + 20 = 50.
	if h.OverallScore != 50 {
		t.Errorf("OverallScore = %d, want 50", h.OverallScore)
	}
	if len(h.Recommendations) == 0 {
		t.Error("Expected a missing-coverage recommendation")
	}
}

func TestQuarantineDeclarationsLoadedOnStart(t *testing.T) {
	// The declared id must match a discoverable case so exclusion is
	// observable through selection.
	declaredId := discover.CaseId("src/user.test.ts", 2, "works")
	root := testutil.TempRepo(t, map[string]string{
		"package.json": jestPackageJSON,
		"src/user.ts":  "export function getUser() {}",
		"src/user.test.ts": `import { getUser } from './user';
it('works', () => {});
`,
		".tia/quarantine.toml": `[[quarantine]]
testId = "` + declaredId + `"
reason = "network dependent"
`,
	})
	e, err := New(root, nil, nil, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sel, err := e.SelectTests(context.Background(), impact.SelectOptions{
		ChangedFiles: []string{"src/user.ts"},
	})
	if err != nil {
		t.Fatalf("SelectTests failed: %v", err)
	}
	if len(sel.MustRun) != 0 {
		t.Errorf("Declared quarantine not applied: MustRun = %+v", sel.MustRun)
	}
}

func TestNewRejectsMalformedDeclarations(t *testing.T) {
	root := testutil.TempRepo(t, map[string]string{
		"package.json":         jestPackageJSON,
		".tia/quarantine.toml": "not [valid toml",
	})
	if _, err := New(root, nil, nil, logging.NewDiscardLogger()); err == nil {
		t.Error("New accepted malformed quarantine declarations")
	}
}

func TestQuarantineRequiresId(t *testing.T) {
	e := newTestEngine(t, map[string]string{"package.json": jestPackageJSON})
	if err := e.QuarantineTest("", "x"); err == nil {
		t.Error("QuarantineTest accepted empty id")
	}
	if err := e.UnquarantineTest(""); err == nil {
		t.Error("UnquarantineTest accepted empty id")
	}
}

func TestContextCancellation(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"package.json":     jestPackageJSON,
		"src/user.test.ts": "it('works', () => {});\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.AnalyzeTestFile(ctx, "src/user.test.ts"); err == nil {
		t.Error("AnalyzeTestFile ignored cancelled context")
	}
}
