// Package engine composes discovery, impact analysis, run history,
// flaky detection, coverage and health scoring behind one handle. The
// CLI and the MCP server both drive this type; neither owns state of
// its own.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"tia/internal/config"
	"tia/internal/coverage"
	"tia/internal/discover"
	"tia/internal/errors"
	"tia/internal/flaky"
	"tia/internal/framework"
	"tia/internal/health"
	"tia/internal/history"
	"tia/internal/impact"
	"tia/internal/logging"
	"tia/internal/paths"
)

// Engine is the per-repository service handle. Construct one per
// repository root; it is safe for concurrent use.
type Engine struct {
	root   string
	cfg    *config.Config
	logger *logging.Logger

	discoverer *discover.Discoverer
	analyzer   *impact.Analyzer
	selector   *impact.Selector
	store      *history.Store
	coverage   *coverage.Analyzer
}

// New builds an Engine for the repository at root. A nil backend keeps
// run history in memory only. Quarantine declarations from
// .tia/quarantine.toml are merged into the registry at construction.
func New(root string, cfg *config.Config, backend history.Backend, logger *logging.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.InvalidArgument, "invalid configuration", err)
	}

	e := &Engine{
		root:   root,
		cfg:    cfg,
		logger: logger,
	}
	e.discoverer = discover.New(root, cfg, logger)
	e.analyzer = impact.NewAnalyzer(e.readRepoFile)
	e.selector = impact.NewSelector(cfg.Selection.MustRunThreshold, cfg.Selection.ShouldRunThreshold)
	e.store = history.NewStore(cfg.Flaky.HistoryCapacity, backend, logger)
	e.coverage = coverage.NewAnalyzer(root, cfg.Coverage.SearchPaths, logger)

	if err := e.store.LoadDeclarations(paths.QuarantineFilePath(root)); err != nil {
		return nil, errors.Wrap(errors.InvalidArgument, "invalid quarantine declarations", err)
	}

	return e, nil
}

// Config returns the engine's active configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Framework resolves the active test framework: the configured
// override when set, otherwise autodetection.
func (e *Engine) Framework() framework.Framework {
	if e.cfg.Framework != "" {
		if fw, ok := framework.Parse(e.cfg.Framework); ok {
			return fw
		}
		e.logger.Warn("ignoring unknown framework override", map[string]interface{}{
			"framework": e.cfg.Framework,
		})
	}
	return framework.Detect(e.root)
}

// DiscoverTests scans the repository for test files.
func (e *Engine) DiscoverTests(ctx context.Context, opts discover.Options) ([]discover.TestFile, error) {
	if opts.Framework == "" {
		opts.Framework = e.Framework()
	}
	return e.discoverer.Discover(ctx, opts)
}

// AnalyzeTestFile extracts the individual test cases from one file.
// Flaky scores from run history are folded onto the cases.
func (e *Engine) AnalyzeTestFile(ctx context.Context, relPath string) ([]discover.TestCase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := paths.Canonicalize(relPath, e.root)
	cases := e.discoverer.AnalyzeFile(rel, e.Framework())
	e.annotate(cases)
	return cases, nil
}

// allCases discovers every test file and extracts its cases.
func (e *Engine) allCases(ctx context.Context, opts discover.Options) ([]discover.TestCase, error) {
	files, err := e.DiscoverTests(ctx, opts)
	if err != nil {
		return nil, err
	}
	fw := opts.Framework
	if fw == "" {
		fw = e.Framework()
	}
	var cases []discover.TestCase
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cases = append(cases, e.discoverer.AnalyzeFile(f.Path, fw)...)
	}
	e.annotate(cases)
	return cases, nil
}

// annotate folds run-history aggregates onto discovered cases: last
// status, average duration and flaky score.
func (e *Engine) annotate(cases []discover.TestCase) {
	for i := range cases {
		runs := e.store.History(cases[i].Id, 0)[cases[i].Id]
		if len(runs) == 0 {
			continue
		}
		last := runs[len(runs)-1]
		if last.Passed {
			cases[i].Status = discover.StatusPassed
		} else {
			cases[i].Status = discover.StatusFailed
		}
		var total int64
		for _, r := range runs {
			total += r.Duration
		}
		cases[i].Duration = total / int64(len(runs))
		cases[i].FlakyScore = flaky.Score(runs)
	}
}

// GetImpactedTests scores every discovered test file against the
// changed files and returns the impacted subset, highest score first.
func (e *Engine) GetImpactedTests(ctx context.Context, changedFiles []string) ([]impact.ImpactedTest, error) {
	files, err := e.DiscoverTests(ctx, discover.Options{})
	if err != nil {
		return nil, err
	}
	testPaths := make([]string, len(files))
	for i, f := range files {
		testPaths[i] = f.Path
	}
	changed := e.canonicalizeAll(changedFiles)
	return e.analyzer.ImpactedTests(testPaths, changed), nil
}

// SelectTests tiers the suite into mustRun, shouldRun and canSkip for
// a changeset. Flaky and quarantined tests are excluded before scoring
// unless opts.IncludeFlaky is set.
func (e *Engine) SelectTests(ctx context.Context, opts impact.SelectOptions) (impact.Selection, error) {
	cases, err := e.allCases(ctx, discover.Options{})
	if err != nil {
		return impact.Selection{}, err
	}

	opts.ChangedFiles = e.canonicalizeAll(opts.ChangedFiles)

	fileScores := make(map[string]int)
	seen := make(map[string]bool)
	for _, tc := range cases {
		if seen[tc.File] {
			continue
		}
		seen[tc.File] = true
		score, _, _ := e.analyzer.ScoreFile(tc.File, opts.ChangedFiles)
		fileScores[tc.File] = score
	}

	excl := impact.ExclusionSet{
		FlakyIds:       e.flakyIds(),
		QuarantinedIds: e.store.QuarantinedIds(),
	}
	return e.selector.Select(cases, fileScores, excl, opts), nil
}

// DetectFlakyTests runs flaky detection over the trailing window.
// days <= 0 uses the configured default.
func (e *Engine) DetectFlakyTests(ctx context.Context, days int) ([]flaky.FlakyTest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = e.cfg.Flaky.HistoryDays
	}
	histories := e.store.History("", days)
	return flaky.Detect(histories, time.Now().UTC(), flaky.Options{
		HistoryDays: days,
		MinRuns:     e.cfg.Flaky.MinRuns,
		Threshold:   e.cfg.Flaky.Threshold,
	}), nil
}

func (e *Engine) flakyIds() map[string]bool {
	histories := e.store.History("", e.cfg.Flaky.HistoryDays)
	verdicts := flaky.Detect(histories, time.Now().UTC(), flaky.Options{
		HistoryDays: e.cfg.Flaky.HistoryDays,
		MinRuns:     e.cfg.Flaky.MinRuns,
		Threshold:   e.cfg.Flaky.Threshold,
	})
	ids := make(map[string]bool, len(verdicts))
	for _, v := range verdicts {
		ids[v.TestId] = true
	}
	return ids
}

// QuarantineTest excludes a test from selection until released.
// Quarantining an already-quarantined test updates the reason.
func (e *Engine) QuarantineTest(testId, reason string) error {
	if testId == "" {
		return errors.New(errors.InvalidArgument, "testId is required")
	}
	e.store.Quarantine(testId, reason)
	e.logger.Info("test quarantined", map[string]interface{}{
		"testId": testId, "reason": reason,
	})
	return nil
}

// UnquarantineTest releases a quarantined test back into selection.
func (e *Engine) UnquarantineTest(testId string) error {
	if testId == "" {
		return errors.New(errors.InvalidArgument, "testId is required")
	}
	e.store.Unquarantine(testId)
	e.logger.Info("test released from quarantine", map[string]interface{}{
		"testId": testId,
	})
	return nil
}

// RecordTestRun appends a batch of run results to history. Returns the
// batch id.
func (e *Engine) RecordTestRun(results []history.RunResult) string {
	return e.store.Record(results)
}

// GetTestHistory returns run history within the trailing window.
// An empty testId returns every tracked test.
func (e *Engine) GetTestHistory(testId string, days int) map[string][]history.RunResult {
	if days <= 0 {
		days = e.cfg.Flaky.HistoryDays
	}
	return e.store.History(testId, days)
}

// AnalyzeCoverage normalizes a coverage artifact into the unified
// report model. An empty reportPath probes the configured search
// paths. Returns nil when no artifact is found or parseable.
func (e *Engine) AnalyzeCoverage(ctx context.Context, reportPath string) (*coverage.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if reportPath == "" {
		reportPath = e.coverage.Locate()
	}
	if reportPath == "" {
		return nil, nil
	}
	return e.coverage.Analyze(reportPath), nil
}

// FindCoverageGaps lists files below the minimum coverage, worst
// first. minCoverage <= 0 uses the configured default.
func (e *Engine) FindCoverageGaps(ctx context.Context, minCoverage float64, focusFiles []string) ([]coverage.Gap, error) {
	if minCoverage <= 0 {
		minCoverage = e.cfg.Coverage.MinCoverage
	}
	report, err := e.AnalyzeCoverage(ctx, "")
	if err != nil {
		return nil, err
	}
	return coverage.FindGaps(report, minCoverage, e.canonicalizeAll(focusFiles)), nil
}

// GetTestHealth computes the composite suite health score. Always
// recomputed fresh from current discovery, coverage and history.
func (e *Engine) GetTestHealth(ctx context.Context) (health.SuiteHealth, error) {
	cases, err := e.allCases(ctx, discover.Options{})
	if err != nil {
		return health.SuiteHealth{}, err
	}
	report, err := e.AnalyzeCoverage(ctx, "")
	if err != nil {
		return health.SuiteHealth{}, err
	}
	flakies, err := e.DetectFlakyTests(ctx, 0)
	if err != nil {
		return health.SuiteHealth{}, err
	}
	return health.Compute(health.Inputs{
		Report:         report,
		Flaky:          flakies,
		Cases:          cases,
		MinCoverage:    e.cfg.Coverage.MinCoverage,
		SlowTestMs:     int64(e.cfg.Health.SlowTestMs),
		BaselineCredit: e.cfg.Health.BaselineCredit,
	}), nil
}

// readRepoFile reads a repo-relative file for impact scoring, honoring
// the discovery size cap.
func (e *Engine) readRepoFile(relPath string) (string, bool) {
	full := filepath.Join(e.root, filepath.FromSlash(relPath))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	if max := e.cfg.Discovery.MaxFileSizeBytes; max > 0 && info.Size() > int64(max) {
		return "", false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (e *Engine) canonicalizeAll(files []string) []string {
	if len(files) == 0 {
		return nil
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = paths.Canonicalize(f, e.root)
	}
	return out
}
