// Package coverage normalizes coverage artifacts into one model and
// derives per-file gap records. Parsing degrades gracefully: an
// unrecognizable artifact yields a nil report, never an error.
package coverage

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"tia/internal/logging"
	"tia/internal/paths"
)

// Analyzer locates and parses coverage artifacts for one repository.
type Analyzer struct {
	root        string
	searchPaths []string
	logger      *logging.Logger
}

// NewAnalyzer creates an Analyzer. searchPaths are probed in order
// when no explicit artifact path is supplied.
func NewAnalyzer(root string, searchPaths []string, logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Analyzer{root: root, searchPaths: searchPaths, logger: logger}
}

// Locate returns the first existing coverage artifact path, or "".
func (a *Analyzer) Locate() string {
	for _, rel := range a.searchPaths {
		full := filepath.Join(a.root, filepath.FromSlash(rel))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full
		}
	}
	return ""
}

// Analyze parses the artifact at reportPath, or the first located one
// when reportPath is empty. A missing or unparseable artifact returns
// nil without error; callers treat nil as "no coverage data".
func (a *Analyzer) Analyze(reportPath string) *Report {
	path := reportPath
	if path == "" {
		path = a.Locate()
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(a.root, filepath.FromSlash(path))
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Debug("coverage artifact unreadable", map[string]interface{}{
			"path": path, "error": err.Error(),
		})
		return nil
	}

	report := Parse(data, path)
	if report == nil {
		a.logger.Warn("coverage artifact not recognized", map[string]interface{}{
			"path": path,
		})
		return nil
	}

	// Normalize file keys to repo-relative slashed paths.
	normalized := make(map[string]FileCoverage, len(report.Files))
	for key, fc := range report.Files {
		rel := paths.Canonicalize(key, a.root)
		fc.Path = rel
		normalized[rel] = fc
	}
	report.Files = normalized
	return report
}

// Parse tries each supported format in turn: the format suggested by
// the artifact itself first, then the other.
func Parse(data []byte, path string) *Report {
	looksJSON := strings.HasSuffix(path, ".json") ||
		strings.HasPrefix(strings.TrimSpace(string(data)), "{")

	if looksJSON {
		if r, ok := parseIstanbul(data); ok {
			return r
		}
		if r, ok := parseLCOV(data); ok {
			return r
		}
		return nil
	}

	if r, ok := parseLCOV(data); ok {
		return r
	}
	if r, ok := parseIstanbul(data); ok {
		return r
	}
	return nil
}

// finalizeTotals fills the report-level aggregates from its files.
func finalizeTotals(r *Report) {
	var lines, branches, functions, statements struct{ covered, total int }
	for _, fc := range r.Files {
		lines.covered += fc.Lines.Covered
		lines.total += fc.Lines.Total
		branches.covered += fc.Branches.Covered
		branches.total += fc.Branches.Total
		functions.covered += fc.Functions.Covered
		functions.total += fc.Functions.Total
		statements.covered += fc.Statements.Covered
		statements.total += fc.Statements.Total
	}
	r.Totals.Lines = metric(lines.covered, lines.total)
	r.Totals.Branches = metric(branches.covered, branches.total)
	r.Totals.Functions = metric(functions.covered, functions.total)
	r.Totals.Statements = metric(statements.covered, statements.total)
}

// riskSeverity orders gaps most severe first.
var riskSeverity = map[Risk]int{
	RiskCritical: 0,
	RiskHigh:     1,
	RiskMedium:   2,
	RiskLow:      3,
}

// FindGaps returns files whose line coverage sits below minCoverage,
// optionally restricted to focusFiles (substring match on path).
// Gaps come back ordered by risk severity, worst first.
func FindGaps(report *Report, minCoverage float64, focusFiles []string) []Gap {
	if report == nil {
		return nil
	}

	var gaps []Gap
	for path, fc := range report.Files {
		if fc.Lines.Percentage >= minCoverage {
			continue
		}
		if len(focusFiles) > 0 && !matchesFocus(path, focusFiles) {
			continue
		}
		gaps = append(gaps, Gap{
			File:       path,
			Lines:      fc.UncoveredLines,
			Functions:  fc.Functions.Total - fc.Functions.Covered,
			Percentage: fc.Lines.Percentage,
			Risk:       classifyRisk(fc.Lines.Percentage),
			Suggestion: suggest(fc),
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		if riskSeverity[gaps[i].Risk] != riskSeverity[gaps[j].Risk] {
			return riskSeverity[gaps[i].Risk] < riskSeverity[gaps[j].Risk]
		}
		if gaps[i].Percentage != gaps[j].Percentage {
			return gaps[i].Percentage < gaps[j].Percentage
		}
		return gaps[i].File < gaps[j].File
	})
	return gaps
}

func matchesFocus(path string, focusFiles []string) bool {
	for _, f := range focusFiles {
		if f != "" && strings.Contains(path, f) {
			return true
		}
	}
	return false
}

// classifyRisk applies the fixed percentage bands. These only apply to
// files already below the caller's minimum.
func classifyRisk(linePct float64) Risk {
	switch {
	case linePct < 50:
		return RiskCritical
	case linePct < 60:
		return RiskHigh
	case linePct < 70:
		return RiskMedium
	default:
		return RiskLow
	}
}

func suggest(fc FileCoverage) string {
	uncoveredFns := fc.Functions.Total - fc.Functions.Covered
	if uncoveredFns > 0 {
		return "Cover the " + strconv.Itoa(uncoveredFns) + " untested function(s) first; they close gaps fastest."
	}
	if len(fc.UncoveredLines) > 0 {
		return "Add tests exercising the uncovered lines, starting with branch-heavy ones."
	}
	return "Raise line coverage above the minimum threshold."
}
