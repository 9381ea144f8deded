// Package impact scores how likely each discovered test is affected by
// a set of changed files and partitions tests into run tiers. Scoring
// is a path/content heuristic with fixed weights, not a call graph.
package impact

import (
	"path/filepath"
	"sort"
	"strings"

	"tia/internal/paths"
)

// FileReader supplies test file content. A false return means the file
// could not be read; the content weight is simply skipped then.
type FileReader func(relPath string) (string, bool)

// Analyzer computes impact scores for test files.
type Analyzer struct {
	readFile FileReader
}

// NewAnalyzer creates an Analyzer backed by the given content reader.
func NewAnalyzer(readFile FileReader) *Analyzer {
	return &Analyzer{readFile: readFile}
}

// fileMatch is one changed file's contribution to a test file's score.
type fileMatch struct {
	changed string
	points  int
	reasons []string
}

// ScoreFile computes the additive, capped impact score of one test
// file against every changed file.
func (a *Analyzer) ScoreFile(testPath string, changedFiles []string) (int, []string, string) {
	content := ""
	if a.readFile != nil {
		if c, ok := a.readFile(testPath); ok {
			content = c
		}
	}

	score := 0
	var matched []string
	var reasons []string

	for _, changed := range changedFiles {
		m := scoreAgainst(testPath, content, changed)
		if m.points == 0 {
			continue
		}
		score += m.points
		matched = append(matched, m.changed)
		reasons = append(reasons, m.reasons...)
	}

	if score > maxScore {
		score = maxScore
	}
	return score, matched, strings.Join(dedupe(reasons), "; ")
}

func scoreAgainst(testPath, content, changed string) fileMatch {
	m := fileMatch{changed: changed}

	base := baseName(changed)
	if base != "" && content != "" && strings.Contains(content, base) {
		m.points += weightContentRef
		m.reasons = append(m.reasons, "references "+base)
	}
	if filepath.Dir(testPath) == filepath.Dir(changed) {
		m.points += weightSameDir
		m.reasons = append(m.reasons, "same directory as "+changed)
	}
	if top := paths.TopSegment(testPath); top != "" && top == paths.TopSegment(changed) {
		m.points += weightSameModule
		m.reasons = append(m.reasons, "same module as "+changed)
	}
	return m
}

// ImpactedTests scores every test file and returns those with a
// non-zero score, highest first, ties broken by path.
func (a *Analyzer) ImpactedTests(testPaths []string, changedFiles []string) []ImpactedTest {
	var impacted []ImpactedTest
	for _, tp := range testPaths {
		score, matched, reason := a.ScoreFile(tp, changedFiles)
		if score == 0 {
			continue
		}
		impacted = append(impacted, ImpactedTest{
			TestId:       tp,
			File:         tp,
			ImpactScore:  score,
			Reason:       reason,
			ChangedFiles: matched,
		})
	}

	sort.Slice(impacted, func(i, j int) bool {
		if impacted[i].ImpactScore != impacted[j].ImpactScore {
			return impacted[i].ImpactScore > impacted[j].ImpactScore
		}
		return impacted[i].File < impacted[j].File
	})
	return impacted
}

// baseName strips directory and extension: "src/user.ts" -> "user".
func baseName(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
