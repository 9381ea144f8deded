package discover

import (
	"path/filepath"
	"regexp"
	"strings"

	"tia/internal/framework"
)

// Case detection is heuristic line-pattern matching against the
// call-site conventions of each framework, not a syntax tree. The
// conventions themselves are the contract being matched.

var (
	// it("name", ...) / test("name", ...) / it.each(...)("name") in
	// jest, vitest and mocha, including specify() for mocha.
	jsCasePattern = regexp.MustCompile(`^\s*(?:it|test|specify)(?:\.\w+(?:\([^)]*\))?)*\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)

	// def test_xxx( in pytest.
	pytestCasePattern = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(test_\w+)\s*\(`)

	// func TestXxx(t *testing.T) and func BenchmarkXxx(b *testing.B).
	goCasePattern = regexp.MustCompile(`^func\s+((?:Test|Benchmark)\w+)\s*\(`)

	// @Test-annotated method declarations in JUnit.
	junitAnnotationPattern = regexp.MustCompile(`^\s*@(?:Test|ParameterizedTest|RepeatedTest)\b`)
	junitMethodPattern     = regexp.MustCompile(`\bvoid\s+(\w+)\s*\(`)
)

// tagMarkers is the fixed tag vocabulary scanned from the case line
// and the five preceding lines, in reported order.
var tagMarkers = []string{"slow", "flaky", "skip", "integration", "e2e"}

// tagLookback is how many preceding lines are scanned for markers.
const tagLookback = 5

// IsTestFile reports whether a relative path matches the filename
// conventions of the given framework.
func IsTestFile(relPath string, fw framework.Framework) bool {
	base := filepath.Base(relPath)
	slashed := filepath.ToSlash(relPath)

	switch fw {
	case framework.Jest, framework.Vitest, framework.Mocha:
		if !hasJSExt(base) {
			return false
		}
		if strings.Contains(slashed, "__tests__/") {
			return true
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec")
	case framework.Pytest:
		if !strings.HasSuffix(base, ".py") {
			return false
		}
		return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
	case framework.GoTest:
		return strings.HasSuffix(base, "_test.go")
	case framework.JUnit:
		if !strings.HasSuffix(base, ".java") && !strings.HasSuffix(base, ".kt") {
			return false
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return strings.HasSuffix(stem, "Test") || strings.HasSuffix(stem, "Tests") ||
			strings.HasPrefix(stem, "Test")
	}
	return false
}

func hasJSExt(base string) bool {
	switch filepath.Ext(base) {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		return true
	}
	return false
}

// matchCase extracts a case name from a single line, if the line
// declares one for the given framework. JUnit cases are matched from
// the annotation line by the caller, which also scans forward for the
// method name.
func matchCase(line string, fw framework.Framework) (string, bool) {
	switch fw {
	case framework.Jest, framework.Vitest, framework.Mocha:
		if m := jsCasePattern.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	case framework.Pytest:
		if m := pytestCasePattern.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	case framework.GoTest:
		if m := goCasePattern.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// e2e > integration > performance > snapshot > unit, first match wins.
var (
	e2eTokens         = []string{"e2e", "end-to-end", "acceptance"}
	integrationTokens = []string{"integration", "integ"}
	performanceTokens = []string{"performance", "perf", "benchmark", "bench", "load"}
)

// ClassifyType assigns a test type from path and name keywords using a
// fixed precedence.
func ClassifyType(relPath, caseName string) TestType {
	path := strings.ToLower(filepath.ToSlash(relPath))
	name := strings.ToLower(caseName)

	for _, tok := range e2eTokens {
		if strings.Contains(path, tok) {
			return TypeE2E
		}
	}
	for _, tok := range integrationTokens {
		if strings.Contains(path, tok) || strings.Contains(name, tok) {
			return TypeIntegration
		}
	}
	for _, tok := range performanceTokens {
		if strings.Contains(path, tok) || strings.Contains(name, tok) {
			return TypePerformance
		}
	}
	if strings.Contains(name, "snapshot") || strings.Contains(path, ".snap") {
		return TypeSnapshot
	}
	return TypeUnit
}

// extractTags scans the case line plus up to tagLookback preceding
// lines for the fixed marker vocabulary. No markers means no tags.
func extractTags(lines []string, caseIdx int) []string {
	start := caseIdx - tagLookback
	if start < 0 {
		start = 0
	}
	window := strings.ToLower(strings.Join(lines[start:caseIdx+1], "\n"))

	var tags []string
	for _, marker := range tagMarkers {
		if containsMarker(window, marker) {
			tags = append(tags, marker)
		}
	}
	return tags
}

// containsMarker matches a marker as an @-prefixed or word-bounded
// token so that "slow" does not fire on "slowly".
func containsMarker(text, marker string) bool {
	if strings.Contains(text, "@"+marker) {
		return true
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], marker)
		if i < 0 {
			return false
		}
		i += idx
		before := byte(' ')
		if i > 0 {
			before = text[i-1]
		}
		after := byte(' ')
		if i+len(marker) < len(text) {
			after = text[i+len(marker)]
		}
		if !isWordByte(before) && !isWordByte(after) {
			return true
		}
		idx = i + len(marker)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
