package coverage

import (
	"bufio"
	"sort"
	"strconv"
	"strings"
)

// parseLCOV parses an LCOV record stream (SF/DA/LF/LH/FNF/FNH/BRF/BRH
// records, one file section per end_of_record). Returns false when the
// data holds no recognizable sections.
func parseLCOV(data []byte) (*Report, bool) {
	report := &Report{Format: "lcov", Files: make(map[string]FileCoverage)}

	var cur *lcovSection
	flush := func() {
		if cur == nil || cur.path == "" {
			cur = nil
			return
		}
		report.Files[cur.path] = cur.normalize()
		cur = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "SF:"):
			flush()
			cur = &lcovSection{path: strings.TrimPrefix(line, "SF:"), daHits: make(map[int]int)}
		case line == "end_of_record":
			flush()
		case cur == nil:
			// Records before any SF: are ignored (TN: etc).
		case strings.HasPrefix(line, "DA:"):
			parts := strings.SplitN(strings.TrimPrefix(line, "DA:"), ",", 3)
			if len(parts) >= 2 {
				lineNo, err1 := strconv.Atoi(parts[0])
				hits, err2 := strconv.Atoi(parts[1])
				if err1 == nil && err2 == nil {
					cur.daHits[lineNo] += hits
					cur.sawDA = true
				}
			}
		case strings.HasPrefix(line, "LF:"):
			cur.lf, _ = strconv.Atoi(strings.TrimPrefix(line, "LF:"))
		case strings.HasPrefix(line, "LH:"):
			cur.lh, _ = strconv.Atoi(strings.TrimPrefix(line, "LH:"))
		case strings.HasPrefix(line, "FNF:"):
			cur.fnf, _ = strconv.Atoi(strings.TrimPrefix(line, "FNF:"))
		case strings.HasPrefix(line, "FNH:"):
			cur.fnh, _ = strconv.Atoi(strings.TrimPrefix(line, "FNH:"))
		case strings.HasPrefix(line, "BRF:"):
			cur.brf, _ = strconv.Atoi(strings.TrimPrefix(line, "BRF:"))
		case strings.HasPrefix(line, "BRH:"):
			cur.brh, _ = strconv.Atoi(strings.TrimPrefix(line, "BRH:"))
		}
	}
	flush()

	if len(report.Files) == 0 {
		return nil, false
	}
	finalizeTotals(report)
	return report, true
}

type lcovSection struct {
	path   string
	daHits map[int]int
	sawDA  bool
	lf, lh int
	fnf, fnh int
	brf, brh int
}

func (s *lcovSection) normalize() FileCoverage {
	fc := FileCoverage{Path: s.path}

	// Prefer per-line DA records; fall back to the LF/LH summary.
	if s.sawDA {
		covered := 0
		for line, hits := range s.daHits {
			if hits > 0 {
				covered++
			} else {
				fc.UncoveredLines = append(fc.UncoveredLines, line)
			}
		}
		sort.Ints(fc.UncoveredLines)
		fc.Lines = metric(covered, len(s.daHits))
	} else {
		fc.Lines = metric(s.lh, s.lf)
	}

	// LCOV has no statement granularity; statements mirror lines.
	fc.Statements = fc.Lines
	fc.Functions = metric(s.fnh, s.fnf)
	fc.Branches = metric(s.brh, s.brf)
	return fc
}
