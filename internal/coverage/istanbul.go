package coverage

import (
	"encoding/json"
	"sort"
)

// istanbulEntry is the per-file record of an istanbul-style hit map
// (coverage-final.json): statement/branch/function maps keyed by id,
// with parallel hit counters.
type istanbulEntry struct {
	Path         string                   `json:"path"`
	StatementMap map[string]istanbulRange `json:"statementMap"`
	S            map[string]int           `json:"s"`
	BranchMap    map[string]json.RawMessage `json:"branchMap"`
	B            map[string][]int         `json:"b"`
	FnMap        map[string]json.RawMessage `json:"fnMap"`
	F            map[string]int           `json:"f"`
}

type istanbulRange struct {
	Start istanbulPos `json:"start"`
	End   istanbulPos `json:"end"`
}

type istanbulPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// parseIstanbul parses an istanbul hit-map artifact. Returns false when
// the data is not that shape.
func parseIstanbul(data []byte) (*Report, bool) {
	var raw map[string]istanbulEntry
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 {
		return nil, false
	}

	report := &Report{Format: "istanbul", Files: make(map[string]FileCoverage, len(raw))}
	recognized := false

	for key, entry := range raw {
		// A hit map without statement counters is not istanbul data.
		if entry.S == nil && entry.F == nil && entry.B == nil {
			continue
		}
		recognized = true

		path := entry.Path
		if path == "" {
			path = key
		}
		report.Files[path] = normalizeIstanbulEntry(path, entry)
	}

	if !recognized {
		return nil, false
	}
	finalizeTotals(report)
	return report, true
}

func normalizeIstanbulEntry(path string, entry istanbulEntry) FileCoverage {
	fc := FileCoverage{Path: path}

	// Statements, with line coverage derived from statement start lines.
	lineHits := make(map[int]bool)
	stCovered := 0
	for id, hits := range entry.S {
		if hits > 0 {
			stCovered++
		}
		if rng, ok := entry.StatementMap[id]; ok {
			line := rng.Start.Line
			if hits > 0 {
				lineHits[line] = true
			} else if _, seen := lineHits[line]; !seen {
				lineHits[line] = false
			}
		}
	}
	fc.Statements = metric(stCovered, len(entry.S))

	linesCovered := 0
	for line, covered := range lineHits {
		if covered {
			linesCovered++
		} else {
			fc.UncoveredLines = append(fc.UncoveredLines, line)
		}
	}
	sort.Ints(fc.UncoveredLines)
	fc.Lines = metric(linesCovered, len(lineHits))

	// Branches: each entry holds one counter per branch arm.
	brTotal, brCovered := 0, 0
	for _, arms := range entry.B {
		for _, hits := range arms {
			brTotal++
			if hits > 0 {
				brCovered++
			}
		}
	}
	fc.Branches = metric(brCovered, brTotal)

	fnCovered := 0
	for _, hits := range entry.F {
		if hits > 0 {
			fnCovered++
		}
	}
	fc.Functions = metric(fnCovered, len(entry.F))

	return fc
}
