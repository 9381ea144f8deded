package mcp

import (
	"context"
	"time"

	"tia/internal/discover"
	"tia/internal/history"
	"tia/internal/impact"
)

// Tool is one tool exposed via MCP.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolHandler executes a tool call.
type ToolHandler func(params map[string]interface{}) (interface{}, error)

// ToolDefinitions returns all tool definitions.
func (s *Server) ToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "discoverTests",
			Description: "Scan the repository for test files and per-file test counts",
			InputSchema: objectSchema(map[string]interface{}{
				"framework": map[string]interface{}{
					"type":        "string",
					"description": "Framework override (jest, vitest, mocha, pytest, gotest, junit); empty autodetects",
				},
				"include": stringArraySchema("Keep only paths containing one of these substrings"),
				"exclude": stringArraySchema("Drop paths containing any of these substrings"),
			}, nil),
		},
		{
			Name:        "analyzeTestFile",
			Description: "Extract individual test cases from one test file, with type, tags and history aggregates",
			InputSchema: objectSchema(map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Repo-relative test file path",
				},
			}, []string{"path"}),
		},
		{
			Name:        "selectTests",
			Description: "Tier the suite into mustRun, shouldRun and canSkip for a changeset",
			InputSchema: objectSchema(map[string]interface{}{
				"changedFiles": stringArraySchema("Changed file paths"),
				"includeFlaky": map[string]interface{}{
					"type":        "boolean",
					"default":     false,
					"description": "Keep flaky tests in selection",
				},
				"maxTests": map[string]interface{}{
					"type":        "integer",
					"description": "Cap mustRun+shouldRun; mustRun wins on overflow",
				},
				"testTypes": stringArraySchema("Keep only these test types (unit, integration, e2e, performance, snapshot)"),
			}, nil),
		},
		{
			Name:        "getImpactedTests",
			Description: "Score every test file against changed files, highest impact first",
			InputSchema: objectSchema(map[string]interface{}{
				"changedFiles": stringArraySchema("Changed file paths"),
			}, []string{"changedFiles"}),
		},
		{
			Name:        "detectFlakyTests",
			Description: "Detect flaky tests from run history over a trailing window",
			InputSchema: objectSchema(map[string]interface{}{
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Trailing window in days; 0 uses the configured default",
				},
			}, nil),
		},
		{
			Name:        "quarantineTest",
			Description: "Exclude a test from selection until released; history is untouched",
			InputSchema: objectSchema(map[string]interface{}{
				"testId": map[string]interface{}{"type": "string"},
				"reason": map[string]interface{}{"type": "string"},
			}, []string{"testId"}),
		},
		{
			Name:        "unquarantineTest",
			Description: "Release a quarantined test back into selection",
			InputSchema: objectSchema(map[string]interface{}{
				"testId": map[string]interface{}{"type": "string"},
			}, []string{"testId"}),
		},
		{
			Name:        "analyzeCoverage",
			Description: "Normalize a coverage artifact (istanbul or lcov) into the unified report model",
			InputSchema: objectSchema(map[string]interface{}{
				"reportPath": map[string]interface{}{
					"type":        "string",
					"description": "Artifact path; empty probes the configured search paths",
				},
			}, nil),
		},
		{
			Name:        "findCoverageGaps",
			Description: "List files below the minimum line coverage, worst first",
			InputSchema: objectSchema(map[string]interface{}{
				"minCoverage": map[string]interface{}{
					"type":        "number",
					"description": "Threshold percent; 0 uses the configured default",
				},
				"focusFiles": stringArraySchema("Restrict to paths containing one of these substrings"),
			}, nil),
		},
		{
			Name:        "getTestHealth",
			Description: "Compute the composite suite health score with recommendations",
			InputSchema: objectSchema(map[string]interface{}{}, nil),
		},
		{
			Name:        "recordTestRun",
			Description: "Append a batch of test run results to history",
			InputSchema: objectSchema(map[string]interface{}{
				"results": map[string]interface{}{
					"type":        "array",
					"description": "Run results: {testId, passed, durationMs, error}",
					"items":       map[string]interface{}{"type": "object"},
				},
			}, []string{"results"}),
		},
		{
			Name:        "getTestHistory",
			Description: "Fetch run history for one test or the whole suite",
			InputSchema: objectSchema(map[string]interface{}{
				"testId": map[string]interface{}{
					"type":        "string",
					"description": "Test identity; empty returns every tracked test",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Trailing window in days; 0 uses the configured default",
				},
			}, nil),
		},
	}
}

func (s *Server) registerTools() {
	s.tools["discoverTests"] = s.toolDiscoverTests
	s.tools["analyzeTestFile"] = s.toolAnalyzeTestFile
	s.tools["selectTests"] = s.toolSelectTests
	s.tools["getImpactedTests"] = s.toolGetImpactedTests
	s.tools["detectFlakyTests"] = s.toolDetectFlakyTests
	s.tools["quarantineTest"] = s.toolQuarantineTest
	s.tools["unquarantineTest"] = s.toolUnquarantineTest
	s.tools["analyzeCoverage"] = s.toolAnalyzeCoverage
	s.tools["findCoverageGaps"] = s.toolFindCoverageGaps
	s.tools["getTestHealth"] = s.toolGetTestHealth
	s.tools["recordTestRun"] = s.toolRecordTestRun
	s.tools["getTestHistory"] = s.toolGetTestHistory
}

func (s *Server) toolDiscoverTests(params map[string]interface{}) (interface{}, error) {
	files, err := s.engine.DiscoverTests(context.Background(), discover.Options{
		Framework: parseFramework(stringParam(params, "framework")),
		Include:   stringSliceParam(params, "include"),
		Exclude:   stringSliceParam(params, "exclude"),
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"testFiles": files, "count": len(files)}, nil
}

func (s *Server) toolAnalyzeTestFile(params map[string]interface{}) (interface{}, error) {
	cases, err := s.engine.AnalyzeTestFile(context.Background(), stringParam(params, "path"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"testCases": cases, "count": len(cases)}, nil
}

func (s *Server) toolSelectTests(params map[string]interface{}) (interface{}, error) {
	return s.engine.SelectTests(context.Background(), impact.SelectOptions{
		ChangedFiles: stringSliceParam(params, "changedFiles"),
		IncludeFlaky: boolParam(params, "includeFlaky"),
		MaxTests:     intParam(params, "maxTests"),
		TestTypes:    testTypesParam(params, "testTypes"),
	})
}

func (s *Server) toolGetImpactedTests(params map[string]interface{}) (interface{}, error) {
	impacted, err := s.engine.GetImpactedTests(context.Background(), stringSliceParam(params, "changedFiles"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"impactedTests": impacted, "count": len(impacted)}, nil
}

func (s *Server) toolDetectFlakyTests(params map[string]interface{}) (interface{}, error) {
	flakies, err := s.engine.DetectFlakyTests(context.Background(), intParam(params, "days"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"flakyTests": flakies, "count": len(flakies)}, nil
}

func (s *Server) toolQuarantineTest(params map[string]interface{}) (interface{}, error) {
	testId := stringParam(params, "testId")
	if err := s.engine.QuarantineTest(testId, stringParam(params, "reason")); err != nil {
		return nil, err
	}
	return map[string]interface{}{"testId": testId, "quarantined": true}, nil
}

func (s *Server) toolUnquarantineTest(params map[string]interface{}) (interface{}, error) {
	testId := stringParam(params, "testId")
	if err := s.engine.UnquarantineTest(testId); err != nil {
		return nil, err
	}
	return map[string]interface{}{"testId": testId, "quarantined": false}, nil
}

func (s *Server) toolAnalyzeCoverage(params map[string]interface{}) (interface{}, error) {
	report, err := s.engine.AnalyzeCoverage(context.Background(), stringParam(params, "reportPath"))
	if err != nil {
		return nil, err
	}
	if report == nil {
		return map[string]interface{}{"report": nil, "found": false}, nil
	}
	return map[string]interface{}{"report": report, "found": true}, nil
}

func (s *Server) toolFindCoverageGaps(params map[string]interface{}) (interface{}, error) {
	gaps, err := s.engine.FindCoverageGaps(context.Background(),
		floatParam(params, "minCoverage"),
		stringSliceParam(params, "focusFiles"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"gaps": gaps, "count": len(gaps)}, nil
}

func (s *Server) toolGetTestHealth(params map[string]interface{}) (interface{}, error) {
	return s.engine.GetTestHealth(context.Background())
}

func (s *Server) toolRecordTestRun(params map[string]interface{}) (interface{}, error) {
	raw, _ := params["results"].([]interface{})
	results := make([]history.RunResult, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		run := history.RunResult{
			TestId:   stringParam(m, "testId"),
			Passed:   boolParam(m, "passed"),
			Duration: int64(intParam(m, "durationMs")),
			Error:    stringParam(m, "error"),
		}
		if ts := stringParam(m, "timestamp"); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				run.Timestamp = t
			}
		}
		results = append(results, run)
	}
	batchId := s.engine.RecordTestRun(results)
	return map[string]interface{}{"batchId": batchId, "recorded": len(results)}, nil
}

func (s *Server) toolGetTestHistory(params map[string]interface{}) (interface{}, error) {
	histories := s.engine.GetTestHistory(stringParam(params, "testId"), intParam(params, "days"))
	return map[string]interface{}{"histories": histories, "tests": len(histories)}, nil
}
