package impact

import "tia/internal/discover"

// Fixed scoring weights for relating a test file to a changed file.
// Contributions are additive across changed files and capped at 100.
const (
	// weightContentRef: the test's content references the changed
	// file's base name.
	weightContentRef = 50
	// weightSameDir: the test lives in the changed file's directory.
	weightSameDir = 20
	// weightSameModule: the test shares the changed file's top-level
	// path segment.
	weightSameModule = 10

	// maxScore is the monotonic cap on any impact score.
	maxScore = 100
)

// ImpactedTest reports how strongly one test file relates to a set of
// changed files. Ephemeral; recomputed per request.
type ImpactedTest struct {
	TestId string `json:"testId"`
	File   string `json:"file"`
	// ImpactScore is in [0,100]; zero-score files are never reported.
	ImpactScore int    `json:"impactScore"`
	Reason      string `json:"reason"`
	// ChangedFiles is the subset of the input that actually matched.
	ChangedFiles []string `json:"changedFiles"`
}

// Selection partitions the discovered test set into run tiers.
// Before any cap is applied the three tiers are pairwise disjoint and
// cover every discovered case.
type Selection struct {
	MustRun   []discover.TestCase `json:"mustRun"`
	ShouldRun []discover.TestCase `json:"shouldRun"`
	CanSkip   []discover.TestCase `json:"canSkip"`
	// TotalSaved counts skipped cases, including any truncated by the
	// max-tests cap (those are not re-inserted into CanSkip).
	TotalSaved int `json:"totalSaved"`
	// EstimatedDuration is the summed known duration of selected
	// cases, in milliseconds.
	EstimatedDuration int64 `json:"estimatedDurationMs"`
	// Confidence is a heuristic in [0,100].
	Confidence int `json:"confidence"`
}

// SelectOptions controls test selection.
type SelectOptions struct {
	ChangedFiles []string
	IncludeFlaky bool
	// MaxTests caps mustRun+shouldRun when positive.
	MaxTests int
	// TestTypes keeps only the listed types when non-empty.
	TestTypes []discover.TestType
}
