package impact

import (
	"strings"

	"tia/internal/discover"
)

// Selector tiers discovered test cases by the impact score of their
// owning file, honoring exclusion rules and a result cap.
type Selector struct {
	mustRunThreshold   int
	shouldRunThreshold int
}

// NewSelector creates a Selector with the given tier cut-offs
// (impact score > mustRun lands in mustRun; > shouldRun in shouldRun).
func NewSelector(mustRunThreshold, shouldRunThreshold int) *Selector {
	return &Selector{
		mustRunThreshold:   mustRunThreshold,
		shouldRunThreshold: shouldRunThreshold,
	}
}

// ExclusionSet answers whether a test must be force-routed to canSkip.
// Exclusions take precedence over any impact score.
type ExclusionSet struct {
	// FlakyIds holds tests currently flagged flaky above threshold.
	FlakyIds map[string]bool
	// QuarantinedIds holds explicitly quarantined test identities.
	QuarantinedIds map[string]bool
}

// Select partitions cases into tiers. fileScores maps a test file path
// to its impact score; files absent from the map score zero.
func (s *Selector) Select(cases []discover.TestCase, fileScores map[string]int, excl ExclusionSet, opts SelectOptions) Selection {
	typeAllowed := buildTypeFilter(opts.TestTypes)

	var sel Selection
	for _, tc := range cases {
		// Forced exclusions, checked before tiering.
		switch {
		case typeAllowed != nil && !typeAllowed[tc.Type]:
			sel.CanSkip = append(sel.CanSkip, tc)
			continue
		case !opts.IncludeFlaky && excl.FlakyIds[tc.Id]:
			sel.CanSkip = append(sel.CanSkip, tc)
			continue
		case excl.QuarantinedIds[tc.Id]:
			sel.CanSkip = append(sel.CanSkip, tc)
			continue
		}

		score := fileScores[tc.File]
		switch {
		case score > s.mustRunThreshold:
			sel.MustRun = append(sel.MustRun, tc)
		case score > s.shouldRunThreshold:
			sel.ShouldRun = append(sel.ShouldRun, tc)
		default:
			sel.CanSkip = append(sel.CanSkip, tc)
		}
	}

	truncated := s.applyCap(&sel, opts.MaxTests)

	sel.TotalSaved = len(sel.CanSkip) + truncated
	sel.EstimatedDuration = sumDurations(sel.MustRun) + sumDurations(sel.ShouldRun)
	sel.Confidence = confidence(opts.ChangedFiles, sel.MustRun, sel.ShouldRun)
	return sel
}

// applyCap truncates mustRun+shouldRun to maxTests, preserving all of
// mustRun first, then shouldRun in existing order. Returns how many
// cases were cut; those count only toward TotalSaved.
func (s *Selector) applyCap(sel *Selection, maxTests int) int {
	if maxTests <= 0 {
		return 0
	}
	selected := len(sel.MustRun) + len(sel.ShouldRun)
	if selected <= maxTests {
		return 0
	}

	truncated := selected - maxTests
	if len(sel.MustRun) >= maxTests {
		sel.MustRun = sel.MustRun[:maxTests]
		sel.ShouldRun = nil
	} else {
		sel.ShouldRun = sel.ShouldRun[:maxTests-len(sel.MustRun)]
	}
	return truncated
}

// confidence is 100 with no changed files (every test is trivially
// "impacted" then; an explicit degenerate case). Otherwise 50 plus up
// to 50 proportional to the fraction of changed files with a direct
// filename match among the selected tests.
func confidence(changedFiles []string, mustRun, shouldRun []discover.TestCase) int {
	if len(changedFiles) == 0 {
		return 100
	}

	matched := 0
	for _, changed := range changedFiles {
		base := baseName(changed)
		if base == "" {
			continue
		}
		if anyFileMatches(base, mustRun) || anyFileMatches(base, shouldRun) {
			matched++
		}
	}
	return 50 + int(50*float64(matched)/float64(len(changedFiles)))
}

func anyFileMatches(base string, cases []discover.TestCase) bool {
	for _, tc := range cases {
		if strings.Contains(baseName(tc.File), base) {
			return true
		}
	}
	return false
}

func buildTypeFilter(types []discover.TestType) map[discover.TestType]bool {
	if len(types) == 0 {
		return nil
	}
	allowed := make(map[discover.TestType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return allowed
}

func sumDurations(cases []discover.TestCase) int64 {
	var total int64
	for _, tc := range cases {
		total += tc.Duration
	}
	return total
}
