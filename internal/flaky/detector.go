// Package flaky computes flakiness verdicts from recorded run history.
// The flakiness signal is pass/fail transition density, not raw pass
// rate: a test that always fails is broken, not flaky.
package flaky

import (
	"sort"
	"strings"
	"time"

	"tia/internal/history"
)

// Cause enumerates suspected flakiness causes.
type Cause string

const (
	CauseTiming             Cause = "timing"
	CauseExternalDependency Cause = "external-dependency"
	CauseSharedState        Cause = "shared-state"
	CauseRandomData         Cause = "random-data"
)

// FlakyTest is a derived verdict; run history remains the source of
// truth and verdicts are recomputed on demand.
type FlakyTest struct {
	TestId string `json:"testId"`
	// FlakyScore is transition density in [0,100].
	FlakyScore float64 `json:"flakyScore"`
	PassRate   float64 `json:"passRate"`
	// RecentRuns holds up to the 10 most recent results, oldest first.
	RecentRuns      []history.RunResult `json:"recentRuns"`
	SuspectedCauses []Cause             `json:"suspectedCauses"`
	Recommendation  string              `json:"recommendation"`
}

// Options controls detection.
type Options struct {
	// HistoryDays restricts runs to a trailing window.
	HistoryDays int
	// MinRuns skips tests with fewer qualifying runs.
	MinRuns int
	// Threshold: flaky iff 0 < passRate < Threshold.
	Threshold float64
}

// Error-text vocabularies, matched as lowercase substrings.
var (
	externalDepTerms = []string{
		"timeout", "timed out", "connection", "econnrefused", "network",
		"dns", "socket", "503", "502", "unavailable",
	}
	sharedStateTerms = []string{
		"already exists", "locked", "deadlock", "conflict", "in use",
		"duplicate key", "busy",
	}
	randomDataTerms = []string{
		"random", "seed", "nondeterministic", "non-deterministic", "uuid mismatch",
	}
)

// recommendations maps each cause to fixed advice; overlapping causes
// concatenate.
var recommendations = map[Cause]string{
	CauseTiming:             "Add explicit waits or increase timeouts; avoid depending on wall-clock timing.",
	CauseExternalDependency: "Mock or stub the external dependency so the test runs hermetically.",
	CauseSharedState:        "Isolate shared state per test; reset fixtures between runs.",
	CauseRandomData:         "Pin random seeds and make assertions deterministic.",
}

const fixOrRemoveAdvice = "Pass rate is below 50%; fix the underlying failure or remove the test."

// durationVarianceRatio is the variance/mean cutoff above which timing
// is suspected.
const durationVarianceRatio = 0.5

// Detect computes flaky verdicts for every tracked test. Results are
// deterministic for unchanged history: sorted by score descending,
// then test id.
func Detect(histories map[string][]history.RunResult, now time.Time, opts Options) []FlakyTest {
	cutoff := time.Time{}
	if opts.HistoryDays > 0 {
		cutoff = now.AddDate(0, 0, -opts.HistoryDays)
	}

	var out []FlakyTest
	for id, runs := range histories {
		windowed := windowRuns(runs, cutoff)
		if len(windowed) < opts.MinRuns {
			continue
		}

		passed := 0
		for _, r := range windowed {
			if r.Passed {
				passed++
			}
		}
		passRate := float64(passed) / float64(len(windowed))

		// Always-failing is broken, always-passing is healthy; neither
		// is flaky.
		if passRate <= 0 || passRate >= opts.Threshold {
			continue
		}

		ft := FlakyTest{
			TestId:          id,
			FlakyScore:      Score(windowed),
			PassRate:        passRate,
			RecentRuns:      lastN(windowed, 10),
			SuspectedCauses: suspectCauses(windowed),
		}
		ft.Recommendation = recommend(ft.SuspectedCauses, passRate)
		out = append(out, ft)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FlakyScore != out[j].FlakyScore {
			return out[i].FlakyScore > out[j].FlakyScore
		}
		return out[i].TestId < out[j].TestId
	})
	return out
}

// Score is the pass/fail transition density of a chronological run
// sequence, scaled to [0,100]. A single run (or none) scores zero.
func Score(runs []history.RunResult) float64 {
	if len(runs) <= 1 {
		return 0
	}
	transitions := 0
	for i := 1; i < len(runs); i++ {
		if runs[i].Passed != runs[i-1].Passed {
			transitions++
		}
	}
	return float64(transitions) / float64(len(runs)-1) * 100
}

func windowRuns(runs []history.RunResult, cutoff time.Time) []history.RunResult {
	if cutoff.IsZero() {
		return runs
	}
	out := make([]history.RunResult, 0, len(runs))
	for _, r := range runs {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

func lastN(runs []history.RunResult, n int) []history.RunResult {
	if len(runs) <= n {
		return append([]history.RunResult(nil), runs...)
	}
	return append([]history.RunResult(nil), runs[len(runs)-n:]...)
}

// suspectCauses derives causes independently from duration variance
// and from error-text vocabulary matches. When nothing matches, the
// default suspicion is timing rather than an empty list.
func suspectCauses(runs []history.RunResult) []Cause {
	var causes []Cause

	if durationVariance(runs) {
		causes = append(causes, CauseTiming)
	}

	errText := strings.ToLower(collectErrors(runs))
	if matchesAny(errText, externalDepTerms) {
		causes = append(causes, CauseExternalDependency)
	}
	if matchesAny(errText, sharedStateTerms) {
		causes = append(causes, CauseSharedState)
	}
	if matchesAny(errText, randomDataTerms) {
		causes = append(causes, CauseRandomData)
	}

	if len(causes) == 0 {
		causes = append(causes, CauseTiming)
	}
	return causes
}

func durationVariance(runs []history.RunResult) bool {
	if len(runs) == 0 {
		return false
	}
	var sum float64
	for _, r := range runs {
		sum += float64(r.Duration)
	}
	mean := sum / float64(len(runs))
	if mean == 0 {
		return false
	}

	var variance float64
	for _, r := range runs {
		d := float64(r.Duration) - mean
		variance += d * d
	}
	variance /= float64(len(runs))

	return variance/mean > durationVarianceRatio
}

func collectErrors(runs []history.RunResult) string {
	var b strings.Builder
	for _, r := range runs {
		if r.Error != "" {
			b.WriteString(r.Error)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func matchesAny(text string, terms []string) bool {
	if text == "" {
		return false
	}
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func recommend(causes []Cause, passRate float64) string {
	// A mostly-failing test gets blunt advice regardless of causes.
	if passRate < 0.5 {
		return fixOrRemoveAdvice
	}
	parts := make([]string, 0, len(causes))
	for _, c := range causes {
		if advice, ok := recommendations[c]; ok {
			parts = append(parts, advice)
		}
	}
	return strings.Join(parts, " ")
}
