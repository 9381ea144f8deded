package flaky

import (
	"reflect"
	"testing"
	"time"

	"tia/internal/history"
)

func runsFromPattern(id string, pattern []bool, durations []int64, errs []string) []history.RunResult {
	base := time.Now().UTC().Add(-time.Hour)
	out := make([]history.RunResult, len(pattern))
	for i, passed := range pattern {
		r := history.RunResult{
			TestId:    id,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Passed:    passed,
			Duration:  100,
		}
		if durations != nil {
			r.Duration = durations[i]
		}
		if errs != nil && errs[i] != "" {
			r.Error = errs[i]
		}
		out[i] = r
	}
	return out
}

func defaultOpts() Options {
	return Options{HistoryDays: 30, MinRuns: 5, Threshold: 0.95}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		pattern []bool
		want    float64
	}{
		{"alternating is maximally flaky", []bool{true, false, true, false, true}, 100},
		{"no transitions", []bool{true, true, true, true}, 0},
		{"single transition over three intervals", []bool{true, true, true, false}, 100.0 / 3},
		{"single run", []bool{true}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(runsFromPattern("t", tt.pattern, nil, nil))
			if got != tt.want {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreMonotonicInTransitions(t *testing.T) {
	// Same length, same pass rate territory, more transitions must not
	// score lower.
	low := Score(runsFromPattern("t", []bool{true, true, true, false, false, false}, nil, nil))
	high := Score(runsFromPattern("t", []bool{true, false, true, false, true, false}, nil, nil))
	if high <= low {
		t.Errorf("more transitions scored lower: %v <= %v", high, low)
	}
}

func TestDetectFlagsFlaky(t *testing.T) {
	// [pass,fail,pass,fail,pass]: 4 transitions / 4 intervals = 100,
	// passRate 0.6 -> flagged since 0 < 0.6 < 0.95.
	hist := map[string][]history.RunResult{
		"t1": runsFromPattern("t1", []bool{true, false, true, false, true}, nil, nil),
	}

	got := Detect(hist, time.Now().UTC(), defaultOpts())
	if len(got) != 1 {
		t.Fatalf("detected %d, want 1", len(got))
	}
	if got[0].FlakyScore != 100 {
		t.Errorf("FlakyScore = %v, want 100", got[0].FlakyScore)
	}
	if got[0].PassRate != 0.6 {
		t.Errorf("PassRate = %v, want 0.6", got[0].PassRate)
	}
}

func TestDetectSkipsBrokenAndHealthy(t *testing.T) {
	hist := map[string][]history.RunResult{
		"broken":  runsFromPattern("broken", []bool{false, false, false, false, false}, nil, nil),
		"healthy": runsFromPattern("healthy", []bool{true, true, true, true, true}, nil, nil),
	}

	if got := Detect(hist, time.Now().UTC(), defaultOpts()); len(got) != 0 {
		t.Errorf("always-failing or always-passing flagged: %+v", got)
	}
}

func TestDetectMinRuns(t *testing.T) {
	hist := map[string][]history.RunResult{
		"t1": runsFromPattern("t1", []bool{true, false, true}, nil, nil),
	}
	if got := Detect(hist, time.Now().UTC(), defaultOpts()); len(got) != 0 {
		t.Errorf("under minRuns should be skipped: %+v", got)
	}
}

func TestDetectWindow(t *testing.T) {
	old := runsFromPattern("t1", []bool{true, false, true, false, true, false}, nil, nil)
	for i := range old {
		old[i].Timestamp = time.Now().UTC().AddDate(0, 0, -60)
	}
	hist := map[string][]history.RunResult{"t1": old}

	if got := Detect(hist, time.Now().UTC(), defaultOpts()); len(got) != 0 {
		t.Errorf("runs outside window should not qualify: %+v", got)
	}
}

func TestDetectIdempotent(t *testing.T) {
	hist := map[string][]history.RunResult{
		"t1": runsFromPattern("t1", []bool{true, false, true, false, true}, nil,
			[]string{"", "connection refused", "", "connection refused", ""}),
		"t2": runsFromPattern("t2", []bool{false, true, false, true, false, true}, nil, nil),
	}
	now := time.Now().UTC()

	first := Detect(hist, now, defaultOpts())
	second := Detect(hist, now, defaultOpts())
	if !reflect.DeepEqual(first, second) {
		t.Error("Detect is not idempotent over unchanged history")
	}
	if len(first) != 2 {
		t.Fatalf("detected %d, want 2", len(first))
	}
	// Deterministic order: score desc, then id.
	if first[0].FlakyScore < first[1].FlakyScore {
		t.Errorf("not sorted by score: %+v", first)
	}
}

func TestSuspectedCauses(t *testing.T) {
	tests := []struct {
		name string
		runs []history.RunResult
		want []Cause
	}{
		{
			"external dependency from error text",
			runsFromPattern("t", []bool{true, false, true, false, true}, nil,
				[]string{"", "connection timeout to db", "", "socket closed", ""}),
			[]Cause{CauseExternalDependency},
		},
		{
			"shared state",
			runsFromPattern("t", []bool{true, false, true, false, true}, nil,
				[]string{"", "row already exists", "", "", ""}),
			[]Cause{CauseSharedState},
		},
		{
			"random data",
			runsFromPattern("t", []bool{true, false, true, false, true}, nil,
				[]string{"", "seed 42 produced different output", "", "", ""}),
			[]Cause{CauseRandomData},
		},
		{
			"no signal defaults to timing",
			runsFromPattern("t", []bool{true, false, true, false, true}, nil, nil),
			[]Cause{CauseTiming},
		},
		{
			"duration variance implies timing",
			runsFromPattern("t", []bool{true, false, true, false, true},
				[]int64{10, 500, 12, 480, 11}, nil),
			[]Cause{CauseTiming},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suspectCauses(tt.runs)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("causes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecommendation(t *testing.T) {
	t.Run("per-cause advice concatenates", func(t *testing.T) {
		rec := recommend([]Cause{CauseTiming, CauseSharedState}, 0.8)
		if rec != recommendations[CauseTiming]+" "+recommendations[CauseSharedState] {
			t.Errorf("rec = %q", rec)
		}
	})

	t.Run("low pass rate overrides causes", func(t *testing.T) {
		rec := recommend([]Cause{CauseExternalDependency}, 0.4)
		if rec != fixOrRemoveAdvice {
			t.Errorf("rec = %q, want fix-or-remove", rec)
		}
	})
}

func TestRecentRunsCap(t *testing.T) {
	pattern := make([]bool, 30)
	for i := range pattern {
		pattern[i] = i%2 == 0
	}
	hist := map[string][]history.RunResult{"t1": runsFromPattern("t1", pattern, nil, nil)}

	got := Detect(hist, time.Now().UTC(), defaultOpts())
	if len(got) != 1 {
		t.Fatalf("detected %d, want 1", len(got))
	}
	if len(got[0].RecentRuns) != 10 {
		t.Errorf("RecentRuns = %d, want 10", len(got[0].RecentRuns))
	}
	// Most recent runs, oldest first.
	last := got[0].RecentRuns[9]
	if !last.Timestamp.After(got[0].RecentRuns[0].Timestamp) {
		t.Error("RecentRuns not chronological")
	}
}
