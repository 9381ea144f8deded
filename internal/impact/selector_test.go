package impact

import (
	"testing"

	"tia/internal/discover"
)

func mkCase(id, file string, typ discover.TestType) discover.TestCase {
	return discover.TestCase{Id: id, Name: id, File: file, Type: typ, Status: discover.StatusUnknown}
}

func newTestSelector() *Selector {
	return NewSelector(70, 30)
}

func TestSelectTiering(t *testing.T) {
	cases := []discover.TestCase{
		mkCase("a", "src/user.test.ts", discover.TypeUnit),
		mkCase("b", "src/order.test.ts", discover.TypeUnit),
		mkCase("c", "lib/misc.test.ts", discover.TypeUnit),
	}
	scores := map[string]int{
		"src/user.test.ts":  80,
		"src/order.test.ts": 50,
		// lib/misc.test.ts absent: scores zero
	}

	sel := newTestSelector().Select(cases, scores, ExclusionSet{}, SelectOptions{
		ChangedFiles: []string{"src/user.ts"},
	})

	if len(sel.MustRun) != 1 || sel.MustRun[0].Id != "a" {
		t.Errorf("mustRun = %+v", sel.MustRun)
	}
	if len(sel.ShouldRun) != 1 || sel.ShouldRun[0].Id != "b" {
		t.Errorf("shouldRun = %+v", sel.ShouldRun)
	}
	if len(sel.CanSkip) != 1 || sel.CanSkip[0].Id != "c" {
		t.Errorf("canSkip = %+v", sel.CanSkip)
	}

	// Partition invariant: disjoint union covers all cases.
	total := len(sel.MustRun) + len(sel.ShouldRun) + len(sel.CanSkip)
	if total != len(cases) {
		t.Errorf("partition covers %d of %d cases", total, len(cases))
	}
	if sel.TotalSaved != 1 {
		t.Errorf("TotalSaved = %d, want 1", sel.TotalSaved)
	}
}

func TestSelectBoundaryScores(t *testing.T) {
	// Exactly 70 is shouldRun, exactly 30 is canSkip.
	cases := []discover.TestCase{
		mkCase("edge70", "a.test.ts", discover.TypeUnit),
		mkCase("edge30", "b.test.ts", discover.TypeUnit),
	}
	scores := map[string]int{"a.test.ts": 70, "b.test.ts": 30}

	sel := newTestSelector().Select(cases, scores, ExclusionSet{}, SelectOptions{
		ChangedFiles: []string{"x.ts"},
	})

	if len(sel.ShouldRun) != 1 || sel.ShouldRun[0].Id != "edge70" {
		t.Errorf("score 70 should be shouldRun: %+v", sel.ShouldRun)
	}
	if len(sel.CanSkip) != 1 || sel.CanSkip[0].Id != "edge30" {
		t.Errorf("score 30 should be canSkip: %+v", sel.CanSkip)
	}
}

func TestSelectExclusionsPrecedeScore(t *testing.T) {
	cases := []discover.TestCase{
		mkCase("flaky-high", "src/a.test.ts", discover.TypeUnit),
		mkCase("quarantined-high", "src/b.test.ts", discover.TypeUnit),
		mkCase("wrong-type", "src/c.test.ts", discover.TypeE2E),
	}
	scores := map[string]int{
		"src/a.test.ts": 100, "src/b.test.ts": 100, "src/c.test.ts": 100,
	}
	excl := ExclusionSet{
		FlakyIds:       map[string]bool{"flaky-high": true},
		QuarantinedIds: map[string]bool{"quarantined-high": true},
	}

	sel := newTestSelector().Select(cases, scores, excl, SelectOptions{
		ChangedFiles: []string{"src/a.ts"},
		TestTypes:    []discover.TestType{discover.TypeUnit},
	})

	if len(sel.MustRun) != 0 {
		t.Errorf("exclusions must override score, mustRun = %+v", sel.MustRun)
	}
	if len(sel.CanSkip) != 3 {
		t.Errorf("canSkip = %d, want 3", len(sel.CanSkip))
	}
}

func TestSelectIncludeFlaky(t *testing.T) {
	cases := []discover.TestCase{mkCase("f", "src/a.test.ts", discover.TypeUnit)}
	scores := map[string]int{"src/a.test.ts": 90}
	excl := ExclusionSet{FlakyIds: map[string]bool{"f": true}}

	sel := newTestSelector().Select(cases, scores, excl, SelectOptions{
		ChangedFiles: []string{"src/a.ts"},
		IncludeFlaky: true,
	})
	if len(sel.MustRun) != 1 {
		t.Errorf("includeFlaky should keep flaky tests: %+v", sel)
	}
}

func TestSelectMaxTestsCap(t *testing.T) {
	// maxTests=1 with 2 mustRun and 3 shouldRun: exactly 1 test (the
	// first mustRun); the other 4 count toward totalSaved.
	cases := []discover.TestCase{
		mkCase("m1", "hot/a.test.ts", discover.TypeUnit),
		mkCase("m2", "hot/b.test.ts", discover.TypeUnit),
		mkCase("s1", "warm/c.test.ts", discover.TypeUnit),
		mkCase("s2", "warm/d.test.ts", discover.TypeUnit),
		mkCase("s3", "warm/e.test.ts", discover.TypeUnit),
	}
	scores := map[string]int{
		"hot/a.test.ts": 90, "hot/b.test.ts": 85,
		"warm/c.test.ts": 50, "warm/d.test.ts": 45, "warm/e.test.ts": 40,
	}

	sel := newTestSelector().Select(cases, scores, ExclusionSet{}, SelectOptions{
		ChangedFiles: []string{"hot/a.ts"},
		MaxTests:     1,
	})

	if len(sel.MustRun) != 1 || sel.MustRun[0].Id != "m1" {
		t.Errorf("mustRun = %+v, want just m1", sel.MustRun)
	}
	if len(sel.ShouldRun) != 0 {
		t.Errorf("shouldRun = %+v, want empty", sel.ShouldRun)
	}
	if sel.TotalSaved != 4 {
		t.Errorf("TotalSaved = %d, want 4", sel.TotalSaved)
	}
}

func TestSelectCapFillsFromShouldRun(t *testing.T) {
	cases := []discover.TestCase{
		mkCase("m1", "hot/a.test.ts", discover.TypeUnit),
		mkCase("s1", "warm/c.test.ts", discover.TypeUnit),
		mkCase("s2", "warm/d.test.ts", discover.TypeUnit),
	}
	scores := map[string]int{
		"hot/a.test.ts": 90, "warm/c.test.ts": 50, "warm/d.test.ts": 45,
	}

	sel := newTestSelector().Select(cases, scores, ExclusionSet{}, SelectOptions{
		ChangedFiles: []string{"hot/a.ts"},
		MaxTests:     2,
	})

	if len(sel.MustRun) != 1 || len(sel.ShouldRun) != 1 {
		t.Fatalf("mustRun=%d shouldRun=%d, want 1/1", len(sel.MustRun), len(sel.ShouldRun))
	}
	if sel.ShouldRun[0].Id != "s1" {
		t.Errorf("existing shouldRun order not preserved: %+v", sel.ShouldRun)
	}
	if sel.TotalSaved != 1 {
		t.Errorf("TotalSaved = %d, want 1", sel.TotalSaved)
	}
}

func TestSelectConfidence(t *testing.T) {
	t.Run("no changed files is the degenerate 100", func(t *testing.T) {
		sel := newTestSelector().Select(nil, nil, ExclusionSet{}, SelectOptions{})
		if sel.Confidence != 100 {
			t.Errorf("Confidence = %d, want 100", sel.Confidence)
		}
	})

	t.Run("all changed files matched", func(t *testing.T) {
		cases := []discover.TestCase{mkCase("a", "src/user.test.ts", discover.TypeUnit)}
		scores := map[string]int{"src/user.test.ts": 90}
		sel := newTestSelector().Select(cases, scores, ExclusionSet{}, SelectOptions{
			ChangedFiles: []string{"src/user.ts"},
		})
		if sel.Confidence != 100 {
			t.Errorf("Confidence = %d, want 100", sel.Confidence)
		}
	})

	t.Run("no matches floors at 50", func(t *testing.T) {
		sel := newTestSelector().Select(nil, nil, ExclusionSet{}, SelectOptions{
			ChangedFiles: []string{"src/user.ts"},
		})
		if sel.Confidence != 50 {
			t.Errorf("Confidence = %d, want 50", sel.Confidence)
		}
	})
}

func TestSelectEstimatedDuration(t *testing.T) {
	c1 := mkCase("a", "x.test.ts", discover.TypeUnit)
	c1.Duration = 120
	c2 := mkCase("b", "y.test.ts", discover.TypeUnit)
	c2.Duration = 80

	scores := map[string]int{"x.test.ts": 90, "y.test.ts": 50}
	sel := newTestSelector().Select([]discover.TestCase{c1, c2}, scores, ExclusionSet{}, SelectOptions{
		ChangedFiles: []string{"x.ts"},
	})
	if sel.EstimatedDuration != 200 {
		t.Errorf("EstimatedDuration = %d, want 200", sel.EstimatedDuration)
	}
}
