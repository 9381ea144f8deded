package coverage

// Metric is one normalized coverage measurement.
type Metric struct {
	Total      int     `json:"total"`
	Covered    int     `json:"covered"`
	Percentage float64 `json:"percentage"`
}

// FileCoverage is the normalized per-file coverage record.
type FileCoverage struct {
	Path       string `json:"path"`
	Lines      Metric `json:"lines"`
	Branches   Metric `json:"branches"`
	Functions  Metric `json:"functions"`
	Statements Metric `json:"statements"`
	// UncoveredLines lists line numbers with zero hits, ascending.
	UncoveredLines []int `json:"uncoveredLines,omitempty"`
}

// Report is the unified coverage model produced from any supported
// artifact format.
type Report struct {
	// Format names the artifact shape the report was parsed from.
	Format string `json:"format"`
	// Files is keyed by normalized file path.
	Files map[string]FileCoverage `json:"files"`
	// Totals aggregates every file.
	Totals struct {
		Lines      Metric `json:"lines"`
		Branches   Metric `json:"branches"`
		Functions  Metric `json:"functions"`
		Statements Metric `json:"statements"`
	} `json:"totals"`
}

// Risk tiers a coverage gap by how far below threshold the file sits.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Gap is a file whose line coverage falls below the caller's minimum.
type Gap struct {
	File string `json:"file"`
	// Lines lists uncovered line numbers.
	Lines []int `json:"lines,omitempty"`
	// Functions counts uncovered functions.
	Functions  int     `json:"functions"`
	Percentage float64 `json:"percentage"`
	Risk       Risk    `json:"risk"`
	Suggestion string  `json:"suggestion"`
}

// pct computes covered/total*100 with an explicit zero-total rule:
// a metric with no entries is 0%, never NaN.
func pct(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(covered) / float64(total) * 100
}

func metric(covered, total int) Metric {
	return Metric{Total: total, Covered: covered, Percentage: pct(covered, total)}
}
