package domain

// Display band boundaries for confidence distributions. These are reporting
// knobs, deliberately separate from ConditionFitThreshold.
const (
	HighConfidenceBand   = 0.8
	MediumConfidenceBand = 0.5
)

// ConfidenceSummary aggregates confidence over a filtered set. The mean of
// an empty set is 0, never NaN; callers need no special case.
type ConfidenceSummary struct {
	Mean        float64 `json:"mean"`
	Max         float64 `json:"max"`
	Min         float64 `json:"min"`
	HighCount   int     `json:"high_count"`
	MediumCount int     `json:"medium_count"`
	LowCount    int     `json:"low_count"`
}

type VarietyCount struct {
	Variety        string  `json:"variety"`
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
}

type SubmitterCount struct {
	SubmitterID    string  `json:"submitter_id"`
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
}

type DailyCount struct {
	Date           string  `json:"date"`
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
}

type ConditionCount struct {
	Condition      Condition `json:"condition"`
	Count          int       `json:"count"`
	MeanConfidence float64   `json:"mean_confidence"`
}

type VarietyConditionCount struct {
	Variety        string    `json:"variety"`
	Condition      Condition `json:"condition"`
	Count          int       `json:"count"`
	MeanConfidence float64   `json:"mean_confidence"`
}

// Statistics bundles every aggregation over one filter, recomputed from the
// store on demand.
type Statistics struct {
	TotalCount            int                     `json:"total_count"`
	Confidence            ConfidenceSummary       `json:"confidence"`
	ByVariety             []VarietyCount          `json:"by_variety"`
	BySubmitter           []SubmitterCount        `json:"by_submitter"`
	ByDay                 []DailyCount            `json:"by_day"`
	ByCondition           []ConditionCount        `json:"by_condition"`
	ByVarietyAndCondition []VarietyConditionCount `json:"by_variety_and_condition"`
}

// Report is a rendered export of classifications and statistics.
type Report struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}
