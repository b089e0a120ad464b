package indices

import "github.com/aristath/sector-cycles/internal/domain"

// Series is a freshly built index: its identity plus the ordered point
// sequence
type Series struct {
	Category domain.CategoryIndex
	Points   []domain.IndexPoint
}

// NameEntry is one index name with its constituent count, as consumed
// by the dashboard's select box
type NameEntry struct {
	IndexName        string `json:"index_name"`
	ConstituentCount int    `json:"constituent_count"`
}

// SeriesPoint is one chart point of the query facade: the index value
// plus optional trend decoration
type SeriesPoint struct {
	Time          string   `json:"time"`
	IndexValue    float64  `json:"index_value"`
	MovingAverage *float64 `json:"moving_average,omitempty"`
	Stage         *int     `json:"stage,omitempty"`
	StageDuration *int     `json:"stage_duration_periods,omitempty"`
}

// CategoryFailure records one category that failed during a batch run
type CategoryFailure struct {
	IndexName string `json:"index_name"`
	Reason    string `json:"reason"`
}

// BatchResult summarizes a generate-all run. Failures are collected per
// category; one bad category never aborts the batch.
type BatchResult struct {
	RunID      string            `json:"run_id"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
	Processed  int               `json:"processed"`
	Generated  int               `json:"generated"`
	Failures   []CategoryFailure `json:"failures"`
	DurationMS int64             `json:"duration_ms"`
}
