package indices

import (
	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/modules/trend"
)

// QueryService is the read facade the presentation layer consumes.
// Lookups that match nothing return empty results, not errors; trend
// decoration is derived on read from the stored series.
type QueryService struct {
	repo       *Repository
	calculator *trend.Calculator
	classifier *trend.Classifier
	log        zerolog.Logger
}

// NewQueryService creates a new read facade
func NewQueryService(repo *Repository, cfg trend.Config, log zerolog.Logger) *QueryService {
	return &QueryService{
		repo:       repo,
		calculator: trend.NewCalculator(cfg),
		classifier: trend.NewClassifier(cfg),
		log:        log.With().Str("service", "index_query").Logger(),
	}
}

// ListTypes returns the distinct index types
func (q *QueryService) ListTypes() ([]string, error) {
	return q.repo.ListTypes()
}

// ListNames returns index names and constituent counts for a type.
// An unknown type returns an empty list.
func (q *QueryService) ListNames(indexType string) ([]NameEntry, error) {
	return q.repo.ListNames(indexType)
}

// GetSeries returns the chart series for a named index over an optional
// date range. Moving average and stage annotations are computed over
// the full stored history so range filtering never shifts the warmup
// horizon, then attached to the requested window. An unknown name
// returns an empty series.
func (q *QueryService) GetSeries(name, start, end string, includeMA, includeStage bool) ([]SeriesPoint, error) {
	category, err := q.repo.GetCategory(name)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return []SeriesPoint{}, nil
	}

	// Full history: trend metrics must see the points before the
	// requested range start (no lookahead, but full lookback)
	points, err := q.repo.GetPoints(name, "", "")
	if err != nil {
		return nil, err
	}

	var (
		metricsByDate map[string]trend.Metrics
		stagesByDate  map[string]trend.Assignment
	)
	if includeMA || includeStage {
		metrics := q.calculator.Compute(points)
		metricsByDate = make(map[string]trend.Metrics, len(metrics))
		for _, m := range metrics {
			metricsByDate[m.Date] = m
		}
		if includeStage {
			assignments := q.classifier.Classify(metrics)
			stagesByDate = make(map[string]trend.Assignment, len(assignments))
			for _, a := range assignments {
				stagesByDate[a.Date] = a
			}
		}
	}

	series := []SeriesPoint{}
	for _, p := range points {
		if start != "" && p.Time < start {
			continue
		}
		if end != "" && p.Time > end {
			continue
		}

		sp := SeriesPoint{Time: p.Time, IndexValue: p.IndexValue}
		if includeMA {
			if m, ok := metricsByDate[p.Time]; ok {
				ma := m.MovingAverage
				sp.MovingAverage = &ma
			}
		}
		if includeStage {
			if a, ok := stagesByDate[p.Time]; ok {
				stage := int(a.Stage)
				duration := a.Duration
				sp.Stage = &stage
				sp.StageDuration = &duration
			}
		}
		series = append(series, sp)
	}

	return series, nil
}

// GetMetrics returns the trend metrics sequence for a named index, or
// an empty slice when the index is unknown or too short to classify
func (q *QueryService) GetMetrics(name string) ([]trend.Metrics, error) {
	category, err := q.repo.GetCategory(name)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return []trend.Metrics{}, nil
	}

	points, err := q.repo.GetPoints(name, "", "")
	if err != nil {
		return nil, err
	}

	metrics := q.calculator.Compute(points)
	if metrics == nil {
		metrics = []trend.Metrics{}
	}
	return metrics, nil
}
