package trend

import "math"

// Stage is one of the four Weinstein market-cycle phases
type Stage int

const (
	StageBasing   Stage = 1
	StageMarkup   Stage = 2
	StageTopping  Stage = 3
	StageMarkdown Stage = 4
)

// Label returns the human readable name of the stage
func (s Stage) Label() string {
	switch s {
	case StageBasing:
		return "basing"
	case StageMarkup:
		return "markup"
	case StageTopping:
		return "topping"
	case StageMarkdown:
		return "markdown"
	}
	return "unknown"
}

// Assignment is the stage of an index at one date. Duration counts
// consecutive periods (including the current one) holding the same stage.
type Assignment struct {
	Date     string `json:"date"`
	Stage    Stage  `json:"stage"`
	Duration int    `json:"stage_duration_periods"`
}

// Classifier assigns a stage to every date carrying trend metrics.
// Rules are evaluated in a fixed order so exactly one stage matches;
// trend-continuation signals (markup, markdown) take precedence over the
// more ambiguous basing and topping conditions. When no rule fires
// cleanly the previous stage carries over to avoid single-bar flicker.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier with the given thresholds
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify walks the metrics sequence and returns one assignment per
// record. The input must be ordered by date; there is no lookahead.
func (c *Classifier) Classify(metrics []Metrics) []Assignment {
	if len(metrics) == 0 {
		return nil
	}

	assignments := make([]Assignment, 0, len(metrics))
	var prev *Stage

	for _, m := range metrics {
		stage := c.classify(m, prev)

		duration := 1
		if n := len(assignments); n > 0 && assignments[n-1].Stage == stage {
			duration = assignments[n-1].Duration + 1
		}

		assignments = append(assignments, Assignment{
			Date:     m.Date,
			Stage:    stage,
			Duration: duration,
		})
		s := stage
		prev = &s
	}

	return assignments
}

// classify applies the ordered rule set 2 -> 4 -> 3 -> 1 and falls back
// to the previous stage, or to the price-vs-MA sign when there is none.
func (c *Classifier) classify(m Metrics, prev *Stage) Stage {
	aboveMA := m.IndexValue > m.MovingAverage
	lowVolatility := m.Volatility <= c.cfg.VolatilityCutoff

	switch {
	case aboveMA && m.Slope == SlopeRising && m.MomentumReturn >= c.cfg.MomentumStrong:
		return StageMarkup
	case !aboveMA && m.Slope == SlopeFalling && m.MomentumReturn < 0:
		return StageMarkdown
	case aboveMA && m.Slope == SlopeFlat && lowVolatility &&
		math.Abs(m.MomentumReturn) <= c.cfg.MomentumNearZero:
		return StageTopping
	case !aboveMA && m.Slope == SlopeFlat && lowVolatility:
		return StageBasing
	}

	if prev != nil {
		return *prev
	}
	if aboveMA {
		return StageTopping
	}
	return StageBasing
}
