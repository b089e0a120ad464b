package trend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metricsFor builds a Metrics record that deterministically triggers the
// requested stage under DefaultConfig thresholds.
func metricsFor(stage Stage, date string) Metrics {
	switch stage {
	case StageMarkup:
		return Metrics{Date: date, IndexValue: 1100, MovingAverage: 1000,
			Slope: SlopeRising, Volatility: 0.02, MomentumReturn: 0.08}
	case StageMarkdown:
		return Metrics{Date: date, IndexValue: 900, MovingAverage: 1000,
			Slope: SlopeFalling, Volatility: 0.02, MomentumReturn: -0.05}
	case StageTopping:
		return Metrics{Date: date, IndexValue: 1010, MovingAverage: 1000,
			Slope: SlopeFlat, Volatility: 0.005, MomentumReturn: 0.01}
	default: // StageBasing
		return Metrics{Date: date, IndexValue: 990, MovingAverage: 1000,
			Slope: SlopeFlat, Volatility: 0.005, MomentumReturn: 0.0}
	}
}

func TestClassifier_Rules(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name     string
		m        Metrics
		expected Stage
	}{
		{
			name: "markup: above rising MA with strong momentum",
			m: Metrics{IndexValue: 1100, MovingAverage: 1000,
				Slope: SlopeRising, Volatility: 0.03, MomentumReturn: 0.05},
			expected: StageMarkup,
		},
		{
			name: "markup at exact momentum threshold",
			m: Metrics{IndexValue: 1100, MovingAverage: 1000,
				Slope: SlopeRising, Volatility: 0.03, MomentumReturn: 0.04},
			expected: StageMarkup,
		},
		{
			name: "markdown: below falling MA with negative momentum",
			m: Metrics{IndexValue: 900, MovingAverage: 1000,
				Slope: SlopeFalling, Volatility: 0.03, MomentumReturn: -0.02},
			expected: StageMarkdown,
		},
		{
			name: "topping: above flat MA, quiet, momentum near zero",
			m: Metrics{IndexValue: 1005, MovingAverage: 1000,
				Slope: SlopeFlat, Volatility: 0.008, MomentumReturn: -0.01},
			expected: StageTopping,
		},
		{
			name: "basing: below flat MA and quiet",
			m: Metrics{IndexValue: 995, MovingAverage: 1000,
				Slope: SlopeFlat, Volatility: 0.008, MomentumReturn: -0.05},
			expected: StageBasing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify([]Metrics{tt.m})
			require.Len(t, got, 1)
			assert.Equal(t, tt.expected, got[0].Stage)
		})
	}
}

func TestClassifier_FallbackCarriesPreviousStage(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// Second record fires no rule: above MA, rising, momentum too weak
	// for markup and too strong for topping. The markup assignment from
	// the first record must carry over.
	ambiguous := Metrics{Date: "2024-01-02", IndexValue: 1050, MovingAverage: 1000,
		Slope: SlopeRising, Volatility: 0.03, MomentumReturn: 0.02}

	got := c.Classify([]Metrics{metricsFor(StageMarkup, "2024-01-01"), ambiguous})
	require.Len(t, got, 2)
	assert.Equal(t, StageMarkup, got[1].Stage)
	assert.Equal(t, 2, got[1].Duration)
}

func TestClassifier_FallbackWithoutHistoryUsesPriceSign(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name     string
		m        Metrics
		expected Stage
	}{
		{
			name: "above MA defaults to topping",
			m: Metrics{IndexValue: 1050, MovingAverage: 1000,
				Slope: SlopeRising, Volatility: 0.03, MomentumReturn: 0.02},
			expected: StageTopping,
		},
		{
			name: "below MA defaults to basing",
			m: Metrics{IndexValue: 950, MovingAverage: 1000,
				Slope: SlopeRising, Volatility: 0.03, MomentumReturn: 0.02},
			expected: StageBasing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify([]Metrics{tt.m})
			require.Len(t, got, 1)
			assert.Equal(t, tt.expected, got[0].Stage)
		})
	}
}

func TestClassifier_DurationResetsOnStageChange(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	stages := []Stage{StageMarkup, StageMarkup, StageMarkup, StageMarkdown, StageMarkdown}
	metrics := make([]Metrics, len(stages))
	for i, s := range stages {
		metrics[i] = metricsFor(s, fmt.Sprintf("2024-01-%02d", i+1))
	}

	got := c.Classify(metrics)
	require.Len(t, got, 5)

	expectedDurations := []int{1, 2, 3, 1, 2}
	for i, a := range got {
		assert.Equal(t, stages[i], a.Stage, "stage at %d", i)
		assert.Equal(t, expectedDurations[i], a.Duration, "duration at %d", i)
	}
}

func TestClassifier_EveryRecordGetsExactlyOneStage(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// A sweep of metric combinations; every one must resolve to a stage
	// in 1..4, never zero, never ambiguous.
	var metrics []Metrics
	day := 1
	for _, value := range []float64{900, 1000.5, 1100} {
		for _, slope := range []Slope{SlopeRising, SlopeFalling, SlopeFlat} {
			for _, vol := range []float64{0.005, 0.03} {
				for _, mom := range []float64{-0.06, -0.01, 0.0, 0.01, 0.06} {
					metrics = append(metrics, Metrics{
						Date:           fmt.Sprintf("2024-%02d-%02d", 1+day/28, 1+day%28),
						IndexValue:     value,
						MovingAverage:  1000,
						Slope:          slope,
						Volatility:     vol,
						MomentumReturn: mom,
					})
					day++
				}
			}
		}
	}

	got := c.Classify(metrics)
	require.Len(t, got, len(metrics))
	for i, a := range got {
		assert.GreaterOrEqual(t, a.Stage, StageBasing, "record %d", i)
		assert.LessOrEqual(t, a.Stage, StageMarkdown, "record %d", i)
		assert.GreaterOrEqual(t, a.Duration, 1, "record %d", i)
	}
}

func TestStage_Label(t *testing.T) {
	assert.Equal(t, "basing", StageBasing.Label())
	assert.Equal(t, "markup", StageMarkup.Label())
	assert.Equal(t, "topping", StageTopping.Label())
	assert.Equal(t, "markdown", StageMarkdown.Label())
	assert.Equal(t, "unknown", Stage(0).Label())
}
