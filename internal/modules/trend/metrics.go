package trend

import (
	"github.com/markcheno/go-talib"

	"github.com/aristath/sector-cycles/internal/domain"
	"github.com/aristath/sector-cycles/pkg/formulas"
)

// Slope classifies the direction of the moving average
type Slope string

const (
	SlopeRising  Slope = "rising"
	SlopeFalling Slope = "falling"
	SlopeFlat    Slope = "flat"
)

// Metrics is the derived trend state of an index at one date
type Metrics struct {
	Date           string  `json:"date"`
	IndexValue     float64 `json:"index_value"`
	MovingAverage  float64 `json:"moving_average"`
	Slope          Slope   `json:"ma_slope"`
	Volatility     float64 `json:"volatility"`
	MomentumReturn float64 `json:"momentum_return"`
}

// Calculator derives moving average, slope, volatility and momentum from
// an index series
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given parameters
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute returns one Metrics record per date with sufficient history.
// Dates before the warmup horizon produce no record; that is expected,
// not an error. The result is ordered by date and aligned with the tail
// of the input series.
func (c *Calculator) Compute(points []domain.IndexPoint) []Metrics {
	start := c.WarmupPeriods()
	if len(points) <= start {
		return nil
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.IndexValue
	}

	ma := talib.Sma(values, c.cfg.Window)
	returns := formulas.CalculateReturns(values)

	metrics := make([]Metrics, 0, len(points)-start)
	for i := start; i < len(points); i++ {
		// Relative MA change over the look-back, symmetric deadband
		slope := SlopeFlat
		prevMA := ma[i-c.cfg.SlopeLookback]
		if prevMA != 0 {
			change := (ma[i] - prevMA) / prevMA
			switch {
			case change > c.cfg.SlopeDeadband:
				slope = SlopeRising
			case change < -c.cfg.SlopeDeadband:
				slope = SlopeFalling
			}
		}

		// Dispersion of daily returns over the trailing window; returns
		// are scale free so the measure is comparable across indices
		window := returns[i-c.cfg.Window : i]
		volatility := formulas.StdDev(window)

		momentum := values[i]/values[i-c.cfg.MomentumWindow] - 1

		metrics = append(metrics, Metrics{
			Date:           points[i].Time,
			IndexValue:     values[i],
			MovingAverage:  ma[i],
			Slope:          slope,
			Volatility:     volatility,
			MomentumReturn: momentum,
		})
	}

	return metrics
}

// WarmupPeriods returns the index of the first point that can carry a
// full Metrics record. Every component must be defined: the moving
// average needs Window points, the slope needs the MA SlopeLookback
// periods earlier, and momentum needs MomentumWindow prior points.
func (c *Calculator) WarmupPeriods() int {
	warmup := c.cfg.Window - 1 + c.cfg.SlopeLookback
	if c.cfg.MomentumWindow > warmup {
		warmup = c.cfg.MomentumWindow
	}
	return warmup
}
