package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// TrailingReturn calculates the percentage return over the last n periods
// of a price series: prices[last] / prices[last-n] - 1.
// Returns nil if fewer than n+1 prices are available.
func TrailingReturn(prices []float64, n int) *float64 {
	if n < 1 || len(prices) < n+1 {
		return nil
	}

	base := prices[len(prices)-1-n]
	if base == 0 {
		return nil
	}

	ret := prices[len(prices)-1]/base - 1
	return &ret
}

// IsNaN checks if a float64 is NaN
func IsNaN(f float64) bool {
	return f != f
}

// AllNaN reports whether every value in the slice is NaN
func AllNaN(data []float64) bool {
	for _, v := range data {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
