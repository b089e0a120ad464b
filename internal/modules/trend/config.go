package trend

import "fmt"

// Config holds the tunable parameters for trend metrics and stage
// classification. Thresholds live here, not in code, so they can be
// adjusted for back-testing without a rebuild.
type Config struct {
	// Window is the moving average / volatility window in trading days
	Window int `yaml:"window"`

	// SlopeLookback is how many periods back the moving average is
	// compared against when classifying its slope
	SlopeLookback int `yaml:"slope_lookback"`

	// SlopeDeadband is the relative MA change below which the slope is
	// considered flat. Applied symmetrically around zero.
	SlopeDeadband float64 `yaml:"slope_deadband"`

	// VolatilityCutoff is the trailing return stddev below which
	// volatility counts as low (basing / topping conditions)
	VolatilityCutoff float64 `yaml:"volatility_cutoff"`

	// MomentumWindow is the trailing return window in trading days
	MomentumWindow int `yaml:"momentum_window"`

	// MomentumStrong is the trailing return above which momentum counts
	// as strongly positive (markup condition)
	MomentumStrong float64 `yaml:"momentum_strong"`

	// MomentumNearZero bounds the band in which momentum counts as
	// near zero (topping condition)
	MomentumNearZero float64 `yaml:"momentum_near_zero"`
}

// DefaultConfig returns the standard parameter set
func DefaultConfig() Config {
	return Config{
		Window:           30,
		SlopeLookback:    4,
		SlopeDeadband:    0.001,
		VolatilityCutoff: 0.012,
		MomentumWindow:   20,
		MomentumStrong:   0.04,
		MomentumNearZero: 0.015,
	}
}

// Validate checks the configuration for usable values
func (c Config) Validate() error {
	if c.Window < 2 {
		return fmt.Errorf("window must be at least 2, got %d", c.Window)
	}
	if c.SlopeLookback < 1 {
		return fmt.Errorf("slope_lookback must be at least 1, got %d", c.SlopeLookback)
	}
	if c.SlopeDeadband <= 0 {
		return fmt.Errorf("slope_deadband must be positive, got %f", c.SlopeDeadband)
	}
	if c.VolatilityCutoff <= 0 {
		return fmt.Errorf("volatility_cutoff must be positive, got %f", c.VolatilityCutoff)
	}
	if c.MomentumWindow < 1 {
		return fmt.Errorf("momentum_window must be at least 1, got %d", c.MomentumWindow)
	}
	if c.MomentumStrong <= 0 {
		return fmt.Errorf("momentum_strong must be positive, got %f", c.MomentumStrong)
	}
	if c.MomentumNearZero <= 0 {
		return fmt.Errorf("momentum_near_zero must be positive, got %f", c.MomentumNearZero)
	}
	return nil
}
