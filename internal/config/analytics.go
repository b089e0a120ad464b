package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/sector-cycles/internal/modules/trend"
)

// IndexSettings tunes index construction
type IndexSettings struct {
	// Membership is "fixed" (base-date snapshot) or "daily"
	// (re-resolve contributors per day)
	Membership string `yaml:"membership"`

	// MinConstituents is the smallest constituent count a category may
	// have and still be materialized
	MinConstituents int `yaml:"min_constituents"`
}

// Analytics bundles every tunable threshold of the engine. Kept in a
// YAML file so parameter tuning and back-testing need no rebuild.
type Analytics struct {
	Index IndexSettings `yaml:"index"`
	Trend trend.Config  `yaml:"trend"`
}

// DefaultAnalytics returns the standard parameter set
func DefaultAnalytics() Analytics {
	return Analytics{
		Index: IndexSettings{
			Membership:      "fixed",
			MinConstituents: 1,
		},
		Trend: trend.DefaultConfig(),
	}
}

// LoadAnalytics reads the analytics config file. A missing file is not
// an error: defaults apply. Values absent from the file keep their
// defaults too.
func LoadAnalytics(path string) (Analytics, error) {
	cfg := DefaultAnalytics()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read analytics config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse analytics config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the analytics configuration
func (a Analytics) Validate() error {
	if a.Index.Membership != "fixed" && a.Index.Membership != "daily" {
		return fmt.Errorf("index.membership must be fixed or daily, got %q", a.Index.Membership)
	}
	if a.Index.MinConstituents < 1 {
		return fmt.Errorf("index.min_constituents must be at least 1, got %d", a.Index.MinConstituents)
	}
	return a.Trend.Validate()
}
