package indices

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/domain"
	"github.com/aristath/sector-cycles/internal/modules/prices"
	"github.com/aristath/sector-cycles/pkg/formulas"
)

// BaseValue is the index level on the base date, exactly
const BaseValue = 1000.0

// MembershipMode controls how the constituent set is resolved per day
type MembershipMode string

const (
	// MembershipFixed snapshots the constituent set on the base date;
	// stocks entering the category later never contribute
	MembershipFixed MembershipMode = "fixed"

	// MembershipDaily re-resolves contributors every day: any category stock
	// with valid prices on t-1 and t contributes
	MembershipDaily MembershipMode = "daily"
)

// Valid reports whether the mode is recognized
func (m MembershipMode) Valid() bool {
	return m == MembershipFixed || m == MembershipDaily
}

// BuilderOptions tunes index construction
type BuilderOptions struct {
	Membership      MembershipMode
	MinConstituents int
}

// DefaultBuilderOptions returns the standard construction parameters
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		Membership:      MembershipFixed,
		MinConstituents: 1,
	}
}

// Builder turns a category's raw price history into a compounded
// equiweighted index series anchored at BaseValue. Building is a pure
// computation: same inputs always produce the same series.
type Builder struct {
	opts BuilderOptions
	log  zerolog.Logger
}

// NewBuilder creates a builder with the given options
func NewBuilder(opts BuilderOptions, log zerolog.Logger) *Builder {
	if !opts.Membership.Valid() {
		opts.Membership = MembershipFixed
	}
	if opts.MinConstituents < 1 {
		opts.MinConstituents = 1
	}
	return &Builder{
		opts: opts,
		log:  log.With().Str("component", "index_builder").Logger(),
	}
}

// Build produces the ordered IndexPoint sequence for one category.
//
// The base date is the first date on which at least one constituent has
// a valid close; the index value there is exactly BaseValue. Each later
// date compounds by the cross-sectional mean of the daily returns of
// constituents priced on both t-1 and t. Dates where no constituent has
// a valid return emit no point; compounding resumes from the last known
// value without fabricating a synthetic point.
func (b *Builder) Build(key domain.CategoryKey, hist *prices.History) (*Series, error) {
	indexName := key.IndexName()

	if len(hist.Symbols) == 0 {
		return nil, &NoConstituentsError{IndexName: indexName}
	}
	if len(hist.Dates) == 0 {
		return nil, fmt.Errorf("building %s: %w", indexName, ErrNoPriceData)
	}

	// Base date: first date carrying any valid close
	baseIdx := -1
	for i := range hist.Dates {
		for _, symbol := range hist.Symbols {
			if hist.HasPrice(symbol, i) {
				baseIdx = i
				break
			}
		}
		if baseIdx >= 0 {
			break
		}
	}
	if baseIdx < 0 {
		return nil, fmt.Errorf("building %s: %w", indexName, ErrNoPriceData)
	}

	// Constituent count is fixed at creation: the stocks contributing
	// on the base date
	var constituents []string
	for _, symbol := range hist.Symbols {
		if hist.HasPrice(symbol, baseIdx) {
			constituents = append(constituents, symbol)
		}
	}
	if len(constituents) == 0 {
		return nil, &NoConstituentsError{IndexName: indexName}
	}
	if len(constituents) < b.opts.MinConstituents {
		return nil, &BelowMinimumError{
			IndexName: indexName,
			Count:     len(constituents),
			Minimum:   b.opts.MinConstituents,
		}
	}

	contributors := constituents
	if b.opts.Membership == MembershipDaily {
		contributors = hist.Symbols
	}

	points := make([]domain.IndexPoint, 0, len(hist.Dates)-baseIdx)
	points = append(points, domain.IndexPoint{
		Time:       hist.Dates[baseIdx],
		IndexValue: BaseValue,
	})

	value := BaseValue
	for i := baseIdx + 1; i < len(hist.Dates); i++ {
		var returns []float64
		for _, symbol := range contributors {
			if !hist.HasPrice(symbol, i) || !hist.HasPrice(symbol, i-1) {
				continue
			}
			prev := hist.Closes[symbol][i-1]
			returns = append(returns, hist.Closes[symbol][i]/prev-1)
		}

		// No valid return on this date: skip it, the last value carries
		// forward implicitly
		if len(returns) == 0 {
			continue
		}

		value *= 1 + formulas.Mean(returns)
		points = append(points, domain.IndexPoint{
			Time:       hist.Dates[i],
			IndexValue: value,
		})
	}

	b.log.Debug().
		Str("index", indexName).
		Int("constituents", len(constituents)).
		Int("points", len(points)).
		Msg("Built index series")

	return &Series{
		Category: domain.CategoryIndex{
			IndexName:        indexName,
			IndexType:        key.Type,
			Sector:           key.Sector,
			Industry:         key.Industry,
			ConstituentCount: len(constituents),
			BaseDate:         hist.Dates[baseIdx],
			GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
		},
		Points: points,
	}, nil
}
