package strength

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/domain"
	"github.com/aristath/sector-cycles/internal/modules/indices"
	"github.com/aristath/sector-cycles/internal/modules/prices"
	"github.com/aristath/sector-cycles/internal/modules/universe"
	"github.com/aristath/sector-cycles/pkg/formulas"
)

// Scorer places a category's constituents on the momentum vs relative
// strength quadrant for one snapshot date. Stateless: every request
// recomputes from stored prices and the category's index series.
type Scorer struct {
	universe       *universe.Repository
	prices         *prices.Repository
	indexRepo      *indices.Repository
	momentumWindow int
	log            zerolog.Logger
}

// NewScorer creates a new relative strength scorer
func NewScorer(
	universeRepo *universe.Repository,
	pricesRepo *prices.Repository,
	indexRepo *indices.Repository,
	momentumWindow int,
	log zerolog.Logger,
) *Scorer {
	if momentumWindow < 1 {
		momentumWindow = 20
	}
	return &Scorer{
		universe:       universeRepo,
		prices:         pricesRepo,
		indexRepo:      indexRepo,
		momentumWindow: momentumWindow,
		log:            log.With().Str("service", "strength").Logger(),
	}
}

// Score computes one quadrant point per constituent of the named index
// at the snapshot date (empty date means the latest index point).
// Stocks lacking a full momentum window of history are excluded, never
// zero-filled. An unknown index, a date without an index point, or an
// index too young for momentum all yield an empty result.
func (s *Scorer) Score(indexName, date string) ([]domain.RelativeStrengthPoint, error) {
	category, err := s.indexRepo.GetCategory(indexName)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return []domain.RelativeStrengthPoint{}, nil
	}

	points, err := s.indexRepo.GetPoints(indexName, "", "")
	if err != nil {
		return nil, err
	}

	// Snapshot must land on an actual index point so the category
	// momentum is defined at the same date
	snapIdx := -1
	if date == "" {
		snapIdx = len(points) - 1
		if snapIdx >= 0 {
			date = points[snapIdx].Time
		}
	} else {
		for i, p := range points {
			if p.Time == date {
				snapIdx = i
				break
			}
		}
	}
	if snapIdx < s.momentumWindow {
		return []domain.RelativeStrengthPoint{}, nil
	}

	categoryMomentum := points[snapIdx].IndexValue/points[snapIdx-s.momentumWindow].IndexValue - 1

	key := domain.CategoryKey{
		Type:     category.IndexType,
		Sector:   category.Sector,
		Industry: category.Industry,
	}
	symbols, err := s.universe.SymbolsForCategory(key)
	if err != nil {
		return nil, err
	}

	stocks, err := s.universe.GetStocks(symbols)
	if err != nil {
		return nil, err
	}

	result := []domain.RelativeStrengthPoint{}
	for _, symbol := range symbols {
		closes, err := s.prices.ClosesUpTo(symbol, date, s.momentumWindow+1)
		if err != nil {
			return nil, err
		}

		momentum := formulas.TrailingReturn(closes, s.momentumWindow)
		if momentum == nil {
			// Insufficient history: excluded, not zero-filled
			continue
		}

		result = append(result, domain.RelativeStrengthPoint{
			Symbol:           symbol,
			IndexName:        indexName,
			Date:             date,
			Momentum:         *momentum,
			RelativeStrength: *momentum - categoryMomentum,
			MarketCap:        stocks[symbol].MarketCap,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RelativeStrength > result[j].RelativeStrength
	})

	return result, nil
}
