package indices

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/domain"
	"github.com/aristath/sector-cycles/internal/modules/prices"
	"github.com/aristath/sector-cycles/internal/modules/universe"
)

// Service orchestrates index generation: category discovery, building,
// and persistence
type Service struct {
	universe *universe.Repository
	prices   *prices.Repository
	repo     *Repository
	builder  *Builder
	workers  int
	log      zerolog.Logger
}

// NewService creates a new index generation service
func NewService(
	universeRepo *universe.Repository,
	pricesRepo *prices.Repository,
	repo *Repository,
	builder *Builder,
	workers int,
	log zerolog.Logger,
) *Service {
	if workers < 1 {
		workers = 4
	}
	return &Service{
		universe: universeRepo,
		prices:   pricesRepo,
		repo:     repo,
		builder:  builder,
		workers:  workers,
		log:      log.With().Str("service", "indices").Logger(),
	}
}

// DiscoverCategories enumerates every category an index can be built
// for: all sectors, all industries, and sector-industry combinations
// meeting the minimum constituent count
func (s *Service) DiscoverCategories() ([]domain.CategoryKey, error) {
	var keys []domain.CategoryKey

	sectors, err := s.universe.DistinctSectors()
	if err != nil {
		return nil, fmt.Errorf("failed to discover sectors: %w", err)
	}
	for _, sector := range sectors {
		keys = append(keys, domain.CategoryKey{Type: domain.CategorySector, Sector: sector})
	}

	industries, err := s.universe.DistinctIndustries("")
	if err != nil {
		return nil, fmt.Errorf("failed to discover industries: %w", err)
	}
	for _, industry := range industries {
		keys = append(keys, domain.CategoryKey{Type: domain.CategoryIndustry, Industry: industry})
	}

	combos, err := s.universe.Combinations(s.builder.opts.MinConstituents)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sector-industry combinations: %w", err)
	}
	for _, c := range combos {
		keys = append(keys, domain.CategoryKey{
			Type:     domain.CategorySectorIndustry,
			Sector:   c.Sector,
			Industry: c.Industry,
		})
	}

	return keys, nil
}

// GenerateAll (re)builds every discoverable index over the date range.
// Empty bounds default to the trailing year. Categories are independent
// and run on a bounded worker pool; per-category failures are collected
// into the result instead of aborting the batch. Re-running over the
// same data is idempotent.
func (s *Service) GenerateAll(start, end string) (*BatchResult, error) {
	if end == "" {
		end = time.Now().UTC().Format("2006-01-02")
	}
	if start == "" {
		endDate, err := time.Parse("2006-01-02", end)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		start = endDate.AddDate(-1, 0, 0).Format("2006-01-02")
	}

	keys, err := s.DiscoverCategories()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		RunID:     uuid.NewString(),
		StartDate: start,
		EndDate:   end,
		Processed: len(keys),
		Failures:  []CategoryFailure{},
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Int("categories", len(keys)).
		Str("start", start).
		Str("end", end).
		Msg("Starting index generation batch")

	began := time.Now()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		generated int
	)

	work := make(chan domain.CategoryKey)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range work {
				if err := s.GenerateOne(key, start, end); err != nil {
					s.log.Warn().
						Err(err).
						Str("index", key.IndexName()).
						Msg("Category generation failed")
					mu.Lock()
					result.Failures = append(result.Failures, CategoryFailure{
						IndexName: key.IndexName(),
						Reason:    err.Error(),
					})
					mu.Unlock()
					continue
				}
				mu.Lock()
				generated++
				mu.Unlock()
			}
		}()
	}

	for _, key := range keys {
		work <- key
	}
	close(work)
	wg.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].IndexName < result.Failures[j].IndexName
	})

	result.Generated = generated
	result.DurationMS = time.Since(began).Milliseconds()

	s.log.Info().
		Str("run_id", result.RunID).
		Int("generated", result.Generated).
		Int("failed", len(result.Failures)).
		Int64("duration_ms", result.DurationMS).
		Msg("Index generation batch finished")

	return result, nil
}

// GenerateOne builds and persists the index for a single category
func (s *Service) GenerateOne(key domain.CategoryKey, start, end string) error {
	symbols, err := s.universe.SymbolsForCategory(key)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	if len(symbols) == 0 {
		return &NoConstituentsError{IndexName: key.IndexName()}
	}

	hist, err := s.prices.GetHistory(symbols, start, end)
	if err != nil {
		return &UpstreamError{Err: err}
	}

	series, err := s.builder.Build(key, hist)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceSeries(series); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key.IndexName(), err)
	}

	return nil
}
