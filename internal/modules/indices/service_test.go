package indices

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sector-cycles/internal/domain"
	"github.com/aristath/sector-cycles/internal/modules/prices"
	"github.com/aristath/sector-cycles/internal/modules/universe"
)

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()

	db := setupTestDB(t)
	universeRepo := universe.NewRepository(db, zerolog.Nop())
	pricesRepo := prices.NewRepository(db, zerolog.Nop())
	indexRepo := NewRepository(db, zerolog.Nop())
	builder := NewBuilder(DefaultBuilderOptions(), zerolog.Nop())
	svc := NewService(universeRepo, pricesRepo, indexRepo, builder, 2, zerolog.Nop())

	require.NoError(t, universeRepo.UpsertStocks([]domain.Stock{
		{Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: "Technology", Industry: "Consumer Electronics"},
		{Symbol: "MSFT", CompanyName: "Microsoft Corp.", Sector: "Technology", Industry: "Software"},
		{Symbol: "JPM", CompanyName: "JPMorgan Chase", Sector: "Financials", Industry: "Banks"},
	}))
	require.NoError(t, pricesRepo.UpsertPrices([]domain.PriceRecord{
		{Time: "2024-01-02", Symbol: "AAPL", ClosePrice: 185},
		{Time: "2024-01-03", Symbol: "AAPL", ClosePrice: 187},
		{Time: "2024-01-02", Symbol: "MSFT", ClosePrice: 370},
		{Time: "2024-01-03", Symbol: "MSFT", ClosePrice: 368},
		// JPM has no prices at all
	}))

	return svc, indexRepo
}

func TestService_DiscoverCategories(t *testing.T) {
	svc, _ := newTestService(t)

	keys, err := svc.DiscoverCategories()
	require.NoError(t, err)

	// 2 sectors + 3 industries + 3 sector-industry combinations
	assert.Len(t, keys, 8)

	names := make(map[string]bool, len(keys))
	for _, k := range keys {
		names[k.IndexName()] = true
	}
	assert.True(t, names["SECTOR-Technology"])
	assert.True(t, names["INDUSTRY-Software"])
	assert.True(t, names["SECTOR-INDUSTRY-Technology-Software"])
	assert.True(t, names["SECTOR-Financials"])
}

func TestService_GenerateAll_CollectsPerCategoryFailures(t *testing.T) {
	svc, repo := newTestService(t)

	result, err := svc.GenerateAll("2024-01-01", "2024-12-31")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 8, result.Processed)

	// Every JPM-only category fails on missing prices; the batch keeps
	// going and reports them
	assert.Equal(t, 5, result.Generated)
	require.Len(t, result.Failures, 3)
	assert.Equal(t, "INDUSTRY-Banks", result.Failures[0].IndexName)
	assert.Equal(t, "SECTOR-Financials", result.Failures[1].IndexName)
	assert.Equal(t, "SECTOR-INDUSTRY-Financials-Banks", result.Failures[2].IndexName)

	points, err := repo.GetPoints("SECTOR-Technology", "", "")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 1000.0, points[0].IndexValue)

	// Day two: AAPL +2/185, MSFT -2/370, equiweighted mean compounded
	expected := 1000 * (1 + ((187.0/185.0-1)+(368.0/370.0-1))/2)
	assert.InDelta(t, expected, points[1].IndexValue, 1e-9)
}

func TestService_GenerateAll_Idempotent(t *testing.T) {
	svc, repo := newTestService(t)

	first, err := svc.GenerateAll("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	second, err := svc.GenerateAll("2024-01-01", "2024-12-31")
	require.NoError(t, err)

	assert.Equal(t, first.Generated, second.Generated)
	assert.NotEqual(t, first.RunID, second.RunID)

	points, err := repo.GetPoints("SECTOR-Technology", "", "")
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestService_GenerateOne_UnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.GenerateOne(domain.CategoryKey{Type: domain.CategorySector, Sector: "Utilities"}, "", "")
	var noConstituents *NoConstituentsError
	require.ErrorAs(t, err, &noConstituents)
}
