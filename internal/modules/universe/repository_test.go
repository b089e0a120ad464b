package universe

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sector-cycles/internal/database"
	"github.com/aristath/sector-cycles/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func seedUniverse(t *testing.T, repo *Repository) {
	t.Helper()
	require.NoError(t, repo.UpsertStocks([]domain.Stock{
		{Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: "Technology", Industry: "Consumer Electronics", MarketCap: 3e12},
		{Symbol: "MSFT", CompanyName: "Microsoft Corp.", Sector: "Technology", Industry: "Software", MarketCap: 2.8e12},
		{Symbol: "ORCL", CompanyName: "Oracle Corp.", Sector: "Technology", Industry: "Software", MarketCap: 4e11},
		{Symbol: "JPM", CompanyName: "JPMorgan Chase", Sector: "Financials", Industry: "Banks", MarketCap: 5e11},
		{Symbol: "XOM", CompanyName: "Exxon Mobil", Sector: "Energy", Industry: "Oil and Gas", MarketCap: 4.5e11},
	}))
}

func TestRepository_UpsertStocks_NormalizesSymbols(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.UpsertStocks([]domain.Stock{
		{Symbol: " aapl ", CompanyName: "Apple Inc.", Sector: "Technology"},
		{Symbol: ""}, // skipped
	}))

	stocks, err := repo.GetStocks([]string{"AAPL"})
	require.NoError(t, err)
	require.Contains(t, stocks, "AAPL")
	assert.Equal(t, "Apple Inc.", stocks["AAPL"].CompanyName)
}

func TestRepository_UpsertStocks_UpdatesExisting(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.UpsertStocks([]domain.Stock{
		{Symbol: "AAPL", CompanyName: "Apple", Sector: "Tech", MarketCap: 1e12},
	}))
	require.NoError(t, repo.UpsertStocks([]domain.Stock{
		{Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: "Technology", MarketCap: 3e12},
	}))

	stocks, err := repo.GetStocks([]string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "Technology", stocks["AAPL"].Sector)
	assert.Equal(t, 3e12, stocks["AAPL"].MarketCap)
}

func TestRepository_DistinctSectors(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	sectors, err := repo.DistinctSectors()
	require.NoError(t, err)
	assert.Equal(t, []string{"Energy", "Financials", "Technology"}, sectors)
}

func TestRepository_DistinctIndustries(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	all, err := repo.DistinctIndustries("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Banks", "Consumer Electronics", "Oil and Gas", "Software"}, all)

	tech, err := repo.DistinctIndustries("Technology")
	require.NoError(t, err)
	assert.Equal(t, []string{"Consumer Electronics", "Software"}, tech)
}

func TestRepository_Combinations_MinCount(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	combos, err := repo.Combinations(2)
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, "Technology", combos[0].Sector)
	assert.Equal(t, "Software", combos[0].Industry)
	assert.Equal(t, 2, combos[0].Count)

	combos, err = repo.Combinations(1)
	require.NoError(t, err)
	assert.Len(t, combos, 4)
}

func TestRepository_SymbolsForCategory(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	tests := []struct {
		name     string
		key      domain.CategoryKey
		expected []string
	}{
		{
			name:     "sector",
			key:      domain.CategoryKey{Type: domain.CategorySector, Sector: "Technology"},
			expected: []string{"AAPL", "MSFT", "ORCL"},
		},
		{
			name:     "industry",
			key:      domain.CategoryKey{Type: domain.CategoryIndustry, Industry: "Software"},
			expected: []string{"MSFT", "ORCL"},
		},
		{
			name:     "sector and industry",
			key:      domain.CategoryKey{Type: domain.CategorySectorIndustry, Sector: "Technology", Industry: "Software"},
			expected: []string{"MSFT", "ORCL"},
		},
		{
			name:     "unknown sector",
			key:      domain.CategoryKey{Type: domain.CategorySector, Sector: "Utilities"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbols, err := repo.SymbolsForCategory(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, symbols)
		})
	}
}

func TestRepository_ListCompanies_Pagination(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	page, err := repo.ListCompanies("", "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Companies, 2)
	assert.Equal(t, "Apple Inc.", page.Companies[0].CompanyName)

	last, err := repo.ListCompanies("", "", 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Companies, 1)
}

func TestRepository_ListCompanies_SectorFilter(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	page, err := repo.ListCompanies("Technology", "Software", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, c := range page.Companies {
		assert.Equal(t, "Software", c.Industry)
	}
}

func TestRepository_Search_PrefixMatchesFirst(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	results, err := repo.Search("M", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Symbol prefix match ranks above a name-substring match
	assert.Equal(t, "MSFT", results[0].Symbol)
}

func TestRepository_Search_NoMatches(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	results, err := repo.Search("ZZZZZZ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestRepository_GetStats(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	seedUniverse(t, repo)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalStocks)
	assert.Equal(t, 5, stats.StocksWithSector)
	assert.Equal(t, 3, stats.UniqueSectors)
	assert.Equal(t, 4, stats.UniqueIndustries)
	require.NotEmpty(t, stats.TopSectors)
	assert.Equal(t, "Technology", stats.TopSectors[0].Sector)
	assert.Equal(t, 3, stats.TopSectors[0].Count)
}
