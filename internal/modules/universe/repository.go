package universe

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/domain"
)

// Repository handles stock metadata database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new stock metadata repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "universe").Logger(),
	}
}

// UpsertStocks inserts or updates stock metadata
func (r *Repository) UpsertStocks(stocks []domain.Stock) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stocks (symbol, company_name, sector, industry, market_cap)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			company_name = excluded.company_name,
			sector = excluded.sector,
			industry = excluded.industry,
			market_cap = excluded.market_cap,
			updated_at = datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stock upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stocks {
		symbol := strings.ToUpper(strings.TrimSpace(s.Symbol))
		if symbol == "" {
			continue
		}
		if _, err := stmt.Exec(symbol, s.CompanyName, s.Sector, s.Industry, s.MarketCap); err != nil {
			return fmt.Errorf("failed to upsert stock %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock upsert: %w", err)
	}

	r.log.Debug().Int("count", len(stocks)).Msg("Upserted stocks")
	return nil
}

// DistinctSectors returns all non-empty sectors, ordered by name
func (r *Repository) DistinctSectors() ([]string, error) {
	return r.distinctColumn(`
		SELECT DISTINCT sector FROM stocks
		WHERE sector IS NOT NULL AND sector != ''
		ORDER BY sector
	`)
}

// DistinctIndustries returns all non-empty industries, optionally
// restricted to one sector, ordered by name
func (r *Repository) DistinctIndustries(sector string) ([]string, error) {
	if sector != "" {
		rows, err := r.db.Query(`
			SELECT DISTINCT industry FROM stocks
			WHERE sector = ? AND industry IS NOT NULL AND industry != ''
			ORDER BY industry
		`, sector)
		if err != nil {
			return nil, fmt.Errorf("failed to query industries: %w", err)
		}
		return scanStrings(rows)
	}

	return r.distinctColumn(`
		SELECT DISTINCT industry FROM stocks
		WHERE industry IS NOT NULL AND industry != ''
		ORDER BY industry
	`)
}

// Combination is a sector-industry pair with its stock count
type Combination struct {
	Sector   string
	Industry string
	Count    int
}

// Combinations returns sector-industry pairs having at least minCount
// stocks, ordered by sector then industry
func (r *Repository) Combinations(minCount int) ([]Combination, error) {
	rows, err := r.db.Query(`
		SELECT sector, industry, COUNT(*) AS stock_count
		FROM stocks
		WHERE sector IS NOT NULL AND sector != ''
		  AND industry IS NOT NULL AND industry != ''
		GROUP BY sector, industry
		HAVING COUNT(*) >= ?
		ORDER BY sector, industry
	`, minCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query combinations: %w", err)
	}
	defer rows.Close()

	var combos []Combination
	for rows.Next() {
		var c Combination
		if err := rows.Scan(&c.Sector, &c.Industry, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan combination: %w", err)
		}
		combos = append(combos, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating combinations: %w", err)
	}

	return combos, nil
}

// SymbolsForCategory resolves the constituent stock set for a category
func (r *Repository) SymbolsForCategory(key domain.CategoryKey) ([]string, error) {
	var (
		where string
		args  []interface{}
	)

	switch key.Type {
	case domain.CategorySector:
		where = "sector = ?"
		args = []interface{}{key.Sector}
	case domain.CategoryIndustry:
		where = "industry = ?"
		args = []interface{}{key.Industry}
	case domain.CategorySectorIndustry:
		where = "sector = ? AND industry = ?"
		args = []interface{}{key.Sector, key.Industry}
	default:
		return nil, fmt.Errorf("unknown category type: %s", key.Type)
	}

	rows, err := r.db.Query("SELECT symbol FROM stocks WHERE "+where+" ORDER BY symbol", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category symbols: %w", err)
	}
	return scanStrings(rows)
}

// GetStocks returns metadata for the given symbols keyed by symbol
func (r *Repository) GetStocks(symbols []string) (map[string]domain.Stock, error) {
	if len(symbols) == 0 {
		return map[string]domain.Stock{}, nil
	}

	placeholders := strings.Repeat("?,", len(symbols))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, len(symbols))
	for i, s := range symbols {
		args[i] = s
	}

	rows, err := r.db.Query(`
		SELECT symbol, COALESCE(company_name, ''), COALESCE(sector, ''),
		       COALESCE(industry, ''), COALESCE(market_cap, 0)
		FROM stocks WHERE symbol IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := make(map[string]domain.Stock)
	for rows.Next() {
		var s domain.Stock
		if err := rows.Scan(&s.Symbol, &s.CompanyName, &s.Sector, &s.Industry, &s.MarketCap); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks[s.Symbol] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// CompanyPage is one page of stock metadata plus pagination totals
type CompanyPage struct {
	Companies []domain.Stock `json:"companies"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
	Pages     int            `json:"pages"`
}

// ListCompanies returns stocks filtered by sector and/or industry,
// paginated and ordered by company name (symbol when the name is empty)
func (r *Repository) ListCompanies(sector, industry string, page, limit int) (*CompanyPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	var (
		conditions []string
		args       []interface{}
	)
	if sector != "" {
		conditions = append(conditions, "sector = ?")
		args = append(args, sector)
	}
	if industry != "" {
		conditions = append(conditions, "industry = ?")
		args = append(args, industry)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM stocks "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	query := `
		SELECT symbol, COALESCE(company_name, ''), COALESCE(sector, ''),
		       COALESCE(industry, ''), COALESCE(market_cap, 0)
		FROM stocks ` + where + `
		ORDER BY CASE WHEN company_name IS NOT NULL AND company_name != ''
		         THEN company_name ELSE symbol END
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	companies := []domain.Stock{}
	for rows.Next() {
		var s domain.Stock
		if err := rows.Scan(&s.Symbol, &s.CompanyName, &s.Sector, &s.Industry, &s.MarketCap); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating companies: %w", err)
	}

	return &CompanyPage{
		Companies: companies,
		Total:     total,
		Page:      page,
		Limit:     limit,
		Pages:     (total + limit - 1) / limit,
	}, nil
}

// Search finds stocks by symbol or company name substring, symbol
// prefix matches first
func (r *Repository) Search(query string, limit int) ([]domain.Stock, error) {
	if limit < 1 {
		limit = 20
	}

	like := "%" + query + "%"
	prefix := query + "%"

	rows, err := r.db.Query(`
		SELECT symbol, COALESCE(company_name, ''), COALESCE(sector, ''),
		       COALESCE(industry, ''), COALESCE(market_cap, 0)
		FROM stocks
		WHERE symbol LIKE ? OR company_name LIKE ?
		ORDER BY
			CASE
				WHEN symbol LIKE ? THEN 1
				WHEN company_name LIKE ? THEN 2
				ELSE 3
			END,
			CASE WHEN company_name IS NOT NULL AND company_name != ''
			THEN company_name ELSE symbol END
		LIMIT ?
	`, like, like, prefix, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stocks: %w", err)
	}
	defer rows.Close()

	results := []domain.Stock{}
	for rows.Next() {
		var s domain.Stock
		if err := rows.Scan(&s.Symbol, &s.CompanyName, &s.Sector, &s.Industry, &s.MarketCap); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// Stats summarizes universe coverage
type Stats struct {
	TotalStocks      int           `json:"total_stocks"`
	StocksWithSector int           `json:"stocks_with_sector"`
	UniqueSectors    int           `json:"unique_sectors"`
	UniqueIndustries int           `json:"unique_industries"`
	TopSectors       []SectorCount `json:"top_sectors"`
}

// SectorCount is a sector with its stock count
type SectorCount struct {
	Sector string `json:"sector"`
	Count  int    `json:"count"`
}

// GetStats returns universe coverage statistics
func (r *Repository) GetStats() (*Stats, error) {
	stats := &Stats{TopSectors: []SectorCount{}}

	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN sector IS NOT NULL AND sector != '' THEN 1 END),
			COUNT(DISTINCT sector),
			COUNT(DISTINCT industry)
		FROM stocks
	`).Scan(&stats.TotalStocks, &stats.StocksWithSector, &stats.UniqueSectors, &stats.UniqueIndustries)
	if err != nil {
		return nil, fmt.Errorf("failed to query universe stats: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT sector, COUNT(*) AS count
		FROM stocks
		WHERE sector IS NOT NULL AND sector != ''
		GROUP BY sector
		ORDER BY count DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top sectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc SectorCount
		if err := rows.Scan(&sc.Sector, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sector count: %w", err)
		}
		stats.TopSectors = append(stats.TopSectors, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top sectors: %w", err)
	}

	return stats, nil
}

func (r *Repository) distinctColumn(query string) ([]string, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating values: %w", err)
	}

	return values, nil
}
