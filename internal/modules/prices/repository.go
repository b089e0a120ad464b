package prices

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/domain"
)

// Repository handles daily close price storage and retrieval.
// This is the only upstream data source the index engine reads from.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// UpsertPrices inserts or updates daily close observations
func (r *Repository) UpsertPrices(records []domain.PriceRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stock_prices (time, symbol, close_price)
		VALUES (?, ?, ?)
		ON CONFLICT(time, symbol) DO UPDATE SET
			close_price = excluded.close_price
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range records {
		if p.ClosePrice <= 0 {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
		if _, err := stmt.Exec(p.Time, symbol, p.ClosePrice); err != nil {
			return fmt.Errorf("failed to upsert price %s@%s: %w", symbol, p.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}

	r.log.Debug().Int("count", len(records)).Msg("Upserted price records")
	return nil
}

// History is a date-aligned close price matrix for a set of symbols.
// Closes holds one slice per symbol aligned with Dates; missing
// observations are NaN, never forward-filled.
type History struct {
	Dates   []string
	Symbols []string
	Closes  map[string][]float64
}

// HasPrice reports whether the symbol has a valid close at date index i
func (h *History) HasPrice(symbol string, i int) bool {
	series, ok := h.Closes[symbol]
	if !ok || i < 0 || i >= len(series) {
		return false
	}
	return !math.IsNaN(series[i]) && series[i] > 0
}

// GetHistory returns the pivoted close history for the given symbols
// within [start, end]. Empty start or end leaves that bound open.
// Dates carrying no observation for any requested symbol do not appear.
func (r *Repository) GetHistory(symbols []string, start, end string) (*History, error) {
	if len(symbols) == 0 {
		return &History{Closes: map[string][]float64{}}, nil
	}

	placeholders := strings.Repeat("?,", len(symbols))
	placeholders = placeholders[:len(placeholders)-1]

	query := `
		SELECT time, symbol, close_price
		FROM stock_prices
		WHERE symbol IN (` + placeholders + `)`
	args := make([]interface{}, 0, len(symbols)+2)
	for _, s := range symbols {
		args = append(args, s)
	}
	if start != "" {
		query += " AND time >= ?"
		args = append(args, start)
	}
	if end != "" {
		query += " AND time <= ?"
		args = append(args, end)
	}
	query += " ORDER BY time, symbol"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	type observation struct {
		date   string
		symbol string
		close  float64
	}

	var observations []observation
	dateSet := make(map[string]struct{})
	for rows.Next() {
		var o observation
		if err := rows.Scan(&o.date, &o.symbol, &o.close); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		observations = append(observations, o)
		dateSet[o.date] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price rows: %w", err)
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	dateIdx := make(map[string]int, len(dates))
	for i, d := range dates {
		dateIdx[d] = i
	}

	closes := make(map[string][]float64, len(symbols))
	for _, s := range symbols {
		series := make([]float64, len(dates))
		for i := range series {
			series[i] = math.NaN()
		}
		closes[s] = series
	}

	for _, o := range observations {
		if series, ok := closes[o.symbol]; ok {
			series[dateIdx[o.date]] = o.close
		}
	}

	return &History{
		Dates:   dates,
		Symbols: append([]string(nil), symbols...),
		Closes:  closes,
	}, nil
}

// ClosesUpTo returns the last limit closes for a symbol at or before
// the given date, oldest first. An empty date means up to the latest.
func (r *Repository) ClosesUpTo(symbol, date string, limit int) ([]float64, error) {
	query := "SELECT close_price FROM stock_prices WHERE symbol = ?"
	args := []interface{}{strings.ToUpper(strings.TrimSpace(symbol))}
	if date != "" {
		query += " AND time <= ?"
		args = append(args, date)
	}
	query += " ORDER BY time DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var reversed []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		reversed = append(reversed, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closes: %w", err)
	}

	// Query is newest-first; flip to chronological order
	closes := make([]float64, len(reversed))
	for i, c := range reversed {
		closes[len(reversed)-1-i] = c
	}

	return closes, nil
}

// LatestDate returns the most recent price date across all stocks,
// or empty string when no prices exist
func (r *Repository) LatestDate() (string, error) {
	var date sql.NullString
	if err := r.db.QueryRow("SELECT MAX(time) FROM stock_prices").Scan(&date); err != nil {
		return "", fmt.Errorf("failed to query latest price date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}
