package indices

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/domain"
)

// Repository handles computed index persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new index repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "indices").Logger(),
	}
}

// ReplaceSeries writes a complete index series, replacing any existing
// one in a single transaction. Readers see either the old series or the
// fully written new one, never a partial mix.
func (r *Repository) ReplaceSeries(s *Series) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := s.Category
	_, err = tx.Exec(`
		INSERT INTO category_indices
			(index_name, index_type, sector, industry, constituent_count, base_date, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_name) DO UPDATE SET
			index_type = excluded.index_type,
			sector = excluded.sector,
			industry = excluded.industry,
			constituent_count = excluded.constituent_count,
			base_date = excluded.base_date,
			generated_at = excluded.generated_at
	`, c.IndexName, string(c.IndexType), c.Sector, c.Industry, c.ConstituentCount, c.BaseDate, c.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert category index %s: %w", c.IndexName, err)
	}

	if _, err := tx.Exec("DELETE FROM index_points WHERE index_name = ?", c.IndexName); err != nil {
		return fmt.Errorf("failed to clear index points for %s: %w", c.IndexName, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO index_points (time, index_name, index_value)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range s.Points {
		if _, err := stmt.Exec(p.Time, c.IndexName, p.IndexValue); err != nil {
			return fmt.Errorf("failed to insert point %s@%s: %w", c.IndexName, p.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit series for %s: %w", c.IndexName, err)
	}

	r.log.Debug().
		Str("index", c.IndexName).
		Int("points", len(s.Points)).
		Msg("Stored index series")

	return nil
}

// ListTypes returns the distinct index types that have been materialized
func (r *Repository) ListTypes() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT index_type FROM category_indices ORDER BY index_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query index types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan index type: %w", err)
		}
		types = append(types, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index types: %w", err)
	}

	return types, nil
}

// ListNames returns index names with their constituent counts,
// optionally filtered by type. Unknown types yield an empty slice.
func (r *Repository) ListNames(indexType string) ([]NameEntry, error) {
	query := "SELECT index_name, constituent_count FROM category_indices"
	var args []interface{}
	if indexType != "" {
		query += " WHERE index_type = ?"
		args = append(args, indexType)
	}
	query += " ORDER BY index_name"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query index names: %w", err)
	}
	defer rows.Close()

	entries := []NameEntry{}
	for rows.Next() {
		var e NameEntry
		if err := rows.Scan(&e.IndexName, &e.ConstituentCount); err != nil {
			return nil, fmt.Errorf("failed to scan index name: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index names: %w", err)
	}

	return entries, nil
}

// GetCategory returns one category index, or nil when it does not exist
func (r *Repository) GetCategory(indexName string) (*domain.CategoryIndex, error) {
	var c domain.CategoryIndex
	var indexType string
	err := r.db.QueryRow(`
		SELECT index_name, index_type, COALESCE(sector, ''), COALESCE(industry, ''),
		       constituent_count, base_date, generated_at
		FROM category_indices WHERE index_name = ?
	`, indexName).Scan(&c.IndexName, &indexType, &c.Sector, &c.Industry,
		&c.ConstituentCount, &c.BaseDate, &c.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category %s: %w", indexName, err)
	}

	c.IndexType = domain.CategoryType(indexType)
	return &c, nil
}

// GetPoints returns the ordered point sequence for an index within
// [start, end]; empty bounds are open
func (r *Repository) GetPoints(indexName, start, end string) ([]domain.IndexPoint, error) {
	query := "SELECT time, index_value FROM index_points WHERE index_name = ?"
	args := []interface{}{indexName}
	if start != "" {
		query += " AND time >= ?"
		args = append(args, start)
	}
	if end != "" {
		query += " AND time <= ?"
		args = append(args, end)
	}
	query += " ORDER BY time"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query index points: %w", err)
	}
	defer rows.Close()

	points := []domain.IndexPoint{}
	for rows.Next() {
		var p domain.IndexPoint
		if err := rows.Scan(&p.Time, &p.IndexValue); err != nil {
			return nil, fmt.Errorf("failed to scan index point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index points: %w", err)
	}

	return points, nil
}
