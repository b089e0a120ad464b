package domain

import "fmt"

// CategoryType identifies how stocks are grouped into an index
type CategoryType string

const (
	CategorySector         CategoryType = "sector"
	CategoryIndustry       CategoryType = "industry"
	CategorySectorIndustry CategoryType = "sector_industry"
)

// Valid reports whether the category type is one of the known groupings
func (t CategoryType) Valid() bool {
	switch t {
	case CategorySector, CategoryIndustry, CategorySectorIndustry:
		return true
	}
	return false
}

// CategoryKey identifies one grouping of stocks (sector, industry, or both)
type CategoryKey struct {
	Type     CategoryType
	Sector   string
	Industry string
}

// IndexName returns the stored identifier for the category's index.
// The type prefix is part of the identifier, not display formatting.
func (k CategoryKey) IndexName() string {
	switch k.Type {
	case CategorySector:
		return fmt.Sprintf("SECTOR-%s", k.Sector)
	case CategoryIndustry:
		return fmt.Sprintf("INDUSTRY-%s", k.Industry)
	default:
		return fmt.Sprintf("SECTOR-INDUSTRY-%s-%s", k.Sector, k.Industry)
	}
}

// Stock represents stock metadata in the universe
type Stock struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"company_name,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	Industry    string  `json:"industry,omitempty"`
	MarketCap   float64 `json:"market_cap,omitempty"`
}

// PriceRecord is one daily close observation for a stock.
// Dates are ISO strings (YYYY-MM-DD), immutable once recorded.
type PriceRecord struct {
	Time       string  `json:"time"`
	Symbol     string  `json:"symbol"`
	ClosePrice float64 `json:"close_price"`
}

// CategoryIndex identifies one equiweighted index.
// ConstituentCount is the number of stocks contributing on the base date
// and is fixed at creation.
type CategoryIndex struct {
	IndexName        string       `json:"index_name"`
	IndexType        CategoryType `json:"index_type"`
	Sector           string       `json:"sector,omitempty"`
	Industry         string       `json:"industry,omitempty"`
	ConstituentCount int          `json:"constituent_count"`
	BaseDate         string       `json:"base_date"`
	GeneratedAt      string       `json:"generated_at"`
}

// IndexPoint is one daily value of an index series
type IndexPoint struct {
	Time       string  `json:"time"`
	IndexValue float64 `json:"index_value"`
}

// RelativeStrengthPoint places one stock on the momentum vs relative
// strength quadrant for a category snapshot. Computed on demand,
// never persisted.
type RelativeStrengthPoint struct {
	Symbol           string  `json:"symbol"`
	IndexName        string  `json:"index_name"`
	Date             string  `json:"date"`
	Momentum         float64 `json:"momentum"`
	RelativeStrength float64 `json:"relative_strength"`
	MarketCap        float64 `json:"market_cap,omitempty"`
}
