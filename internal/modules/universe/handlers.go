package universe

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Handler handles universe HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new universe handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "universe").Logger(),
	}
}

// HandleGetSectors returns all distinct sectors
func (h *Handler) HandleGetSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.repo.DistinctSectors()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch sectors")
		h.writeError(w, http.StatusInternalServerError, "failed to fetch sectors")
		return
	}

	h.writeData(w, sectors)
}

// HandleGetIndustries returns distinct industries, optionally for one sector
func (h *Handler) HandleGetIndustries(w http.ResponseWriter, r *http.Request) {
	sector := r.URL.Query().Get("sector")

	industries, err := h.repo.DistinctIndustries(sector)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch industries")
		h.writeError(w, http.StatusInternalServerError, "failed to fetch industries")
		return
	}

	h.writeData(w, industries)
}

// HandleGetCompanies returns paginated companies filtered by sector/industry
func (h *Handler) HandleGetCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.repo.ListCompanies(q.Get("sector"), q.Get("industry"), page, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch companies")
		h.writeError(w, http.StatusInternalServerError, "failed to fetch companies")
		return
	}

	h.writeData(w, map[string]interface{}{
		"companies": result.Companies,
		"pagination": map[string]int{
			"total": result.Total,
			"page":  result.Page,
			"limit": result.Limit,
			"pages": result.Pages,
		},
	})
}

// HandleSearch finds companies by name or symbol
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		h.writeError(w, http.StatusBadRequest, "query must be at least 2 characters")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.repo.Search(query, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to search companies")
		h.writeError(w, http.StatusInternalServerError, "failed to search companies")
		return
	}

	h.writeData(w, results)
}

// HandleGetStats returns universe coverage statistics
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch stats")
		h.writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}

	h.writeData(w, stats)
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, envelope{Success: false, Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
