package indices

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles index HTTP requests
type Handler struct {
	query *QueryService
	svc   *Service
	log   zerolog.Logger
}

// NewHandler creates a new index handler
func NewHandler(query *QueryService, svc *Service, log zerolog.Logger) *Handler {
	return &Handler{
		query: query,
		svc:   svc,
		log:   log.With().Str("handler", "indices").Logger(),
	}
}

// HandleListTypes returns the distinct index types
func (h *Handler) HandleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.query.ListTypes()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list index types")
		h.writeError(w, http.StatusInternalServerError, "failed to list index types")
		return
	}

	h.writeData(w, types)
}

// HandleListNames returns index names (with constituent counts) for a
// type. An unknown type yields an empty list, not an error.
func (h *Handler) HandleListNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.query.ListNames(r.URL.Query().Get("type"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list index names")
		h.writeError(w, http.StatusInternalServerError, "failed to list index names")
		return
	}

	h.writeData(w, names)
}

// HandleGetSeries returns the chart series for a named index.
// Query params: name (required), start, end (ISO dates, optional),
// include (comma list of "ma" and "stage", optional).
func (h *Handler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	start := q.Get("start")
	end := q.Get("end")
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			h.writeError(w, http.StatusBadRequest, "dates must be formatted YYYY-MM-DD")
			return
		}
	}

	var includeMA, includeStage bool
	for _, part := range strings.Split(q.Get("include"), ",") {
		switch strings.TrimSpace(part) {
		case "ma", "moving_average":
			includeMA = true
		case "stage", "stages":
			includeStage = true
		}
	}

	series, err := h.query.GetSeries(name, start, end, includeMA, includeStage)
	if err != nil {
		h.log.Error().Err(err).Str("index", name).Msg("Failed to fetch index series")
		h.writeError(w, http.StatusInternalServerError, "failed to fetch index series")
		return
	}

	h.writeData(w, series)
}

// HandleGenerate triggers a full regeneration batch. Synchronous and
// potentially long-running; per-category failures are reported in the
// result instead of failing the request.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.svc.GenerateAll(q.Get("start"), q.Get("end"))
	if err != nil {
		h.log.Error().Err(err).Msg("Index generation batch failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeData(w, result)
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
