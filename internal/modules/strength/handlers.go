package strength

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles relative strength HTTP requests
type Handler struct {
	scorer *Scorer
	log    zerolog.Logger
}

// NewHandler creates a new relative strength handler
func NewHandler(scorer *Scorer, log zerolog.Logger) *Handler {
	return &Handler{
		scorer: scorer,
		log:    log.With().Str("handler", "strength").Logger(),
	}
}

// HandleQuadrant returns quadrant points for a category snapshot.
// Query params: name (required), date (ISO, optional, defaults to the
// latest index point).
func (h *Handler) HandleQuadrant(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	date := q.Get("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			h.writeError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
			return
		}
	}

	result, err := h.scorer.Score(name, date)
	if err != nil {
		h.log.Error().Err(err).Str("index", name).Msg("Failed to score constituents")
		h.writeError(w, http.StatusInternalServerError, "failed to score constituents")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
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
