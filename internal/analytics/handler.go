package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Handler serves the aggregated analytics of one Aggregator.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/v1/analytics[?top=N]. top trims both query lists to
// at most N entries. X-Corpus-Fingerprint names the last loaded corpus when
// one is known.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := topQueriesLimit
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "top must be a positive integer"})
			return
		}
		top = n
	}

	stats := h.aggregator.Stats()
	if len(stats.TopQueries) > top {
		stats.TopQueries = stats.TopQueries[:top]
	}
	if len(stats.ZeroResultQueries) > top {
		stats.ZeroResultQueries = stats.ZeroResultQueries[:top]
	}
	if stats.Corpus != nil && stats.Corpus.Fingerprint != "" {
		w.Header().Set("X-Corpus-Fingerprint", stats.Corpus.Fingerprint)
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
