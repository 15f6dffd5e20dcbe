package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vnadhan/Inverted-Index/internal/analytics"
	"github.com/vnadhan/Inverted-Index/internal/indexer"
	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
	"github.com/vnadhan/Inverted-Index/internal/searcher/cache"
	"github.com/vnadhan/Inverted-Index/internal/searcher/executor"
	"github.com/vnadhan/Inverted-Index/internal/searcher/parser"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
	"github.com/vnadhan/Inverted-Index/pkg/logger"
	"github.com/vnadhan/Inverted-Index/pkg/metrics"
	"github.com/vnadhan/Inverted-Index/pkg/middleware"
	"github.com/vnadhan/Inverted-Index/pkg/tracing"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// Corpus is the read side of the engine used outside of ranking.
type Corpus interface {
	Document(id int) (*document.Document, error)
	Stats() indexer.Stats
	Fingerprint() string
}

type Options struct {
	Cache        *cache.QueryCache
	Collector    *analytics.Collector
	Metrics      *metrics.Metrics
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor     SearchExecutor
	corpus       Corpus
	cache        *cache.QueryCache
	collector    *analytics.Collector
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(exec SearchExecutor, corpus Corpus, opts Options) *Handler {
	return &Handler{
		executor:     exec,
		corpus:       corpus,
		cache:        opts.Cache,
		collector:    opts.Collector,
		metrics:      opts.Metrics,
		defaultLimit: opts.DefaultLimit,
		maxResults:   opts.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search serves GET /api/v1/search?q=...&limit=N. A query with no usable
// terms answers with an empty ranking.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.Start(r.Context(), "search", middleware.GetRequestID(r.Context()))
	defer func() {
		span.End()
		span.Log(h.logger)
	}()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if h.maxResults > 0 && (limit == 0 || limit > h.maxResults) {
		limit = h.maxResults
	}

	plan := parser.Parse(query)

	var result *executor.SearchResult
	var err error
	cacheHit := false
	if h.cache != nil && plan.Type != parser.QueryEmpty {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}

	latency := time.Since(start)
	totalHits := 0
	if result != nil {
		totalHits = result.TotalHits
	}
	h.record(ctx, plan, result, cacheHit, latency, err)

	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), errorMessage(err))
		return
	}

	log.Info("search completed",
		"query", query,
		"mode", plan.Type.String(),
		"total_hits", totalHits,
		"returned", len(result.Documents),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) record(ctx context.Context, plan *parser.QueryPlan, result *executor.SearchResult, cacheHit bool, latency time.Duration, err error) {
	totalHits, returned := 0, 0
	if result != nil {
		totalHits, returned = result.TotalHits, len(result.Documents)
	}
	eventType := analytics.TypeOf(cacheHit, totalHits, err)

	if h.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.SearchQueriesTotal.WithLabelValues(plan.Type.String(), string(eventType)).Inc()
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
		if err == nil {
			h.metrics.SearchResultsCount.Observe(float64(returned))
		}
	}

	if h.collector != nil {
		event := analytics.SearchEvent{
			Type:        eventType,
			Query:       plan.RawQuery,
			Mode:        plan.Type.String(),
			Terms:       plan.Terms,
			TotalHits:   totalHits,
			Returned:    returned,
			LatencyMs:   latency.Milliseconds(),
			CacheHit:    cacheHit,
			Fingerprint: h.corpus.Fingerprint(),
			Timestamp:   time.Now().UTC(),
			RequestID:   middleware.GetRequestID(ctx),
		}
		if err != nil {
			event.Error = err.Error()
		}
		h.collector.TrackSearch(event)
	}
}

type documentResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	MaxTF     *int   `json:"max_term_frequency,omitempty"`
}

// Document serves GET /api/v1/documents/{id}.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 0 {
		h.writeError(w, http.StatusBadRequest, "document id must be a non-negative integer")
		return
	}
	doc, err := h.corpus.Document(id)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), errorMessage(err))
		return
	}
	resp := documentResponse{
		ID:        doc.ID,
		Name:      doc.Name(),
		Text:      doc.Text,
		WordCount: doc.WordCount,
	}
	if maxTF, ok := doc.MaxTermFrequency(); ok {
		resp.MaxTF = &maxTF
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Stats serves GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.corpus.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"breaker":  h.cache.BreakerState().String(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if apperrors.HTTPStatusCode(err) == http.StatusInternalServerError {
		return "search failed"
	}
	return err.Error()
}
