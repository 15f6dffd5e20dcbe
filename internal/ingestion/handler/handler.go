package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vnadhan/Inverted-Index/internal/ingestion"
	"github.com/vnadhan/Inverted-Index/internal/ingestion/validator"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
	"github.com/vnadhan/Inverted-Index/pkg/logger"
)

// maxBodyBytes caps a publish request.
const maxBodyBytes = 16 << 20

// CorpusPublisher is satisfied by *publisher.Publisher.
type CorpusPublisher interface {
	Publish(ctx context.Context, docs []string) (*ingestion.PublishResponse, error)
}

type Handler struct {
	publisher CorpusPublisher
	logger    *slog.Logger
}

func New(pub CorpusPublisher) *Handler {
	return &Handler{
		publisher: pub,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// Publish serves POST /api/v1/documents.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req ingestion.PublishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidatePublishRequest(&req); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.publisher.Publish(ctx, req.Documents)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("publishing failed",
			"error", err,
			"status_code", statusCode,
		)
		if resp != nil && resp.Stored {
			h.writeJSON(w, statusCode, map[string]any{
				"error":   "documents stored but not published",
				"row_ids": resp.RowIDs,
			})
			return
		}
		h.writeError(w, statusCode, "publishing failed")
		return
	}
	log.Info("documents published",
		"accepted", resp.Accepted,
		"stored", resp.Stored,
		"published", resp.Published,
	)
	h.writeJSON(w, http.StatusAccepted, resp)
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
