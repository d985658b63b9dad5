package ask

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"knowbase/internal/apperr"
	"knowbase/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("id")

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Ask(r.Context(), middleware.GetUserID(r.Context()), botID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidInput):
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		case errors.Is(err, apperr.ErrNotFound):
			h.writeError(r.Context(), w, "NOT_FOUND", "Bot not found", http.StatusNotFound)
		case errors.Is(err, apperr.ErrEmbedding), errors.Is(err, apperr.ErrRetrieval), errors.Is(err, apperr.ErrGeneration):
			// Upstream detail stays in the logs.
			slog.ErrorContext(r.Context(), "upstream failure answering question", "error", err, "bot_id", botID)
			h.writeError(r.Context(), w, "UPSTREAM_ERROR", "Upstream service unavailable", http.StatusBadGateway)
		default:
			slog.ErrorContext(r.Context(), "ask failed", "error", err, "bot_id", botID)
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
