package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mini-qna/internal/contextutil"
	"mini-qna/internal/llm"
	"mini-qna/internal/service"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "request rejected", "field", validationErr.Field, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Upstream timeout")
	case errors.Is(err, llm.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Embedding service unavailable")
	case errors.Is(err, llm.ErrEmbedding):
		writeError(w, http.StatusBadGateway, "Embedding service error")
	case errors.Is(err, service.ErrExternalService):
		writeError(w, http.StatusServiceUnavailable, "Search backend unavailable")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
